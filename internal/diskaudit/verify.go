package diskaudit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
)

// sameContent reports whether the files at a and b hold identical bytes.
// Both files are read in ChunkSize steps.
func sameContent(ctx context.Context, a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, &UnreadableFileError{Path: a, Err: err}
	}
	defer fa.Close()

	fb, err := os.Open(b)
	if err != nil {
		return false, &UnreadableFileError{Path: b, Err: err}
	}
	defer fb.Close()

	bufA := make([]byte, ChunkSize)
	bufB := make([]byte, ChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		na, errA := io.ReadFull(fa, bufA)
		if errA != nil && !errors.Is(errA, io.EOF) && !errors.Is(errA, io.ErrUnexpectedEOF) {
			return false, &UnreadableFileError{Path: a, Err: errA}
		}

		nb, errB := io.ReadFull(fb, bufB)
		if errB != nil && !errors.Is(errB, io.EOF) && !errors.Is(errB, io.ErrUnexpectedEOF) {
			return false, &UnreadableFileError{Path: b, Err: errB}
		}

		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}

		if errA != nil || errB != nil {
			return errA != nil && errB != nil, nil
		}
	}
}

// verifyGroups splits every group into partitions of byte-identical files.
// Partitions with a single member are dropped. A member that cannot be read
// is dropped from its group and reported as a warning. The order of groups
// and of members is preserved.
func verifyGroups(ctx context.Context, groups []DuplicateGroup) ([]DuplicateGroup, []Warning, error) {
	var (
		out      = make([]DuplicateGroup, 0, len(groups))
		warnings []Warning
	)

	for _, g := range groups {
		var parts [][]string

		// read holds the members that took part in a successful comparison.
		read := make(map[string]bool, len(g.Paths))

	members:
		for _, path := range g.Paths {
			for i := 0; i < len(parts); i++ {
				part := parts[i]
				if len(part) == 0 {
					continue
				}

				same, err := sameContent(ctx, part[0], path)
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return nil, nil, cancelled(ctxErr)
					}

					warnings = append(warnings, Warning{Path: unreadablePath(err, path), Message: err.Error()})

					if unreadablePath(err, path) == part[0] {
						// Retry this partition with its next member.
						parts[i] = part[1:]
						i--

						continue
					}

					continue members
				}

				read[part[0]], read[path] = true, true

				if same {
					parts[i] = append(part, path)

					continue members
				}
			}

			parts = append(parts, []string{path})
		}

		for _, part := range parts {
			if len(part) >= 2 {
				out = append(out, DuplicateGroup{Digest: g.Digest, Size: g.Size, Paths: part})

				continue
			}

			if len(part) == 1 && !read[part[0]] {
				if err := checkReadable(part[0]); err != nil {
					warnings = append(warnings, Warning{Path: part[0], Message: err.Error()})
				}
			}
		}
	}

	return out, warnings, nil
}

// checkReadable opens and closes path.
func checkReadable(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return &UnreadableFileError{Path: path, Err: err}
	}

	return file.Close()
}

// unreadablePath returns the path named by an UnreadableFileError, or fallback.
func unreadablePath(err error, fallback string) string {
	var ufe *UnreadableFileError
	if errors.As(err, &ufe) {
		return ufe.Path
	}

	return fallback
}
