package diskaudit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// ChunkSize is the read buffer size used when hashing file contents.
const ChunkSize = 8192

// HashAlgorithm names a content digest function.
type HashAlgorithm string

const (
	// SHA256 is the default, collision-resistant digest.
	SHA256 HashAlgorithm = "sha256"
	// XXH3 is a fast 64-bit non-cryptographic digest. Collisions are possible
	// on large trees; pair it with Options.Verify when that matters.
	XXH3 HashAlgorithm = "xxh3"
)

// HashAlgorithms lists the supported digest names.
//
//nolint:gochecknoglobals // Lookup table
var HashAlgorithms = []HashAlgorithm{SHA256, XXH3}

// Digest is the content hash of a file.
type Digest []byte

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d)
}

// MarshalText encodes the digest as hex for JSON and YAML output.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (a HashAlgorithm) new() (hash.Hash, error) {
	switch a {
	case SHA256, "":
		return sha256.New(), nil
	case XXH3:
		return xxh3.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", string(a))
	}
}

// Hasher computes content digests by streaming a file through a fixed buffer.
// A Hasher is not safe for concurrent use; each worker owns one.
type Hasher struct {
	algorithm HashAlgorithm
	h         hash.Hash
	buf       []byte
}

// NewHasher returns a Hasher for the given algorithm.
func NewHasher(algorithm HashAlgorithm) (*Hasher, error) {
	h, err := algorithm.new()
	if err != nil {
		return nil, err
	}

	return &Hasher{algorithm: algorithm, h: h, buf: make([]byte, ChunkSize)}, nil
}

// Sum returns the digest of the file at path. ctx is checked between chunks,
// so a deadline bounds the read. Any failure is an *UnreadableFileError.
func (hs *Hasher) Sum(ctx context.Context, path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableFileError{Path: path, Err: err}
	}
	defer file.Close()

	hs.h.Reset()

	for {
		if err := ctx.Err(); err != nil {
			return nil, &UnreadableFileError{Path: path, Err: err}
		}

		n, err := file.Read(hs.buf)
		if n > 0 {
			hs.h.Write(hs.buf[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &UnreadableFileError{Path: path, Err: err}
		}
	}

	return hs.h.Sum(nil), nil
}
