// Command diskaudit reports storage usage, duplicate files and the largest
// files of a directory tree.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/idelchi/diskaudit/internal/cli"
	"github.com/idelchi/diskaudit/internal/diskaudit"
)

// version is set at build time.
var version = "unknown - unofficial & generated by unknown"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "diskaudit: %v\n", err)

		var rootErr *diskaudit.InvalidRootError
		if errors.As(err, &rootErr) {
			os.Exit(2)
		}

		os.Exit(1)
	}
}
