// Command invrollup rolls up file-server inventory extracts into per-folder
// storage summaries.
package main

import (
	"os"

	"github.com/eunmann/inv-rollup/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
