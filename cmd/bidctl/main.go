// Command bidctl drives the bidding backend from a terminal: project
// listing and status transitions, token management and file upload.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
