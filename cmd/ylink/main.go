// Command ylink is a link-editor and librarian for the ASCII object text
// format spec.md §4.1 defines. main.go owns process exit and argument
// parsing; every other package in the repo is a library with no os.Exit
// calls of its own, matching the teacher's main.go/library split.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ylink: %v\n", err)
		os.Exit(1)
	}
}
