// cmd/taskcal/main.go
//
// This is the entry point for the taskcal CLI.

package main

import (
	"fmt"
	"os"

	"github.com/kingrea/taskcal/internal/cmd"
)

var (
	version string
	commit  string
	date    string
)

func main() {
	err := cmd.Execute(os.Args, cmd.BuildArgs{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "taskcal: %s\n", err.Error())
		os.Exit(1)
	}
}
