// The main package for the jobscraper executable.
package main

import (
	"github.com/jobsignal/jobscraper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
