// Package main provides the workbench binary entry point.
// Workbench is a design-artifact workflow manager: it tracks artifacts
// through typed workflows, serves them over a REST API, and projects
// their relationships as a graph.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/c360studio/workbench/commands"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
