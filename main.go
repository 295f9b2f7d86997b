package main

import (
	"fmt"
	"os"

	"github.com/konflux-ci/compliance-scans/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the konflux-compliance command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
