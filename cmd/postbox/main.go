// ABOUTME: Entry point for the postbox binary.
// ABOUTME: Executes the root Cobra command and reports failures through the printer.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printer().Error("%v", err)
		os.Exit(1)
	}
}
