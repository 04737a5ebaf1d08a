// Command bench drives the checked queue: a short demo of its FIFO contract
// and a timed producer/consumer benchmark whose results are appended to a
// JSON report.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
