// Emerald - search-grounded security reports for a host and its open ports.
//
// Usage:
//
//	emerald serve --config emerald.yaml
//	emerald scan --ip 203.0.113.10 --mode full
//	emerald scan --json --output report.json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
