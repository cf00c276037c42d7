// Command panelctl reads and changes the panel's reports and accounts from
// a terminal, through the same projection engine the web dashboards use.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
