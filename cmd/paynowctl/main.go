// Command paynowctl signs and verifies Paynow payloads and runs read-only calls
// against the Paynow V3 API.
package main

import (
	"fmt"
	"os"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
