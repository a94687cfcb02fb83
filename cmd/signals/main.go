// Command signals demonstrates synchronous in-process change notification:
// blocking dispatch, same-goroutine execution and rollback of handler writes.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
