// SPDX-License-Identifier: EPL-2.0

// Command rtmix plays and renders sound files through the rtmix engine.
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
