// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command honeycomb runs a demonstration module pipeline over the
// concurrency substrate: a producer, a transform stage, and an audit
// stage coordinated by the dependency scheduler, with cooperative
// termination on interrupt.
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
