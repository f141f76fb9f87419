// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command rompbench drives load against a running rompd instance and
// reports call latency percentiles, exercising spec.md §8 scenario S1
// (echo) under concurrency.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rompbench",
		Short:         "Load-test a ROMP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEchoCmd())
	return root
}
