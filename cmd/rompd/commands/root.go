// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package commands implements rompd's cobra command tree.
package commands

import "github.com/spf13/cobra"

var (
	// Version is injected at build time.
	Version = "dev"

	configFile string
)

var rootCmd = &cobra.Command{
	Use:           "rompd",
	Short:         "ROMP registered-object server",
	Long:          `rompd accepts ROMP connections and dispatches REQUEST/ONEWAY calls against objects registered in its process.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./rompd.yaml or /etc/rompd/rompd.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print rompd's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println(Version)
		return nil
	},
}
