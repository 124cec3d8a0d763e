// Command poolctl is a demo/operational CLI exercising the poolz public
// surface, in the spirit of zoobzio-pipz's cmd tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:     "poolctl",
		Short:   "Drive and inspect a self-tuning worker pool",
		Long:    "poolctl runs interactive demonstrations of the poolz self-tuning worker pool, exercising growth, parking, queue extension, and graceful shutdown.",
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
}
