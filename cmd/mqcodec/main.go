package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mqcodec",
		Short:         "Fixed-width MQ message codec",
		Long:          "Encode, decode and inspect fixed-width MQ banking messages described by service schemas.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newBatchCmd(),
		newDescribeCmd(),
		newExportCmd(),
		newSkeletonCmd(),
		newCheckCmd(),
		newVersionCmd(),
	)

	// Global flags
	rootCmd.PersistentFlags().String("config", "mqcodec.yaml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "enable pretty logging")

	// Schema flags
	rootCmd.PersistentFlags().String("header", "", "header structure file (json or yaml)")
	rootCmd.PersistentFlags().String("service", "", "service structure file (json or yaml)")

	// Processing flags
	rootCmd.PersistentFlags().Int("concurrency", 0, "messages processed at once by batch")
	rootCmd.PersistentFlags().Bool("metrics", false, "print codec metrics to stderr when done")

	return rootCmd
}
