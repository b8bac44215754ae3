package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion,
	}
}

func runVersion(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "mqcodec\n")
	fmt.Fprintf(out, "Version:    %s\n", Version)
	fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
