// Command errfmt runs the error formatting HTTP server and formats failures
// from the command line.
package main

import (
	"context"
	"os"

	"github.com/deppfellow/errfmt/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "errfmt",
		Short:        "Uniform JSON error responses for HTTP APIs",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults to $"+config.FileEnv+")")

	root.AddCommand(
		newServeCmd(&configPath),
		newFormatCmd(&configPath),
	)

	return root
}
