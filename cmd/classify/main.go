package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/doc-classifier/internal/config"
	"github.com/kirillkom/doc-classifier/internal/observability/logging"
)

const (
	serviceName = "classifier-cli"
	version     = "0.1.0"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "classify",
		Short:         "Classify documents into the configured taxonomy",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newFileCommand())
	cmd.AddCommand(newMCPCommand())
	return cmd
}

// loadRuntime reads the environment configuration. Logs go to stderr so
// stdout stays reserved for results and the MCP stdio transport.
func loadRuntime() (config.Config, *slog.Logger) {
	cfg := config.Load()
	return cfg, logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
}
