package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/doc-classifier/internal/adapters/mcp"
	"github.com/kirillkom/doc-classifier/internal/bootstrap"
	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

func newFileCommand() *cobra.Command {
	var declaredMIME string
	cmd := &cobra.Command{
		Use:   "file <path>...",
		Short: "Classify local files and print one JSON verdict per line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger := loadRuntime()
			app, err := bootstrap.New(ctx, cfg, serviceName, logger)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			return classifyFiles(ctx, app.Classifier, args, declaredMIME, cfg.MaxUploadBytes, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&declaredMIME, "mime", "", "Declared MIME type applied to every file")
	return cmd
}

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the classifier as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := loadRuntime()
			app, err := bootstrap.New(cmd.Context(), cfg, serviceName, logger)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			srv := mcpadapter.NewServer(app.Classifier, app.Classifier, mcpadapter.Options{
				MaxFileBytes: cfg.MaxUploadBytes,
				Logger:       logger,
			})
			return srv.ServeStdio(serviceName, version)
		},
	}
}

type fileVerdict struct {
	Path      string      `json:"path"`
	FileClass string      `json:"file_class,omitempty"`
	Tier      domain.Tier `json:"tier,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// classifyFiles keeps going past unreadable files and reports them inline;
// only a pipeline fault aborts the run.
func classifyFiles(ctx context.Context, classifier ports.DocumentClassifier, paths []string, declaredMIME string, maxBytes int64, out io.Writer) error {
	enc := json.NewEncoder(out)
	for _, path := range paths {
		result := fileVerdict{Path: path}
		doc, err := readFile(path, declaredMIME, maxBytes)
		if err != nil {
			result.Error = err.Error()
		} else {
			verdict, err := classifier.Classify(ctx, doc)
			if err != nil {
				return fmt.Errorf("classify %s: %w", path, err)
			}
			result.FileClass = verdict.Category
			result.Tier = verdict.Tier
		}
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

func readFile(path, declaredMIME string, maxBytes int64) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, err
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return domain.Document{}, fmt.Errorf("file too large: %d bytes exceeds %d", info.Size(), maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{
		Filename:     filepath.Base(path),
		DeclaredMIME: declaredMIME,
		Data:         data,
	}, nil
}
