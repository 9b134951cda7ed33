package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
)

const (
	ToolClassifyDocument = "classify_document"
	ToolListCategories   = "list_categories"

	defaultMaxFileBytes = 10 * 1024 * 1024
)

type Options struct {
	MaxFileBytes int64
	Logger       *slog.Logger
}

// Server exposes the classification pipeline as MCP tools over local files.
type Server struct {
	classifier ports.DocumentClassifier
	taxonomy   ports.TaxonomyReader
	maxBytes   int64
	logger     *slog.Logger
}

func NewServer(classifier ports.DocumentClassifier, taxonomy ports.TaxonomyReader, opts Options) *Server {
	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxFileBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		classifier: classifier,
		taxonomy:   taxonomy,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

func (s *Server) MCPServer(name, version string) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	mcpServer.AddTool(
		mcp.NewTool(ToolClassifyDocument,
			mcp.WithDescription("Classify a local document into one of the configured categories."),
			mcp.WithString("path",
				mcp.Required(),
				mcp.Description("Absolute or working-directory relative path of the file to classify."),
			),
			mcp.WithString("mime_type",
				mcp.Description("Optional declared content type, used only when the type cannot be detected."),
			),
		),
		s.handleClassify,
	)
	mcpServer.AddTool(
		mcp.NewTool(ToolListCategories,
			mcp.WithDescription("List the categories a document can be classified into."),
		),
		s.handleListCategories,
	)
	return mcpServer
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio(name, version string) error {
	return server.ServeStdio(s.MCPServer(name, version))
}

type classifyResult struct {
	FileClass string      `json:"file_class"`
	Tier      domain.Tier `json:"tier"`
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := s.readDocument(path, request.GetString("mime_type", ""))
	if err != nil {
		s.logger.Warn("mcp_document_rejected", "path", path, "error", err.Error())
		return mcp.NewToolResultError(err.Error()), nil
	}

	verdict, err := s.classifier.Classify(ctx, doc)
	if err != nil {
		s.logger.Error("classification_failed", "path", path, "error", err.Error())
		return mcp.NewToolResultError("Internal server error during classification"), nil
	}

	return jsonResult(classifyResult{FileClass: verdict.Category, Tier: verdict.Tier})
}

func (s *Server) handleListCategories(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string][]string{"categories": s.taxonomy.Categories()})
}

func (s *Server) readDocument(path, declaredMIME string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > s.maxBytes {
		return domain.Document{}, fmt.Errorf("file too large: %d bytes exceeds %d", info.Size(), s.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.Document{
		Filename:     filepath.Base(path),
		DeclaredMIME: declaredMIME,
		Data:         data,
	}, nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
