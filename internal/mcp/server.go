package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-aadhaar-reader/internal/config"
	"github.com/a3tai/mcp-aadhaar-reader/internal/descriptions"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf"
)

// shutdownTimeout bounds the graceful shutdown of the SSE server
const shutdownTimeout = 5 * time.Second

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // the tool set is fixed
		server.WithRecovery(),
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		logger:     logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		descriptions.ToolExtract,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtract)),
		mcp.WithString("path",
			mcp.Description("Path of the PDF, absolute or relative to the configured directory"),
		),
		mcp.WithString("content",
			mcp.Description("Base64 encoded PDF bytes, used instead of path"),
		),
		mcp.WithString("name",
			mcp.Description("Original file name of the uploaded content"),
		),
		mcp.WithString("media_type",
			mcp.Description("Declared content type of the uploaded content"),
		),
		mcp.WithString("password",
			mcp.Description("Password of a protected e-Aadhaar PDF"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtract)

	validateTool := mcp.NewTool(
		descriptions.ToolValidateNumber,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateNumber)),
		mcp.WithString("number",
			mcp.Required(),
			mcp.Description("The 12-digit number; spaces and hyphens are ignored"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleValidateNumber)

	inspectTool := mcp.NewTool(
		descriptions.ToolInspectPDF,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolInspectPDF)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the PDF, absolute or relative to the configured directory"),
		),
		mcp.WithString("password",
			mcp.Description("Password of a protected PDF"),
		),
	)
	s.mcpServer.AddTool(inspectTool, s.handleInspectPDF)

	serverInfoTool := mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	content := request.GetString("content", "")
	password := request.GetString("password", "")

	var result *pdf.ExtractResult
	switch {
	case content != "":
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("content is not valid base64: %v", err)), nil
		}
		result = s.pdfService.ExtractIdentity(ctx, pdf.ExtractRequest{
			Name:      request.GetString("name", ""),
			MediaType: request.GetString("media_type", ""),
			Data:      data,
			Password:  password,
		}, nil)

	case path != "":
		var err error
		result, err = s.pdfService.ExtractIdentityFromFile(ctx, pdf.ExtractFileRequest{Path: path, Password: password}, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

	default:
		return mcp.NewToolResultError("either path or content is required"), nil
	}

	text, err := toJSON(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !result.Success {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleValidateNumber(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number, err := request.RequireString("number")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := toJSON(s.pdfService.ValidateNumber(number))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleInspectPDF(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.InspectFile(pdf.InspectFileRequest{
		Path:     path,
		Password: request.GetString("password", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := toJSON(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func toJSON(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&sb, "Directory: %s\n", result.Directory)
	fmt.Fprintf(&sb, "Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	fmt.Fprintf(&sb, "Fallback Policy: %s\n\n", result.FallbackPolicy)

	if len(result.AvailableFiles) > 0 {
		fmt.Fprintf(&sb, "Directory Contents (%d PDF files found):\n", len(result.AvailableFiles))
		for i, file := range result.AvailableFiles {
			if i >= 10 { // keep the listing readable
				fmt.Fprintf(&sb, "   ... and %d more files\n", len(result.AvailableFiles)-10)
				break
			}
			fmt.Fprintf(&sb, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("Directory Contents: No PDF files found\n\n")
	}

	sb.WriteString("Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&sb, "  • %s: %s\n", tool.Name, tool.Usage)
	}

	sb.WriteString("\nSettings:\n")
	for _, key := range []string{"line_threshold", "context_window", "gender_date_window", "max_birth_year", "min_text_length", "pdf_library"} {
		if v, ok := result.Settings[key]; ok {
			fmt.Fprintf(&sb, "  %s: %s\n", key, v)
		}
	}

	sb.WriteString("\n" + result.UsageGuidance)
	return sb.String()
}

// Run starts the MCP server in the configured mode and blocks until ctx is
// cancelled or the transport fails
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx, os.Stdin, os.Stdout)
}

// runStdioMode serves MCP over in and out
func (s *Server) runStdioMode(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("starting MCP server in stdio mode", zap.String("directory", s.config.PDFDirectory))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE on the configured address until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	s.logger.Info("starting MCP server in SSE mode",
		zap.String("address", addr),
		zap.String("directory", s.config.PDFDirectory))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("SSE server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down SSE server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("SSE server shutdown failed: %w", err)
	}
	return nil
}
