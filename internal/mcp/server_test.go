package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-aadhaar-reader/internal/config"
	"github.com/a3tai/mcp-aadhaar-reader/internal/descriptions"
	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/pdftest"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.PDFDirectory = dir
	cfg.ServerName = "test-server"
	cfg.Port = 0

	pdfService, err := pdf.NewService(cfg.ServiceConfig(), nil)
	require.NoError(t, err)

	s, err := NewServer(cfg, pdfService, nil)
	require.NoError(t, err)
	return s, dir
}

func testID(t *testing.T) string {
	t.Helper()
	c, err := identity.VerhoeffCheckDigit("34567890123")
	require.NoError(t, err)
	return "34567890123" + string(c)
}

func testCard(t *testing.T) []byte {
	t.Helper()
	id := testID(t)
	return pdftest.Text(
		"To",
		"ANITA DESAI",
		"Karnataka 560001",
		"DOB: 01/01/1990",
		"FEMALE",
		id[:4]+" "+id[4:8]+" "+id[8:]+" VID : 9123456789012345",
	)
}

func callTool(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}

func TestNewServer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = t.TempDir()
	pdfService, err := pdf.NewService(cfg.ServiceConfig(), nil)
	require.NoError(t, err)

	_, err = NewServer(cfg, nil, nil)
	assert.Error(t, err)

	_, err = NewServer(nil, pdfService, nil)
	assert.Error(t, err)

	s, err := NewServer(cfg, pdfService, nil)
	require.NoError(t, err)
	assert.Same(t, cfg, s.config)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
}

func TestServer_HandleExtract(t *testing.T) {
	s, dir := newTestServer(t)
	card := testCard(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anita.pdf"), card, 0o600))

	tests := []struct {
		name      string
		args      map[string]interface{}
		wantError bool
	}{
		{
			name: "content",
			args: map[string]interface{}{
				"content": base64.StdEncoding.EncodeToString(card),
				"name":    "anita.pdf",
			},
		},
		{
			name: "path",
			args: map[string]interface{}{"path": "anita.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleExtract(context.Background(), callTool(tt.args))
			require.NoError(t, err)
			require.False(t, result.IsError, extractTextFromResult(result))

			var got pdf.ExtractResult
			require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &got))
			assert.True(t, got.Success)
			require.NotNil(t, got.Data)
			assert.Equal(t, "ANITA DESAI", got.Data.Name)
			assert.Equal(t, "01/01/1990", got.Data.DateOfBirth)
			assert.Equal(t, testID(t), got.Data.IDNumber)
			assert.Equal(t, identity.Female, got.Data.Gender)
		})
	}
}

func TestServer_HandleExtractErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name         string
		args         map[string]interface{}
		wantContains string
	}{
		{name: "no input", args: map[string]interface{}{}, wantContains: "either path or content"},
		{name: "bad base64", args: map[string]interface{}{"content": "***"}, wantContains: "base64"},
		{name: "missing file", args: map[string]interface{}{"path": "missing.pdf"}, wantContains: "does not exist"},
		{
			name:         "not a pdf",
			args:         map[string]interface{}{"content": base64.StdEncoding.EncodeToString([]byte("hello")), "name": "a.pdf"},
			wantContains: "Unable to extract text",
		},
		{
			name:         "image upload",
			args:         map[string]interface{}{"content": base64.StdEncoding.EncodeToString([]byte("hello")), "name": "a.jpg", "media_type": "image/jpeg"},
			wantContains: "Only PDF Aadhaar files are supported.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleExtract(context.Background(), callTool(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractTextFromResult(result), tt.wantContains)
		})
	}
}

func TestServer_HandleValidateNumber(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleValidateNumber(context.Background(), callTool(map[string]interface{}{"number": testID(t)}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var got pdf.ValidateNumberResult
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &got))
	assert.True(t, got.Valid)

	result, err = s.handleValidateNumber(context.Background(), callTool(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleInspectPDF(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anita.pdf"), testCard(t), 0o600))

	result, err := s.handleInspectPDF(context.Background(), callTool(map[string]interface{}{"path": "anita.pdf"}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	var got pdf.InspectResult
	require.NoError(t, json.Unmarshal([]byte(extractTextFromResult(result)), &got))
	assert.Equal(t, 1, got.PageCount)

	result, err = s.handleInspectPDF(context.Background(), callTool(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleServerInfo(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anita.pdf"), testCard(t), 0o600))

	result, err := s.handleServerInfo(context.Background(), callTool(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server")
	assert.Contains(t, text, "anita.pdf")
	assert.Contains(t, text, "Fallback Policy: strict")
	for _, name := range descriptions.GetAllToolNames() {
		assert.Contains(t, text, name)
	}
}

func TestServer_ToolsList(t *testing.T) {
	s, _ := newTestServer(t)

	response := s.mcpServer.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(response)
	require.NoError(t, err)

	for _, name := range descriptions.GetAllToolNames() {
		assert.Contains(t, string(raw), name)
	}
}

func TestServer_RunStdioStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)

	in, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.runStdioMode(ctx, in, io.Discard)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stdio server did not stop after cancellation")
	}
}

func TestServer_RunServerModeShutdown(t *testing.T) {
	s, _ := newTestServer(t)
	s.config.Mode = config.ModeServer
	s.config.Host = "127.0.0.1"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("SSE server did not shut down")
	}
}
