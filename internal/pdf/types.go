package pdf

import (
	"context"

	"github.com/a3tai/mcp-aadhaar-reader/internal/extraction"
	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/wrapper"
)

// Stage is a state of the extraction pipeline
type Stage string

const (
	StageIdle               Stage = "idle"
	StageOpening            Stage = "opening"
	StagePasswordPrompt     Stage = "password_prompt"
	StageTextExtracted      Stage = "text_extracted"
	StageReconstructed      Stage = "reconstructed"
	StagePrimaryExtraction  Stage = "primary_extraction"
	StageFallbackExtraction Stage = "fallback_extraction"
	StageDone               Stage = "done"
	StageFailed             Stage = "failed"
)

// PasswordPrompter supplies a password for an encrypted document. It is
// consulted at most once per extraction; an empty answer gives up.
type PasswordPrompter interface {
	PromptPassword(ctx context.Context, documentName string) (string, error)
}

// PasswordPrompterFunc adapts a function to PasswordPrompter
type PasswordPrompterFunc func(ctx context.Context, documentName string) (string, error)

// PromptPassword calls f
func (f PasswordPrompterFunc) PromptPassword(ctx context.Context, documentName string) (string, error) {
	return f(ctx, documentName)
}

// StaticPassword is a PasswordPrompter that always answers with the same password
type StaticPassword string

// PromptPassword returns the static password
func (p StaticPassword) PromptPassword(context.Context, string) (string, error) {
	return string(p), nil
}

// Request Types

// ExtractRequest is an uploaded document
type ExtractRequest struct {
	// Name is the original file name, used by the format gate and in logs
	Name string `json:"name"`
	// MediaType is the declared content type of the upload
	MediaType string `json:"media_type"`
	Data      []byte `json:"-"`
	// Password is tried on the first open when set
	Password string `json:"-"`
}

// ExtractFileRequest represents a request to extract the identity from a PDF on disk
type ExtractFileRequest struct {
	Path     string `json:"path"`
	Password string `json:"-"`
}

// InspectFileRequest represents a request to inspect a PDF on disk
type InspectFileRequest struct {
	Path     string `json:"path"`
	Password string `json:"-"`
}

// Response Types

// ExtractResult is the tagged outcome of an extraction: Data on success,
// Error otherwise. Stage is the last pipeline state entered before Done or
// Failed.
type ExtractResult struct {
	Success    bool                        `json:"success"`
	Data       *identity.ExtractedIdentity `json:"data,omitempty"`
	Error      string                      `json:"error,omitempty"`
	ErrorType  string                      `json:"error_type,omitempty"`
	Stage      Stage                       `json:"stage"`
	Strategy   string                      `json:"strategy,omitempty"`
	Pages      int                         `json:"pages,omitempty"`
	Encrypted  bool                        `json:"encrypted,omitempty"`
	RequestID  string                      `json:"request_id"`
	Candidates []extraction.Candidate      `json:"candidates,omitempty"`

	// Err is the underlying failure, for callers that need errors.Is
	Err error `json:"-"`
}

// FinalStage returns the terminal state the pipeline ended in
func (r *ExtractResult) FinalStage() Stage {
	if r.Success {
		return StageDone
	}
	return StageFailed
}

// InspectResult describes the structure of a PDF on disk
type InspectResult struct {
	Path string `json:"path"`
	wrapper.DocumentInfo
}

// ValidateNumberResult reports the checks applied to a candidate ID number
type ValidateNumberResult struct {
	Input           string `json:"input"`
	Normalized      string `json:"normalized"`
	Valid           bool   `json:"valid"`
	StructureValid  bool   `json:"structure_valid"`
	ChecksumValid   bool   `json:"checksum_valid"`
	Reason          string `json:"reason,omitempty"`
	ExpectedCheck   string `json:"expected_check_digit,omitempty"`
	FormattedNumber string `json:"formatted,omitempty"`
}

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName       string            `json:"server_name"`
	Version          string            `json:"version"`
	Directory        string            `json:"directory"`
	MaxFileSize      int64             `json:"max_file_size"`
	FallbackPolicy   string            `json:"fallback_policy"`
	AvailableTools   []ToolInfo        `json:"available_tools"`
	AvailableFiles   []FileInfo        `json:"available_files"`
	SupportedFormats []string          `json:"supported_formats"`
	UsageGuidance    string            `json:"usage_guidance"`
	Settings         map[string]string `json:"settings"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
}
