package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-aadhaar-reader/internal/extraction"
	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/layout"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/security"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/wrapper"
)

const tracerName = "github.com/a3tai/mcp-aadhaar-reader/internal/pdf"

// DefaultMinTextLength is the number of non-space characters below which a
// document is treated as having no extractable text
const DefaultMinTextLength = 10

// ServiceConfig holds everything the pipeline needs
type ServiceConfig struct {
	MaxFileSize   int64
	Directory     string
	MinTextLength int
	Layout        layout.Config
	Extraction    extraction.Options
	Library       wrapper.FactoryConfig
}

// Service runs the identity extraction pipeline. It holds only immutable
// configuration, so one Service can serve concurrent requests.
type Service struct {
	config        ServiceConfig
	validator     *Validator
	search        *Search
	library       wrapper.PDFLibrary
	inspector     wrapper.Inspector
	layout        layout.Config
	extractor     *extraction.Extractor
	pathValidator *security.PathValidator
	dirCache      *DirectoryCache
	logger        *zap.Logger
	tracer        trace.Tracer
}

// NewService creates a new service with all pipeline components
func NewService(cfg ServiceConfig, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = DefaultMinTextLength
	}
	if cfg.Library.WordGapRatio <= 0 {
		cfg.Library.WordGapRatio = wrapper.DefaultWordGapRatio
	}
	cfg.Extraction = cfg.Extraction.WithDefaults()
	if cfg.Layout.LineThreshold <= 0 {
		cfg.Layout = layout.DefaultConfig()
	}

	pathValidator, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	factory := wrapper.NewPDFLibraryFactoryWithConfig(cfg.Library, logger.Named("wrapper"))
	library, err := factory.CreateDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF library: %w", err)
	}

	extractor, err := extraction.NewExtractor(cfg.Extraction, logger.Named("extraction"))
	if err != nil {
		return nil, err
	}

	return &Service{
		config:        cfg,
		validator:     NewValidator(cfg.MaxFileSize),
		search:        NewSearch(cfg.MaxFileSize),
		library:       library,
		inspector:     factory.CreateInspector(),
		layout:        cfg.Layout,
		extractor:     extractor,
		pathValidator: pathValidator,
		dirCache:      NewDirectoryCache(DefaultDirectoryCacheTTL),
		logger:        logger,
		tracer:        otel.Tracer(tracerName),
	}, nil
}

// ExtractIdentityFromFile reads a PDF from the configured directory and runs
// the pipeline on it. Access problems are returned as errors; extraction
// failures are reported in the result.
func (s *Service) ExtractIdentityFromFile(ctx context.Context, req ExtractFileRequest,
	prompter PasswordPrompter,
) (*ExtractResult, error) {
	data, path, err := s.readFile(req.Path)
	if err != nil {
		return nil, err
	}

	return s.ExtractIdentity(ctx, ExtractRequest{
		Name:     filepath.Base(path),
		Data:     data,
		Password: req.Password,
	}, prompter), nil
}

// InspectFile reports the structure of a PDF on disk
func (s *Service) InspectFile(req InspectFileRequest) (*InspectResult, error) {
	data, path, err := s.readFile(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := s.inspector.Inspect(data, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect PDF: %w", err)
	}
	return &InspectResult{Path: path, DocumentInfo: *info}, nil
}

// ValidateNumber runs the ID number validators on input. Spaces and hyphens
// are ignored.
func (s *Service) ValidateNumber(input string) *ValidateNumberResult {
	normalized := strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(strings.TrimSpace(input))
	result := &ValidateNumberResult{Input: input, Normalized: normalized}

	if err := identity.ValidIDStructure(normalized); err != nil {
		result.Reason = reasonOf(err)
		return result
	}
	result.StructureValid = true

	if err := identity.ValidateIDNumber(normalized); err != nil {
		result.Reason = reasonOf(err)
		if c, err := identity.VerhoeffCheckDigit(normalized[:11]); err == nil {
			result.ExpectedCheck = string(c)
		}
		return result
	}

	result.ChecksumValid = true
	result.Valid = true
	result.FormattedNumber = identity.ExtractedIdentity{IDNumber: normalized}.FormattedIDNumber()
	return result
}

// FindPDFs lists PDF files in the configured directory
func (s *Service) FindPDFs(limit int) ([]FileInfo, error) {
	return s.search.FindPDFs(s.pathValidator.Directory(), limit)
}

// Directory returns the configured document directory
func (s *Service) Directory() string {
	return s.pathValidator.Directory()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.config.MaxFileSize
}

// Config returns the service configuration
func (s *Service) Config() ServiceConfig {
	return s.config
}

// readFile confines path to the configured directory, checks it and reads it
func (s *Service) readFile(path string) ([]byte, string, error) {
	resolved, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, "", fmt.Errorf("security validation failed: %w", err)
	}

	if _, err := s.validator.ValidateFile(resolved); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	return data, resolved, nil
}

func reasonOf(err error) string {
	if verr, ok := err.(*identity.ValidationError); ok {
		return verr.Reason
	}
	return err.Error()
}
