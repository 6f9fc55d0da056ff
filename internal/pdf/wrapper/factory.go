package wrapper

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// DefaultWordGapRatio is the glyph gap, relative to font size, above which
// two glyphs on the same baseline belong to different fragments
const DefaultWordGapRatio = 0.25

// FactoryConfig contains configuration options for the factory
type FactoryConfig struct {
	// PreferredLibrary selects the opener returned by Create(LibraryAuto)
	PreferredLibrary LibraryType `json:"preferred_library"`

	// WordGapRatio controls glyph merging in the ledongthuc backend
	WordGapRatio float64 `json:"word_gap_ratio"`

	// DebugMode logs per-page fragment statistics during extraction
	DebugMode bool `json:"debug_mode"`
}

// DefaultFactoryConfig returns the configuration used by NewPDFLibraryFactory
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		PreferredLibrary: LibraryAuto,
		WordGapRatio:     DefaultWordGapRatio,
	}
}

// PDFLibraryFactory creates PDF library instances
type PDFLibraryFactory struct {
	config FactoryConfig
	logger *zap.Logger
}

// NewPDFLibraryFactory creates a new factory with default configuration
func NewPDFLibraryFactory() *PDFLibraryFactory {
	return NewPDFLibraryFactoryWithConfig(DefaultFactoryConfig(), nil)
}

// NewPDFLibraryFactoryWithConfig creates a factory with custom configuration
func NewPDFLibraryFactoryWithConfig(config FactoryConfig, logger *zap.Logger) *PDFLibraryFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PreferredLibrary == "" {
		config.PreferredLibrary = LibraryAuto
	}
	return &PDFLibraryFactory{config: config, logger: logger}
}

// GetConfig returns the factory configuration
func (f *PDFLibraryFactory) GetConfig() FactoryConfig {
	return f.config
}

// Create instantiates a text-capable library of the specified type
func (f *PDFLibraryFactory) Create(libType LibraryType) (PDFLibrary, error) {
	switch libType {
	case LibraryLedongthuc:
		return NewLedongthucLibrary(f.config), nil
	case LibraryAuto:
		return &AutoLibrary{
			primary:   NewLedongthucLibrary(f.config),
			decrypter: NewPDFCPULibrary(f.config),
			logger:    f.logger,
		}, nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "create",
			Err:     fmt.Errorf("unsupported library type for text extraction: %s", libType),
		}
	}
}

// CreateDefault instantiates the preferred library
func (f *PDFLibraryFactory) CreateDefault() (PDFLibrary, error) {
	return f.Create(f.config.PreferredLibrary)
}

// CreateInspector returns the structural inspector
func (f *PDFLibraryFactory) CreateInspector() Inspector {
	return NewPDFCPULibrary(f.config)
}

// AutoLibrary opens documents with ledongthuc and, when the encryption scheme
// is one ledongthuc cannot handle, decrypts with pdfcpu and reopens the result.
type AutoLibrary struct {
	primary   PDFLibrary
	decrypter Decrypter
	logger    *zap.Logger
}

// GetLibraryType returns the library type
func (a *AutoLibrary) GetLibraryType() LibraryType {
	return LibraryAuto
}

// Open opens data, decrypting through pdfcpu if necessary
func (a *AutoLibrary) Open(data []byte, password string) (PDFDocument, error) {
	doc, err := a.primary.Open(data, password)
	if err == nil || !errors.Is(err, ErrUnsupportedEncryption) {
		return doc, err
	}

	a.logger.Debug("primary backend cannot decrypt document, retrying through pdfcpu",
		zap.Error(err))

	plain, err := a.decrypter.Decrypt(data, password)
	if err != nil {
		return nil, err
	}

	doc, err = a.primary.Open(plain, "")
	if err != nil {
		return nil, err
	}
	return &decryptedDocument{PDFDocument: doc}, nil
}

// decryptedDocument reports the original encryption of a document opened from its decrypted copy
type decryptedDocument struct {
	PDFDocument
}

func (d *decryptedDocument) IsEncrypted() bool {
	return true
}
