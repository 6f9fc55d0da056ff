package wrapper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPULibrary inspects and decrypts documents using pdfcpu. pdfcpu has no
// positioned text extraction, so it does not implement PDFLibrary itself.
type PDFCPULibrary struct {
	config FactoryConfig
}

// NewPDFCPULibrary creates a new pdfcpu library wrapper
func NewPDFCPULibrary(config FactoryConfig) *PDFCPULibrary {
	return &PDFCPULibrary{config: config}
}

// GetLibraryType returns the library type
func (p *PDFCPULibrary) GetLibraryType() LibraryType {
	return LibraryPDFCPU
}

// configuration returns a relaxed pdfcpu configuration carrying password
func (p *PDFCPULibrary) configuration(password string) *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password
	conf.OwnerPW = password
	return conf
}

// Inspect reads the document structure and reports version, page count and encryption
func (p *PDFCPULibrary) Inspect(data []byte, password string) (info *DocumentInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			info = nil
			err = &WrapperError{Library: LibraryPDFCPU, Op: "inspect", Err: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	ctx, err := api.ReadContext(bytes.NewReader(data), p.configuration(password))
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "inspect", Err: classifyPDFCPUError(err, password)}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "inspect",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return &DocumentInfo{
		Version:   ctx.HeaderVersion.String(),
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
		Size:      int64(len(data)),
		Library:   LibraryPDFCPU,
	}, nil
}

// Decrypt returns an unencrypted copy of data, opened with password
func (p *PDFCPULibrary) Decrypt(data []byte, password string) (plain []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			plain = nil
			err = &WrapperError{Library: LibraryPDFCPU, Op: "decrypt", Err: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &out, p.configuration(password)); err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "decrypt", Err: classifyPDFCPUError(err, password)}
	}

	return out.Bytes(), nil
}

// classifyPDFCPUError maps pdfcpu password failures onto the wrapper sentinels
func classifyPDFCPUError(err error, password string) error {
	if !strings.Contains(strings.ToLower(err.Error()), "password") {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: %v", ErrPasswordRequired, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
}
