package wrapper

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PDFLibrary opens raw document bytes for positioned text access
type PDFLibrary interface {
	// Open parses data as a PDF. An empty password means none is known yet.
	Open(data []byte, password string) (PDFDocument, error)

	// Library identification
	GetLibraryType() LibraryType
}

// PDFDocument represents an opened PDF document
type PDFDocument interface {
	GetPageCount() int
	// ExtractText returns the positioned text fragments of a page (1-indexed)
	ExtractText(pageNum int) ([]TextFragment, error)
	IsEncrypted() bool
	Close() error
}

// Inspector reports structural information about a document without walking its text
type Inspector interface {
	Inspect(data []byte, password string) (*DocumentInfo, error)
}

// Decrypter produces an unencrypted copy of a password protected document
type Decrypter interface {
	Decrypt(data []byte, password string) ([]byte, error)
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
	LibraryAuto       LibraryType = "auto" // ledongthuc with pdfcpu decryption fallback
)

// TextFragment is a positioned run of text on a page. Y grows towards the top
// of the page, as in PDF user space.
type TextFragment struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"font_size,omitempty"`
	Page     int     `json:"page"`
}

// IsNumeric reports whether the fragment contains a decimal digit
func (f TextFragment) IsNumeric() bool {
	return strings.IndexFunc(f.Text, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0
}

// HasLatin reports whether the fragment contains an ASCII letter
func (f TextFragment) HasLatin() bool {
	return strings.IndexFunc(f.Text, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}

// HasDevanagari reports whether the fragment contains Devanagari script
func (f TextFragment) HasDevanagari() bool {
	return strings.IndexFunc(f.Text, func(r rune) bool { return unicode.Is(unicode.Devanagari, r) }) >= 0
}

// FragmentStats counts the fragments of a page by content
type FragmentStats struct {
	Total      int
	Numeric    int
	Latin      int
	Devanagari int
}

// Summarize tallies the tags of fragments
func Summarize(fragments []TextFragment) FragmentStats {
	stats := FragmentStats{Total: len(fragments)}
	for _, f := range fragments {
		if f.IsNumeric() {
			stats.Numeric++
		}
		if f.HasLatin() {
			stats.Latin++
		}
		if f.HasDevanagari() {
			stats.Devanagari++
		}
	}
	return stats
}

// DocumentInfo contains structural information about a PDF
type DocumentInfo struct {
	Version   string      `json:"version"`
	PageCount int         `json:"page_count"`
	Encrypted bool        `json:"encrypted"`
	Size      int64       `json:"size"`
	Library   LibraryType `json:"library"`
}

// WrapperError is returned by library operations
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// Common error variables
var (
	ErrDocumentClosed        = errors.New("document is closed")
	ErrInvalidPage           = errors.New("invalid page number")
	ErrPasswordRequired      = errors.New("password required")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrUnsupportedEncryption = errors.New("unsupported encryption")
)

// IsPasswordError reports whether err means the document needs a (different) password
func IsPasswordError(err error) bool {
	return errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrInvalidPassword)
}
