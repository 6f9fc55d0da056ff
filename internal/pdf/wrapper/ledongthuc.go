package wrapper

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

// defaultFontSize is used when the content stream does not yield a usable size
const defaultFontSize = 12.0

// LedongthucLibrary implements PDFLibrary using ledongthuc/pdf
type LedongthucLibrary struct {
	config FactoryConfig
}

// NewLedongthucLibrary creates a new ledongthuc library wrapper
func NewLedongthucLibrary(config FactoryConfig) *LedongthucLibrary {
	return &LedongthucLibrary{config: config}
}

// GetLibraryType returns the library type
func (l *LedongthucLibrary) GetLibraryType() LibraryType {
	return LibraryLedongthuc
}

// Open parses data as a PDF, trying password once if the document is encrypted
func (l *LedongthucLibrary) Open(data []byte, password string) (doc PDFDocument, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed documents
		if r := recover(); r != nil {
			doc = nil
			err = &WrapperError{Library: LibraryLedongthuc, Op: "open", Err: fmt.Errorf("malformed PDF: %v", r)}
		}
	}()

	ra := bytes.NewReader(data)
	size := int64(len(data))

	var reader *pdf.Reader
	if password == "" {
		reader, err = pdf.NewReader(ra, size)
	} else {
		offered := false
		reader, err = pdf.NewReaderEncrypted(ra, size, func() string {
			// NewReaderEncrypted keeps asking until it gets ""
			if offered {
				return ""
			}
			offered = true
			return password
		})
	}
	if err != nil {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "open", Err: classifyOpenError(err, password)}
	}

	return &LedongthucDocument{
		reader:    reader,
		config:    l.config,
		encrypted: !reader.Trailer().Key("Encrypt").IsNull(),
	}, nil
}

// classifyOpenError maps ledongthuc errors onto the wrapper sentinels
func classifyOpenError(err error, password string) error {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		if password == "" {
			return fmt.Errorf("%w: %v", ErrPasswordRequired, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}
	if strings.Contains(err.Error(), "encryption") {
		return fmt.Errorf("%w: %v", ErrUnsupportedEncryption, err)
	}
	return err
}

// LedongthucDocument implements PDFDocument using ledongthuc/pdf
type LedongthucDocument struct {
	reader    *pdf.Reader
	config    FactoryConfig
	encrypted bool
	closed    bool
}

// GetPageCount returns the number of pages in the document
func (d *LedongthucDocument) GetPageCount() int {
	if d.closed {
		return 0
	}
	return d.reader.NumPage()
}

// IsEncrypted reports whether the document carried an Encrypt dictionary
func (d *LedongthucDocument) IsEncrypted() bool {
	return d.encrypted
}

// Close closes the document
func (d *LedongthucDocument) Close() error {
	d.closed = true
	return nil
}

// ExtractText walks the glyphs of a page and merges them into word-level fragments
func (d *LedongthucDocument) ExtractText(pageNum int) (fragments []TextFragment, err error) {
	if d.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "extract_text", Err: ErrDocumentClosed}
	}

	if pageNum < 1 || pageNum > d.reader.NumPage() {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "extract_text",
			Err:     fmt.Errorf("%w %d (document has %d pages)", ErrInvalidPage, pageNum, d.reader.NumPage()),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			fragments = nil
			err = &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "extract_text",
				Err:     fmt.Errorf("content stream of page %d: %v", pageNum, r),
			}
		}
	}()

	page := d.reader.Page(pageNum)
	if page.V.IsNull() {
		return nil, nil
	}

	return mergeGlyphs(page.Content().Text, pageNum, d.config.WordGapRatio), nil
}

// mergeGlyphs joins consecutive glyphs on the same baseline into fragments.
// A whitespace glyph, a baseline change or a horizontal gap wider than
// gapRatio times the font size starts a new fragment.
func mergeGlyphs(glyphs []pdf.Text, pageNum int, gapRatio float64) []TextFragment {
	if gapRatio <= 0 {
		gapRatio = DefaultWordGapRatio
	}

	var fragments []TextFragment
	var current *TextFragment
	var sb strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Text = sb.String()
		fragments = append(fragments, *current)
		current = nil
		sb.Reset()
	}

	for _, g := range glyphs {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}

		size := math.Abs(g.FontSize)
		if size == 0 {
			size = defaultFontSize
		}

		if current != nil {
			gap := g.X - (current.X + current.Width)
			sameLine := math.Abs(g.Y-current.Y) <= size*0.5
			if !sameLine || gap > size*gapRatio || gap < -size {
				flush()
			}
		}

		if current == nil {
			current = &TextFragment{X: g.X, Y: g.Y, Height: size, FontSize: size, Page: pageNum}
		}
		sb.WriteString(g.S)
		current.Width = g.X + g.W - current.X
		if size > current.Height {
			current.Height = size
		}
	}
	flush()

	return fragments
}
