package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/wrapper"
)

func frag(text string, x, y float64) wrapper.TextFragment {
	return wrapper.TextFragment{Text: text, X: x, Y: y, Height: 10, FontSize: 10, Page: 1}
}

func TestReconstruct_ReadingOrder(t *testing.T) {
	fragments := []wrapper.TextFragment{
		frag("SHARMA", 86, 740),
		frag("To", 50, 760),
		frag("RAHUL", 50, 742),
		frag("DOB:", 50, 720),
		frag("15/08/1995", 80, 716),
	}

	text := Reconstruct(fragments)
	assert.Equal(t, "To\nRAHUL SHARMA\nDOB: 15/08/1995", text)
}

func TestReconstruct_LineThreshold(t *testing.T) {
	fragments := []wrapper.TextFragment{
		frag("A", 10, 100),
		frag("B", 20, 95),
	}

	tests := []struct {
		name      string
		threshold float64
		expected  string
	}{
		{name: "within threshold", threshold: 8, expected: "A B"},
		{name: "outside threshold", threshold: 4, expected: "A\nB"},
		{name: "zero uses default", threshold: 0, expected: "A B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Config{LineThreshold: tt.threshold}.Reconstruct(fragments))
		})
	}
}

func TestReconstruct_LineReferenceDoesNotDrift(t *testing.T) {
	// each step is under the threshold but the third fragment is too far
	// from the first one to share its line
	fragments := []wrapper.TextFragment{
		frag("one", 10, 100),
		frag("two", 20, 94),
		frag("three", 30, 88),
	}

	lines := DefaultConfig().Lines(fragments)
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], 2)
	assert.Equal(t, "three", lines[1][0].Text)
}

func TestReconstruct_DigitNormalization(t *testing.T) {
	tests := []struct {
		name     string
		input    []wrapper.TextFragment
		expected string
	}{
		{
			name:     "contiguous twelve digits get canonical spacing",
			input:    []wrapper.TextFragment{frag("Aadhaar", 10, 100), frag("234567890124", 80, 100)},
			expected: "Aadhaar 2345 6789 0124",
		},
		{
			name:     "irregular spacing inside a fragment collapses",
			input:    []wrapper.TextFragment{frag("2345   6789\t0124", 10, 100)},
			expected: "2345 6789 0124",
		},
		{
			name:     "sixteen digit run is not split into an id",
			input:    []wrapper.TextFragment{frag("1234567890123456", 10, 100)},
			expected: "1234567890123456",
		},
		{
			name:     "digits on separate lines stay apart",
			input:    []wrapper.TextFragment{frag("560001", 10, 100), frag("2345", 10, 80)},
			expected: "560001\n2345",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reconstruct(tt.input))
		})
	}
}

func TestReconstruct_NFC(t *testing.T) {
	decomposed := "Jose\u0301"
	assert.Equal(t, "Jos\u00e9", Reconstruct([]wrapper.TextFragment{frag(decomposed, 0, 0)}))
}

func TestReconstruct_SkipsBlankFragments(t *testing.T) {
	text := Reconstruct([]wrapper.TextFragment{frag("  ", 0, 10), frag("x", 5, 10)})
	assert.Equal(t, "x", text)
	assert.Empty(t, Reconstruct(nil))
}

func TestDocument_JoinsPages(t *testing.T) {
	pages := [][]wrapper.TextFragment{
		{frag("page", 10, 100), frag("one", 50, 100)},
		nil,
		{frag("page", 10, 100), frag("three", 50, 100)},
	}

	assert.Equal(t, "page one\npage three", DefaultConfig().Document(pages))
}
