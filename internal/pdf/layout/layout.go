// Package layout rebuilds reading-order text from positioned page fragments.
package layout

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/wrapper"
)

// DefaultLineThreshold is the vertical distance, in layout units, within which
// fragments are considered to share a line
const DefaultLineThreshold = 8.0

// Config controls line grouping
type Config struct {
	LineThreshold float64 `json:"line_threshold"`
}

// DefaultConfig returns the standard layout configuration
func DefaultConfig() Config {
	return Config{LineThreshold: DefaultLineThreshold}
}

var (
	digitGap   = regexp.MustCompile(`(\d)[ \t]+(\d)`)
	twelveDigs = regexp.MustCompile(`\b(\d{4})[ \t]*(\d{4})[ \t]*(\d{4})\b`)
)

// Reconstruct orders fragments top to bottom, left to right, and returns one
// text line per visual line
func Reconstruct(fragments []wrapper.TextFragment) string {
	return DefaultConfig().Reconstruct(fragments)
}

// Reconstruct orders fragments top to bottom, left to right, and returns one
// text line per visual line
func (c Config) Reconstruct(fragments []wrapper.TextFragment) string {
	lines := c.Lines(fragments)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, normalizeLine(joinLine(line)))
	}
	return strings.Join(out, "\n")
}

// Document reconstructs every page and joins them with a newline
func (c Config) Document(pages [][]wrapper.TextFragment) string {
	out := make([]string, 0, len(pages))
	for _, page := range pages {
		if text := c.Reconstruct(page); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n")
}

// Lines groups fragments into visual lines. A fragment opens a new line when
// its Y differs from the first fragment of the current line by more than the
// threshold. Each returned line is sorted by X.
func (c Config) Lines(fragments []wrapper.TextFragment) [][]wrapper.TextFragment {
	threshold := c.LineThreshold
	if threshold <= 0 {
		threshold = DefaultLineThreshold
	}

	sorted := make([]wrapper.TextFragment, 0, len(fragments))
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) != "" {
			sorted = append(sorted, f)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines [][]wrapper.TextFragment
	var refY float64
	for _, f := range sorted {
		n := len(lines)
		if n == 0 || abs(f.Y-refY) > threshold {
			lines = append(lines, []wrapper.TextFragment{f})
			refY = f.Y
			continue
		}
		lines[n-1] = append(lines[n-1], f)
	}

	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
	}
	return lines
}

func joinLine(line []wrapper.TextFragment) string {
	parts := make([]string, 0, len(line))
	for _, f := range line {
		parts = append(parts, strings.TrimSpace(f.Text))
	}
	return strings.Join(parts, " ")
}

// normalizeLine applies NFC and canonical digit spacing to a single line.
// It never sees a newline, so digit runs on different lines stay apart.
func normalizeLine(s string) string {
	s = norm.NFC.String(s)
	// two passes because adjacent matches share a digit
	s = digitGap.ReplaceAllString(s, "$1 $2")
	s = digitGap.ReplaceAllString(s, "$1 $2")
	return twelveDigs.ReplaceAllString(s, "$1 $2 $3")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
