package extraction

import (
	"regexp"
	"strings"

	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
)

// maxToLines bounds how many lines after the "To" marker are searched
const maxToLines = 5

var (
	// capitalised Latin words, initials included, separated by horizontal whitespace only
	nameRunPattern = regexp.MustCompile(`[A-Z][A-Za-z]*(?:[ \t]+[A-Z][A-Za-z]*)*`)
	toMarkerLine   = regexp.MustCompile(`^[ \t]*To\b[ \t]*[:,]?(.*)$`)
	// tokens such as S/O or जन्म तिथि/DOB end a run
	slashToken     = regexp.MustCompile(`\S*/\S*`)
	nameStopMarker = regexp.MustCompile(`(?i)\b(?:C/O|S/O|D/O|W/O)|\b(?:address|vtc|district|pin|mobile)\b|पता`)
)

// nameSegments splits the capitalised runs of line at denylisted words and
// phrases and returns the segments that pass name validation, in order
func nameSegments(line string, deny identity.Denylist) []string {
	line = slashToken.ReplaceAllString(line, ",")

	var out []string
	for _, run := range nameRunPattern.FindAllString(line, -1) {
		words := strings.Fields(run)
		var segment []string
		flush := func() {
			if len(segment) >= 2 && len(segment) <= 4 {
				candidate := strings.Join(segment, " ")
				if identity.ValidName(candidate, deny) == nil {
					out = append(out, candidate)
				}
			}
			segment = segment[:0]
		}
		for i := 0; i < len(words); {
			if n := deny.Match(words, i); n > 0 {
				flush()
				i += n
				continue
			}
			segment = append(segment, words[i])
			i++
		}
		flush()
	}
	return out
}

// nameAfterTo searches the remainder of the "To" line and the lines after it,
// stopping at relationship or address markers
func nameAfterTo(text string, deny identity.Denylist) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := toMarkerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		search := append([]string{m[1]}, lines[i+1:min(len(lines), i+1+maxToLines)]...)
		for _, l := range search {
			stop := false
			if loc := nameStopMarker.FindStringIndex(l); loc != nil {
				l = l[:loc[0]]
				stop = true
			}
			if segments := nameSegments(l, deny); len(segments) > 0 {
				return segments[0]
			}
			if stop {
				break
			}
		}
	}
	return ""
}

// frequentName returns the valid name segment occurring most often in text,
// earliest first on ties
func frequentName(text string, deny identity.Denylist) string {
	counts := make(map[string]int)
	var order []string
	for _, line := range strings.Split(text, "\n") {
		for _, seg := range nameSegments(line, deny) {
			if counts[seg] == 0 {
				order = append(order, seg)
			}
			counts[seg]++
		}
	}

	best := ""
	for _, seg := range order {
		if counts[seg] > counts[best] {
			best = seg
		}
	}
	return best
}

// firstName returns the first valid name segment in text
func firstName(text string, deny identity.Denylist) string {
	for _, line := range strings.Split(text, "\n") {
		if segments := nameSegments(line, deny); len(segments) > 0 {
			return segments[0]
		}
	}
	return ""
}
