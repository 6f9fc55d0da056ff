package extraction

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
)

var (
	// a 4-4-4 digit run on one line with a non-digit (or start of text) on its left
	idRunPattern = regexp.MustCompile(`(?:^|\D)(\d{4}[ \t]*\d{4}[ \t]*\d{4})`)
	// a fourth group right after a run makes it the head of a 16-digit VID
	trailingGroupPattern = regexp.MustCompile(`^[ \t]*\d{4}(?:\D|$)`)

	labeledIDPattern = regexp.MustCompile(
		`(?i)(?:aadhaa?r\s*(?:no\.?|number)?|आधार\s*(?:संख्या|क्रमांक))\s*[:.]?\s*(\d{4}[ \t]*\d{4}[ \t]*\d{4})`)

	vidBeforePattern       = regexp.MustCompile(`(?i)(?:\bvid|वीआईडी|व्हीआईडी)\s*(?:no\.?)?\s*:?\s*$`)
	mobileBeforePattern    = regexp.MustCompile(`(?i)(?:\bmobile|\bphone|मोबाइल)\s*(?:no\.?|number)?\s*:?\s*$`)
	enrolmentBeforePattern = regexp.MustCompile(`(?i)\benrol(?:l)?ment\s*(?:no\.?|number)?\s*:?\s*$`)

	aadhaarLabelPattern = regexp.MustCompile(`(?i)aadhaa?r|आधार`)
	vidAfterPattern     = regexp.MustCompile(`(?i)\bvid\s*:|वीआईडी|व्हीआईडी`)
	pinCodePattern      = regexp.MustCompile(`(?i)\bpin\s*code\b|पिन\s*कोड`)
	genderTextPattern   = regexp.MustCompile(`(?i)\bgender\b|\bfemale\b|\bmale\b|लिंग|पुरुष|महिला`)
	addressLabelPattern = regexp.MustCompile(`(?i)\baddress\b|पता`)
)

// Score contributions of the positive context signals
const (
	baseScore         = 1
	aadhaarLabelBonus = 5
	vidAfterBonus     = 3
	pinCodeBonus      = 2
	genderBonus       = 2
)

// Candidate is the diagnostic record of one distinct 12-digit number seen in the text
type Candidate struct {
	Number   string   `json:"number"`
	Count    int      `json:"count"`
	Position int      `json:"position"`
	Score    int      `json:"score"`
	Reasons  []string `json:"reasons,omitempty"`
	Valid    bool     `json:"valid"`
	Rejected string   `json:"rejected,omitempty"`
}

// Selectable reports whether the candidate may be chosen as the ID number
func (c Candidate) Selectable() bool {
	return c.Valid && c.Rejected == "" && c.Count > 0 && len(c.Reasons) > 0
}

type idRun struct {
	number     string
	start, end int
}

// scanIDRuns finds every 4-4-4 digit run that is not part of a longer
// contiguous digit sequence
func scanIDRuns(text string) []idRun {
	var runs []idRun
	for _, m := range idRunPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if end < len(text) && isDigit(text[end]) {
			continue
		}
		runs = append(runs, idRun{number: stripSpaces(text[start:end]), start: start, end: end})
	}
	return runs
}

// partOfVID reports whether a fourth digit group follows the run
func partOfVID(text string, run idRun) bool {
	return trailingGroupPattern.MatchString(text[run.end:])
}

// disqualify returns why an occurrence cannot be the ID number, or ""
func disqualify(text string, run idRun, window int) string {
	b := before(text, run.start, window)
	switch {
	case vidBeforePattern.MatchString(b):
		return "preceded by VID label"
	case partOfVID(text, run):
		return "part of a 16-digit number"
	case mobileBeforePattern.MatchString(b):
		return "preceded by mobile label"
	case enrolmentBeforePattern.MatchString(b):
		return "preceded by enrolment number label"
	}
	return ""
}

// scoreOccurrence evaluates the positive context signals around one occurrence
func scoreOccurrence(text string, run idRun, window int) (int, []string) {
	b := before(text, run.start, window)
	lower := strings.ToLower(b)

	score := baseScore
	var reasons []string

	if aadhaarLabelPattern.MatchString(b) {
		score += aadhaarLabelBonus
		reasons = append(reasons, "near Aadhaar label")
	}
	if vidAfterPattern.MatchString(after(text, run.end, window)) {
		score += vidAfterBonus
		reasons = append(reasons, "precedes VID")
	}
	if pinCodePattern.MatchString(b) {
		score += pinCodeBonus
		reasons = append(reasons, "after PIN code")
	}
	if genderTextPattern.MatchString(b) {
		score += genderBonus
		reasons = append(reasons, "after gender")
	}
	for _, state := range identity.StateNames {
		if strings.Contains(lower, state) {
			reasons = append(reasons, "after state name")
			break
		}
	}
	if addressLabelPattern.MatchString(b) && !strings.Contains(lower, "mobile") {
		reasons = append(reasons, "in address section")
	}
	return score, reasons
}

// analyzeIDCandidates tallies, validates and scores every distinct number in
// text. The result is ordered best first; unselectable candidates follow.
func analyzeIDCandidates(text string, window int) []Candidate {
	byNumber := make(map[string]*Candidate)
	var order []string

	for _, run := range scanIDRuns(text) {
		c, ok := byNumber[run.number]
		if !ok {
			c = &Candidate{Number: run.number, Position: run.start}
			if err := identity.ValidateIDNumber(run.number); err != nil {
				c.Rejected = validationReason(err)
			} else {
				c.Valid = true
			}
			byNumber[run.number] = c
			order = append(order, run.number)
		}

		if reason := disqualify(text, run, window); reason != "" {
			if c.Count == 0 && c.Rejected == "" {
				c.Rejected = reason
			}
			continue
		}
		if c.Count == 0 {
			c.Position = run.start
			if c.Valid {
				c.Rejected = ""
			}
		}
		c.Count++

		score, reasons := scoreOccurrence(text, run, window)
		if score > c.Score {
			c.Score = score
		}
		c.Reasons = appendUnique(c.Reasons, reasons...)
	}

	candidates := make([]Candidate, 0, len(order))
	for _, n := range order {
		c := byNumber[n]
		if c.Count >= 2 {
			c.Reasons = append(c.Reasons, fmt.Sprintf("repeated %d times", c.Count))
		}
		candidates = append(candidates, *c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Selectable() != b.Selectable() {
			return a.Selectable()
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Position < b.Position
	})
	return candidates
}

// contextualID returns the best selectable candidate, or "" when none has a
// positive context signal
func contextualID(candidates []Candidate) string {
	if len(candidates) > 0 && candidates[0].Selectable() {
		return candidates[0].Number
	}
	return ""
}

// labeledID returns the first valid number directly following an Aadhaar label
func labeledID(text string) string {
	for _, m := range labeledIDPattern.FindAllStringSubmatchIndex(text, -1) {
		run := idRun{number: stripSpaces(text[m[2]:m[3]]), start: m[2], end: m[3]}
		if run.end < len(text) && isDigit(text[run.end]) {
			continue
		}
		if partOfVID(text, run) {
			continue
		}
		if identity.ValidateIDNumber(run.number) == nil {
			return run.number
		}
	}
	return ""
}

// fallbackID applies the configured fallback policy to the raw runs
func fallbackID(text string, policy FallbackPolicy, window int) string {
	for _, run := range scanIDRuns(text) {
		if policy == FallbackLenient {
			if !partOfVID(text, run) {
				return run.number
			}
			continue
		}
		if disqualify(text, run, window) == "" && identity.ValidateIDNumber(run.number) == nil {
			return run.number
		}
	}
	return ""
}

func validationReason(err error) string {
	var verr *identity.ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return err.Error()
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
