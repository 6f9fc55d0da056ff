package extraction

import "github.com/a3tai/mcp-aadhaar-reader/internal/identity"

// Strategy names
const (
	StrategyLabeled    = "labeled"
	StrategyContextual = "contextual"
	StrategyFallback   = "fallback"
)

// Fields is what one strategy recovered from the text. Empty strings mean
// not found.
type Fields struct {
	Identity   identity.ExtractedIdentity `json:"identity"`
	Candidates []Candidate                `json:"candidates,omitempty"`
}

// Strategy is one tier of the extraction procedure
type Strategy interface {
	Name() string
	Attempt(text string) Fields
}

// LabeledPattern only trusts explicit labels and the "To" address marker
type LabeledPattern struct {
	opts Options
}

// NewLabeledPattern creates the labeled tier
func NewLabeledPattern(opts Options) *LabeledPattern {
	return &LabeledPattern{opts: opts.WithDefaults()}
}

func (s *LabeledPattern) Name() string { return StrategyLabeled }

func (s *LabeledPattern) Attempt(text string) Fields {
	gender := labeledGender(text)
	if gender == "" {
		gender = detectGender(text)
	}
	return Fields{Identity: identity.ExtractedIdentity{
		Name:        nameAfterTo(text, s.opts.Denylist),
		DateOfBirth: labeledDOB(text, s.opts.MaxBirthYear),
		IDNumber:    labeledID(text),
		Gender:      gender,
	}}
}

// ContextualPattern scores every candidate by frequency and surrounding context
type ContextualPattern struct {
	opts Options
}

// NewContextualPattern creates the contextual tier
func NewContextualPattern(opts Options) *ContextualPattern {
	return &ContextualPattern{opts: opts.WithDefaults()}
}

func (s *ContextualPattern) Name() string { return StrategyContextual }

func (s *ContextualPattern) Attempt(text string) Fields {
	candidates := analyzeIDCandidates(text, s.opts.ContextWindow)

	name := nameAfterTo(text, s.opts.Denylist)
	if name == "" {
		name = frequentName(text, s.opts.Denylist)
	}

	return Fields{
		Identity: identity.ExtractedIdentity{
			Name:        name,
			DateOfBirth: contextualDOB(text, s.opts.GenderDateWindow, s.opts.MaxBirthYear),
			IDNumber:    contextualID(candidates),
			Gender:      detectGender(text),
		},
		Candidates: candidates,
	}
}

// FallbackPattern takes the first plausible value of each field
type FallbackPattern struct {
	opts Options
}

// NewFallbackPattern creates the fallback tier
func NewFallbackPattern(opts Options) *FallbackPattern {
	return &FallbackPattern{opts: opts.WithDefaults()}
}

func (s *FallbackPattern) Name() string { return StrategyFallback }

func (s *FallbackPattern) Attempt(text string) Fields {
	return Fields{Identity: identity.ExtractedIdentity{
		Name:        firstName(text, s.opts.Denylist),
		DateOfBirth: firstDOB(text, s.opts.MaxBirthYear),
		IDNumber:    fallbackID(text, s.opts.FallbackPolicy, s.opts.ContextWindow),
		Gender:      anyGender(text),
	}}
}

// merge fills the empty fields of base from next. A gender other than
// NotSpecified is never replaced.
func merge(base, next identity.ExtractedIdentity) identity.ExtractedIdentity {
	if base.Name == "" {
		base.Name = next.Name
	}
	if base.DateOfBirth == "" {
		base.DateOfBirth = next.DateOfBirth
	}
	if base.IDNumber == "" {
		base.IDNumber = next.IDNumber
	}
	if base.Gender == "" || base.Gender == identity.NotSpecified {
		base.Gender = next.Gender
	}
	if base.Gender == "" {
		base.Gender = identity.NotSpecified
	}
	return base
}
