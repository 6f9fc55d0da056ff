package extraction

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-aadhaar-reader/internal/identity"
	pdferrors "github.com/a3tai/mcp-aadhaar-reader/internal/pdf/errors"
)

// Result is the outcome of running the extraction tiers over a document
type Result struct {
	Identity identity.ExtractedIdentity `json:"identity"`
	// Strategy is the tier that completed the record
	Strategy string `json:"strategy"`
	// Fallback is set when the primary tiers alone could not complete the record
	Fallback   bool        `json:"fallback"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// Extractor runs the primary tiers, then the fallback tiers, each filling in
// only the fields still missing
type Extractor struct {
	primary  []Strategy
	fallback []Strategy
	logger   *zap.Logger
}

// NewExtractor creates an extractor with the labeled and contextual tiers as
// the primary pass and the fallback tier after them
func NewExtractor(opts Options, logger *zap.Logger) (*Extractor, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction options: %w", err)
	}
	return NewExtractorWithStrategies(
		[]Strategy{NewLabeledPattern(opts), NewContextualPattern(opts)},
		[]Strategy{NewFallbackPattern(opts)},
		logger,
	), nil
}

// NewExtractorWithStrategies creates an extractor with explicit tiers
func NewExtractorWithStrategies(primary, fallback []Strategy, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{primary: primary, fallback: fallback, logger: logger}
}

// Extract recovers the identity fields from text. When no tier completes the
// record the partial result is returned with an IncompleteExtraction error.
func (e *Extractor) Extract(text string) (*Result, error) {
	result := &Result{Identity: identity.ExtractedIdentity{Gender: identity.NotSpecified}}

	tiers := append(append([]Strategy{}, e.primary...), e.fallback...)
	for i, tier := range tiers {
		fields := tier.Attempt(text)
		result.Identity = merge(result.Identity, fields.Identity)
		if fields.Candidates != nil {
			result.Candidates = fields.Candidates
		}

		e.logger.Debug("extraction tier finished",
			zap.String("strategy", tier.Name()),
			zap.Bool("complete", result.Identity.Complete()),
			zap.Strings("missing", result.Identity.Missing()))

		if result.Identity.Complete() {
			result.Strategy = tier.Name()
			result.Fallback = i >= len(e.primary)
			return result, nil
		}
	}

	return result, pdferrors.New(pdferrors.ErrorTypeIncompleteExtraction, pdferrors.MessageIncomplete).
		WithContext("missing " + strings.Join(result.Identity.Missing(), ", "))
}
