package pdf

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	pdferrors "github.com/a3tai/mcp-aadhaar-reader/internal/pdf/errors"
	"github.com/a3tai/mcp-aadhaar-reader/internal/pdf/wrapper"
)

// pipelineRun carries the state of one ExtractIdentity invocation
type pipelineRun struct {
	result *ExtractResult
	span   trace.Span
	logger *zap.Logger
}

func (r *pipelineRun) enter(stage Stage) {
	r.result.Stage = stage
	r.span.AddEvent(string(stage))
	r.logger.Debug("pipeline stage", zap.String("stage", string(stage)))
}

func (r *pipelineRun) fail(err *pdferrors.ExtractionError) *ExtractResult {
	err.WithStage(string(r.result.Stage))

	r.result.Success = false
	r.result.Data = nil
	r.result.Error = err.Message
	r.result.ErrorType = err.Type.String()
	r.result.Err = err

	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, err.Type.String())
	r.logger.Warn("identity extraction failed",
		zap.String("stage", string(r.result.Stage)),
		zap.String("error_type", err.Type.String()),
		zap.Error(err))
	return r.result
}

// ExtractIdentity runs the pipeline over an uploaded document:
// Idle, Opening (with at most one PasswordPrompt), TextExtracted,
// Reconstructed, PrimaryExtraction, optionally FallbackExtraction, then Done
// or Failed. It never panics and never returns nil.
func (s *Service) ExtractIdentity(ctx context.Context, req ExtractRequest,
	prompter PasswordPrompter,
) (result *ExtractResult) {
	start := time.Now()
	requestID := uuid.Must(uuid.NewV7()).String()

	ctx, span := s.tracer.Start(ctx, "aadhaar.extract", trace.WithAttributes(
		attribute.String("request.id", requestID),
		attribute.String("document.name", req.Name),
		attribute.Int("document.size", len(req.Data)),
	))
	defer span.End()

	run := &pipelineRun{
		result: &ExtractResult{RequestID: requestID, Stage: StageIdle},
		span:   span,
		logger: s.logger.With(zap.String("request_id", requestID), zap.String("document", req.Name)),
	}

	defer func() {
		// nothing may panic past this point
		if rec := recover(); rec != nil {
			result = run.fail(pdferrors.New(pdferrors.ErrorTypeUnknown, pdferrors.MessageIncomplete).
				WithContext(fmt.Sprintf("panic: %v", rec)))
		}
	}()

	if !s.validator.AcceptsFormat(req.Name, req.MediaType) {
		return run.fail(pdferrors.New(pdferrors.ErrorTypeUnsupportedFormat, pdferrors.MessageUnsupportedFormat).
			WithContext(fmt.Sprintf("name %q, media type %q", req.Name, req.MediaType)))
	}
	if err := s.validator.ValidateSize(int64(len(req.Data))); err != nil {
		return run.fail(pdferrors.Wrap(pdferrors.ErrorTypeDocumentOpen, pdferrors.MessageUnreadable, err))
	}

	doc, openErr := s.open(ctx, run, req, prompter)
	if openErr != nil {
		return run.fail(openErr)
	}
	defer doc.Close()

	run.result.Pages = doc.GetPageCount()
	run.result.Encrypted = doc.IsEncrypted()

	pages, textErr := s.extractPages(ctx, run, doc)
	if textErr != nil {
		return run.fail(textErr)
	}
	run.enter(StageTextExtracted)

	if err := ctx.Err(); err != nil {
		return run.fail(cancelled(err))
	}
	_, rspan := s.tracer.Start(ctx, "aadhaar.reconstruct")
	text := s.layout.Document(pages)
	rspan.SetAttributes(attribute.Int("text.length", len(text)))
	rspan.End()
	run.enter(StageReconstructed)

	if n := countNonSpace(text); n < s.config.MinTextLength {
		return run.fail(pdferrors.New(pdferrors.ErrorTypeEmptyDocument, pdferrors.MessageUnreadable).
			WithContext(fmt.Sprintf("%d characters extracted, need %d", n, s.config.MinTextLength)))
	}

	if err := ctx.Err(); err != nil {
		return run.fail(cancelled(err))
	}
	run.enter(StagePrimaryExtraction)
	_, espan := s.tracer.Start(ctx, "aadhaar.extract_fields")
	extracted, err := s.extractor.Extract(text)
	espan.End()

	if extracted != nil {
		run.result.Candidates = extracted.Candidates
		if extracted.Fallback || err != nil {
			run.enter(StageFallbackExtraction)
		}
	}
	if err != nil {
		if e, ok := err.(*pdferrors.ExtractionError); ok {
			return run.fail(e)
		}
		return run.fail(pdferrors.Wrap(pdferrors.ErrorTypeIncompleteExtraction, pdferrors.MessageIncomplete, err))
	}

	record := extracted.Identity
	run.result.Success = true
	run.result.Data = &record
	run.result.Strategy = extracted.Strategy

	span.SetAttributes(attribute.String("extraction.strategy", extracted.Strategy))
	run.logger.Info("identity extracted",
		zap.String("strategy", extracted.Strategy),
		zap.Int("pages", run.result.Pages),
		zap.String("id_suffix", maskID(record.IDNumber)),
		zap.Duration("elapsed", time.Since(start)))
	return run.result
}

// open opens the document, consulting prompter exactly once if the first
// attempt fails
func (s *Service) open(ctx context.Context, run *pipelineRun, req ExtractRequest,
	prompter PasswordPrompter,
) (wrapper.PDFDocument, *pdferrors.ExtractionError) {
	ctx, span := s.tracer.Start(ctx, "aadhaar.open")
	defer span.End()

	run.enter(StageOpening)
	doc, err := s.library.Open(req.Data, req.Password)
	if err == nil {
		return doc, nil
	}

	first := openError(err)
	if prompter == nil {
		return nil, first
	}

	run.logger.Info("document could not be opened, asking for a password", zap.Error(err))
	run.enter(StagePasswordPrompt)

	password, perr := prompter.PromptPassword(ctx, req.Name)
	if perr != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeDocumentOpen, first.Message, perr).
			WithContext("password prompt failed")
	}
	if password == "" {
		return nil, first.WithContext("no password supplied")
	}

	run.enter(StageOpening)
	doc, err = s.library.Open(req.Data, password)
	if err != nil {
		return nil, openError(err)
	}
	return doc, nil
}

// extractPages walks every page. Pages that fail are skipped; if none can be
// read the document is unreadable.
func (s *Service) extractPages(ctx context.Context, run *pipelineRun,
	doc wrapper.PDFDocument,
) ([][]wrapper.TextFragment, *pdferrors.ExtractionError) {
	ctx, span := s.tracer.Start(ctx, "aadhaar.extract_text")
	defer span.End()

	total := doc.GetPageCount()
	pages := make([][]wrapper.TextFragment, 0, total)
	var lastErr error

	for p := 1; p <= total; p++ {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}
		fragments, err := doc.ExtractText(p)
		if err != nil {
			run.logger.Warn("page text extraction failed", zap.Int("page", p), zap.Error(err))
			lastErr = err
			continue
		}
		pages = append(pages, fragments)

		if s.config.Library.DebugMode {
			stats := wrapper.Summarize(fragments)
			run.logger.Debug("page fragments",
				zap.Int("page", p),
				zap.Int("fragments", stats.Total),
				zap.Int("numeric", stats.Numeric),
				zap.Int("latin", stats.Latin),
				zap.Int("devanagari", stats.Devanagari))
		}
	}

	if len(pages) == 0 && lastErr != nil {
		return nil, pdferrors.Wrap(pdferrors.ErrorTypeDocumentOpen, pdferrors.MessageUnreadable, lastErr).
			WithContext("no page could be read")
	}
	span.SetAttributes(attribute.Int("pages.read", len(pages)))
	return pages, nil
}

// openError classifies a library open failure
func openError(err error) *pdferrors.ExtractionError {
	if wrapper.IsPasswordError(err) {
		return pdferrors.Wrap(pdferrors.ErrorTypeDocumentOpen, pdferrors.MessagePassword,
			pdferrors.Wrap(pdferrors.ErrorTypePasswordRequired, pdferrors.MessagePassword, err))
	}
	return pdferrors.Wrap(pdferrors.ErrorTypeDocumentOpen, pdferrors.MessageUnreadable, err)
}

func cancelled(err error) *pdferrors.ExtractionError {
	return pdferrors.Wrap(pdferrors.ErrorTypeUnknown, "Extraction cancelled.", err)
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// maskID keeps the last four digits of an ID number for logs
func maskID(id string) string {
	if len(id) < 4 {
		return ""
	}
	return "XXXX-XXXX-" + id[len(id)-4:]
}
