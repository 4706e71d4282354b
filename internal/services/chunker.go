package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// ChunkedTranslatorService translates ordered units through a capability,
// batching them under the capability's input budget. Blank units never reach
// the model; a failed batch produces an error marker per unit instead of
// aborting the whole document.
type ChunkedTranslatorService struct {
	cache     serviceinterfaces.ModelCache
	logger    *observability.Logger
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewChunkedTranslatorService creates the chunked translator.
func NewChunkedTranslatorService(cache serviceinterfaces.ModelCache, logger *observability.Logger) (*ChunkedTranslatorService, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &ChunkedTranslatorService{
		cache:     cache,
		logger:    logger,
		tokenizer: tokenizer,
	}, nil
}

// batch is a run of consecutive non-blank units destined for one capability call.
type batch struct {
	indices []int
	texts   []string
}

// Translate returns one translated string per unit, preserving unit order.
// The boolean reports whether a model actually ran: identity pairs and
// all-blank inputs pass through untranslated.
func (s *ChunkedTranslatorService) Translate(ctx context.Context, units []models.TranslationUnit, pair models.LanguagePair) (out []string, performed bool, err error) {
	ctx, span := observability.TraceTranslationFunction(ctx, "translate_units",
		observability.AttributeLanguagePair(pair.Normalized().String()),
		observability.AttributeUnitCount(len(units)),
	)
	defer observability.FinishSpan(span, &err)

	if pair.IsIdentity() {
		return unitTexts(units), false, nil
	}

	if allBlank(units) {
		return unitTexts(units), false, nil
	}
	out = make([]string, len(units))

	capability, err := s.cache.Acquire(ctx, pair)
	if err != nil {
		return nil, false, err
	}

	batches := s.buildBatches(units, capability.MaxInputBytes())
	span.SetAttributes(observability.AttributeBatchCount(len(batches)))

	failed := 0
	for _, b := range batches {
		translated, err := capability.TranslateBatch(ctx, b.texts)
		if err != nil {
			failed++
			s.logger.Warn(ctx, "Translation batch failed, inserting error markers", map[string]interface{}{
				"pair":  pair.Normalized().String(),
				"units": len(b.texts),
				"error": err.Error(),
			})
			for _, idx := range b.indices {
				out[idx] = batchErrorMarker(err)
			}
			continue
		}
		for i, idx := range b.indices {
			out[idx] = translated[i]
		}
	}

	if failed > 0 {
		s.logger.Warn(ctx, "Document translated with failed batches", map[string]interface{}{
			"pair":    pair.Normalized().String(),
			"batches": len(batches),
			"failed":  failed,
		})
	}
	return out, true, nil
}

// buildBatches groups consecutive non-blank units so that the concatenated
// text of each batch stays within maxBytes. A single unit larger than the
// budget is truncated rather than split, so unit boundaries survive.
func (s *ChunkedTranslatorService) buildBatches(units []models.TranslationUnit, maxBytes int) []batch {
	var batches []batch
	var current batch
	currentBytes := 0

	flush := func() {
		if len(current.indices) > 0 {
			batches = append(batches, current)
			current = batch{}
			currentBytes = 0
		}
	}

	for i, unit := range units {
		if unit.IsBlank() {
			continue
		}
		text := unit.Text
		if len(text) > maxBytes {
			text = s.truncate(text, maxBytes)
		}
		if currentBytes+len(text) > maxBytes {
			flush()
		}
		current.indices = append(current.indices, i)
		current.texts = append(current.texts, text)
		currentBytes += len(text)
	}
	flush()
	return batches
}

// truncate cuts text to at most maxBytes, preferring the last sentence
// boundary that fits and falling back to a rune boundary. The result is
// deterministic for a given input and budget.
func (s *ChunkedTranslatorService) truncate(text string, maxBytes int) string {
	kept := 0
	for _, sentence := range s.tokenizer.Tokenize(text) {
		end := kept + len(sentence.Text)
		if end > maxBytes {
			break
		}
		kept = end
	}
	if kept > 0 {
		return strings.TrimRight(text[:kept], " ")
	}

	// No sentence boundary fits; cut at the last full rune.
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// batchErrorMarker renders the inline marker substituted for every unit of a
// failed batch.
func batchErrorMarker(err error) string {
	return fmt.Sprintf("[translation error: %s]", contextutils.GetErrorCode(err))
}

func unitTexts(units []models.TranslationUnit) []string {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}
	return texts
}

func allBlank(units []models.TranslationUnit) bool {
	for _, u := range units {
		if !u.IsBlank() {
			return false
		}
	}
	return true
}
