// Package serviceinterfaces defines service interfaces for dependency injection and testing.
package serviceinterfaces

import (
	"context"

	"translatorapp/internal/models"
)

// CapabilityKind distinguishes how a translation capability was loaded.
type CapabilityKind string

const (
	// CapabilityDirect is a pair-specific bidirectional model.
	CapabilityDirect CapabilityKind = "direct"
	// CapabilityFallback is the multilingual-to-English pipeline used when
	// the pair-specific model could not be loaded.
	CapabilityFallback CapabilityKind = "fallback"
)

// TranslationCapability is a loaded model able to translate batches of text
// for one language pair. Implementations must return a slice of the same
// length and order as the input, passing blank entries through unchanged.
type TranslationCapability interface {
	// TranslateBatch translates texts in order. The concatenated input of
	// one call must not exceed MaxInputBytes.
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)

	// Kind reports whether this is a direct model or the fallback pipeline.
	Kind() CapabilityKind

	// MaxInputBytes is the input-length limit per call.
	MaxInputBytes() int
}

// ModelCache hands out translation capabilities per language pair,
// loading each at most once.
type ModelCache interface {
	Acquire(ctx context.Context, pair models.LanguagePair) (TranslationCapability, error)
}

// DetectRequest is a language detection request.
type DetectRequest struct {
	Text string `json:"text"`
}

// DetectResponse is a language detection result.
type DetectResponse struct {
	// Language is an ISO 639-1 code, possibly with a region suffix ("pt-BR").
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence,omitempty"`
}

// LanguageDetector identifies the language of a text sample.
type LanguageDetector interface {
	Detect(ctx context.Context, req DetectRequest) (*DetectResponse, error)
}

// DocumentTranslator runs the chunked translation pipeline over ordered units.
type DocumentTranslator interface {
	// Translate returns one translated string per unit, in unit order.
	// The boolean reports whether translation was actually performed
	// (false when the pair is an identity pair or the input is blank).
	Translate(ctx context.Context, units []models.TranslationUnit, pair models.LanguagePair) ([]string, bool, error)
}
