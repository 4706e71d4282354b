package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/document"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"
)

// previewRuneLimit bounds the inline preview included with a document
// response; the full text is always in the artifact.
const previewRuneLimit = 2000

// DocumentResult is the outcome of a full document translation.
type DocumentResult struct {
	DetectedLanguage string           `json:"detected_language"`
	AlreadyEnglish   bool             `json:"already_english"`
	Artifact         *models.Artifact `json:"artifact"`
	// Preview is the translated text truncated to previewRuneLimit runes.
	Preview        string  `json:"preview"`
	Units          int     `json:"units"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// TextResult is the outcome of an inline text translation.
type TextResult struct {
	DetectedLanguage string  `json:"detected_language"`
	AlreadyEnglish   bool    `json:"already_english"`
	TranslatedText   string  `json:"translated_text"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
}

// DocumentService orchestrates the read, detect, translate, write pipeline
// for uploaded documents and inline text.
type DocumentService struct {
	cfg        *config.Config
	reader     *document.Reader
	writer     *document.Writer
	detector   serviceinterfaces.LanguageDetector
	translator serviceinterfaces.DocumentTranslator
	logger     *observability.Logger
}

// NewDocumentService creates the document pipeline orchestrator.
func NewDocumentService(cfg *config.Config, reader *document.Reader, writer *document.Writer, detector serviceinterfaces.LanguageDetector, translator serviceinterfaces.DocumentTranslator, logger *observability.Logger) *DocumentService {
	return &DocumentService{
		cfg:        cfg,
		reader:     reader,
		writer:     writer,
		detector:   detector,
		translator: translator,
		logger:     logger,
	}
}

// TranslateFile runs the full pipeline on the uploaded file at path. The
// upload is deleted before returning, on success and failure alike; only the
// produced artifact survives.
func (s *DocumentService) TranslateFile(ctx context.Context, path, originalName string) (result *DocumentResult, err error) {
	ctx, span := observability.TraceTranslationFunction(ctx, "translate_file")
	defer observability.FinishSpan(span, &err)
	defer func() {
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			s.logger.Warn(ctx, "Failed to remove upload", map[string]interface{}{
				"path":  path,
				"error": removeErr.Error(),
			})
		}
	}()

	start := time.Now()

	format, ok := models.ParseDocumentFormat(filepath.Ext(originalName))
	if !ok {
		return nil, contextutils.WrapError(contextutils.ErrUnsupportedExtension, filepath.Ext(originalName))
	}
	span.SetAttributes(observability.AttributeDocumentFormat(string(format)))

	doc, err := s.reader.Read(ctx, path, format)
	if err != nil {
		return nil, err
	}
	if doc.IsEmpty() {
		return nil, contextutils.WrapError(contextutils.ErrEmptyDocument, originalName)
	}

	detected, err := s.detector.Detect(ctx, serviceinterfaces.DetectRequest{Text: doc.PlainText()})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(observability.AttributeLanguage(detected.Language))

	pair := models.LanguagePair{Source: detected.Language, Target: s.cfg.Translation.TargetLanguage}
	translated, performed, err := s.translator.Translate(ctx, doc.Units, pair)
	if err != nil {
		return nil, err
	}

	artifact, err := s.writer.Write(ctx, doc, translated, originalName)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start).Seconds()
	s.logger.Info(ctx, "Document translated", map[string]interface{}{
		"filename":        originalName,
		"format":          string(format),
		"language":        detected.Language,
		"units":           len(doc.Units),
		"performed":       performed,
		"artifact":        artifact.Filename,
		"elapsed_seconds": elapsed,
	})

	return &DocumentResult{
		DetectedLanguage: models.BaseLanguage(detected.Language),
		AlreadyEnglish:   !performed,
		Artifact:         artifact,
		Preview:          truncateRunes(strings.Join(translated, "\n"), previewRuneLimit),
		Units:            len(doc.Units),
		ElapsedSeconds:   elapsed,
	}, nil
}

// truncateRunes cuts s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := 0
	for i := range s {
		if runes == limit {
			return s[:i]
		}
		runes++
	}
	return s
}

// TranslateText runs detection and translation on inline text without
// producing an artifact. A non-empty lang skips detection and forces the
// source language.
func (s *DocumentService) TranslateText(ctx context.Context, text, lang string) (result *TextResult, err error) {
	ctx, span := observability.TraceTranslationFunction(ctx, "translate_text")
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(text) == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "text")
	}
	if limit := s.cfg.Translation.MaxTextLength; len(text) > limit {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn, "Text too long", "text exceeds the inline translation limit")
	}

	start := time.Now()

	source := strings.ToLower(strings.TrimSpace(lang))
	if source == "" {
		detected, err := s.detector.Detect(ctx, serviceinterfaces.DetectRequest{Text: text})
		if err != nil {
			return nil, err
		}
		source = detected.Language
	}
	span.SetAttributes(observability.AttributeLanguage(source))

	pair := models.LanguagePair{Source: source, Target: s.cfg.Translation.TargetLanguage}
	translated, performed, err := s.translator.Translate(ctx, lineUnits(text), pair)
	if err != nil {
		return nil, err
	}

	return &TextResult{
		DetectedLanguage: models.BaseLanguage(source),
		AlreadyEnglish:   !performed,
		TranslatedText:   strings.Join(translated, "\n"),
		ElapsedSeconds:   time.Since(start).Seconds(),
	}, nil
}

// ArtifactPath resolves a download filename to its on-disk path, rejecting
// anything outside the artifact directory.
func (s *DocumentService) ArtifactPath(filename string) (string, error) {
	clean := contextutils.SanitizeFilename(filename)
	if clean != filename || !strings.HasPrefix(clean, "translated_") {
		return "", contextutils.WrapError(contextutils.ErrInvalidInput, "invalid artifact name")
	}

	path := filepath.Join(s.cfg.Storage.ArtifactDir, clean)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", contextutils.WrapError(contextutils.ErrRecordNotFound, clean)
		}
		return "", contextutils.WrapError(err, "failed to stat artifact")
	}
	return path, nil
}
