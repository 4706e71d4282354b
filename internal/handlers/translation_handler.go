package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"translatorapp/internal/config"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/services"
	contextutils "translatorapp/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TranslationHandler serves the document and inline translation endpoints.
type TranslationHandler struct {
	cfg             *config.Config
	documentService *services.DocumentService
	logger          *observability.Logger
}

// NewTranslationHandler creates the translation handler.
func NewTranslationHandler(cfg *config.Config, documentService *services.DocumentService, logger *observability.Logger) *TranslationHandler {
	return &TranslationHandler{
		cfg:             cfg,
		documentService: documentService,
		logger:          logger,
	}
}

// TranslateDocument accepts a multipart upload, runs the translation
// pipeline, and returns the artifact metadata.
//
// POST /v1/documents/translate
func (h *TranslationHandler) TranslateDocument(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "translate_document")
	defer span.End()

	// The form carries either a file upload or, with input_type=text, an
	// inline text field. Inline submissions skip the artifact path entirely.
	if c.PostForm("input_type") == "text" {
		text := c.PostForm("text")
		if strings.TrimSpace(text) == "" {
			HandleValidationError(c, "text", text, "text must not be blank")
			return
		}
		result, err := h.documentService.TranslateText(ctx, text, c.PostForm("lang"))
		if err != nil {
			HandleAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		HandleAppError(c, contextutils.ErrNoFileProvided)
		return
	}
	if fileHeader.Size == 0 {
		HandleAppError(c, contextutils.ErrEmptyFile)
		return
	}
	if fileHeader.Size > h.cfg.Storage.MaxUploadBytes {
		StandardizeHTTPError(c, http.StatusRequestEntityTooLarge, "File too large",
			"the upload exceeds the configured size limit")
		return
	}

	originalName := contextutils.SanitizeFilename(fileHeader.Filename)
	if _, ok := models.ParseDocumentFormat(filepath.Ext(originalName)); !ok {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrUnsupportedExtension, filepath.Ext(originalName)))
		return
	}

	// The upload gets a unique name so concurrent requests never collide;
	// the pipeline deletes it when done.
	uploadPath := filepath.Join(h.cfg.Storage.UploadDir, uuid.NewString()+"_"+originalName)
	if err := c.SaveUploadedFile(fileHeader, uploadPath); err != nil {
		h.logger.Error(ctx, "Failed to persist upload", err, map[string]interface{}{
			"filename": originalName,
		})
		StandardizeHTTPError(c, http.StatusInternalServerError, "Failed to store upload", "")
		return
	}

	result, err := h.documentService.TranslateFile(ctx, uploadPath, originalName)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detected_language": result.DetectedLanguage,
		"already_english":   result.AlreadyEnglish,
		"artifact":          result.Artifact,
		"download_url":      "/v1/downloads/" + result.Artifact.Filename,
		"preview":           result.Preview,
		"units":             result.Units,
		"elapsed_seconds":   result.ElapsedSeconds,
	})
}

// translateTextRequest is the inline translation request body. Lang, when
// set, forces the source language instead of detecting it.
type translateTextRequest struct {
	Text string `json:"text" binding:"required"`
	Lang string `json:"lang"`
}

// TranslateText translates a snippet of text inline.
//
// POST /v1/translate
func (h *TranslationHandler) TranslateText(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "translate_text")
	defer span.End()

	var req translateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "text", "", "text is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		HandleValidationError(c, "text", req.Text, "text must not be blank")
		return
	}

	result, err := h.documentService.TranslateText(ctx, req.Text, req.Lang)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Download streams a previously produced artifact.
//
// GET /v1/downloads/:filename
func (h *TranslationHandler) Download(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "download")
	defer span.End()

	filename := c.Param("filename")
	path, err := h.documentService.ArtifactPath(filename)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.FileAttachment(path, filename)
}

// Languages lists the source languages with a dedicated translation model.
//
// GET /v1/languages
func (h *TranslationHandler) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages":      h.cfg.SupportedLanguages(),
		"fallback_model": h.cfg.Translation.FallbackModel,
		"target":         h.cfg.Translation.TargetLanguage,
	})
}
