package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/document"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	"translatorapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubDetector returns a fixed language.
type stubDetector struct {
	language string
}

func (s *stubDetector) Detect(_ context.Context, _ serviceinterfaces.DetectRequest) (*serviceinterfaces.DetectResponse, error) {
	return &serviceinterfaces.DetectResponse{Language: s.language, Confidence: 1}, nil
}

// stubTranslator upper-cases unit texts; identity pairs pass through.
type stubTranslator struct{}

func (s *stubTranslator) Translate(_ context.Context, units []models.TranslationUnit, pair models.LanguagePair) ([]string, bool, error) {
	out := make([]string, len(units))
	for i, u := range units {
		if pair.IsIdentity() {
			out[i] = u.Text
		} else {
			out[i] = strings.ToUpper(u.Text)
		}
	}
	return out, !pair.IsIdentity(), nil
}

func newTestRouter(t *testing.T, detectLanguage string) (*gin.Engine, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Server.SessionSecret = "test-secret"
	cfg.Translation.TargetLanguage = "en"
	cfg.Translation.MaxTextLength = 20000
	cfg.Storage.UploadDir = dir
	cfg.Storage.ArtifactDir = dir
	cfg.Storage.MaxUploadBytes = 1 << 20
	cfg.Session.IdleTimeout = 10 * time.Minute
	cfg.Session.SweepInterval = time.Minute
	cfg.OpenTelemetry.ServiceName = "translator-test"

	logger := &observability.Logger{Logger: zap.NewNop()}
	detector := &stubDetector{language: detectLanguage}
	translator := &stubTranslator{}

	documentService := services.NewDocumentService(cfg,
		document.NewReader(logger),
		document.NewWriter(dir, logger),
		detector, translator, logger)
	sessionService := services.NewSessionService(&cfg.Session, detector, translator,
		cfg.Translation.TargetLanguage, logger)

	return NewRouter(cfg, documentService, sessionService, logger), cfg
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestHealthAndVersionEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, "fr")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "version")
}

func TestTranslateDocumentEndToEnd(t *testing.T) {
	router, _ := newTestRouter(t, "fr")

	body, contentType := multipartUpload(t, "file", "lettre.txt", "Bonjour le monde")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents/translate", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		DetectedLanguage string `json:"detected_language"`
		AlreadyEnglish   bool   `json:"already_english"`
		DownloadURL      string `json:"download_url"`
		Preview          string `json:"preview"`
		Artifact         struct {
			Filename string `json:"filename"`
		} `json:"artifact"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "fr", resp.DetectedLanguage)
	assert.False(t, resp.AlreadyEnglish)
	assert.Equal(t, "BONJOUR LE MONDE", resp.Preview)
	assert.True(t, strings.HasPrefix(resp.Artifact.Filename, "translated_lettre_"))

	// The artifact is downloadable through the returned URL.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BONJOUR LE MONDE", w.Body.String())
}

func TestTranslateDocumentInlineTextForm(t *testing.T) {
	router, _ := newTestRouter(t, "es")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("input_type", "text"))
	require.NoError(t, writer.WriteField("text", "Hola mundo"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/translate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.TextResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "es", resp.DetectedLanguage)
	assert.Equal(t, "HOLA MUNDO", resp.TranslatedText)
}

func TestTranslateDocumentValidation(t *testing.T) {
	router, _ := newTestRouter(t, "fr")

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/documents/translate", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "NO_FILE_PROVIDED")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		body, contentType := multipartUpload(t, "file", "archive.zip", "data")
		req := httptest.NewRequest(http.MethodPost, "/v1/documents/translate", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
		assert.Contains(t, w.Body.String(), "UNSUPPORTED_EXTENSION")
	})

	t.Run("empty file", func(t *testing.T) {
		body, contentType := multipartUpload(t, "file", "empty.txt", "")
		req := httptest.NewRequest(http.MethodPost, "/v1/documents/translate", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "EMPTY_FILE")
	})
}

func TestTranslateTextEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "es")

	payload := `{"text": "Hola mundo"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.TextResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "es", resp.DetectedLanguage)
	assert.Equal(t, "HOLA MUNDO", resp.TranslatedText)
}

func TestTranslateTextEndpointLangOverride(t *testing.T) {
	// Detector says English; the explicit lang wins.
	router, _ := newTestRouter(t, "en")

	payload := `{"text": "Ola mundo", "lang": "pt"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp services.TextResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pt", resp.DetectedLanguage)
	assert.Equal(t, "OLA MUNDO", resp.TranslatedText)
}

func TestTranslateTextEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(t, "es")

	req := httptest.NewRequest(http.MethodPost, "/v1/translate", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLiveTranslateAppendFlow(t *testing.T) {
	router, _ := newTestRouter(t, "es")

	post := func(text string, cookies []*http.Cookie) (*httptest.ResponseRecorder, models.TranslationDelta) {
		payload, err := json.Marshal(map[string]string{"text": text})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/v1/live/translate", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var delta models.TranslationDelta
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &delta))
		return w, delta
	}

	// A fresh session appends the whole translation, no redraw marker.
	first, delta := post("Hola", nil)
	assert.True(t, delta.AppendOnly)
	assert.Equal(t, "HOLA", delta.Appended)
	assert.Equal(t, "HOLA", delta.FullTranslation)

	// Reuse the session cookie so the next update lands in the same session.
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	_, delta = post("Hola mundo", cookies)
	assert.True(t, delta.AppendOnly)
	assert.Equal(t, " MUNDO", delta.Appended)

	_, delta = post("Adios mundo", cookies)
	assert.False(t, delta.AppendOnly)
	assert.Equal(t, "[ES → EN] ADIOS MUNDO", delta.FullTranslation)
}

func TestDownloadRejectsTraversal(t *testing.T) {
	router, _ := newTestRouter(t, "fr")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/downloads/..%2Fconfig.yaml", nil))
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestLanguagesEndpoint(t *testing.T) {
	router, cfg := newTestRouter(t, "fr")
	cfg.Translation.LanguageModels = map[string]string{"fr": "opus-mt-fr-en"}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/languages", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Languages []string `json:"languages"`
		Target    string   `json:"target"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"fr"}, body.Languages)
	assert.Equal(t, "en", body.Target)
}
