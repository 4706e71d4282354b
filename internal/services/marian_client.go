// Package services contains the translation pipeline: the inference client,
// model cache, chunked translator, language detection, live sessions and the
// document orchestration service.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// MarianClient talks to an OPUS-MT inference server over HTTP. The server
// loads Marian models on demand and translates batches of text with them.
type MarianClient struct {
	baseURL       string
	maxBatchBytes int
	httpClient    *http.Client
	logger        *observability.Logger
}

// NewMarianClient creates a client for the configured inference server.
func NewMarianClient(cfg *config.TranslationConfig, logger *observability.Logger) *MarianClient {
	return &MarianClient{
		baseURL:       cfg.InferenceURL,
		maxBatchBytes: cfg.MaxBatchBytes,
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

type loadModelRequest struct {
	Model string `json:"model"`
}

type translateRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type translateResponse struct {
	Translations []string `json:"translations"`
}

type inferenceError struct {
	Error string `json:"error"`
}

// LoadModel asks the inference server to load a model, blocking until the
// model is resident or the server reports failure.
func (c *MarianClient) LoadModel(ctx context.Context, model string) (err error) {
	ctx, span := observability.TraceModelCacheFunction(ctx, "load_model")
	defer observability.FinishSpan(span, &err)

	body, err := json.Marshal(loadModelRequest{Model: model})
	if err != nil {
		return contextutils.WrapError(err, "failed to encode model load request")
	}

	resp, err := c.post(ctx, "/models/load", body)
	if err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeModelLoadFailure,
			contextutils.SeverityWarn, "Translation model failed to load", model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return contextutils.NewAppError(contextutils.ErrorCodeModelLoadFailure,
			contextutils.SeverityWarn, "Translation model failed to load",
			fmt.Sprintf("%s: %s", model, readInferenceError(resp.Body)))
	}
	return nil
}

// Capability returns a TranslationCapability bound to a loaded model.
func (c *MarianClient) Capability(model string, kind serviceinterfaces.CapabilityKind) serviceinterfaces.TranslationCapability {
	return &marianCapability{client: c, model: model, kind: kind}
}

func (c *MarianClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

// readInferenceError extracts the server's error message, falling back to the
// raw body when it is not the expected JSON shape.
func readInferenceError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "unreadable error response"
	}
	var ie inferenceError
	if err := json.Unmarshal(raw, &ie); err == nil && ie.Error != "" {
		return ie.Error
	}
	return string(raw)
}

// marianCapability is a TranslationCapability backed by one model on the
// inference server.
type marianCapability struct {
	client *MarianClient
	model  string
	kind   serviceinterfaces.CapabilityKind
}

func (m *marianCapability) Kind() serviceinterfaces.CapabilityKind {
	return m.kind
}

func (m *marianCapability) MaxInputBytes() int {
	return m.client.maxBatchBytes
}

// TranslateBatch sends texts to the inference server and returns the
// translations in input order.
func (m *marianCapability) TranslateBatch(ctx context.Context, texts []string) (translations []string, err error) {
	ctx, span := observability.TraceTranslationFunction(ctx, "translate_batch",
		observability.AttributeUnitCount(len(texts)),
	)
	defer observability.FinishSpan(span, &err)

	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(translateRequest{Model: m.model, Texts: texts})
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to encode translation request")
	}

	start := time.Now()
	resp, err := m.client.post(ctx, "/translate", body)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeServiceUnavailable,
			contextutils.SeverityError, "Inference server unreachable", m.model, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeTranslationBatchFailure,
			contextutils.SeverityWarn, "Translation batch failed",
			fmt.Sprintf("%s: status %d: %s", m.model, resp.StatusCode, readInferenceError(resp.Body)))
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeTranslationBatchFailure,
			contextutils.SeverityWarn, "Malformed inference response", m.model, err)
	}
	if len(tr.Translations) != len(texts) {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeTranslationBatchFailure,
			contextutils.SeverityWarn, "Translation batch failed",
			fmt.Sprintf("expected %d translations, got %d", len(texts), len(tr.Translations)))
	}

	m.client.logger.Debug(ctx, "Translated batch", map[string]interface{}{
		"model":      m.model,
		"texts":      len(texts),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return tr.Translations, nil
}
