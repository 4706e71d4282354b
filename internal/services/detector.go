package services

import (
	"context"
	"encoding/json"
	"strings"

	"translatorapp/internal/config"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"

	"github.com/pemistahl/lingua-go"
	openai "github.com/sashabaranov/go-openai"
	"github.com/xeipuuv/gojsonschema"
)

// NewLanguageDetector selects the configured detection provider. The LLM
// provider needs an API key; without one the heuristic detector is used.
func NewLanguageDetector(cfg *config.DetectionConfig, logger *observability.Logger) serviceinterfaces.LanguageDetector {
	if cfg.Provider == "llm" && cfg.APIKey != "" {
		logger.Info(context.Background(), "Using LLM language detection", map[string]interface{}{
			"model":   cfg.Model,
			"api_key": contextutils.MaskAPIKey(cfg.APIKey),
		})
		return NewLLMDetector(cfg, logger)
	}
	return NewHeuristicDetector(cfg, logger)
}

// HeuristicDetector detects language with statistical n-gram models, offline.
type HeuristicDetector struct {
	cfg      *config.DetectionConfig
	logger   *observability.Logger
	detector lingua.LanguageDetector
}

// NewHeuristicDetector creates the offline detector restricted to the
// languages the service can translate plus English.
func NewHeuristicDetector(cfg *config.DetectionConfig, logger *observability.Logger) *HeuristicDetector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Portuguese,
			lingua.Spanish,
			lingua.French,
			lingua.German,
			lingua.Italian,
		).
		Build()
	return &HeuristicDetector{cfg: cfg, logger: logger, detector: detector}
}

// Detect identifies the language of the sample. Undecidable samples default
// to English so they pass through untranslated.
func (d *HeuristicDetector) Detect(ctx context.Context, req serviceinterfaces.DetectRequest) (resp *serviceinterfaces.DetectResponse, err error) {
	ctx, span := observability.TraceDetectionFunction(ctx, "detect_heuristic")
	defer observability.FinishSpan(span, &err)

	sample := clipSample(req.Text, d.cfg.MaxSampleBytes)
	if strings.TrimSpace(sample) == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "cannot detect language of empty text")
	}

	language, exists := d.detector.DetectLanguageOf(sample)
	if !exists {
		d.logger.Debug(ctx, "Heuristic detection inconclusive, assuming English", nil)
		return &serviceinterfaces.DetectResponse{Language: "en"}, nil
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	confidence := d.detector.ComputeLanguageConfidence(sample, language)
	span.SetAttributes(observability.AttributeLanguage(code))

	return &serviceinterfaces.DetectResponse{Language: code, Confidence: confidence}, nil
}

// detectionSchema validates the JSON the model returns before we trust it.
const detectionSchema = `{
	"type": "object",
	"properties": {
		"language": {"type": "string", "minLength": 2, "maxLength": 8},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"required": ["language"],
	"additionalProperties": false
}`

const detectionSystemPrompt = `You are a language identification engine.
Given a text sample, respond with ONLY a JSON object of the form
{"language": "<ISO 639-1 code>", "confidence": <0..1>}.
Use the base two-letter code ("pt", not "pt-BR"). No prose, no markdown.`

// LLMDetector detects language with an OpenAI-compatible chat model.
type LLMDetector struct {
	cfg      *config.DetectionConfig
	logger   *observability.Logger
	client   *openai.Client
	schema   *gojsonschema.Schema
	fallback *HeuristicDetector
}

// NewLLMDetector creates the LLM-backed detector. Malformed model output
// falls back to the heuristic detector rather than failing the request.
func NewLLMDetector(cfg *config.DetectionConfig, logger *observability.Logger) *LLMDetector {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(detectionSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is a bug.
		panic(err)
	}

	return &LLMDetector{
		cfg:      cfg,
		logger:   logger,
		client:   openai.NewClientWithConfig(clientCfg),
		schema:   schema,
		fallback: NewHeuristicDetector(cfg, logger),
	}
}

// Detect asks the chat model to classify the sample, validating its response
// against the detection schema.
func (d *LLMDetector) Detect(ctx context.Context, req serviceinterfaces.DetectRequest) (resp *serviceinterfaces.DetectResponse, err error) {
	ctx, span := observability.TraceDetectionFunction(ctx, "detect_llm")
	defer observability.FinishSpan(span, &err)

	sample := clipSample(req.Text, d.cfg.MaxSampleBytes)
	if strings.TrimSpace(sample) == "" {
		return nil, contextutils.WrapError(contextutils.ErrInvalidInput, "cannot detect language of empty text")
	}

	completion, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       d.cfg.Model,
		Temperature: 0,
		MaxTokens:   64,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: detectionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sample},
		},
	})
	if err != nil {
		d.logger.Warn(ctx, "LLM detection failed, falling back to heuristic detector", map[string]interface{}{
			"error": err.Error(),
		})
		return d.fallback.Detect(ctx, req)
	}
	if len(completion.Choices) == 0 {
		return d.fallback.Detect(ctx, req)
	}

	parsed, ok := d.parseDetection(ctx, completion.Choices[0].Message.Content)
	if !ok {
		return d.fallback.Detect(ctx, req)
	}

	parsed.Language = models.BaseLanguage(parsed.Language)
	span.SetAttributes(observability.AttributeLanguage(parsed.Language))
	return parsed, nil
}

// parseDetection extracts and validates the model's JSON answer.
func (d *LLMDetector) parseDetection(ctx context.Context, content string) (*serviceinterfaces.DetectResponse, bool) {
	content = strings.TrimSpace(content)
	// Models occasionally wrap the answer in a code fence despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	result, err := d.schema.Validate(gojsonschema.NewStringLoader(content))
	if err != nil || !result.Valid() {
		d.logger.Warn(ctx, "LLM detection returned invalid JSON", map[string]interface{}{
			"content": content,
		})
		return nil, false
	}

	var resp serviceinterfaces.DetectResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// clipSample bounds the sample sent to a detector, cutting at a rune boundary.
func clipSample(text string, maxBytes int) string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return text
	}
	cut := maxBytes
	for cut > 0 && (text[cut]&0xC0) == 0x80 {
		cut--
	}
	return text[:cut]
}
