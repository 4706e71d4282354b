package services

import (
	"context"
	"strings"
	"testing"

	"translatorapp/internal/config"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestHeuristicDetector() *HeuristicDetector {
	return NewHeuristicDetector(
		&config.DetectionConfig{Provider: "heuristic", MaxSampleBytes: 1000},
		&observability.Logger{Logger: testZapLogger()},
	)
}

func TestHeuristicDetectorIdentifiesLanguages(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			"french",
			"Bonjour le monde, comment allez-vous aujourd'hui? J'espère que tout va bien pour vous et votre famille.",
			"fr",
		},
		{
			"spanish",
			"Hola mundo, ¿cómo estás hoy? Espero que todo vaya bien contigo y con tu familia querida.",
			"es",
		},
		{
			"english",
			"Hello world, how are you doing today? I hope everything is going well with you and your family.",
			"en",
		},
		{
			"german",
			"Hallo Welt, wie geht es dir heute? Ich hoffe, dass bei dir und deiner Familie alles gut läuft.",
			"de",
		},
		{
			"portuguese",
			"Olá mundo, como você está hoje? Espero que tudo esteja correndo bem com você e com a sua família.",
			"pt",
		},
	}

	detector := newTestHeuristicDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := detector.Detect(context.Background(), serviceinterfaces.DetectRequest{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.Language)
			assert.Greater(t, resp.Confidence, 0.0)
		})
	}
}

func TestHeuristicDetectorRejectsEmptyText(t *testing.T) {
	detector := newTestHeuristicDetector()

	_, err := detector.Detect(context.Background(), serviceinterfaces.DetectRequest{Text: "   "})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestNewLanguageDetectorProviderSelection(t *testing.T) {
	logger := &observability.Logger{Logger: testZapLogger()}

	detector := NewLanguageDetector(&config.DetectionConfig{Provider: "heuristic"}, logger)
	assert.IsType(t, &HeuristicDetector{}, detector)

	// The LLM provider without an API key degrades to the heuristic detector.
	detector = NewLanguageDetector(&config.DetectionConfig{Provider: "llm"}, logger)
	assert.IsType(t, &HeuristicDetector{}, detector)

	detector = NewLanguageDetector(&config.DetectionConfig{Provider: "llm", APIKey: "gsk_test"}, logger)
	assert.IsType(t, &LLMDetector{}, detector)
}

func TestNewLanguageDetectorLogsMaskedAPIKey(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := &observability.Logger{Logger: zap.New(core)}

	detector := NewLanguageDetector(&config.DetectionConfig{
		Provider: "llm",
		APIKey:   "gsk_abcdefghijkl7890",
	}, logger)
	require.IsType(t, &LLMDetector{}, detector)

	entries := logs.FilterMessage("Using LLM language detection").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gsk_************7890", entries[0].ContextMap()["api_key"])
}

func TestClipSample(t *testing.T) {
	assert.Equal(t, "abc", clipSample("abc", 10))
	assert.Equal(t, "abc", clipSample("abcdef", 3))
	assert.Equal(t, "abcdef", clipSample("abcdef", 0), "zero budget means unlimited")

	// Multi-byte runes are never cut in half.
	clipped := clipSample(strings.Repeat("é", 10), 5)
	assert.Equal(t, strings.Repeat("é", 2), clipped)
}

func TestLLMDetectorParseDetection(t *testing.T) {
	detector := NewLLMDetector(
		&config.DetectionConfig{Provider: "llm", APIKey: "gsk_test", MaxSampleBytes: 1000},
		&observability.Logger{Logger: testZapLogger()},
	)

	tests := []struct {
		name     string
		content  string
		expected string
		ok       bool
	}{
		{"plain json", `{"language": "pt", "confidence": 0.97}`, "pt", true},
		{"code fence", "```json\n{\"language\": \"fr\"}\n```", "fr", true},
		{"missing language", `{"confidence": 0.5}`, "", false},
		{"extra fields", `{"language": "es", "reasoning": "looks Spanish"}`, "", false},
		{"prose", "The language is French.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, ok := detector.parseDetection(context.Background(), tt.content)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotNil(t, resp)
				assert.Equal(t, tt.expected, resp.Language)
			}
		})
	}
}
