package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDocumentFormat(t *testing.T) {
	tests := []struct {
		name     string
		ext      string
		expected DocumentFormat
		ok       bool
	}{
		{"txt with dot", ".txt", FormatText, true},
		{"txt without dot", "txt", FormatText, true},
		{"uppercase docx", ".DOCX", FormatDocx, true},
		{"pdf", ".pdf", FormatPDF, true},
		{"unsupported doc", ".doc", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, ok := ParseDocumentFormat(tt.ext)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pt", "pt"},
		{"pt-BR", "pt"},
		{"PT_br", "pt"},
		{" ES ", "es"},
		{"en-US", "en"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BaseLanguage(tt.input), "input %q", tt.input)
	}
}

func TestLanguagePairIdentity(t *testing.T) {
	assert.True(t, LanguagePair{Source: "en", Target: "en"}.IsIdentity())
	assert.True(t, LanguagePair{Source: "EN-us", Target: "en"}.IsIdentity())
	assert.False(t, LanguagePair{Source: "fr", Target: "en"}.IsIdentity())
}

func TestLanguagePairNormalized(t *testing.T) {
	pair := LanguagePair{Source: "PT-br", Target: "EN"}
	assert.Equal(t, LanguagePair{Source: "pt", Target: "en"}, pair.Normalized())
	assert.Equal(t, "pt-en", pair.Normalized().String())
}

func TestTranslationUnitIsBlank(t *testing.T) {
	assert.True(t, TranslationUnit{Text: ""}.IsBlank())
	assert.True(t, TranslationUnit{Text: "  \t "}.IsBlank())
	assert.False(t, TranslationUnit{Text: "hola"}.IsBlank())
}

func TestStructuredDocumentIsEmpty(t *testing.T) {
	doc := &StructuredDocument{Units: []TranslationUnit{{Text: ""}, {Text: "   "}}}
	assert.True(t, doc.IsEmpty())

	doc.Units = append(doc.Units, TranslationUnit{Text: "bonjour"})
	assert.False(t, doc.IsEmpty())
}

func TestStructuredDocumentPlainText(t *testing.T) {
	doc := &StructuredDocument{Units: []TranslationUnit{
		{Text: "uno"},
		{Text: ""},
		{Text: "dos"},
	}}
	assert.Equal(t, "uno\n\ndos", doc.PlainText())
}
