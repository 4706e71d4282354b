// Package models defines the domain types shared across the translator application.
package models

import (
	"strings"
	"time"
)

// DocumentFormat identifies the on-disk format of an input or output document.
type DocumentFormat string

const (
	// FormatText is a plain text document, one translation unit per line.
	FormatText DocumentFormat = "txt"
	// FormatDocx is a Word document with paragraph/run structure.
	FormatDocx DocumentFormat = "docx"
	// FormatPDF is a PDF document; only text extraction is supported.
	FormatPDF DocumentFormat = "pdf"
)

// ParseDocumentFormat maps a file extension (with or without leading dot)
// to a DocumentFormat. The second return value reports whether the
// extension is supported.
func ParseDocumentFormat(ext string) (DocumentFormat, bool) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "txt":
		return FormatText, true
	case "docx":
		return FormatDocx, true
	case "pdf":
		return FormatPDF, true
	default:
		return "", false
	}
}

// RunFormat carries the character formatting of a DOCX run. Zero values mean
// the source run does not set the attribute, so the writer can copy the rest
// over verbatim.
type RunFormat struct {
	Bold      bool    `json:"bold,omitempty"`
	Italic    bool    `json:"italic,omitempty"`
	Underline string  `json:"underline,omitempty"` // w:u style ("single", "double", ...), empty when unset
	FontName  string  `json:"font_name,omitempty"`
	FontSize  float64 `json:"font_size,omitempty"` // points, 0 when unset
	Color     string  `json:"color,omitempty"`     // hex RGB without '#', empty when unset
}

// TranslationUnit is the smallest independently-translatable piece of text:
// one line of a plain document, or one formatted run inside a DOCX paragraph.
// Unit order is an invariant preserved end-to-end through the pipeline.
type TranslationUnit struct {
	Text   string     `json:"text"`
	Format *RunFormat `json:"format,omitempty"`
	// Paragraph is the index of the owning paragraph for structured
	// documents; for line-based documents it equals the line index.
	Paragraph int `json:"paragraph"`
}

// IsBlank reports whether the unit carries no translatable content.
// Blank units are never sent to a translation capability.
func (u TranslationUnit) IsBlank() bool {
	return strings.TrimSpace(u.Text) == ""
}

// StructuredDocument is the parsed representation of an uploaded file:
// ordered translation units plus enough structure to rebuild the original
// layout (paragraph boundaries, run formatting).
type StructuredDocument struct {
	Format DocumentFormat    `json:"format"`
	Units  []TranslationUnit `json:"units"`
	// ParagraphCount is the number of paragraphs in the source document.
	ParagraphCount int `json:"paragraph_count"`
}

// PlainText joins all unit texts with newlines, used for language detection
// and for the empty-document check.
func (d *StructuredDocument) PlainText() string {
	texts := make([]string, len(d.Units))
	for i, u := range d.Units {
		texts[i] = u.Text
	}
	return strings.Join(texts, "\n")
}

// IsEmpty reports whether extraction produced only blank units.
func (d *StructuredDocument) IsEmpty() bool {
	for _, u := range d.Units {
		if !u.IsBlank() {
			return false
		}
	}
	return true
}

// LanguagePair is the model cache key: lower-case ISO 639-1 source and
// target codes. The source may carry a region suffix on input ("pt-BR");
// Normalized strips it to the base code before model lookup.
type LanguagePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// BaseLanguage strips an ISO 639-1 region suffix ("pt-BR" -> "pt") and
// lower-cases the result.
func BaseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		code = code[:idx]
	}
	return code
}

// Normalized returns the pair with both codes reduced to base languages.
func (p LanguagePair) Normalized() LanguagePair {
	return LanguagePair{Source: BaseLanguage(p.Source), Target: BaseLanguage(p.Target)}
}

// IsIdentity reports whether source and target resolve to the same base
// language, in which case no translation is required.
func (p LanguagePair) IsIdentity() bool {
	n := p.Normalized()
	return n.Source == n.Target
}

// String renders the pair as "src-tgt" for logging and cache diagnostics.
func (p LanguagePair) String() string {
	return p.Source + "-" + p.Target
}

// TranslationDelta is the result of one incremental session update.
type TranslationDelta struct {
	DetectedLanguage string `json:"detected_language"`
	FullTranslation  string `json:"full_translation"`
	// AppendOnly is true when FullTranslation extends the previous
	// translation, so the client may append Appended instead of
	// replacing its buffer.
	AppendOnly bool   `json:"append_only"`
	Appended   string `json:"appended,omitempty"`
}

// Artifact describes a persisted output file produced for a completed
// translation request. Artifacts are never mutated after creation; a
// retention sweep deletes them independently.
type Artifact struct {
	Filename  string         `json:"filename"`
	Path      string         `json:"-"`
	Format    DocumentFormat `json:"format"`
	SizeBytes int64          `json:"size_bytes"`
	CreatedAt time.Time      `json:"created_at"`
}
