package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	contextutils "translatorapp/internal/utils"

	docx "github.com/fumiama/go-docx"
	"github.com/google/uuid"
)

// Writer assembles translated units into a downloadable artifact.
type Writer struct {
	artifactDir string
	logger      *observability.Logger
}

// NewWriter creates a document writer storing artifacts under artifactDir.
func NewWriter(artifactDir string, logger *observability.Logger) *Writer {
	return &Writer{artifactDir: artifactDir, logger: logger}
}

// Write persists the translated units as an artifact matching the source
// document's format. Text and PDF sources produce a plain text artifact;
// DOCX sources are rebuilt with each source run's character formatting
// copied onto its translated counterpart.
func (w *Writer) Write(ctx context.Context, doc *models.StructuredDocument, translated []string, originalName string) (artifact *models.Artifact, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "write",
		observability.AttributeDocumentFormat(string(doc.Format)),
		observability.AttributeUnitCount(len(translated)),
	)
	defer observability.FinishSpan(span, &err)

	if len(translated) != len(doc.Units) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError,
			"translated unit count %d does not match document unit count %d", len(translated), len(doc.Units))
	}

	if err := os.MkdirAll(w.artifactDir, 0o755); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeArtifactWriteFailure,
			contextutils.SeverityError, "Failed to create artifact directory", w.artifactDir, err)
	}

	switch doc.Format {
	case models.FormatDocx:
		artifact, err = w.writeDocx(doc, translated, originalName)
	case models.FormatText, models.FormatPDF:
		artifact, err = w.writeText(translated, originalName)
	default:
		// Unknown source formats still get a well-formed result document.
		artifact, err = w.writeFlatDocx(translated, originalName)
	}
	if err != nil {
		return nil, err
	}

	w.logger.Info(ctx, "Artifact written", map[string]interface{}{
		"filename": artifact.Filename,
		"format":   string(artifact.Format),
		"bytes":    artifact.SizeBytes,
	})
	span.SetAttributes(observability.AttributeArtifact(artifact.Filename))
	return artifact, nil
}

// artifactName builds a collision-free artifact filename from the sanitized
// upload name.
func artifactName(originalName, ext string) string {
	base := contextutils.SanitizeFilename(originalName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "document"
	}
	return fmt.Sprintf("translated_%s_%s.%s", base, uuid.NewString(), ext)
}

func (w *Writer) newArtifact(filename string, format models.DocumentFormat) (*models.Artifact, error) {
	path := filepath.Join(w.artifactDir, filename)
	info, err := os.Stat(path)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeArtifactWriteFailure,
			contextutils.SeverityError, "Failed to stat artifact", path, err)
	}
	return &models.Artifact{
		Filename:  filename,
		Path:      path,
		Format:    format,
		SizeBytes: info.Size(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (w *Writer) writeText(translated []string, originalName string) (*models.Artifact, error) {
	filename := artifactName(originalName, "txt")
	path := filepath.Join(w.artifactDir, filename)

	content := strings.Join(translated, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeArtifactWriteFailure,
			contextutils.SeverityError, "Failed to write artifact", path, err)
	}
	return w.newArtifact(filename, models.FormatText)
}

func (w *Writer) writeDocx(doc *models.StructuredDocument, translated []string, originalName string) (*models.Artifact, error) {
	out := docx.New().WithDefaultTheme()

	paragraph := -1
	var current *docx.Paragraph
	for i, unit := range doc.Units {
		if unit.Paragraph != paragraph {
			paragraph = unit.Paragraph
			current = out.AddParagraph()
		}
		if translated[i] == "" && unit.Format == nil {
			continue
		}
		applyRunFormat(current.AddText(translated[i]), unit.Format)
	}

	return w.saveDocx(out, originalName)
}

// writeFlatDocx emits all translated units as paragraphs of a fresh document.
func (w *Writer) writeFlatDocx(translated []string, originalName string) (*models.Artifact, error) {
	out := docx.New().WithDefaultTheme()
	for _, line := range translated {
		p := out.AddParagraph()
		if line != "" {
			p.AddText(line)
		}
	}
	return w.saveDocx(out, originalName)
}

func (w *Writer) saveDocx(out *docx.Docx, originalName string) (*models.Artifact, error) {
	filename := artifactName(originalName, "docx")
	path := filepath.Join(w.artifactDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeArtifactWriteFailure,
			contextutils.SeverityError, "Failed to create artifact", path, err)
	}
	if _, err := out.WriteTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeArtifactWriteFailure,
			contextutils.SeverityError, "Failed to write artifact", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeArtifactWriteFailure,
			contextutils.SeverityError, "Failed to write artifact", path, err)
	}
	return w.newArtifact(filename, models.FormatDocx)
}

// applyRunFormat copies the source run's character formatting onto the
// translated run.
func applyRunFormat(run *docx.Run, format *models.RunFormat) {
	if format == nil {
		return
	}
	if format.Bold {
		run.Bold()
	}
	if format.Italic {
		run.Italic()
	}
	if format.Underline != "" {
		run.Underline(format.Underline)
	}
	if format.FontName != "" {
		run.Font(format.FontName, "", "", "")
	}
	if format.FontSize > 0 {
		// DOCX sizes are half-points
		run.Size(strconv.Itoa(int(format.FontSize * 2)))
	}
	if format.Color != "" {
		run.Color(format.Color)
	}
}
