// Package document extracts translation units from uploaded files and
// reassembles translated units into output artifacts.
package document

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	contextutils "translatorapp/internal/utils"

	docx "github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Reader extracts a StructuredDocument from an uploaded file.
type Reader struct {
	logger *observability.Logger
}

// NewReader creates a document reader.
func NewReader(logger *observability.Logger) *Reader {
	return &Reader{logger: logger}
}

// Read parses the file at path according to format and returns its ordered
// translation units. It returns ErrUnreadableFile when decoding or parsing
// fails; an extraction that yields only blank units is reported by the
// document itself (IsEmpty), not as an error.
func (r *Reader) Read(ctx context.Context, path string, format models.DocumentFormat) (doc *models.StructuredDocument, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "read",
		observability.AttributeDocumentFormat(string(format)),
	)
	defer observability.FinishSpan(span, &err)

	switch format {
	case models.FormatText:
		doc, err = r.readText(path)
	case models.FormatDocx:
		doc, err = r.readDocx(path)
	case models.FormatPDF:
		doc, err = r.readPDF(ctx, path)
	default:
		return nil, contextutils.WrapError(contextutils.ErrUnsupportedExtension, "unsupported document format: "+string(format))
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(observability.AttributeUnitCount(len(doc.Units)))
	return doc, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textEncodings is the decoding ladder for plain text uploads that are not
// valid UTF-8, tried in order.
var textEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"latin-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
}

func (r *Reader) readText(path string) (*models.StructuredDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeUnreadableFile,
			contextutils.SeverityWarn, "File could not be read", path, err)
	}

	text, ok := decodeText(raw)
	if !ok {
		return nil, contextutils.WrapError(contextutils.ErrUnreadableFile, "no supported encoding could decode the file")
	}

	return lineDocument(text, models.FormatText), nil
}

// decodeText tries UTF-8 (with or without a BOM) first, then the legacy
// encoding ladder.
func decodeText(raw []byte) (string, bool) {
	if bytes.HasPrefix(raw, utf8BOM) {
		rest := bytes.TrimPrefix(raw, utf8BOM)
		if utf8.Valid(rest) {
			return string(rest), true
		}
		raw = rest
	}
	if utf8.Valid(raw) {
		return string(raw), true
	}
	for _, e := range textEncodings {
		decoded, err := e.enc.NewDecoder().Bytes(raw)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded), true
		}
	}
	return "", false
}

// lineDocument splits text into line-granularity units.
func lineDocument(text string, format models.DocumentFormat) *models.StructuredDocument {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	units := make([]models.TranslationUnit, len(lines))
	for i, line := range lines {
		units[i] = models.TranslationUnit{Text: line, Paragraph: i}
	}
	return &models.StructuredDocument{
		Format:         format,
		Units:          units,
		ParagraphCount: len(lines),
	}
}

func (r *Reader) readDocx(path string) (*models.StructuredDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeUnreadableFile,
			contextutils.SeverityWarn, "File could not be read", path, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeUnreadableFile,
			contextutils.SeverityWarn, "File could not be read", path, err)
	}

	parsed, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeUnreadableFile,
			contextutils.SeverityWarn, "DOCX file could not be parsed", path, err)
	}

	var units []models.TranslationUnit
	paragraph := 0
	for _, item := range parsed.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		runsInParagraph := 0
		for _, child := range p.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			units = append(units, models.TranslationUnit{
				Text:      runText(run),
				Format:    runFormat(run),
				Paragraph: paragraph,
			})
			runsInParagraph++
		}
		// An empty paragraph still occupies a slot in the output document.
		if runsInParagraph == 0 {
			units = append(units, models.TranslationUnit{Paragraph: paragraph})
		}
		paragraph++
	}

	return &models.StructuredDocument{
		Format:         models.FormatDocx,
		Units:          units,
		ParagraphCount: paragraph,
	}, nil
}

// runText concatenates the text nodes of a run.
func runText(run *docx.Run) string {
	var b strings.Builder
	for _, child := range run.Children {
		if t, ok := child.(*docx.Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// runFormat captures the run's character formatting so the writer can copy
// it onto the translated run verbatim.
func runFormat(run *docx.Run) *models.RunFormat {
	props := run.RunProperties
	if props == nil {
		return nil
	}

	format := &models.RunFormat{
		Bold:   props.Bold != nil,
		Italic: props.Italic != nil,
	}
	if props.Underline != nil {
		// Keep the underline style as written so it round-trips untouched;
		// a bare <w:u> means single.
		format.Underline = props.Underline.Val
		if format.Underline == "" {
			format.Underline = "single"
		}
	}
	if props.Fonts != nil {
		format.FontName = props.Fonts.ASCII
	}
	if props.Size != nil {
		// DOCX sizes are half-points
		if halfPoints, err := strconv.ParseFloat(props.Size.Val, 64); err == nil {
			format.FontSize = halfPoints / 2
		}
	}
	if props.Color != nil {
		format.Color = props.Color.Val
	}
	return format
}

func (r *Reader) readPDF(ctx context.Context, path string) (*models.StructuredDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeUnreadableFile,
			contextutils.SeverityWarn, "PDF file could not be parsed", path, err)
	}
	defer func() { _ = f.Close() }()

	pages := make([]string, 0, reader.NumPage())
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages without an extractable text layer contribute an empty
			// string; the caller decides whether the whole document is empty.
			r.logger.Warn(ctx, "PDF page yielded no text", map[string]interface{}{
				"page":  pageIndex,
				"error": err.Error(),
			})
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimRight(text, "\n"))
	}

	return lineDocument(strings.Join(pages, "\n"), models.FormatPDF), nil
}
