package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	contextutils "translatorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *observability.Logger {
	return &observability.Logger{Logger: zap.NewNop()}
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestReadTextUTF8(t *testing.T) {
	path := writeTempFile(t, "sample.txt", []byte("Primera línea\nSegunda línea\n\nCuarta"))
	reader := NewReader(testLogger())

	doc, err := reader.Read(context.Background(), path, models.FormatText)
	require.NoError(t, err)

	assert.Equal(t, models.FormatText, doc.Format)
	require.Len(t, doc.Units, 4)
	assert.Equal(t, "Primera línea", doc.Units[0].Text)
	assert.Equal(t, "Segunda línea", doc.Units[1].Text)
	assert.True(t, doc.Units[2].IsBlank())
	assert.Equal(t, "Cuarta", doc.Units[3].Text)
}

func TestReadTextUTF8BOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Bonjour le monde")...)
	path := writeTempFile(t, "bom.txt", content)
	reader := NewReader(testLogger())

	doc, err := reader.Read(context.Background(), path, models.FormatText)
	require.NoError(t, err)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, "Bonjour le monde", doc.Units[0].Text, "the BOM must not leak into the text")
}

func TestReadTextLatin1(t *testing.T) {
	// "Olá São Paulo" in Latin-1: á=0xE1, ã=0xE3 are invalid UTF-8 on their own.
	content := []byte{'O', 'l', 0xE1, ' ', 'S', 0xE3, 'o', ' ', 'P', 'a', 'u', 'l', 'o'}
	path := writeTempFile(t, "latin1.txt", content)
	reader := NewReader(testLogger())

	doc, err := reader.Read(context.Background(), path, models.FormatText)
	require.NoError(t, err)
	require.Len(t, doc.Units, 1)
	assert.Equal(t, "Olá São Paulo", doc.Units[0].Text)
}

func TestReadTextCRLFNormalized(t *testing.T) {
	path := writeTempFile(t, "crlf.txt", []byte("eins\r\nzwei\r\ndrei"))
	reader := NewReader(testLogger())

	doc, err := reader.Read(context.Background(), path, models.FormatText)
	require.NoError(t, err)
	require.Len(t, doc.Units, 3)
	assert.Equal(t, "zwei", doc.Units[1].Text)
}

func TestReadMissingFile(t *testing.T) {
	reader := NewReader(testLogger())

	_, err := reader.Read(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), models.FormatText)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeUnreadableFile, contextutils.GetErrorCode(err))
}

func TestReadCorruptDocx(t *testing.T) {
	path := writeTempFile(t, "broken.docx", []byte("this is not a zip archive"))
	reader := NewReader(testLogger())

	_, err := reader.Read(context.Background(), path, models.FormatDocx)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeUnreadableFile, contextutils.GetErrorCode(err))
}

func TestReadUnsupportedFormat(t *testing.T) {
	path := writeTempFile(t, "sample.txt", []byte("text"))
	reader := NewReader(testLogger())

	_, err := reader.Read(context.Background(), path, models.DocumentFormat("rtf"))
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeUnsupportedExtension, contextutils.GetErrorCode(err))
}
