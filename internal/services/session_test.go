package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDetector returns a fixed language per call, defaulting to "es".
type fakeDetector struct {
	language string
}

func (f *fakeDetector) Detect(_ context.Context, _ serviceinterfaces.DetectRequest) (*serviceinterfaces.DetectResponse, error) {
	lang := f.language
	if lang == "" {
		lang = "es"
	}
	return &serviceinterfaces.DetectResponse{Language: lang, Confidence: 0.99}, nil
}

// fakeTranslator upper-cases every unit; identity pairs pass through.
type fakeTranslator struct{}

func (f *fakeTranslator) Translate(_ context.Context, units []models.TranslationUnit, pair models.LanguagePair) ([]string, bool, error) {
	out := make([]string, len(units))
	if pair.IsIdentity() {
		for i, u := range units {
			out[i] = u.Text
		}
		return out, false, nil
	}
	for i, u := range units {
		out[i] = strings.ToUpper(u.Text)
	}
	return out, true, nil
}

func newTestSessionService(detector serviceinterfaces.LanguageDetector) *SessionService {
	return NewSessionService(
		&config.SessionConfig{IdleTimeout: 10 * time.Minute, SweepInterval: time.Minute},
		detector,
		&fakeTranslator{},
		"en",
		&observability.Logger{Logger: testZapLogger()},
	)
}

func TestSessionUpdateFirstUpdateAppendsWholeTranslation(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{})

	delta, err := svc.Update(context.Background(), "client-1", "Hola")
	require.NoError(t, err)

	// The empty previous translation is a prefix of anything, so a fresh
	// session appends the full translation without a redraw marker.
	assert.Equal(t, "es", delta.DetectedLanguage)
	assert.True(t, delta.AppendOnly)
	assert.Equal(t, "HOLA", delta.Appended)
	assert.Equal(t, "HOLA", delta.FullTranslation)
}

func TestSessionUpdateAppendExtendsTranslation(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{})

	_, err := svc.Update(context.Background(), "client-1", "Hola")
	require.NoError(t, err)

	delta, err := svc.Update(context.Background(), "client-1", "Hola mundo")
	require.NoError(t, err)

	assert.True(t, delta.AppendOnly)
	assert.Equal(t, "HOLA MUNDO", delta.FullTranslation)
	assert.Equal(t, " MUNDO", delta.Appended)
}

func TestSessionUpdateReplacedTextRedraws(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{})

	_, err := svc.Update(context.Background(), "client-1", "Hola mundo")
	require.NoError(t, err)

	delta, err := svc.Update(context.Background(), "client-1", "Adios mundo")
	require.NoError(t, err)

	assert.False(t, delta.AppendOnly)
	assert.Empty(t, delta.Appended)
	assert.Equal(t, "[ES → EN] ADIOS MUNDO", delta.FullTranslation)
}

func TestSessionUpdateEnglishTextPassesThrough(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{language: "en"})

	delta, err := svc.Update(context.Background(), "client-1", "Hello world")
	require.NoError(t, err)

	assert.Equal(t, "en", delta.DetectedLanguage)
	// Identity pairs get no redraw marker.
	assert.Equal(t, "Hello world", delta.FullTranslation)
}

func TestSessionUpdateEmptyTextResetsSession(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{})

	_, err := svc.Update(context.Background(), "client-1", "Hola")
	require.NoError(t, err)

	delta, err := svc.Update(context.Background(), "client-1", "   ")
	require.NoError(t, err)
	assert.Empty(t, delta.FullTranslation)

	// The next update starts from empty state, not from the stale "HOLA".
	delta, err = svc.Update(context.Background(), "client-1", "Adios")
	require.NoError(t, err)
	assert.True(t, delta.AppendOnly)
	assert.Equal(t, "ADIOS", delta.Appended)
}

func TestSessionsAreIsolatedPerClient(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{})

	_, err := svc.Update(context.Background(), "client-1", "Hola")
	require.NoError(t, err)

	delta, err := svc.Update(context.Background(), "client-2", "Hola mundo")
	require.NoError(t, err)
	assert.Equal(t, "HOLA MUNDO", delta.Appended,
		"a different client must not append onto client-1's state")
	assert.Equal(t, 2, svc.ActiveSessions())
}

func TestSweepDropsIdleSessions(t *testing.T) {
	svc := newTestSessionService(&fakeDetector{})

	_, err := svc.Update(context.Background(), "client-1", "Hola")
	require.NoError(t, err)
	_, err = svc.Update(context.Background(), "client-2", "Adios")
	require.NoError(t, err)

	// Age client-1 past the idle timeout.
	svc.mu.Lock()
	svc.sessions["client-1"].lastSeen = time.Now().Add(-time.Hour)
	svc.mu.Unlock()

	removed := svc.Sweep(context.Background())
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, svc.ActiveSessions())
}
