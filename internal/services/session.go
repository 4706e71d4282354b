package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/models"
	"translatorapp/internal/observability"
	"translatorapp/internal/serviceinterfaces"
	contextutils "translatorapp/internal/utils"
)

// liveSession holds the per-client state of an incremental translation:
// the last translation produced for the client's text.
type liveSession struct {
	lastTranslatedText string
	lastSeen           time.Time
}

// SessionService runs the live-typing translation flow. Each client session
// re-detects the language on every update, translates the full text, and
// reports whether the new translation merely extends the previous one so the
// client can append instead of redrawing.
type SessionService struct {
	cfg        *config.SessionConfig
	detector   serviceinterfaces.LanguageDetector
	translator serviceinterfaces.DocumentTranslator
	target     string
	logger     *observability.Logger

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewSessionService creates the live session manager.
func NewSessionService(cfg *config.SessionConfig, detector serviceinterfaces.LanguageDetector, translator serviceinterfaces.DocumentTranslator, targetLanguage string, logger *observability.Logger) *SessionService {
	return &SessionService{
		cfg:        cfg,
		detector:   detector,
		translator: translator,
		target:     targetLanguage,
		logger:     logger,
		sessions:   make(map[string]*liveSession),
	}
}

// Update processes the client's current full text for the given session and
// returns the translation delta. The session's last translation is updated
// unconditionally, including when the text shrank or was replaced.
func (s *SessionService) Update(ctx context.Context, sessionID, text string) (delta *models.TranslationDelta, err error) {
	ctx, span := observability.TraceSessionFunction(ctx, "update")
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(text) == "" {
		s.reset(sessionID)
		return &models.TranslationDelta{FullTranslation: ""}, nil
	}

	detected, err := s.detector.Detect(ctx, serviceinterfaces.DetectRequest{Text: text})
	if err != nil {
		return nil, contextutils.WrapError(err, "live detection failed")
	}
	span.SetAttributes(observability.AttributeLanguage(detected.Language))

	pair := models.LanguagePair{Source: detected.Language, Target: s.target}
	translated, _, err := s.translator.Translate(ctx, lineUnits(text), pair)
	if err != nil {
		return nil, err
	}
	full := strings.Join(translated, "\n")

	session := s.acquire(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The previous translation being a prefix of the new one is what lets
	// the client append instead of redrawing; a fresh session trivially
	// qualifies, so the first update appends the whole translation.
	appendOnly := strings.HasPrefix(full, session.lastTranslatedText)

	delta = &models.TranslationDelta{
		DetectedLanguage: detected.Language,
		FullTranslation:  full,
		AppendOnly:       appendOnly,
	}
	if appendOnly {
		delta.Appended = full[len(session.lastTranslatedText):]
	} else if !pair.IsIdentity() {
		delta.FullTranslation = replaceMarker(detected.Language, s.target) + " " + full
	}

	session.lastTranslatedText = full
	session.lastSeen = time.Now()
	return delta, nil
}

// replaceMarker prefixes a full redraw so the client can show what pair the
// translation used, e.g. "[ES → EN]".
func replaceMarker(source, target string) string {
	return "[" + strings.ToUpper(models.BaseLanguage(source)) + " → " + strings.ToUpper(models.BaseLanguage(target)) + "]"
}

// lineUnits wraps raw text lines as translation units.
func lineUnits(text string) []models.TranslationUnit {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	units := make([]models.TranslationUnit, len(lines))
	for i, line := range lines {
		units[i] = models.TranslationUnit{Text: line, Paragraph: i}
	}
	return units
}

// acquire returns the session for id, creating it on first use.
func (s *SessionService) acquire(id string) *liveSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		session = &liveSession{lastSeen: time.Now()}
		s.sessions[id] = session
	}
	return session
}

// reset clears the state of a session after the client emptied its input.
func (s *SessionService) reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[id]; ok {
		session.lastTranslatedText = ""
		session.lastSeen = time.Now()
	}
}

// ActiveSessions reports the number of live sessions currently tracked.
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle past the configured timeout and returns how many
// were removed.
func (s *SessionService) Sweep(ctx context.Context) int {
	_, span := observability.TraceSessionFunction(ctx, "sweep")
	defer span.End()

	cutoff := time.Now().Add(-s.cfg.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug(ctx, "Swept idle live sessions", map[string]interface{}{
			"removed":   removed,
			"remaining": len(s.sessions),
		})
	}
	return removed
}

// StartSweeper runs the idle sweep until ctx is cancelled.
func (s *SessionService) StartSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}
