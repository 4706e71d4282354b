package handlers

import (
	"net/http"

	"translatorapp/internal/observability"
	"translatorapp/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// liveSessionKey is the cookie-session key carrying the live session ID.
const liveSessionKey = "live_session_id"

// LiveHandler serves the live-typing incremental translation endpoint.
type LiveHandler struct {
	sessionService *services.SessionService
	logger         *observability.Logger
}

// NewLiveHandler creates the live translation handler.
func NewLiveHandler(sessionService *services.SessionService, logger *observability.Logger) *LiveHandler {
	return &LiveHandler{sessionService: sessionService, logger: logger}
}

// liveTranslateRequest is the live translation request body. Text is the
// client's entire current input, not a diff.
type liveTranslateRequest struct {
	Text string `json:"text"`
}

// Translate processes one live-typing update and returns the translation
// delta. The client is identified by its cookie session.
//
// POST /v1/live/translate
func (h *LiveHandler) Translate(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "live_translate")
	defer span.End()

	var req liveTranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleValidationError(c, "text", "", "request body must be JSON with a text field")
		return
	}

	delta, err := h.sessionService.Update(ctx, h.sessionID(c), req.Text)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, delta)
}

// sessionID returns the caller's live session ID, minting one on first use.
func (h *LiveHandler) sessionID(c *gin.Context) string {
	session := sessions.Default(c)
	if id, ok := session.Get(liveSessionKey).(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	session.Set(liveSessionKey, id)
	if err := session.Save(); err != nil {
		h.logger.Warn(c.Request.Context(), "Failed to persist live session cookie", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return id
}
