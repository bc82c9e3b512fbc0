package api

import (
	"errors"
	"net/http"

	"tgstorefront/internal/middleware"
	"tgstorefront/internal/service"
	"tgstorefront/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type exchangeRequest struct {
	InitData interface{} `json:"initData"`
}

type consumeRequest struct {
	Handoff interface{} `json:"handoff"`
}

// nonEmptyString accepts only a JSON string with content
func nonEmptyString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}

// handleExchange handles POST /auth/telegram/exchange
func (h *Handler) handleExchange(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	initData, ok := nonEmptyString(req.InitData)
	if !ok {
		errorJSON(c, http.StatusBadRequest, "initData must be a non-empty string")
		return
	}

	launchURL, err := h.authService.Exchange(c.Request.Context(), initData)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"launchUrl": launchURL})
}

// handleConsume handles POST /auth/telegram/consume
func (h *Handler) handleConsume(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	handoff, ok := nonEmptyString(req.Handoff)
	if !ok {
		errorJSON(c, http.StatusBadRequest, "handoff must be a non-empty string")
		return
	}

	token, err := h.authService.Consume(c.Request.Context(), handoff)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cookieDomain,
		MaxAge:   int(session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleSession handles GET /auth/session
func (h *Handler) handleSession(c *gin.Context) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		errorJSON(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": claims.User,
		"exp":  claims.ExpiresAt.Unix(),
	})
}

func (h *Handler) writeAuthError(c *gin.Context, err error) {
	var verr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrNotConfigured):
		h.logger.Error("Auth endpoint misconfigured", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, err.Error())
	case errors.As(err, &verr):
		errorJSON(c, http.StatusUnauthorized, verr.Error())
	case errors.Is(err, service.ErrInvalidHandoff):
		errorJSON(c, http.StatusUnauthorized, service.ErrInvalidHandoff.Error())
	default:
		h.logger.Error("Auth request failed", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
}
