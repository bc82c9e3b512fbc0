// Package api exposes the auth handoff and pickup-point endpoints over HTTP.
package api

import (
	"net/http"

	"tgstorefront/internal/middleware"
	"tgstorefront/internal/service"
	"tgstorefront/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the HTTP API
type Handler struct {
	authService   *service.AuthService
	pickupService *service.PickupService
	verifier      *session.Verifier
	cookieDomain  string
	webAppURL     string
	mapSessions   http.Handler
	logger        *zap.Logger
}

// Options configures a Handler
type Options struct {
	AuthService   *service.AuthService
	PickupService *service.PickupService
	Verifier      *session.Verifier
	CookieDomain  string
	WebAppURL     string
	// MapSessions serves the websocket map session; optional
	MapSessions http.Handler
	Logger      *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(opts Options) *Handler {
	return &Handler{
		authService:   opts.AuthService,
		pickupService: opts.PickupService,
		verifier:      opts.Verifier,
		cookieDomain:  opts.CookieDomain,
		webAppURL:     opts.WebAppURL,
		mapSessions:   opts.MapSessions,
		logger:        opts.Logger,
	}
}

// Router builds the gin engine with every route registered
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(h.logger))

	auth := r.Group("/auth")
	auth.POST("/telegram/exchange", h.handleExchange)
	auth.POST("/telegram/consume", h.handleConsume)
	auth.GET("/session", middleware.AuthMiddleware(h.verifier, h.logger), h.handleSession)

	r.GET("/pickup-points", h.handleListPoints)
	r.GET("/pickup-points/:id", h.handleGetPoint)

	r.GET("/app/qr.png", h.handleQR)

	if h.mapSessions != nil {
		r.GET("/pickup/ws", gin.WrapH(h.mapSessions))
	}

	return r
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
