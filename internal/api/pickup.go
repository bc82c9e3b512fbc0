package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"tgstorefront/internal/geo"
	"tgstorefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

// handleListPoints handles GET /pickup-points
func (h *Handler) handleListPoints(c *gin.Context) {
	q := service.ListQuery{Provider: c.Query("provider")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			errorJSON(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		q.Limit = limit
	}

	latRaw, lonRaw := c.Query("lat"), c.Query("lon")
	if latRaw != "" || lonRaw != "" {
		origin, ok := parseCoordinate(latRaw, lonRaw)
		if !ok {
			errorJSON(c, http.StatusBadRequest, "lat and lon must be valid coordinates")
			return
		}
		q.Origin = &origin
	}

	result, err := h.pickupService.List(q)
	if errors.Is(err, service.ErrUnknownProvider) {
		errorJSON(c, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Failed to list pickup points", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": result})
}

// handleGetPoint handles GET /pickup-points/:id
func (h *Handler) handleGetPoint(c *gin.Context) {
	p, err := h.pickupService.Get(c.Param("id"))
	if err != nil {
		errorJSON(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleQR handles GET /app/qr.png
func (h *Handler) handleQR(c *gin.Context) {
	if h.webAppURL == "" {
		errorJSON(c, http.StatusNotFound, "WEBAPP_URL is not configured")
		return
	}

	png, err := qrcode.Encode(h.webAppURL, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("Failed to render QR code", zap.Error(err))
		errorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func parseCoordinate(latRaw, lonRaw string) (geo.Coordinate, bool) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return geo.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, true
}
