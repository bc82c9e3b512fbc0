package handler

import (
	"strings"
	"unicode"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/points"
	"tgstorefront/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// parseProviderData maps callback data to a provider filter; "" means all providers
func parseProviderData(data string) (domain.Provider, bool) {
	data = cleanCallbackData(data)
	if data == points.FilterAll {
		return "", true
	}

	p := domain.Provider(data)
	if !p.Valid() {
		return "", false
	}
	return p, true
}

// handleEditError handles errors from c.Edit(). An unmodified message only needs the callback acknowledged.
func (h *Handler) handleEditError(err error, c tele.Context) error {
	if err == nil {
		return nil
	}

	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already up to date",
			zap.Int64("user_id", c.Sender().ID),
			zap.String("callback_id", c.Callback().ID),
		)
		return c.Respond()
	}

	h.logger.Warn("Failed to edit message",
		zap.Error(err),
		zap.Int64("user_id", c.Sender().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// handleProvider re-ranks the user's last location for one provider
func (h *Handler) handleProvider(c tele.Context) error {
	userID := c.Sender().ID

	provider, ok := parseProviderData(c.Callback().Data)
	if !ok {
		h.logger.Warn("Unknown provider in callback",
			zap.Int64("user_id", userID),
			zap.String("data", c.Callback().Data),
		)
		return c.Respond(&tele.CallbackResponse{Text: "Unknown provider"})
	}

	origin, exists := h.GetLocation(userID)
	if !exists {
		return c.Respond(&tele.CallbackResponse{Text: "Share your location first", ShowAlert: true})
	}

	ranked, err := h.pickupService.List(service.ListQuery{
		Provider: string(provider),
		Origin:   &origin,
		Limit:    nearestCount,
	})
	if err != nil {
		h.logger.Error("Failed to list pickup points", zap.Error(err))
		return c.Respond(&tele.CallbackResponse{Text: "Something went wrong. Try again later."})
	}

	if err := c.Edit(formatNearest(ranked, provider), providerMarkup(provider)); err != nil {
		return h.handleEditError(err, c)
	}
	return c.Respond()
}

// handleCallback acknowledges callbacks no other handler claimed
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", cleanCallbackData(callback.Data)),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)
	return c.Respond()
}
