package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const helpText = "Open the storefront with the button below and pick a pickup point on the map.\n\n" +
	"Share your location and I will list the three nearest pickup points."

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	h.logger.Info("User started bot",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("username", c.Sender().Username),
	)

	if h.webAppURL == "" {
		h.logger.Warn("WEBAPP_URL is not set, sending location keyboard only")
		return c.Send("👋 Welcome!\n\n"+helpText, locationMarkup())
	}

	if err := c.Send("👋 Welcome!\n\n"+helpText, launcherMarkup(h.webAppURL)); err != nil {
		return err
	}
	return c.Send("Or share your location:", locationMarkup())
}

// handleHelp handles /help command
func (h *Handler) handleHelp(c tele.Context) error {
	return c.Send(helpText, locationMarkup())
}
