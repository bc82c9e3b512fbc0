package handler

import (
	"fmt"
	"strings"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/geo"
	"tgstorefront/internal/points"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// nearestCount is how many points a location reply lists
const nearestCount = 3

// handleLocation answers a shared location with the nearest pickup points
func (h *Handler) handleLocation(c tele.Context) error {
	loc := c.Message().Location
	if loc == nil {
		return nil
	}

	userID := c.Sender().ID
	origin := geo.Coordinate{Lat: float64(loc.Lat), Lon: float64(loc.Lng)}
	h.SetLocation(userID, origin)

	h.logger.Info("Location received",
		zap.Int64("user_id", userID),
		zap.Float64("lat", origin.Lat),
		zap.Float64("lon", origin.Lon),
	)

	nearest := h.pickupService.Nearest(origin, nearestCount)
	return c.Send(formatNearest(nearest, ""), providerMarkup(""))
}

// formatNearest renders ranked points as a numbered message
func formatNearest(ranked []points.Ranked, provider domain.Provider) string {
	if len(ranked) == 0 {
		if provider != "" {
			return fmt.Sprintf("No %s pickup points found.", provider.DisplayName())
		}
		return "No pickup points found."
	}

	var b strings.Builder
	if provider != "" {
		fmt.Fprintf(&b, "📦 Nearest %s pickup points:\n", provider.DisplayName())
	} else {
		b.WriteString("📦 Nearest pickup points:\n")
	}

	for i, r := range ranked {
		fmt.Fprintf(&b, "\n%d. %s, %s\n   %s · %s · %s\n",
			i+1,
			r.Provider.DisplayName(),
			r.Address,
			formatDistance(r.DistanceKm),
			r.DeliveryText,
			r.PriceText,
		)
	}

	return b.String()
}

// formatDistance prints metres below one kilometre
func formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m", int(km*1000+0.5))
	}
	return fmt.Sprintf("%.1f km", km)
}

// providerMarkup returns one inline button per provider, marking the active one
func providerMarkup(active domain.Provider) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}

	btns := make([]tele.Btn, 0, len(domain.Providers)+1)
	for _, p := range domain.Providers {
		text := p.DisplayName()
		if p == active {
			text = "✅ " + text
		}
		btns = append(btns, menu.Data(text, btnProvider.Unique, string(p)))
	}

	allText := "All"
	if active == "" {
		allText = "✅ All"
	}
	btns = append(btns, menu.Data(allText, btnProvider.Unique, points.FilterAll))

	menu.Inline(menu.Split(3, btns)...)
	return menu
}
