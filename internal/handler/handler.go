package handler

import (
	"sync"

	"tgstorefront/internal/geo"
	"tgstorefront/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Handler manages all bot interactions
type Handler struct {
	bot           *tele.Bot
	pickupService *service.PickupService
	webAppURL     string
	logger        *zap.Logger

	// Last location shared by each user, used by the provider buttons
	locations   map[int64]geo.Coordinate
	locationMux sync.RWMutex
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	pickupService *service.PickupService,
	webAppURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:           bot,
		pickupService: pickupService,
		webAppURL:     webAppURL,
		logger:        logger,
		locations:     make(map[int64]geo.Coordinate),
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/help", h.handleHelp)

	// Shared locations
	h.bot.Handle(tele.OnLocation, h.handleLocation)

	// Callback queries (inline buttons)
	h.bot.Handle(&btnProvider, h.handleProvider)
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// GetLocation returns the last location shared by the user
func (h *Handler) GetLocation(userID int64) (geo.Coordinate, bool) {
	h.locationMux.RLock()
	defer h.locationMux.RUnlock()

	loc, exists := h.locations[userID]
	return loc, exists
}

// SetLocation remembers the user's location
func (h *Handler) SetLocation(userID int64, loc geo.Coordinate) {
	h.locationMux.Lock()
	defer h.locationMux.Unlock()
	h.locations[userID] = loc
}

// Buttons
var (
	btnProvider = tele.Btn{Unique: "provider"}
)

// launcherMarkup returns the inline keyboard that opens the Mini App
func launcherMarkup(webAppURL string) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.WebApp("🛍 Open storefront", &tele.WebApp{URL: webAppURL})),
	)
	return menu
}

// locationMarkup returns the reply keyboard asking for the user's location
func locationMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Location("📍 Find nearest pickup points")),
	)
	return menu
}
