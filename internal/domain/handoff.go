package domain

// TelegramUser is the decoded "user" object from verified initData.
// Kept as a generic JSON object so every field Telegram sends survives
// the round trip into the session token.
type TelegramUser map[string]interface{}

// ID returns the numeric Telegram user id, or 0 when absent
func (u TelegramUser) ID() int64 {
	switch v := u["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Username returns the Telegram username, if any
func (u TelegramUser) Username() string {
	s, _ := u["username"].(string)
	return s
}

// HandoffRecord is a short-lived one-time code bound to a verified user
type HandoffRecord struct {
	User        TelegramUser `json:"user"`
	CreatedAtMs int64        `json:"createdAtMs"`
	ExpiresAtMs int64        `json:"expiresAtMs"`
}

// Expired reports whether the record is no longer consumable at nowMs
func (r HandoffRecord) Expired(nowMs int64) bool {
	return r.ExpiresAtMs <= nowMs
}
