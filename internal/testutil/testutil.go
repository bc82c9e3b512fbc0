package testutil

import (
	"net/url"
	"strconv"
	"time"

	"tgstorefront/internal/domain"
	"tgstorefront/internal/tgauth"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a Telegram user payload
func NewTestUser(id int64, username string) domain.TelegramUser {
	return domain.TelegramUser{
		"id":         float64(id),
		"first_name": "Test",
		"username":   username,
	}
}

// SignedInitData builds initData for the user signed with botToken,
// with auth_date set to authDate
func SignedInitData(user string, authDate time.Time, botToken string) string {
	fields := map[string]string{
		"query_id":  "AAH-test-query",
		"user":      user,
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
	}

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", tgauth.SignDataCheckString(tgauth.DataCheckString(fields), botToken))
	return values.Encode()
}
