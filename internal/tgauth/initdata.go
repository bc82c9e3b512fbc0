// Package tgauth verifies Telegram WebApp initData and issues self-signed
// session tokens and one-time handoff codes.
package tgauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tgstorefront/internal/domain"
)

// DefaultMaxAge is the freshness window applied when none is given
const DefaultMaxAge = 300 * time.Second

// webAppDataKey is the HMAC key Telegram uses to derive the secret from the bot token
const webAppDataKey = "WebAppData"

var (
	ErrMissingInitData  = errors.New("initData is required")
	ErrMissingBotToken  = errors.New("bot token is required")
	ErrMissingHash      = errors.New("initData hash is missing")
	ErrStaleInitData    = errors.New("initData is stale")
	ErrInvalidSignature = errors.New("invalid initData signature")
)

// ValidateParams are the inputs of ValidateInitData
type ValidateParams struct {
	InitData string
	BotToken string
	// MaxAge defaults to DefaultMaxAge when zero
	MaxAge time.Duration
	// Now defaults to time.Now
	Now func() time.Time
}

// InitData is the verified content of a Telegram initData string
type InitData struct {
	Fields map[string]string
	// User is nil when the user field is absent or not a JSON object
	User     domain.TelegramUser
	AuthDate int64
}

// ValidateInitData checks the initData signature and freshness.
// When auth_date is absent the freshness check is skipped.
func ValidateInitData(p ValidateParams) (*InitData, error) {
	if strings.TrimSpace(p.InitData) == "" {
		return nil, ErrMissingInitData
	}
	if p.BotToken == "" {
		return nil, ErrMissingBotToken
	}

	maxAge := p.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	values, err := url.ParseQuery(p.InitData)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrMissingHash
	}

	fields := make(map[string]string, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		fields[key] = values.Get(key)
	}

	var authDate int64
	if raw, ok := fields["auth_date"]; ok {
		authDate, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, ErrStaleInitData
		}
		age := math.Abs(float64(now().Unix() - authDate))
		if age > maxAge.Seconds() {
			return nil, ErrStaleInitData
		}
	}

	expected := SignDataCheckString(DataCheckString(fields), p.BotToken)
	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return nil, ErrInvalidSignature
	}

	result := &InitData{
		Fields:   fields,
		AuthDate: authDate,
	}

	if raw, ok := fields["user"]; ok {
		var user domain.TelegramUser
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			result.User = user
		}
	}

	return result, nil
}

// DataCheckString joins key=value pairs sorted by key with newlines
func DataCheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + fields[k]
	}
	return strings.Join(lines, "\n")
}

// SignDataCheckString returns the lowercase hex signature Telegram would
// attach to a data-check-string for the given bot token
func SignDataCheckString(dataCheckString, botToken string) string {
	secret := hmacSHA256([]byte(webAppDataKey), []byte(botToken))
	return hex.EncodeToString(hmacSHA256(secret, []byte(dataCheckString)))
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
