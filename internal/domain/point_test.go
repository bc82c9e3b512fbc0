package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProvider_Valid(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		expected bool
	}{
		{name: "cdek", provider: ProviderCDEK, expected: true},
		{name: "boxberry", provider: ProviderBoxberry, expected: true},
		{name: "pochta", provider: ProviderPochta, expected: true},
		{name: "yandex", provider: ProviderYandex, expected: true},
		{name: "all is not a provider", provider: "all", expected: false},
		{name: "empty", provider: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.Valid())
		})
	}
}

func TestTelegramUser_ID(t *testing.T) {
	assert.Equal(t, int64(42), TelegramUser{"id": float64(42)}.ID())
	assert.Equal(t, int64(0), TelegramUser{}.ID())
	assert.Equal(t, "durov", TelegramUser{"username": "durov"}.Username())
}

func TestHandoffRecord_Expired(t *testing.T) {
	rec := HandoffRecord{CreatedAtMs: 1000, ExpiresAtMs: 61000}

	assert.False(t, rec.Expired(60999))
	assert.True(t, rec.Expired(61000))
	assert.True(t, rec.Expired(70000))
}
