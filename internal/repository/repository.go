package repository

import (
	"context"

	"tgstorefront/internal/domain"
)

// HandoffStore keeps one-time handoff codes.
// Consume returns (nil, nil) when the code is unknown, expired or already
// consumed; callers cannot tell these cases apart.
type HandoffStore interface {
	Set(ctx context.Context, code string, record domain.HandoffRecord) error
	Consume(ctx context.Context, code string) (*domain.HandoffRecord, error)
}

// HandoffSweeper is implemented by stores that need periodic removal of
// expired codes
type HandoffSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// UserRepository records Telegram users that completed the handoff
type UserRepository interface {
	RecordLogin(ctx context.Context, user domain.TelegramUser) error
}
