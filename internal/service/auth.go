package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"tgstorefront/internal/config"
	"tgstorefront/internal/domain"
	"tgstorefront/internal/repository"
	"tgstorefront/internal/session"
	"tgstorefront/internal/tgauth"

	"go.uber.org/zap"
)

const (
	// HandoffTTL is how long a one-time code stays consumable
	HandoffTTL = 60 * time.Second
	// InitDataMaxAge is the freshness window for Telegram initData
	InitDataMaxAge = 300 * time.Second
)

var (
	ErrNotConfigured  = errors.New("server is not configured")
	ErrInvalidHandoff = errors.New("Invalid or expired handoff")
)

// ValidationError wraps an initData rejection; its message is safe to show the client
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthService handles the Telegram exchange/consume handoff
type AuthService struct {
	store  repository.HandoffStore
	users  repository.UserRepository
	cfg    config.AuthConfig
	logger *zap.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// NewAuthService creates a new auth service. users may be nil.
func NewAuthService(
	store repository.HandoffStore,
	users repository.UserRepository,
	cfg config.AuthConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		store:   store,
		users:   users,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		newCode: tgauth.RandomHandoffCode,
	}
}

// Exchange verifies initData and returns the external app URL carrying a fresh handoff code
func (s *AuthService) Exchange(ctx context.Context, initData string) (string, error) {
	if s.cfg.BotToken == "" {
		return "", fmt.Errorf("%w: TG_BOT_TOKEN is not set", ErrNotConfigured)
	}
	if s.cfg.ExternalAppURL == "" {
		return "", fmt.Errorf("%w: EXTERNAL_APP_URL is not set", ErrNotConfigured)
	}

	launch, err := url.Parse(s.cfg.ExternalAppURL)
	if err != nil {
		return "", fmt.Errorf("%w: EXTERNAL_APP_URL is invalid", ErrNotConfigured)
	}

	data, err := tgauth.ValidateInitData(tgauth.ValidateParams{
		InitData: initData,
		BotToken: s.cfg.BotToken,
		MaxAge:   InitDataMaxAge,
		Now:      s.now,
	})
	if err != nil {
		s.logger.Info("Rejected Telegram initData", zap.Error(err))
		return "", &ValidationError{Err: err}
	}

	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate handoff code: %w", err)
	}

	now := s.now()
	record := domain.HandoffRecord{
		User:        data.User,
		CreatedAtMs: now.UnixMilli(),
		ExpiresAtMs: now.Add(HandoffTTL).UnixMilli(),
	}
	if err := s.store.Set(ctx, code, record); err != nil {
		return "", fmt.Errorf("failed to store handoff code: %w", err)
	}

	q := launch.Query()
	q.Set("handoff", code)
	launch.RawQuery = q.Encode()

	s.logger.Info("Issued handoff code", zap.Int64("user_id", data.User.ID()))

	return launch.String(), nil
}

// Consume redeems a handoff code and returns a signed session token
func (s *AuthService) Consume(ctx context.Context, handoff string) (string, error) {
	if s.cfg.SessionJWTSecret == "" {
		return "", fmt.Errorf("%w: SESSION_JWT_SECRET is not set", ErrNotConfigured)
	}

	record, err := s.store.Consume(ctx, handoff)
	if err != nil {
		return "", fmt.Errorf("failed to consume handoff code: %w", err)
	}
	if record == nil {
		return "", ErrInvalidHandoff
	}

	if s.users != nil && record.User != nil {
		if err := s.users.RecordLogin(ctx, record.User); err != nil {
			s.logger.Warn("Failed to record user login",
				zap.Int64("user_id", record.User.ID()),
				zap.Error(err),
			)
		}
	}

	token, err := session.Issue(record.User, s.cfg.SessionIssuer, []byte(s.cfg.SessionJWTSecret), s.now())
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	s.logger.Info("Session issued", zap.Int64("user_id", record.User.ID()))

	return token, nil
}
