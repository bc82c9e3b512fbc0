package testutil

import (
	"context"

	"tgstorefront/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockHandoffStore is a mock for repository.HandoffStore
type MockHandoffStore struct {
	mock.Mock
}

func (m *MockHandoffStore) Set(ctx context.Context, code string, record domain.HandoffRecord) error {
	args := m.Called(ctx, code, record)
	return args.Error(0)
}

func (m *MockHandoffStore) Consume(ctx context.Context, code string) (*domain.HandoffRecord, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HandoffRecord), args.Error(1)
}

// MockUserRepository is a mock for repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, user domain.TelegramUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockHandoffSweeper is a mock for repository.HandoffSweeper
type MockHandoffSweeper struct {
	mock.Mock
}

func (m *MockHandoffSweeper) Sweep(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
