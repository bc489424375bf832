package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wrale/wrale-panels/internal/wpaneld/config"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Increment(ctx context.Context, key LimitKey, limit Limit) (int, time.Time, error) {
	args := m.Called(ctx, key, limit)
	return args.Int(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockStore) Reset(ctx context.Context, key LimitKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestService_Allow(t *testing.T) {
	svc := NewService(NewMemoryStore(), slog.Default())
	require.NoError(t, svc.RegisterLimit("test", Limit{Rate: 2, BurstSize: 1, Period: time.Minute}))
	ctx := context.Background()
	key := LimitKey{Type: "test", RemoteIP: "10.0.0.1"}

	for i, want := range []bool{true, true, true, false} {
		status, err := svc.Allow(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, status.Allowed, "call %d", i+1)
	}

	status, err := svc.Allow(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Remaining)

	other, err := svc.Allow(ctx, LimitKey{Type: "test", RemoteIP: "10.0.0.2"})
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 2, other.Remaining)

	require.NoError(t, svc.Reset(ctx, key))
	status, err = svc.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, status.Allowed)
}

func TestService_Validation(t *testing.T) {
	svc := NewService(NewMemoryStore(), slog.Default())

	assert.ErrorIs(t, svc.RegisterLimit("x", Limit{Rate: 0, Period: time.Second}), ErrInvalidLimit)
	assert.ErrorIs(t, svc.RegisterLimit("x", Limit{Rate: 1}), ErrInvalidLimit)

	_, err := svc.Allow(context.Background(), LimitKey{})
	assert.ErrorIs(t, err, ErrInvalidKey)

	status, err := svc.Allow(context.Background(), LimitKey{Type: "unregistered"})
	require.NoError(t, err)
	assert.True(t, status.Allowed)
}

func TestService_StoreError(t *testing.T) {
	store := &mockStore{}
	store.On("Increment", mock.Anything, mock.Anything, mock.Anything).
		Return(0, time.Time{}, errors.New("connection refused"))

	svc := NewService(store, slog.Default())
	svc.RegisterDefaultLimits()

	_, err := svc.Allow(context.Background(), LimitKey{Type: LimitAPIRequest})
	assert.Error(t, err)
	store.AssertExpectations(t)
}

func TestService_RegisterConfiguredLimits(t *testing.T) {
	svc := NewService(NewMemoryStore(), slog.Default())

	err := svc.RegisterConfiguredLimits(config.RateLimitConfig{
		Limits: map[string]config.LimitConfig{
			LimitMediaReport: {Rate: 5, Period: time.Second},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, svc.GetLimit(LimitMediaReport).Rate)
	assert.Equal(t, 120, svc.GetLimit(LimitAPIRequest).Rate)

	err = svc.RegisterConfiguredLimits(config.RateLimitConfig{
		Limits: map[string]config.LimitConfig{"bad": {Rate: 1}},
	})
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestMemoryStore_Window(t *testing.T) {
	now := time.Unix(1000, 0)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	key := LimitKey{Type: "test"}
	limit := Limit{Rate: 1, Period: 10 * time.Second}

	count, reset, err := store.Increment(context.Background(), key, limit)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(10*time.Second), reset)

	now = now.Add(5 * time.Second)
	count, _, _ = store.Increment(context.Background(), key, limit)
	assert.Equal(t, 2, count)

	now = now.Add(5 * time.Second)
	count, reset, _ = store.Increment(context.Background(), key, limit)
	assert.Equal(t, 1, count)
	assert.Equal(t, now.Add(10*time.Second), reset)
}
