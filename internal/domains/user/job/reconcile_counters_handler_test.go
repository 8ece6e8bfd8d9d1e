package job

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
)

type mockCounters struct{ mock.Mock }

func (m *mockCounters) BookCreated(ctx context.Context, ownerID uuid.UUID) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *mockCounters) BookDeleted(ctx context.Context, ownerID uuid.UUID) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *mockCounters) ReviewCreated(ctx context.Context, authorID uuid.UUID) error {
	return m.Called(ctx, authorID).Error(0)
}

func (m *mockCounters) ReviewDeleted(ctx context.Context, authorID uuid.UUID, n int) error {
	return m.Called(ctx, authorID, n).Error(0)
}

func (m *mockCounters) Reconcile(ctx context.Context, userID uuid.UUID) (user.Counters, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(user.Counters), args.Error(1)
}

func (m *mockCounters) ReconcileAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestReconcileAllWhenPayloadEmpty(t *testing.T) {
	counters := new(mockCounters)
	counters.On("ReconcileAll", mock.Anything).Return(12, nil).Once()

	err := NewReconcileCountersHandler(counters).ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileCounters, nil))

	assert.NoError(t, err)
	counters.AssertExpectations(t)
}

func TestReconcileSingleUser(t *testing.T) {
	counters := new(mockCounters)
	userID := uuid.New()
	counters.On("Reconcile", mock.Anything, userID).Return(user.Counters{BooksCount: 2, ReviewsCount: 7}, nil).Once()

	task := asynq.NewTask(shared.TypeReconcileCounters, []byte(`{"user_id":"`+userID.String()+`"}`))
	err := NewReconcileCountersHandler(counters).ProcessTask(context.Background(), task)

	assert.NoError(t, err)
	counters.AssertExpectations(t)
}

func TestReconcileBadPayloadSkipsRetry(t *testing.T) {
	h := NewReconcileCountersHandler(new(mockCounters))

	for _, payload := range []string{`{"user_id":`, `{"user_id":"not-a-uuid"}`} {
		err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileCounters, []byte(payload)))
		assert.ErrorIs(t, err, asynq.SkipRetry, payload)
	}
}

func TestReconcileFailureIsRetried(t *testing.T) {
	counters := new(mockCounters)
	counters.On("ReconcileAll", mock.Anything).Return(40, errors.New("connection reset")).Once()

	err := NewReconcileCountersHandler(counters).ProcessTask(context.Background(), asynq.NewTask(shared.TypeReconcileCounters, nil))

	assert.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
