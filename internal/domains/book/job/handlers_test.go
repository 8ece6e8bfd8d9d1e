package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/shared"
)

type mockCovers struct{ mock.Mock }

func (m *mockCovers) UploadCover(ctx context.Context, actor shared.Actor, bookID uuid.UUID, data []byte) (*model.CoverUploadResponse, error) {
	args := m.Called(ctx, actor, bookID, data)
	resp, _ := args.Get(0).(*model.CoverUploadResponse)
	return resp, args.Error(1)
}

func (m *mockCovers) ProcessCover(ctx context.Context, bookID uuid.UUID, objectKey string) error {
	return m.Called(ctx, bookID, objectKey).Error(0)
}

func (m *mockCovers) DeleteCovers(ctx context.Context, bookID uuid.UUID) error {
	return m.Called(ctx, bookID).Error(0)
}

func newTask(t *testing.T, taskType string, payload interface{}) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(taskType, data)
}

func TestProcessCoverHandler(t *testing.T) {
	covers := new(mockCovers)
	h := NewProcessCoverHandler(covers)
	bookID := uuid.New()
	key := model.CoverOriginalKey(bookID, "png")

	covers.On("ProcessCover", mock.Anything, bookID, key).Return(nil).Once()

	err := h.ProcessTask(context.Background(), newTask(t, shared.TypeProcessBookCover,
		shared.ProcessCoverPayload{BookID: bookID.String(), ObjectKey: key}))
	assert.NoError(t, err)
	covers.AssertExpectations(t)
}

func TestProcessCoverHandlerRetriesOnFailure(t *testing.T) {
	covers := new(mockCovers)
	h := NewProcessCoverHandler(covers)
	bookID := uuid.New()

	covers.On("ProcessCover", mock.Anything, bookID, "covers/x/original.png").Return(errors.New("minio timeout")).Once()

	err := h.ProcessTask(context.Background(), newTask(t, shared.TypeProcessBookCover,
		shared.ProcessCoverPayload{BookID: bookID.String(), ObjectKey: "covers/x/original.png"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestProcessCoverHandlerSkipsBadPayload(t *testing.T) {
	covers := new(mockCovers)
	h := NewProcessCoverHandler(covers)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeProcessBookCover, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.ProcessTask(context.Background(), newTask(t, shared.TypeProcessBookCover,
		shared.ProcessCoverPayload{BookID: "nope", ObjectKey: "k"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	covers.AssertNotCalled(t, "ProcessCover", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteCoverHandler(t *testing.T) {
	covers := new(mockCovers)
	h := NewDeleteCoverHandler(covers)
	bookID := uuid.New()

	covers.On("DeleteCovers", mock.Anything, bookID).Return(nil).Once()

	err := h.ProcessTask(context.Background(), newTask(t, shared.TypeDeleteBookCover,
		shared.DeleteCoverPayload{BookID: bookID.String()}))
	assert.NoError(t, err)

	err = h.ProcessTask(context.Background(), newTask(t, shared.TypeDeleteBookCover,
		shared.DeleteCoverPayload{BookID: ""}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	covers.AssertExpectations(t)
}
