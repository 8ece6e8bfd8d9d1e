package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/apperr"
)

// fakeStorage giữ object trong map
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStorage) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return "http://storage.local/covers-bucket/" + key, nil
}

func (s *fakeStorage) Download(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *fakeStorage) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			delete(s.objects, key)
			n++
		}
	}
	return n, nil
}

// fakeProcessor: "PNG..." là png, "JPEG..." là jpeg, còn lại bị từ chối
type fakeProcessor struct{}

func (fakeProcessor) ValidateImage(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("PNG")):
		return "png", nil
	case bytes.HasPrefix(data, []byte("JPEG")):
		return "jpeg", nil
	}
	return "", errors.New("only JPEG and PNG images are allowed")
}

func (fakeProcessor) ResizeCover(data []byte) ([]byte, error) {
	return append([]byte("RESIZED:"), data...), nil
}

type coverFixture struct {
	*bookFixture
	storage *fakeStorage
	covers  CoverServiceInterface
	book    *model.BookResponse
}

func newCoverFixture(t *testing.T) *coverFixture {
	f := newBookFixture(t)
	storage := newFakeStorage()
	return &coverFixture{
		bookFixture: f,
		storage:     storage,
		covers:      NewCoverService(f.store.Books(), storage, fakeProcessor{}, f.enqueuer),
		book:        f.createBook(t, "Covered", model.GenreArt),
	}
}

func TestUploadCover(t *testing.T) {
	f := newCoverFixture(t)

	resp, err := f.covers.UploadCover(context.Background(), actorOf(f.owner), f.book.ID, []byte("PNG-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "processing", resp.Status)
	assert.Equal(t, model.CoverOriginalKey(f.book.ID, "png"), resp.ObjectKey)
	assert.Equal(t, "image/png", f.storage.types[resp.ObjectKey])

	tasks := f.enqueuer.OfType(shared.TypeProcessBookCover)
	require.Len(t, tasks, 1)
	assert.Equal(t, shared.ProcessCoverPayload{BookID: f.book.ID.String(), ObjectKey: resp.ObjectKey}, tasks[0].Payload)
}

func TestUploadCoverRejects(t *testing.T) {
	f := newCoverFixture(t)
	ctx := context.Background()

	_, err := f.covers.UploadCover(ctx, actorOf(f.alice), f.book.ID, []byte("PNG-bytes"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.covers.UploadCover(ctx, actorOf(f.owner), f.book.ID, []byte("GIF89a"))
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindValidation, Code: model.ErrCodeInvalidCover})

	_, err = f.covers.UploadCover(ctx, actorOf(f.owner), uuid.New(), []byte("PNG-bytes"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Empty(t, f.storage.objects)
	assert.Empty(t, f.enqueuer.OfType(shared.TypeProcessBookCover))
}

func TestProcessCoverSetsImageURL(t *testing.T) {
	f := newCoverFixture(t)
	ctx := context.Background()

	resp, err := f.covers.UploadCover(ctx, actorOf(f.admin), f.book.ID, []byte("JPEG-bytes"))
	require.NoError(t, err)
	assert.Equal(t, model.CoverOriginalKey(f.book.ID, "jpg"), resp.ObjectKey)

	require.NoError(t, f.covers.ProcessCover(ctx, f.book.ID, resp.ObjectKey))

	assert.Equal(t, []byte("RESIZED:JPEG-bytes"), f.storage.objects[model.CoverKey(f.book.ID)])
	cover := f.store.Book(f.book.ID).CoverImage
	require.NotNil(t, cover)
	assert.Equal(t, "http://storage.local/covers-bucket/"+model.CoverKey(f.book.ID), *cover)
}

func TestProcessCoverMissingOriginal(t *testing.T) {
	f := newCoverFixture(t)

	err := f.covers.ProcessCover(context.Background(), f.book.ID, "covers/missing/original.png")
	assert.Error(t, err)
	assert.Nil(t, f.store.Book(f.book.ID).CoverImage)
}

func TestDeleteCoversRemovesPrefix(t *testing.T) {
	f := newCoverFixture(t)
	ctx := context.Background()

	other := f.createBook(t, "Other", model.GenreArt)
	_, _ = f.storage.Upload(ctx, model.CoverOriginalKey(f.book.ID, "png"), []byte("a"), "image/png")
	_, _ = f.storage.Upload(ctx, model.CoverKey(f.book.ID), []byte("b"), "image/jpeg")
	_, _ = f.storage.Upload(ctx, model.CoverKey(other.ID), []byte("c"), "image/jpeg")

	require.NoError(t, f.covers.DeleteCovers(ctx, f.book.ID))

	assert.Len(t, f.storage.objects, 1)
	assert.Contains(t, f.storage.objects, model.CoverKey(other.ID))
}

// ========================================
// REPORT
// ========================================

func TestExportRatings(t *testing.T) {
	f := newBookFixture(t)
	ctx := context.Background()

	zen := f.createBook(t, "Zen", model.GenrePhilosophy)
	art := f.createBook(t, "Art of War", model.GenreHistory)
	f.review(t, f.alice, zen.ID, 5)
	f.review(t, f.bob, zen.ID, 4)

	var buf bytes.Buffer
	reports := NewReportService(f.store.Books(), f.store.Reviews())
	require.NoError(t, reports.ExportRatings(ctx, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(ratingSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, ratingHeaders, rows[0])
	// Sắp theo title
	assert.Equal(t, art.Title, rows[1][0])
	assert.Equal(t, "Zen", rows[2][0])
	assert.Equal(t, "4.5", rows[2][3])
	assert.Equal(t, "2", rows[2][4])
	assert.Equal(t, []string{"0", "0", "0", "1", "1"}, rows[2][5:10])
}
