package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/book/repository"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/apperr"
)

// CoverService: API nhận ảnh gốc, worker resize và gắn URL vào book
type CoverService struct {
	repo      repository.BookRepository
	storage   CoverStorage
	processor ImageProcessor
	enqueuer  shared.TaskEnqueuer
}

func NewCoverService(
	repo repository.BookRepository,
	storage CoverStorage,
	processor ImageProcessor,
	enqueuer shared.TaskEnqueuer,
) CoverServiceInterface {
	return &CoverService{
		repo:      repo,
		storage:   storage,
		processor: processor,
		enqueuer:  enqueuer,
	}
}

// UploadCover lưu ảnh gốc rồi enqueue task resize
func (s *CoverService) UploadCover(ctx context.Context, actor shared.Actor, bookID uuid.UUID, data []byte) (*model.CoverUploadResponse, error) {
	// Step 1: Book active + quyền owner/admin
	b, err := s.repo.FindActiveByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, model.ErrBookNotFound) {
			return nil, model.NewBookNotFoundError(bookID.String())
		}
		return nil, apperr.Store("find book", err)
	}
	if !actor.CanModify(b.OwnerID) {
		return nil, model.NewNotOwnerError(bookID.String(), "update")
	}

	// Step 2: Chỉ JPEG/PNG, tối đa 5MB
	format, err := s.processor.ValidateImage(data)
	if err != nil {
		return nil, model.NewInvalidCoverError(err.Error())
	}

	ext := "png"
	if format == "jpeg" {
		ext = "jpg"
	}
	key := model.CoverOriginalKey(bookID, ext)

	// Step 3: Upload bản gốc
	if _, err := s.storage.Upload(ctx, key, data, "image/"+format); err != nil {
		return nil, apperr.Store("upload cover", err)
	}

	// Step 4: Enqueue resize
	payload := shared.ProcessCoverPayload{BookID: bookID.String(), ObjectKey: key}
	if err := s.enqueuer.Enqueue(ctx, shared.TypeProcessBookCover, payload); err != nil {
		return nil, apperr.Store("enqueue cover processing", err)
	}

	log.Info().
		Str("book_id", bookID.String()).
		Str("object_key", key).
		Int("size", len(data)).
		Msg("Book cover uploaded")

	return &model.CoverUploadResponse{
		BookID:    bookID,
		ObjectKey: key,
		Status:    "processing",
	}, nil
}

// ProcessCover chạy trong worker: download → resize 600px → upload cover.jpg → gắn URL
func (s *CoverService) ProcessCover(ctx context.Context, bookID uuid.UUID, objectKey string) error {
	original, err := s.storage.Download(ctx, objectKey)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}

	resized, err := s.processor.ResizeCover(original)
	if err != nil {
		return fmt.Errorf("resize cover: %w", err)
	}

	url, err := s.storage.Upload(ctx, model.CoverKey(bookID), resized, "image/jpeg")
	if err != nil {
		return fmt.Errorf("upload cover: %w", err)
	}

	updated, err := s.repo.SetCoverImage(ctx, bookID, url)
	if err != nil {
		return fmt.Errorf("set cover image: %w", err)
	}
	if !updated {
		// Book bị xóa trong lúc chờ; task delete_cover sẽ dọn file
		log.Warn().Str("book_id", bookID.String()).Msg("Cover processed for a deleted book")
		return nil
	}

	log.Info().Str("book_id", bookID.String()).Str("cover_url", url).Msg("Book cover processed")
	return nil
}

// DeleteCovers xóa toàn bộ file dưới covers/<book_id>/
func (s *CoverService) DeleteCovers(ctx context.Context, bookID uuid.UUID) error {
	removed, err := s.storage.DeleteByPrefix(ctx, model.CoverPrefix(bookID))
	if err != nil {
		return fmt.Errorf("delete covers: %w", err)
	}

	log.Info().Str("book_id", bookID.String()).Int("removed", removed).Msg("Book covers deleted")
	return nil
}
