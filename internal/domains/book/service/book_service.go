package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/book/repository"
	"bookreview-backend/internal/domains/rating"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/apperr"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/pkg/database"
)

const (
	DefaultShowcaseLimit = 10
	MaxShowcaseLimit     = 50
)

// BookService - Implements ServiceInterface
type BookService struct {
	repo       repository.BookRepository
	reviews    ReviewCascader
	owners     OwnerReader
	counters   user.CounterSynchronizer
	aggregator rating.Recomputer
	tx         database.TxManager
	enqueuer   shared.TaskEnqueuer
}

// NewService - Constructor with DI
func NewService(
	repo repository.BookRepository,
	reviews ReviewCascader,
	owners OwnerReader,
	counters user.CounterSynchronizer,
	aggregator rating.Recomputer,
	tx database.TxManager,
	enqueuer shared.TaskEnqueuer,
) ServiceInterface {
	return &BookService{
		repo:       repo,
		reviews:    reviews,
		owners:     owners,
		counters:   counters,
		aggregator: aggregator,
		tx:         tx,
		enqueuer:   enqueuer,
	}
}

// ========================================
// CREATE
// ========================================

func (s *BookService) Create(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest) (*model.BookResponse, error) {
	// Step 1: Validate
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	// Step 2: Build entity. Aggregate luôn bắt đầu từ 0/0.
	b := &model.Book{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		Genre:         model.Genre(req.Genre),
		PublishedYear: req.PublishedYear,
		ISBN:          req.ISBN,
		Pages:         req.Pages,
		Language:      model.DefaultLanguage,
		Publisher:     req.Publisher,
		Tags:          req.Tags,
		OwnerID:       ownerID,
		State:         lifecycle.Active,
	}
	if req.Language != nil {
		b.Language = *req.Language
	}

	// Step 3: Insert + books_count trong cùng transaction
	var created *model.Book
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			if errors.Is(err, model.ErrISBNAlreadyExists) {
				return model.NewISBNExistsError(*b.ISBN)
			}
			return apperr.Store("create book", err)
		}

		if err := s.counters.BookCreated(ctx, ownerID); err != nil {
			return err
		}

		var err error
		created, err = s.reload(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("book_id", created.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("Book created")

	resp := model.ToBookResponse(created)
	return &resp, nil
}

// ========================================
// UPDATE
// ========================================

func (s *BookService) Update(ctx context.Context, actor shared.Actor, bookID uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	var updated *model.Book
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Step 1: Lock + kiểm tra quyền
		b, err := s.lockForChange(ctx, actor, bookID, "update")
		if err != nil {
			return err
		}

		// Step 2: Patch. owner/aggregate không có trong request.
		req.Apply(b)
		if err := s.repo.Update(ctx, b); err != nil {
			switch {
			case errors.Is(err, model.ErrISBNAlreadyExists):
				return model.NewISBNExistsError(*b.ISBN)
			case errors.Is(err, model.ErrBookNotFound):
				return model.NewBookNotFoundError(bookID.String())
			}
			return apperr.Store("update book", err)
		}

		updated, err = s.reload(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("book_id", bookID.String()).
		Str("actor_id", actor.UserID.String()).
		Msg("Book updated")

	resp := model.ToBookResponse(updated)
	return &resp, nil
}

// ========================================
// DELETE
// ========================================

// Delete: book → Deleted, cascade review → Deleted, đồng bộ counter của
// owner và của từng tác giả review, rồi tính lại aggregate (thành 0/0).
func (s *BookService) Delete(ctx context.Context, actor shared.Actor, bookID uuid.UUID) error {
	var cascaded int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Step 1: Lock + kiểm tra quyền
		b, err := s.lockForChange(ctx, actor, bookID, "delete")
		if err != nil {
			return err
		}

		// Step 2: Soft delete book
		if err := s.repo.Deactivate(ctx, bookID); err != nil {
			if errors.Is(err, model.ErrBookNotFound) {
				return model.NewBookNotFoundError(bookID.String())
			}
			return apperr.Store("delete book", err)
		}

		// Step 3: Cascade reviews
		authors, err := s.reviews.DeactivateByBook(ctx, bookID)
		if err != nil {
			return apperr.Store("cascade reviews", err)
		}
		cascaded = len(authors)

		// Step 4: Counters
		for authorID, n := range countPerAuthor(authors) {
			if err := s.counters.ReviewDeleted(ctx, authorID, n); err != nil {
				return err
			}
		}
		if err := s.counters.BookDeleted(ctx, b.OwnerID); err != nil {
			return err
		}

		// Step 5: Aggregate
		_, err = s.aggregator.Recompute(ctx, bookID)
		return err
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("book_id", bookID.String()).
		Str("actor_id", actor.UserID.String()).
		Int("reviews_cascaded", cascaded).
		Msg("Book deleted")

	// Step 6: Dọn ảnh bìa ở background. Lỗi enqueue không rollback việc xóa.
	payload := shared.DeleteCoverPayload{BookID: bookID.String()}
	if err := s.enqueuer.Enqueue(ctx, shared.TypeDeleteBookCover, payload); err != nil {
		log.Warn().Err(err).Str("book_id", bookID.String()).Msg("Failed to enqueue cover cleanup")
	}

	return nil
}

// ========================================
// READS
// ========================================

func (s *BookService) Get(ctx context.Context, bookID uuid.UUID) (*model.BookResponse, error) {
	b, err := s.repo.FindActiveByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, model.ErrBookNotFound) {
			return nil, model.NewBookNotFoundError(bookID.String())
		}
		return nil, apperr.Store("find book", err)
	}

	resp := model.ToBookResponse(b)
	return &resp, nil
}

func (s *BookService) List(ctx context.Context, filter model.BookFilter) ([]model.BookResponse, int, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Genre = strings.TrimSpace(filter.Genre)

	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store("list books", err)
	}
	return model.ToBookResponses(books), total, nil
}

func (s *BookService) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) (*model.BooksByOwnerResponse, int, error) {
	// Step 1: Owner phải tồn tại và còn active
	owner, err := s.owners.FindByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, 0, model.NewOwnerNotFoundError(ownerID.String())
		}
		return nil, 0, apperr.Store("find owner", err)
	}
	if !owner.IsActive() {
		return nil, 0, model.NewOwnerNotFoundError(ownerID.String())
	}

	// Step 2: Books
	books, total, err := s.repo.List(ctx, model.BookFilter{
		OwnerID: &ownerID,
		Sort:    model.SortCreated,
		Offset:  offset,
		Limit:   limit,
	})
	if err != nil {
		return nil, 0, apperr.Store("list books of owner", err)
	}

	return &model.BooksByOwnerResponse{
		Books: model.ToBookResponses(books),
		User: model.OwnerSummary{
			ID:           owner.ID,
			Name:         owner.Name,
			BooksCount:   owner.BooksCount,
			ReviewsCount: owner.ReviewsCount,
			JoinedDate:   owner.CreatedAt,
		},
	}, total, nil
}

// Genres trả về đủ 26 genre (kể cả count = 0), sắp theo count giảm dần
func (s *BookService) Genres(ctx context.Context) (*model.GenresResponse, error) {
	counts, err := s.repo.CountByGenre(ctx)
	if err != nil {
		return nil, apperr.Store("count books by genre", err)
	}

	genres := make([]model.GenreCount, 0, len(model.AllGenres))
	total := 0
	for _, g := range model.AllGenres {
		genres = append(genres, model.GenreCount{Name: g, Count: counts[g]})
		total += counts[g]
	}

	// Stable: genre cùng count giữ thứ tự gốc
	sort.SliceStable(genres, func(i, j int) bool {
		return genres[i].Count > genres[j].Count
	})

	return &model.GenresResponse{Genres: genres, TotalBooks: total}, nil
}

func (s *BookService) Popular(ctx context.Context, limit int) ([]model.BookResponse, error) {
	books, err := s.repo.FindPopular(ctx, clampShowcase(limit))
	if err != nil {
		return nil, apperr.Store("find popular books", err)
	}
	return model.ToBookResponses(books), nil
}

func (s *BookService) Recent(ctx context.Context, limit int) ([]model.BookResponse, error) {
	books, err := s.repo.FindRecent(ctx, clampShowcase(limit))
	if err != nil {
		return nil, apperr.Store("find recent books", err)
	}
	return model.ToBookResponses(books), nil
}

// Search bắt buộc có q; kết quả sắp theo rating
func (s *BookService) Search(ctx context.Context, req model.SearchRequest, offset, limit int) ([]model.BookResponse, int, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, 0, model.NewInvalidQueryError("Please provide a search query")
	}
	if req.MinYear != nil && req.MaxYear != nil && *req.MinYear > *req.MaxYear {
		return nil, 0, model.NewInvalidQueryError("min_year cannot be greater than max_year")
	}

	books, total, err := s.repo.List(ctx, model.BookFilter{
		Search:    query,
		Genre:     strings.TrimSpace(req.Genre),
		MinRating: req.MinRating,
		MinYear:   req.MinYear,
		MaxYear:   req.MaxYear,
		Sort:      model.SortRating,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		return nil, 0, apperr.Store("search books", err)
	}
	return model.ToBookResponses(books), total, nil
}

// ========================================
// HELPERS
// ========================================

// lockForChange: SELECT ... FOR UPDATE rồi kiểm tra owner/admin
func (s *BookService) lockForChange(ctx context.Context, actor shared.Actor, bookID uuid.UUID, action string) (*model.Book, error) {
	b, err := s.repo.LockActiveByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, model.ErrBookNotFound) {
			return nil, model.NewBookNotFoundError(bookID.String())
		}
		return nil, apperr.Store("lock book", err)
	}

	if !actor.CanModify(b.OwnerID) {
		return nil, model.NewNotOwnerError(bookID.String(), action)
	}
	return b, nil
}

func (s *BookService) reload(ctx context.Context, bookID uuid.UUID) (*model.Book, error) {
	b, err := s.repo.FindActiveByID(ctx, bookID)
	if err != nil {
		return nil, apperr.Store("reload book", err)
	}
	return b, nil
}

func countPerAuthor(authors []uuid.UUID) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(authors))
	for _, id := range authors {
		counts[id]++
	}
	return counts
}

func clampShowcase(limit int) int {
	if limit <= 0 {
		return DefaultShowcaseLimit
	}
	if limit > MaxShowcaseLimit {
		return MaxShowcaseLimit
	}
	return limit
}
