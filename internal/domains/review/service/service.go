package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	bookmodel "bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/rating"
	"bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/domains/review/repository"
	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/apperr"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/pkg/database"
)

const (
	DefaultMostHelpfulLimit = 5
	MaxMostHelpfulLimit     = 50
)

// =====================================================
// SERVICE IMPLEMENTATION
// =====================================================

type reviewService struct {
	reviews    repository.ReviewRepository
	books      BookLocker
	users      UserReader
	counters   user.CounterSynchronizer
	aggregator rating.Recomputer
	tx         database.TxManager
}

func NewReviewService(
	reviews repository.ReviewRepository,
	books BookLocker,
	users UserReader,
	counters user.CounterSynchronizer,
	aggregator rating.Recomputer,
	tx database.TxManager,
) ServiceInterface {
	return &reviewService{
		reviews:    reviews,
		books:      books,
		users:      users,
		counters:   counters,
		aggregator: aggregator,
		tx:         tx,
	}
}

// =====================================================
// CREATE REVIEW
// =====================================================

func (s *reviewService) Create(ctx context.Context, userID uuid.UUID, req model.CreateReviewRequest) (*model.ReviewResponse, error) {
	// Step 1: Validate request
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	var created *model.Review
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Step 2: Lock book row. Các mutation review của cùng book chạy tuần tự từ đây.
		if err := s.lockBook(ctx, req.BookID); err != nil {
			return err
		}

		// Step 3: Một user chỉ có một review active cho mỗi book
		_, err := s.reviews.FindActiveByUserAndBook(ctx, userID, req.BookID)
		switch {
		case err == nil:
			return model.NewAlreadyReviewedError(req.BookID.String())
		case !errors.Is(err, model.ErrReviewNotFound):
			return apperr.Store("check existing review", err)
		}

		// Step 4: Insert. Unique index là chốt chặn cuối khi hai request chạy song song.
		review := req.ToReview(userID)
		review.State = lifecycle.Active
		if err := s.reviews.Create(ctx, review); err != nil {
			if errors.Is(err, model.ErrAlreadyReviewed) {
				return model.NewAlreadyReviewedError(req.BookID.String())
			}
			return apperr.Store("create review", err)
		}

		// Step 5: Side effects
		if err := s.counters.ReviewCreated(ctx, userID); err != nil {
			return err
		}
		if _, err := s.aggregator.Recompute(ctx, req.BookID); err != nil {
			return err
		}

		created, err = s.reload(ctx, review.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("review_id", created.ID.String()).
		Str("book_id", created.BookID.String()).
		Str("user_id", userID.String()).
		Int("rating", created.Rating).
		Msg("Review created")

	resp := model.ToReviewResponse(created)
	return &resp, nil
}

// =====================================================
// UPDATE REVIEW
// =====================================================

func (s *reviewService) Update(ctx context.Context, actor shared.Actor, reviewID uuid.UUID, req model.UpdateReviewRequest) (*model.ReviewResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperr.Validation(err)
	}

	var updated *model.Review
	err := s.mutate(ctx, actor, reviewID, "update", func(ctx context.Context, review *model.Review) error {
		req.Apply(review)
		if err := s.reviews.Update(ctx, review); err != nil {
			if errors.Is(err, model.ErrReviewNotFound) {
				return model.NewReviewNotFoundError(reviewID.String())
			}
			return apperr.Store("update review", err)
		}

		// Recompute luôn chạy, kể cả khi rating không đổi
		if _, err := s.aggregator.Recompute(ctx, review.BookID); err != nil {
			return err
		}

		var err error
		updated, err = s.reload(ctx, reviewID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("review_id", reviewID.String()).
		Str("book_id", updated.BookID.String()).
		Msg("Review updated")

	resp := model.ToReviewResponse(updated)
	return &resp, nil
}

// =====================================================
// DELETE REVIEW
// =====================================================

func (s *reviewService) Delete(ctx context.Context, actor shared.Actor, reviewID uuid.UUID) error {
	var bookID uuid.UUID
	err := s.mutate(ctx, actor, reviewID, "delete", func(ctx context.Context, review *model.Review) error {
		bookID = review.BookID

		if err := s.reviews.Deactivate(ctx, reviewID); err != nil {
			if errors.Is(err, model.ErrReviewNotFound) {
				return model.NewReviewNotFoundError(reviewID.String())
			}
			return apperr.Store("delete review", err)
		}

		// Counter của tác giả, không phải của người thực hiện (admin có thể xóa hộ)
		if err := s.counters.ReviewDeleted(ctx, review.UserID, 1); err != nil {
			return err
		}

		_, err := s.aggregator.Recompute(ctx, review.BookID)
		return err
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("review_id", reviewID.String()).
		Str("book_id", bookID.String()).
		Str("actor_id", actor.UserID.String()).
		Msg("Review deleted")

	return nil
}

// =====================================================
// HELPFUL VOTES
// =====================================================

// MarkHelpful không chống vote trùng: cùng một user có thể vote nhiều lần
func (s *reviewService) MarkHelpful(ctx context.Context, requesterID, reviewID uuid.UUID) (*model.HelpfulResponse, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.UserID == requesterID {
		return nil, model.NewOwnReviewError(reviewID.String())
	}

	votes, err := s.reviews.IncrementHelpful(ctx, reviewID)
	if err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return nil, model.NewReviewNotFoundError(reviewID.String())
		}
		return nil, apperr.Store("increment helpful votes", err)
	}

	return &model.HelpfulResponse{HelpfulVotes: votes}, nil
}

// =====================================================
// READS
// =====================================================

func (s *reviewService) Get(ctx context.Context, reviewID uuid.UUID) (*model.ReviewResponse, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	resp := model.ToReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) ListForBook(ctx context.Context, bookID uuid.UUID, q model.ListQuery) (*model.BookReviewsResponse, int, error) {
	if err := s.requireActiveBook(ctx, bookID); err != nil {
		return nil, 0, err
	}

	reviews, total, err := s.reviews.ListByBook(ctx, bookID, q)
	if err != nil {
		return nil, 0, apperr.Store("list reviews of book", err)
	}

	stats, err := s.aggregator.Stats(ctx, bookID)
	if err != nil {
		return nil, 0, err
	}

	return &model.BookReviewsResponse{
		Reviews:     model.ToReviewResponses(reviews),
		RatingStats: stats,
	}, total, nil
}

func (s *reviewService) ListByUser(ctx context.Context, userID uuid.UUID, q model.ListQuery) (*model.UserReviewsResponse, int, error) {
	// Step 1: User phải tồn tại và còn active
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, 0, model.NewUserNotFoundError(userID.String())
		}
		return nil, 0, apperr.Store("find user", err)
	}
	if !u.IsActive() {
		return nil, 0, model.NewUserNotFoundError(userID.String())
	}

	// Step 2: Trang review
	reviews, total, err := s.reviews.ListByUser(ctx, userID, q)
	if err != nil {
		return nil, 0, apperr.Store("list reviews of user", err)
	}

	// Step 3: Thống kê rating user đã cho, tính trên toàn bộ review active
	ratings, err := s.reviews.ListActiveRatingsByUser(ctx, userID)
	if err != nil {
		return nil, 0, apperr.Store("load user ratings", err)
	}
	summary := rating.Summarize(ratings)

	return &model.UserReviewsResponse{
		Reviews: model.ToReviewResponses(reviews),
		User: model.ReviewerSummary{
			ID:                 u.ID,
			Name:               u.Name,
			ReviewsCount:       u.ReviewsCount,
			AverageRatingGiven: summary.AverageRating,
			RatingDistribution: summary.Distribution,
			JoinedDate:         u.CreatedAt,
		},
	}, total, nil
}

func (s *reviewService) ListMine(ctx context.Context, userID uuid.UUID, q model.ListQuery) ([]model.ReviewResponse, int, error) {
	reviews, total, err := s.reviews.ListByUser(ctx, userID, q)
	if err != nil {
		return nil, 0, apperr.Store("list my reviews", err)
	}
	return model.ToReviewResponses(reviews), total, nil
}

func (s *reviewService) CheckMine(ctx context.Context, userID, bookID uuid.UUID) (*model.CheckReviewResponse, error) {
	review, err := s.reviews.FindActiveByUserAndBook(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return &model.CheckReviewResponse{HasReviewed: false}, nil
		}
		return nil, apperr.Store("check review", err)
	}

	resp := model.ToReviewResponse(review)
	return &model.CheckReviewResponse{HasReviewed: true, Review: &resp}, nil
}

func (s *reviewService) AverageForBook(ctx context.Context, bookID uuid.UUID) (*model.AverageRatingResponse, error) {
	if err := s.requireActiveBook(ctx, bookID); err != nil {
		return nil, err
	}

	stats, err := s.aggregator.Stats(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &model.AverageRatingResponse{BookID: bookID, Summary: stats}, nil
}

func (s *reviewService) MostHelpful(ctx context.Context, bookID uuid.UUID, limit int) ([]model.ReviewResponse, error) {
	if limit <= 0 {
		limit = DefaultMostHelpfulLimit
	}
	if limit > MaxMostHelpfulLimit {
		limit = MaxMostHelpfulLimit
	}

	reviews, err := s.reviews.FindMostHelpful(ctx, bookID, limit)
	if err != nil {
		return nil, apperr.Store("find most helpful reviews", err)
	}
	return model.ToReviewResponses(reviews), nil
}

// =====================================================
// HELPERS
// =====================================================

// mutate chạy fn trong transaction sau khi đã lock book và kiểm tra quyền.
// Review được đọc lại sau khi lock để không thao tác trên bản đã bị xóa song song.
func (s *reviewService) mutate(
	ctx context.Context,
	actor shared.Actor,
	reviewID uuid.UUID,
	action string,
	fn func(ctx context.Context, review *model.Review) error,
) error {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if !actor.CanModify(review.UserID) {
		return model.NewNotAuthorError(reviewID.String(), action)
	}

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Book đã bị xóa thì review cũng đã bị cascade
		if err := s.lockBook(ctx, review.BookID); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return model.NewReviewNotFoundError(reviewID.String())
			}
			return err
		}

		current, err := s.findReview(ctx, reviewID)
		if err != nil {
			return err
		}
		return fn(ctx, current)
	})
}

func (s *reviewService) findReview(ctx context.Context, reviewID uuid.UUID) (*model.Review, error) {
	review, err := s.reviews.FindActiveByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, model.ErrReviewNotFound) {
			return nil, model.NewReviewNotFoundError(reviewID.String())
		}
		return nil, apperr.Store("find review", err)
	}
	return review, nil
}

// reload đọc lại review kèm tên user/book sau khi ghi
func (s *reviewService) reload(ctx context.Context, reviewID uuid.UUID) (*model.Review, error) {
	review, err := s.reviews.FindActiveByID(ctx, reviewID)
	if err != nil {
		return nil, apperr.Store("reload review", err)
	}
	return review, nil
}

func (s *reviewService) lockBook(ctx context.Context, bookID uuid.UUID) error {
	if _, err := s.books.LockActiveByID(ctx, bookID); err != nil {
		if errors.Is(err, bookmodel.ErrBookNotFound) {
			return model.NewBookNotFoundError(bookID.String())
		}
		return apperr.Store("lock book", err)
	}
	return nil
}

func (s *reviewService) requireActiveBook(ctx context.Context, bookID uuid.UUID) error {
	if _, err := s.books.FindActiveByID(ctx, bookID); err != nil {
		if errors.Is(err, bookmodel.ErrBookNotFound) {
			return model.NewBookNotFoundError(bookID.String())
		}
		return apperr.Store("find book", err)
	}
	return nil
}
