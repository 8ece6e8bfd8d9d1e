package rating

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/shared/apperr"
)

// RatingSource đọc rating của các review active thuộc một book.
type RatingSource interface {
	ListActiveRatings(ctx context.Context, bookID uuid.UUID) ([]int, error)
}

// AggregateStore ghi average_rating/total_reviews lên book.
// Trả về false nếu không có row nào được update (book không tồn tại).
type AggregateStore interface {
	UpdateRatingAggregate(ctx context.Context, bookID uuid.UUID, average float64, total int) (bool, error)
}

// Recomputer is what the lifecycle controllers depend on.
type Recomputer interface {
	Recompute(ctx context.Context, bookID uuid.UUID) (Summary, error)
	Stats(ctx context.Context, bookID uuid.UUID) (Summary, error)
}

// Aggregator recomputes a book's rating aggregate from the full active review
// set on every call. The stored average is never adjusted incrementally, so a
// stale write from an earlier trigger is corrected by the next one.
type Aggregator struct {
	ratings RatingSource
	books   AggregateStore
}

func NewAggregator(ratings RatingSource, books AggregateStore) *Aggregator {
	return &Aggregator{ratings: ratings, books: books}
}

var _ Recomputer = (*Aggregator)(nil)

// Recompute scans the active reviews of bookID and overwrites the book's
// stored aggregate. Book activity is not checked. A book that no longer
// exists is skipped with a warning.
func (a *Aggregator) Recompute(ctx context.Context, bookID uuid.UUID) (Summary, error) {
	summary, err := a.Stats(ctx, bookID)
	if err != nil {
		return Summary{}, err
	}

	updated, err := a.books.UpdateRatingAggregate(ctx, bookID, summary.AverageRating, summary.TotalReviews)
	if err != nil {
		return Summary{}, apperr.Store("persist rating aggregate", err)
	}

	if !updated {
		log.Warn().
			Str("book_id", bookID.String()).
			Msg("Rating aggregate skipped: book no longer exists")
		return summary, nil
	}

	log.Debug().
		Str("book_id", bookID.String()).
		Float64("average_rating", summary.AverageRating).
		Int("total_reviews", summary.TotalReviews).
		Msg("Rating aggregate recomputed")

	return summary, nil
}

// Stats computes the aggregate without persisting it.
func (a *Aggregator) Stats(ctx context.Context, bookID uuid.UUID) (Summary, error) {
	ratings, err := a.ratings.ListActiveRatings(ctx, bookID)
	if err != nil {
		return Summary{}, apperr.Store("load active ratings", err)
	}
	return Summarize(ratings), nil
}
