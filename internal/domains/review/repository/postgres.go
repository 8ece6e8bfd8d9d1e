package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/pkg/database"
)

// =====================================================
// POSTGRES IMPLEMENTATION
// =====================================================

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) ReviewRepository {
	return &postgresRepository{pool: pool}
}

const reviewSelect = `
	SELECT
		r.id, r.book_id, r.user_id, r.rating, r.review_text, r.title,
		r.reading_status, r.spoiler_alert, r.helpful_votes, r.is_active,
		r.created_at, r.updated_at,
		COALESCE(u.name, '') AS user_name,
		COALESCE(b.title, '') AS book_title,
		COALESCE(b.author, '') AS book_author
	FROM reviews r
	LEFT JOIN users u ON u.id = r.user_id
	LEFT JOIN books b ON b.id = r.book_id
`

var sortClauses = map[string]string{
	model.SortNewest:     "r.created_at DESC, r.id",
	model.SortOldest:     "r.created_at ASC, r.id",
	model.SortHelpful:    "r.helpful_votes DESC, r.created_at DESC, r.id",
	model.SortRatingHigh: "r.rating DESC, r.created_at DESC, r.id",
	model.SortRatingLow:  "r.rating ASC, r.created_at DESC, r.id",
}

// ========================================
// WRITE
// ========================================

func (r *postgresRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (
			book_id, user_id, rating, review_text, title,
			reading_status, spoiler_alert, helpful_votes, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		review.BookID,
		review.UserID,
		review.Rating,
		review.ReviewText,
		review.Title,
		string(review.ReadingStatus),
		review.SpoilerAlert,
		review.HelpfulVotes,
		review.State.IsActive(),
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.ErrAlreadyReviewed
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

func (r *postgresRepository) Update(ctx context.Context, review *model.Review) error {
	query := `
		UPDATE reviews SET
			rating = $2, review_text = $3, title = $4,
			reading_status = $5, spoiler_alert = $6, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		review.ID,
		review.Rating,
		review.ReviewText,
		review.Title,
		string(review.ReadingStatus),
		review.SpoilerAlert,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrReviewNotFound
		}
		return fmt.Errorf("update review: %w", err)
	}

	return nil
}

func (r *postgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE reviews SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

func (r *postgresRepository) DeactivateByBook(ctx context.Context, bookID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		UPDATE reviews SET is_active = FALSE, updated_at = NOW()
		WHERE book_id = $1 AND is_active
		RETURNING user_id
	`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("deactivate reviews of book: %w", err)
	}

	authors, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect review authors: %w", err)
	}
	return authors, nil
}

// IncrementHelpful: một câu UPDATE nên các vote đồng thời không bị mất
func (r *postgresRepository) IncrementHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE reviews SET helpful_votes = helpful_votes + 1
		WHERE id = $1 AND is_active
		RETURNING helpful_votes
	`

	var votes int
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&votes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrReviewNotFound
		}
		return 0, fmt.Errorf("increment helpful votes: %w", err)
	}
	return votes, nil
}

// ========================================
// READ
// ========================================

func (r *postgresRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	return r.findOne(ctx, reviewSelect+` WHERE r.id = $1 AND r.is_active`, id)
}

func (r *postgresRepository) FindActiveByUserAndBook(ctx context.Context, userID, bookID uuid.UUID) (*model.Review, error) {
	return r.findOne(ctx, reviewSelect+` WHERE r.user_id = $1 AND r.book_id = $2 AND r.is_active`, userID, bookID)
}

func (r *postgresRepository) ListByBook(ctx context.Context, bookID uuid.UUID, q model.ListQuery) ([]model.Review, int, error) {
	return r.listBy(ctx, "r.book_id", bookID, q)
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, q model.ListQuery) ([]model.Review, int, error) {
	return r.listBy(ctx, "r.user_id", userID, q)
}

func (r *postgresRepository) FindMostHelpful(ctx context.Context, bookID uuid.UUID, limit int) ([]model.Review, error) {
	query := reviewSelect + ` WHERE r.book_id = $1 AND r.is_active ORDER BY ` + sortClauses[model.SortHelpful] + ` LIMIT $2`
	return r.collect(ctx, query, bookID, limit)
}

// listBy - column là hằng số nội bộ, không bao giờ lấy từ input
func (r *postgresRepository) listBy(ctx context.Context, column string, id uuid.UUID, q model.ListQuery) ([]model.Review, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM reviews r WHERE ` + column + ` = $1 AND r.is_active`
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, countQuery, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	if total == 0 {
		return []model.Review{}, 0, nil
	}

	orderBy, ok := sortClauses[q.Sort]
	if !ok {
		orderBy = sortClauses[model.SortNewest]
	}

	query := reviewSelect + ` WHERE ` + column + ` = $1 AND r.is_active ORDER BY ` + orderBy + ` LIMIT $2 OFFSET $3`
	reviews, err := r.collect(ctx, query, id, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ========================================
// RATINGS
// ========================================

func (r *postgresRepository) ListActiveRatings(ctx context.Context, bookID uuid.UUID) ([]int, error) {
	return r.ratings(ctx, `SELECT rating FROM reviews WHERE book_id = $1 AND is_active`, bookID)
}

func (r *postgresRepository) ListActiveRatingsByUser(ctx context.Context, userID uuid.UUID) ([]int, error) {
	return r.ratings(ctx, `SELECT rating FROM reviews WHERE user_id = $1 AND is_active`, userID)
}

func (r *postgresRepository) ratings(ctx context.Context, query string, id uuid.UUID) ([]int, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}

	ratings, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collect ratings: %w", err)
	}
	return ratings, nil
}

func (r *postgresRepository) RatingDistributions(ctx context.Context) (map[uuid.UUID]map[int]int, error) {
	query := `
		SELECT book_id, rating, COUNT(*)
		FROM reviews
		WHERE is_active
		GROUP BY book_id, rating
	`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rating distributions: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]map[int]int)
	for rows.Next() {
		var (
			bookID uuid.UUID
			stars  int
			count  int
		)
		if err := rows.Scan(&bookID, &stars, &count); err != nil {
			return nil, fmt.Errorf("scan rating distribution: %w", err)
		}
		if result[bookID] == nil {
			result[bookID] = make(map[int]int)
		}
		result[bookID][stars] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating distributions: %w", err)
	}

	return result, nil
}

// ========================================
// HELPERS
// ========================================

func (r *postgresRepository) findOne(ctx context.Context, query string, args ...any) (*model.Review, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query review: %w", err)
	}

	review, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrReviewNotFound
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return &review, nil
}

func (r *postgresRepository) collect(ctx context.Context, query string, args ...any) ([]model.Review, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}

	reviews, err := pgx.CollectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("collect reviews: %w", err)
	}
	return reviews, nil
}

func scanReview(row pgx.CollectableRow) (model.Review, error) {
	var (
		rv       model.Review
		status   string
		isActive bool
	)

	err := row.Scan(
		&rv.ID, &rv.BookID, &rv.UserID, &rv.Rating, &rv.ReviewText, &rv.Title,
		&status, &rv.SpoilerAlert, &rv.HelpfulVotes, &isActive,
		&rv.CreatedAt, &rv.UpdatedAt,
		&rv.UserName, &rv.BookTitle, &rv.BookAuthor,
	)
	if err != nil {
		return model.Review{}, err
	}

	rv.ReadingStatus = model.ReadingStatus(status)
	rv.State = lifecycle.FromActive(isActive)
	return rv, nil
}
