package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) BookRepository {
	return &postgresRepository{pool: pool}
}

const bookSelect = `
	SELECT
		b.id, b.title, b.author, b.description, b.genre, b.published_year,
		b.isbn, b.pages, b.language, b.publisher, b.tags, b.cover_image,
		b.owner_id, b.average_rating, b.total_reviews, b.is_active,
		b.created_at, b.updated_at,
		COALESCE(u.name, '') AS owner_name
	FROM books b
	LEFT JOIN users u ON u.id = b.owner_id
`

// sortClauses map sort key sang ORDER BY; b.id để thứ tự ổn định khi phân trang
var sortClauses = map[string]string{
	model.SortTitle:   "b.title ASC, b.id",
	model.SortAuthor:  "b.author ASC, b.id",
	model.SortYear:    "b.published_year DESC, b.id",
	model.SortNewest:  "b.published_year DESC, b.id",
	model.SortOldest:  "b.published_year ASC, b.id",
	model.SortRating:  "b.average_rating DESC, b.total_reviews DESC, b.id",
	model.SortCreated: "b.created_at DESC, b.id",
	model.SortUpdated: "b.updated_at DESC, b.id",
}

const defaultSort = "b.created_at DESC, b.id"

// ========================================
// WRITE OPERATIONS
// ========================================

func (r *postgresRepository) Create(ctx context.Context, b *model.Book) error {
	query := `
		INSERT INTO books (
			title, author, description, genre, published_year,
			isbn, pages, language, publisher, tags, cover_image,
			owner_id, average_rating, total_reviews, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at, updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		b.Title,
		b.Author,
		b.Description,
		string(b.Genre),
		b.PublishedYear,
		b.ISBN,
		b.Pages,
		b.Language,
		b.Publisher,
		tagsOrEmpty(b.Tags),
		b.CoverImage,
		b.OwnerID,
		b.AverageRating,
		b.TotalReviews,
		b.State.IsActive(),
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrISBNAlreadyExists
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

func (r *postgresRepository) Update(ctx context.Context, b *model.Book) error {
	query := `
		UPDATE books SET
			title = $2, author = $3, description = $4, genre = $5,
			published_year = $6, isbn = $7, pages = $8, language = $9,
			publisher = $10, tags = $11, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		b.ID,
		b.Title,
		b.Author,
		b.Description,
		string(b.Genre),
		b.PublishedYear,
		b.ISBN,
		b.Pages,
		b.Language,
		b.Publisher,
		tagsOrEmpty(b.Tags),
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrBookNotFound
		}
		if isUniqueViolation(err) {
			return model.ErrISBNAlreadyExists
		}
		return fmt.Errorf("update book: %w", err)
	}

	return nil
}

func (r *postgresRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE books SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}
	return nil
}

func (r *postgresRepository) UpdateRatingAggregate(ctx context.Context, id uuid.UUID, average float64, total int) (bool, error) {
	query := `UPDATE books SET average_rating = $2, total_reviews = $3 WHERE id = $1`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, average, total)
	if err != nil {
		return false, fmt.Errorf("update rating aggregate: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) SetCoverImage(ctx context.Context, id uuid.UUID, url string) (bool, error) {
	query := `UPDATE books SET cover_image = $2, updated_at = NOW() WHERE id = $1 AND is_active`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, url)
	if err != nil {
		return false, fmt.Errorf("set cover image: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ========================================
// READ OPERATIONS
// ========================================

func (r *postgresRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return r.findOne(ctx, bookSelect+` WHERE b.id = $1 AND b.is_active`, id)
}

// LockActiveByID: FOR UPDATE OF b để không lock row users được join
func (r *postgresRepository) LockActiveByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return r.findOne(ctx, bookSelect+` WHERE b.id = $1 AND b.is_active FOR UPDATE OF b`, id)
}

func (r *postgresRepository) findOne(ctx context.Context, query string, args ...any) (*model.Book, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}

// List - WHERE động theo filter, trả về trang hiện tại và tổng số
func (r *postgresRepository) List(ctx context.Context, filter model.BookFilter) ([]model.Book, int, error) {
	whereClause, args := buildWhereClause(filter)

	// Step 1: Count
	var total int
	countQuery := `SELECT COUNT(*) FROM books b WHERE ` + whereClause
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	if total == 0 {
		return []model.Book{}, 0, nil
	}

	// Step 2: Page
	orderBy, ok := sortClauses[filter.Sort]
	if !ok {
		orderBy = defaultSort
	}
	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		bookSelect, whereClause, orderBy, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	books, err := r.collect(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *postgresRepository) FindPopular(ctx context.Context, limit int) ([]model.Book, error) {
	query := bookSelect + ` WHERE b.is_active ORDER BY ` + sortClauses[model.SortRating] + ` LIMIT $1`
	return r.collect(ctx, query, limit)
}

func (r *postgresRepository) FindRecent(ctx context.Context, limit int) ([]model.Book, error) {
	query := bookSelect + ` WHERE b.is_active ORDER BY ` + defaultSort + ` LIMIT $1`
	return r.collect(ctx, query, limit)
}

func (r *postgresRepository) ListAllActive(ctx context.Context) ([]model.Book, error) {
	query := bookSelect + ` WHERE b.is_active ORDER BY ` + sortClauses[model.SortTitle]
	return r.collect(ctx, query)
}

func (r *postgresRepository) CountByGenre(ctx context.Context) (map[model.Genre]int, error) {
	query := `SELECT genre, COUNT(*) FROM books WHERE is_active GROUP BY genre`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count books by genre: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Genre]int)
	for rows.Next() {
		var (
			genre string
			count int
		)
		if err := rows.Scan(&genre, &count); err != nil {
			return nil, fmt.Errorf("scan genre count: %w", err)
		}
		counts[model.Genre(genre)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre counts: %w", err)
	}

	return counts, nil
}

// ========================================
// HELPERS
// ========================================

func (r *postgresRepository) collect(ctx context.Context, query string, args ...any) ([]model.Book, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}

	books, err := pgx.CollectRows(rows, scanBook)
	if err != nil {
		return nil, fmt.Errorf("collect books: %w", err)
	}
	return books, nil
}

// buildWhereClause - Construct WHERE clause dynamically
// Search là substring không phân biệt hoa thường trên title/author/description/tags
func buildWhereClause(filter model.BookFilter) (string, []any) {
	conditions := []string{"b.is_active"}
	args := []any{}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := next("%" + escapeLike(filter.Search) + "%")
		conditions = append(conditions, fmt.Sprintf(
			`(b.title ILIKE %[1]s OR b.author ILIKE %[1]s OR b.description ILIKE %[1]s
			  OR EXISTS (SELECT 1 FROM unnest(b.tags) AS t(tag) WHERE t.tag ILIKE %[1]s))`, p))
	}

	if filter.Genre != "" {
		conditions = append(conditions, "b.genre = "+next(filter.Genre))
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, "b.owner_id = "+next(*filter.OwnerID))
	}

	if filter.MinRating != nil {
		conditions = append(conditions, "b.average_rating >= "+next(*filter.MinRating))
	}

	if filter.MinYear != nil {
		conditions = append(conditions, "b.published_year >= "+next(*filter.MinYear))
	}

	if filter.MaxYear != nil {
		conditions = append(conditions, "b.published_year <= "+next(*filter.MaxYear))
	}

	return strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanBook(row pgx.CollectableRow) (model.Book, error) {
	var (
		b        model.Book
		genre    string
		isActive bool
	)

	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Description, &genre, &b.PublishedYear,
		&b.ISBN, &b.Pages, &b.Language, &b.Publisher, &b.Tags, &b.CoverImage,
		&b.OwnerID, &b.AverageRating, &b.TotalReviews, &isActive,
		&b.CreatedAt, &b.UpdatedAt,
		&b.OwnerName,
	)
	if err != nil {
		return model.Book{}, err
	}

	b.Genre = model.Genre(genre)
	b.State = lifecycle.FromActive(isActive)
	return b, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
