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

	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/pkg/database"
)

// postgresRepository là concrete implementation của user.Repository interface
// Struct PRIVATE - bên ngoài chỉ thấy interface
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository trả về interface để service không phụ thuộc implementation
func NewPostgresRepository(pool *pgxpool.Pool) user.Repository {
	return &postgresRepository{pool: pool}
}

const userColumns = `
	id, name, email, password_hash, role, is_active,
	books_count, reviews_count, created_at, updated_at
`

// ========================================
// BASIC CRUD OPERATIONS
// ========================================

func (r *postgresRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, books_count, reviews_count, created_at, updated_at
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.Role,
		u.State.IsActive(),
	).Scan(&u.ID, &u.BooksCount, &u.ReviewsCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByEmail so sánh lowercase, khớp với unique index users_email_key
func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	u, err := scanUser(database.Conn(ctx, r.pool).QueryRow(ctx, query, email))
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresRepository) UpdateDetails(ctx context.Context, id uuid.UUID, name, email string) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailAlreadyExists
		}
		return fmt.Errorf("update user details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ========================================
// COUNTER CACHE
// ========================================

// AdjustCounter: một câu UPDATE duy nhất, Postgres tự lock row nên
// các delta đồng thời không bị mất. GREATEST giữ counter >= 0.
func (r *postgresRepository) AdjustCounter(ctx context.Context, id uuid.UUID, counter user.Counter, delta int) error {
	var query string
	switch counter {
	case user.CounterBooks:
		query = `UPDATE users SET books_count = GREATEST(books_count + $2, 0), updated_at = NOW() WHERE id = $1`
	case user.CounterReviews:
		query = `UPDATE users SET reviews_count = GREATEST(reviews_count + $2, 0), updated_at = NOW() WHERE id = $1`
	default:
		return fmt.Errorf("unknown counter %q", counter)
	}

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("adjust %s: %w", counter, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *postgresRepository) SetCounters(ctx context.Context, id uuid.UUID, counters user.Counters) error {
	query := `
		UPDATE users
		SET books_count = $2, reviews_count = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := database.Conn(ctx, r.pool).Exec(ctx, query, id, counters.BooksCount, counters.ReviewsCount)
	if err != nil {
		return fmt.Errorf("set counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// CountActive đếm trực tiếp từ books/reviews, không đọc counter cache
func (r *postgresRepository) CountActive(ctx context.Context, id uuid.UUID) (user.Counters, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM books WHERE owner_id = $1 AND is_active),
			(SELECT COUNT(*) FROM reviews WHERE user_id = $1 AND is_active)
	`

	var counters user.Counters
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, id).
		Scan(&counters.BooksCount, &counters.ReviewsCount)
	if err != nil {
		return user.Counters{}, fmt.Errorf("count active: %w", err)
	}
	return counters, nil
}

func (r *postgresRepository) ListIDsAfter(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := `SELECT id FROM users WHERE id > $1 ORDER BY id LIMIT $2`

	rows, err := database.Conn(ctx, r.pool).Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("scan user ids: %w", err)
	}
	return ids, nil
}

// ========================================
// HELPERS
// ========================================

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u        user.User
		role     string
		isActive bool
	)

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&isActive,
		&u.BooksCount,
		&u.ReviewsCount,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = user.Role(role)
	if !u.Role.IsValid() {
		u.Role = user.RoleUser
	}
	u.State = lifecycle.FromActive(isActive)
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
