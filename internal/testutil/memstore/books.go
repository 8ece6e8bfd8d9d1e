package memstore

import (
	"bytes"
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	bookmodel "bookreview-backend/internal/domains/book/model"
	bookrepo "bookreview-backend/internal/domains/book/repository"
	"bookreview-backend/internal/shared/lifecycle"
)

type BookRepo struct{ s *Store }

var _ bookrepo.BookRepository = (*BookRepo)(nil)

func (r *BookRepo) Create(_ context.Context, b *bookmodel.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateBook"); err != nil {
		return err
	}

	if r.isbnTaken(b.ISBN, uuid.Nil) {
		return bookmodel.ErrISBNAlreadyExists
	}

	b.ID = uuid.New()
	b.CreatedAt = r.s.now()
	b.UpdatedAt = b.CreatedAt
	r.s.books[b.ID] = *b
	return nil
}

func (r *BookRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*bookmodel.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok || !b.IsActive() {
		return nil, bookmodel.ErrBookNotFound
	}
	r.join(&b)
	return &b, nil
}

// LockActiveByID: TxManager đã chạy tuần tự nên không cần lock thêm
func (r *BookRepo) LockActiveByID(ctx context.Context, id uuid.UUID) (*bookmodel.Book, error) {
	return r.FindActiveByID(ctx, id)
}

func (r *BookRepo) Update(_ context.Context, b *bookmodel.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.books[b.ID]
	if !ok || !current.IsActive() {
		return bookmodel.ErrBookNotFound
	}
	if r.isbnTaken(b.ISBN, b.ID) {
		return bookmodel.ErrISBNAlreadyExists
	}

	// Chỉ các field người dùng sửa được
	current.Title = b.Title
	current.Author = b.Author
	current.Description = b.Description
	current.Genre = b.Genre
	current.PublishedYear = b.PublishedYear
	current.ISBN = b.ISBN
	current.Pages = b.Pages
	current.Language = b.Language
	current.Publisher = b.Publisher
	current.Tags = append([]string(nil), b.Tags...)
	current.UpdatedAt = r.s.now()
	b.UpdatedAt = current.UpdatedAt
	r.s.books[b.ID] = current
	return nil
}

func (r *BookRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok || !b.IsActive() {
		return bookmodel.ErrBookNotFound
	}
	b.State = lifecycle.Deleted
	b.UpdatedAt = r.s.now()
	r.s.books[id] = b
	return nil
}

func (r *BookRepo) UpdateRatingAggregate(_ context.Context, id uuid.UUID, average float64, total int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("UpdateRatingAggregate"); err != nil {
		return false, err
	}

	b, ok := r.s.books[id]
	if !ok {
		return false, nil
	}
	b.AverageRating = average
	b.TotalReviews = total
	r.s.books[id] = b
	return true, nil
}

func (r *BookRepo) SetCoverImage(_ context.Context, id uuid.UUID, url string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok || !b.IsActive() {
		return false, nil
	}
	b.CoverImage = &url
	r.s.books[id] = b
	return true, nil
}

func (r *BookRepo) List(_ context.Context, filter bookmodel.BookFilter) ([]bookmodel.Book, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := r.filter(func(b bookmodel.Book) bool { return matches(b, filter) })
	sortBooks(matched, filter.Sort)

	total := len(matched)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (r *BookRepo) FindPopular(_ context.Context, limit int) ([]bookmodel.Book, error) {
	return r.top(bookmodel.SortRating, limit), nil
}

func (r *BookRepo) FindRecent(_ context.Context, limit int) ([]bookmodel.Book, error) {
	return r.top(bookmodel.SortCreated, limit), nil
}

func (r *BookRepo) CountByGenre(_ context.Context) (map[bookmodel.Genre]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[bookmodel.Genre]int)
	for _, b := range r.s.books {
		if b.IsActive() {
			counts[b.Genre]++
		}
	}
	return counts, nil
}

func (r *BookRepo) ListAllActive(_ context.Context) ([]bookmodel.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	books := r.filter(func(bookmodel.Book) bool { return true })
	sortBooks(books, bookmodel.SortTitle)
	return books, nil
}

// ========================================
// HELPERS
// ========================================

func (r *BookRepo) top(sortKey string, limit int) []bookmodel.Book {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	books := r.filter(func(bookmodel.Book) bool { return true })
	sortBooks(books, sortKey)
	if len(books) > limit {
		books = books[:limit]
	}
	return books
}

// filter, join, isbnTaken: gọi khi đang giữ s.mu
func (r *BookRepo) filter(keep func(bookmodel.Book) bool) []bookmodel.Book {
	out := []bookmodel.Book{}
	for _, b := range r.s.books {
		if b.IsActive() && keep(b) {
			r.join(&b)
			out = append(out, b)
		}
	}
	return out
}

func (r *BookRepo) join(b *bookmodel.Book) {
	b.OwnerName = r.s.users[b.OwnerID].Name
}

// isbnTaken: unique index chỉ áp dụng cho book active có ISBN
func (r *BookRepo) isbnTaken(isbn *string, self uuid.UUID) bool {
	if isbn == nil {
		return false
	}
	for id, b := range r.s.books {
		if id != self && b.IsActive() && b.ISBN != nil && *b.ISBN == *isbn {
			return true
		}
	}
	return false
}

func matches(b bookmodel.Book, f bookmodel.BookFilter) bool {
	if f.Search != "" && !containsFold(b, f.Search) {
		return false
	}
	if f.Genre != "" && string(b.Genre) != f.Genre {
		return false
	}
	if f.OwnerID != nil && b.OwnerID != *f.OwnerID {
		return false
	}
	if f.MinRating != nil && b.AverageRating < *f.MinRating {
		return false
	}
	if f.MinYear != nil && b.PublishedYear < *f.MinYear {
		return false
	}
	if f.MaxYear != nil && b.PublishedYear > *f.MaxYear {
		return false
	}
	return true
}

func containsFold(b bookmodel.Book, q string) bool {
	q = strings.ToLower(q)
	fields := append([]string{b.Title, b.Author, b.Description}, b.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func sortBooks(books []bookmodel.Book, key string) {
	less := func(a, b bookmodel.Book) int {
		switch key {
		case bookmodel.SortTitle:
			return strings.Compare(a.Title, b.Title)
		case bookmodel.SortAuthor:
			return strings.Compare(a.Author, b.Author)
		case bookmodel.SortYear, bookmodel.SortNewest:
			return b.PublishedYear - a.PublishedYear
		case bookmodel.SortOldest:
			return a.PublishedYear - b.PublishedYear
		case bookmodel.SortRating:
			if a.AverageRating != b.AverageRating {
				if a.AverageRating > b.AverageRating {
					return -1
				}
				return 1
			}
			return b.TotalReviews - a.TotalReviews
		case bookmodel.SortUpdated:
			return b.UpdatedAt.Compare(a.UpdatedAt)
		default:
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	}

	sort.Slice(books, func(i, j int) bool {
		if c := less(books[i], books[j]); c != 0 {
			return c < 0
		}
		return bytes.Compare(books[i].ID[:], books[j].ID[:]) < 0
	})
}
