package memstore

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"

	reviewmodel "bookreview-backend/internal/domains/review/model"
	reviewrepo "bookreview-backend/internal/domains/review/repository"
	"bookreview-backend/internal/shared/lifecycle"
)

type ReviewRepo struct{ s *Store }

var _ reviewrepo.ReviewRepository = (*ReviewRepo)(nil)

func (r *ReviewRepo) Create(_ context.Context, rv *reviewmodel.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CreateReview"); err != nil {
		return err
	}

	// Partial unique index (book_id, user_id) WHERE is_active
	for _, existing := range r.s.reviews {
		if existing.IsActive() && existing.BookID == rv.BookID && existing.UserID == rv.UserID {
			return reviewmodel.ErrAlreadyReviewed
		}
	}

	rv.ID = uuid.New()
	rv.CreatedAt = r.s.now()
	rv.UpdatedAt = rv.CreatedAt
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r *ReviewRepo) Update(_ context.Context, rv *reviewmodel.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.reviews[rv.ID]
	if !ok || !current.IsActive() {
		return reviewmodel.ErrReviewNotFound
	}

	current.Rating = rv.Rating
	current.ReviewText = rv.ReviewText
	current.Title = rv.Title
	current.ReadingStatus = rv.ReadingStatus
	current.SpoilerAlert = rv.SpoilerAlert
	current.UpdatedAt = r.s.now()
	rv.UpdatedAt = current.UpdatedAt
	r.s.reviews[rv.ID] = current
	return nil
}

func (r *ReviewRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok || !rv.IsActive() {
		return reviewmodel.ErrReviewNotFound
	}
	rv.State = lifecycle.Deleted
	rv.UpdatedAt = r.s.now()
	r.s.reviews[id] = rv
	return nil
}

func (r *ReviewRepo) DeactivateByBook(_ context.Context, bookID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("DeactivateByBook"); err != nil {
		return nil, err
	}

	authors := []uuid.UUID{}
	for id, rv := range r.s.reviews {
		if rv.BookID == bookID && rv.IsActive() {
			rv.State = lifecycle.Deleted
			r.s.reviews[id] = rv
			authors = append(authors, rv.UserID)
		}
	}
	return authors, nil
}

func (r *ReviewRepo) IncrementHelpful(_ context.Context, id uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok || !rv.IsActive() {
		return 0, reviewmodel.ErrReviewNotFound
	}
	rv.HelpfulVotes++
	r.s.reviews[id] = rv
	return rv.HelpfulVotes, nil
}

func (r *ReviewRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*reviewmodel.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rv, ok := r.s.reviews[id]
	if !ok || !rv.IsActive() {
		return nil, reviewmodel.ErrReviewNotFound
	}
	r.join(&rv)
	return &rv, nil
}

func (r *ReviewRepo) FindActiveByUserAndBook(_ context.Context, userID, bookID uuid.UUID) (*reviewmodel.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rv := range r.s.reviews {
		if rv.IsActive() && rv.UserID == userID && rv.BookID == bookID {
			r.join(&rv)
			return &rv, nil
		}
	}
	return nil, reviewmodel.ErrReviewNotFound
}

func (r *ReviewRepo) ListByBook(_ context.Context, bookID uuid.UUID, q reviewmodel.ListQuery) ([]reviewmodel.Review, int, error) {
	return r.page(func(rv reviewmodel.Review) bool { return rv.BookID == bookID }, q), r.count(func(rv reviewmodel.Review) bool { return rv.BookID == bookID }), nil
}

func (r *ReviewRepo) ListByUser(_ context.Context, userID uuid.UUID, q reviewmodel.ListQuery) ([]reviewmodel.Review, int, error) {
	return r.page(func(rv reviewmodel.Review) bool { return rv.UserID == userID }, q), r.count(func(rv reviewmodel.Review) bool { return rv.UserID == userID }), nil
}

func (r *ReviewRepo) FindMostHelpful(_ context.Context, bookID uuid.UUID, limit int) ([]reviewmodel.Review, error) {
	return r.page(func(rv reviewmodel.Review) bool { return rv.BookID == bookID },
		reviewmodel.ListQuery{Sort: reviewmodel.SortHelpful, Limit: limit}), nil
}

func (r *ReviewRepo) ListActiveRatings(_ context.Context, bookID uuid.UUID) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ListActiveRatings"); err != nil {
		return nil, err
	}

	ratings := []int{}
	for _, rv := range r.s.reviews {
		if rv.BookID == bookID && rv.IsActive() {
			ratings = append(ratings, rv.Rating)
		}
	}
	return ratings, nil
}

func (r *ReviewRepo) ListActiveRatingsByUser(_ context.Context, userID uuid.UUID) ([]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ratings := []int{}
	for _, rv := range r.s.reviews {
		if rv.UserID == userID && rv.IsActive() {
			ratings = append(ratings, rv.Rating)
		}
	}
	return ratings, nil
}

func (r *ReviewRepo) RatingDistributions(_ context.Context) (map[uuid.UUID]map[int]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make(map[uuid.UUID]map[int]int)
	for _, rv := range r.s.reviews {
		if !rv.IsActive() {
			continue
		}
		if out[rv.BookID] == nil {
			out[rv.BookID] = make(map[int]int)
		}
		out[rv.BookID][rv.Rating]++
	}
	return out, nil
}

// ========================================
// HELPERS
// ========================================

func (r *ReviewRepo) count(keep func(reviewmodel.Review) bool) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, rv := range r.s.reviews {
		if rv.IsActive() && keep(rv) {
			n++
		}
	}
	return n
}

func (r *ReviewRepo) page(keep func(reviewmodel.Review) bool, q reviewmodel.ListQuery) []reviewmodel.Review {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []reviewmodel.Review{}
	for _, rv := range r.s.reviews {
		if rv.IsActive() && keep(rv) {
			r.join(&rv)
			out = append(out, rv)
		}
	}
	sortReviews(out, q.Sort)

	start := min(q.Offset, len(out))
	end := min(start+q.Limit, len(out))
	return out[start:end]
}

// join gọi khi đang giữ s.mu
func (r *ReviewRepo) join(rv *reviewmodel.Review) {
	rv.UserName = r.s.users[rv.UserID].Name
	b := r.s.books[rv.BookID]
	rv.BookTitle = b.Title
	rv.BookAuthor = b.Author
}

func sortReviews(reviews []reviewmodel.Review, key string) {
	cmp := func(a, b reviewmodel.Review) int {
		switch key {
		case reviewmodel.SortOldest:
			return a.CreatedAt.Compare(b.CreatedAt)
		case reviewmodel.SortHelpful:
			if a.HelpfulVotes != b.HelpfulVotes {
				return b.HelpfulVotes - a.HelpfulVotes
			}
		case reviewmodel.SortRatingHigh:
			if a.Rating != b.Rating {
				return b.Rating - a.Rating
			}
		case reviewmodel.SortRatingLow:
			if a.Rating != b.Rating {
				return a.Rating - b.Rating
			}
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	}

	sort.Slice(reviews, func(i, j int) bool {
		if c := cmp(reviews[i], reviews[j]); c != 0 {
			return c < 0
		}
		return bytes.Compare(reviews[i].ID[:], reviews[j].ID[:]) < 0
	})
}
