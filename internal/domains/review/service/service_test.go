package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookmodel "bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/rating"
	"bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/domains/user"
	usersvc "bookreview-backend/internal/domains/user/service"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/apperr"
	"bookreview-backend/internal/shared/lifecycle"
	"bookreview-backend/internal/testutil/memstore"
)

type fixture struct {
	store *memstore.Store
	svc   ServiceInterface

	owner user.User
	alice user.User
	bob   user.User
	carol user.User
	admin user.User
	book  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	users := store.Users()

	f := &fixture{
		store: store,
		owner: users.Seed("Owner", "owner@example.com", user.RoleUser),
		alice: users.Seed("Alice", "alice@example.com", user.RoleUser),
		bob:   users.Seed("Bob", "bob@example.com", user.RoleUser),
		carol: users.Seed("Carol", "carol@example.com", user.RoleUser),
		admin: users.Seed("Admin", "admin@example.com", user.RoleAdmin),
	}
	f.book = f.seedBook(t, "Dune")

	f.svc = NewReviewService(
		store.Reviews(),
		store.Books(),
		users,
		usersvc.NewCounterService(users),
		rating.NewAggregator(store.Reviews(), store.Books()),
		store.TxManager(),
	)
	return f
}

func (f *fixture) seedBook(t *testing.T, title string) uuid.UUID {
	t.Helper()
	b := &bookmodel.Book{
		Title:         title,
		Author:        "Frank Herbert",
		Description:   "A desert planet and its spice.",
		Genre:         bookmodel.GenreScienceFiction,
		PublishedYear: 1965,
		Language:      bookmodel.DefaultLanguage,
		OwnerID:       f.owner.ID,
		State:         lifecycle.Active,
	}
	require.NoError(t, f.store.Books().Create(context.Background(), b))
	return b.ID
}

func (f *fixture) create(t *testing.T, author user.User, stars int) *model.ReviewResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), author.ID, reviewReq(f.book, stars))
	require.NoError(t, err)
	return resp
}

func reviewReq(bookID uuid.UUID, stars int) model.CreateReviewRequest {
	return model.CreateReviewRequest{
		BookID:     bookID,
		Rating:     stars,
		ReviewText: "A thoughtful review of this book.",
	}
}

func actor(u user.User) shared.Actor {
	return shared.Actor{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

func (f *fixture) assertAggregate(t *testing.T, average float64, total int) {
	t.Helper()
	b := f.store.Book(f.book)
	assert.Equal(t, average, b.AverageRating, "average_rating")
	assert.Equal(t, total, b.TotalReviews, "total_reviews")
}

// ========================================
// LIFECYCLE
// ========================================

func TestAggregateFollowsReviewLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Review đầu tiên
	first := f.create(t, f.alice, 5)
	f.assertAggregate(t, 5.0, 1)
	assert.Equal(t, 1, f.store.User(f.alice.ID).ReviewsCount)

	// Review thứ hai: mean(5, 3) = 4.0
	second := f.create(t, f.bob, 3)
	f.assertAggregate(t, 4.0, 2)

	// Xóa review của Alice
	require.NoError(t, f.svc.Delete(ctx, actor(f.alice), first.ID))
	f.assertAggregate(t, 3.0, 1)
	assert.Equal(t, 0, f.store.User(f.alice.ID).ReviewsCount)

	// Alice review lại: review mới, id mới
	again := f.create(t, f.alice, 4)
	assert.NotEqual(t, first.ID, again.ID)
	assert.True(t, f.store.Review(again.ID).State.IsActive())
	assert.False(t, f.store.Review(first.ID).State.IsActive())
	f.assertAggregate(t, 3.5, 2)

	assert.True(t, f.store.Review(second.ID).State.IsActive())
}

func TestCreateReturnsJoinedNames(t *testing.T) {
	f := newFixture(t)

	resp := f.create(t, f.alice, 4)

	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, "Dune", resp.Book.Title)
	assert.Equal(t, model.StatusCompleted, resp.ReadingStatus)
}

func TestCreateDuplicateActiveReviewConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.alice, 5)

	_, err := f.svc.Create(ctx, f.alice.ID, reviewReq(f.book, 2))
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, f.store.ActiveReviewCount(f.book))
	assert.Equal(t, 1, f.store.User(f.alice.ID).ReviewsCount)
	f.assertAggregate(t, 5.0, 1)
}

func TestCreateMapsUniqueViolationToConflict(t *testing.T) {
	f := newFixture(t)

	// Hai request song song: pre-check đều qua, insert thứ hai đụng unique index
	f.store.FailOn("CreateReview", model.ErrAlreadyReviewed)

	_, err := f.svc.Create(context.Background(), f.alice.ID, reviewReq(f.book, 5))
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindConflict, Code: model.ErrCodeAlreadyReviewed})
}

func TestCreateRequiresActiveBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice.ID, reviewReq(uuid.New(), 5))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.store.Books().Deactivate(ctx, f.book))
	_, err = f.svc.Create(ctx, f.alice.ID, reviewReq(f.book, 5))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		req  model.CreateReviewRequest
	}{
		{"rating zero", reviewReq(f.book, 0)},
		{"rating six", reviewReq(f.book, 6)},
		{"short text", model.CreateReviewRequest{BookID: f.book, Rating: 3, ReviewText: "meh"}},
		{"missing book", model.CreateReviewRequest{Rating: 3, ReviewText: "A thoughtful review."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.alice.ID, tt.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, 0, f.store.ActiveReviewCount(f.book))
}

func TestCreateRollsBackWhenRecomputeFails(t *testing.T) {
	f := newFixture(t)

	f.store.FailOn("UpdateRatingAggregate", errors.New("connection reset"))

	_, err := f.svc.Create(context.Background(), f.alice.ID, reviewReq(f.book, 5))
	assert.ErrorIs(t, err, apperr.ErrStore)

	assert.Equal(t, 0, f.store.ActiveReviewCount(f.book))
	assert.Equal(t, 0, f.store.User(f.alice.ID).ReviewsCount)
	f.assertAggregate(t, 0, 0)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.create(t, f.alice, 5)
	f.create(t, f.bob, 3)

	t.Run("non author is forbidden", func(t *testing.T) {
		stars := 1
		_, err := f.svc.Update(ctx, actor(f.carol), review.ID, model.UpdateReviewRequest{Rating: &stars})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		f.assertAggregate(t, 4.0, 2)
	})

	t.Run("author changes rating", func(t *testing.T) {
		stars := 1
		resp, err := f.svc.Update(ctx, actor(f.alice), review.ID, model.UpdateReviewRequest{Rating: &stars})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Rating)
		assert.Equal(t, f.book, resp.Book.ID)
		assert.Equal(t, f.alice.ID, resp.User.ID)
		f.assertAggregate(t, 2.0, 2)
	})

	t.Run("admin may edit", func(t *testing.T) {
		spoiler := true
		resp, err := f.svc.Update(ctx, actor(f.admin), review.ID, model.UpdateReviewRequest{SpoilerAlert: &spoiler})
		require.NoError(t, err)
		assert.True(t, resp.SpoilerAlert)
		assert.Equal(t, f.alice.ID, resp.User.ID)
	})

	t.Run("missing review", func(t *testing.T) {
		_, err := f.svc.Update(ctx, actor(f.alice), uuid.New(), model.UpdateReviewRequest{})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("invalid reading status", func(t *testing.T) {
		status := "abandoned"
		_, err := f.svc.Update(ctx, actor(f.alice), review.ID, model.UpdateReviewRequest{ReadingStatus: &status})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.create(t, f.alice, 5)

	err := f.svc.Delete(ctx, actor(f.bob), review.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.True(t, f.store.Review(review.ID).State.IsActive())

	// Admin xóa hộ: counter của tác giả giảm, không phải của admin
	require.NoError(t, f.svc.Delete(ctx, actor(f.admin), review.ID))
	assert.False(t, f.store.Review(review.ID).State.IsActive())
	assert.Equal(t, 0, f.store.User(f.alice.ID).ReviewsCount)
	f.assertAggregate(t, 0, 0)

	err = f.svc.Delete(ctx, actor(f.alice), review.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMarkHelpful(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	review := f.create(t, f.bob, 4)

	t.Run("author cannot vote own review", func(t *testing.T) {
		_, err := f.svc.MarkHelpful(ctx, f.bob.ID, review.ID)
		assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindForbidden, Code: model.ErrCodeOwnReview})
		assert.Equal(t, 0, f.store.Review(review.ID).HelpfulVotes)
	})

	t.Run("no dedup per voter", func(t *testing.T) {
		_, err := f.svc.MarkHelpful(ctx, f.carol.ID, review.ID)
		require.NoError(t, err)
		resp, err := f.svc.MarkHelpful(ctx, f.carol.ID, review.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.HelpfulVotes)
	})

	t.Run("deleted review", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, actor(f.bob), review.ID))
		_, err := f.svc.MarkHelpful(ctx, f.carol.ID, review.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

// ========================================
// PROPERTIES
// ========================================

// Sau mọi chuỗi create/update/delete, aggregate luôn khớp với tập review active
func TestAggregateMatchesActiveReviewsAfterRandomOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	reviewers := []user.User{f.alice, f.bob, f.carol, f.admin}
	active := map[uuid.UUID]uuid.UUID{} // user -> review

	for step := 0; step < 200; step++ {
		u := reviewers[rng.Intn(len(reviewers))]
		stars := rng.Intn(5) + 1
		reviewID, has := active[u.ID]

		switch {
		case !has:
			resp, err := f.svc.Create(ctx, u.ID, reviewReq(f.book, stars))
			require.NoError(t, err)
			active[u.ID] = resp.ID
		case rng.Intn(2) == 0:
			_, err := f.svc.Update(ctx, actor(u), reviewID, model.UpdateReviewRequest{Rating: &stars})
			require.NoError(t, err)
		default:
			require.NoError(t, f.svc.Delete(ctx, actor(u), reviewID))
			delete(active, u.ID)
		}

		var ratings []int
		for _, id := range active {
			ratings = append(ratings, f.store.Review(id).Rating)
		}
		expected := rating.Summarize(ratings)
		f.assertAggregate(t, expected.AverageRating, expected.TotalReviews)
		require.Equal(t, len(active), f.store.ActiveReviewCount(f.book))
	}
}

func TestEmptyBookHasZeroAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, f.alice, 2)
	b := f.create(t, f.bob, 5)
	require.NoError(t, f.svc.Delete(ctx, actor(f.alice), a.ID))
	require.NoError(t, f.svc.Delete(ctx, actor(f.bob), b.ID))

	f.assertAggregate(t, 0, 0)
}

// ========================================
// READS
// ========================================

func TestListForBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	low := f.create(t, f.alice, 2)
	high := f.create(t, f.bob, 5)
	_, err := f.svc.MarkHelpful(ctx, f.carol.ID, low.ID)
	require.NoError(t, err)

	resp, total, err := f.svc.ListForBook(ctx, f.book, model.ListQuery{Sort: model.SortHelpful, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, resp.Reviews, 2)
	assert.Equal(t, low.ID, resp.Reviews[0].ID)
	assert.Equal(t, 3.5, resp.RatingStats.AverageRating)
	assert.Equal(t, 1, resp.RatingStats.Distribution[5])

	resp, _, err = f.svc.ListForBook(ctx, f.book, model.ListQuery{Sort: model.SortRatingHigh, Limit: 1})
	require.NoError(t, err)
	require.Len(t, resp.Reviews, 1)
	assert.Equal(t, high.ID, resp.Reviews[0].ID)

	_, _, err = f.svc.ListForBook(ctx, uuid.New(), model.ListQuery{Limit: 10})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.alice, 4)
	other := f.seedBook(t, "Children of Dune")
	_, err := f.svc.Create(ctx, f.alice.ID, reviewReq(other, 3))
	require.NoError(t, err)

	resp, total, err := f.svc.ListByUser(ctx, f.alice.ID, model.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Alice", resp.User.Name)
	assert.Equal(t, 2, resp.User.ReviewsCount)
	assert.Equal(t, 3.5, resp.User.AverageRatingGiven)

	f.store.Users().SetState(f.bob.ID, lifecycle.Deleted)
	_, _, err = f.svc.ListByUser(ctx, f.bob.ID, model.ListQuery{Limit: 10})
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindNotFound, Code: model.ErrCodeUserNotFound})
}

func TestCheckMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.CheckMine(ctx, f.alice.ID, f.book)
	require.NoError(t, err)
	assert.False(t, resp.HasReviewed)
	assert.Nil(t, resp.Review)

	created := f.create(t, f.alice, 4)
	resp, err = f.svc.CheckMine(ctx, f.alice.ID, f.book)
	require.NoError(t, err)
	assert.True(t, resp.HasReviewed)
	require.NotNil(t, resp.Review)
	assert.Equal(t, created.ID, resp.Review.ID)
}

func TestAverageForBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.alice, 4)
	f.create(t, f.bob, 5)

	resp, err := f.svc.AverageForBook(ctx, f.book)
	require.NoError(t, err)
	assert.Equal(t, f.book, resp.BookID)
	assert.Equal(t, 4.5, resp.AverageRating)
	assert.Equal(t, 2, resp.TotalReviews)

	require.NoError(t, f.store.Books().Deactivate(ctx, f.book))
	_, err = f.svc.AverageForBook(ctx, f.book)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMostHelpfulDefaultsLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, f.alice, 4)
	f.create(t, f.bob, 5)

	reviews, err := f.svc.MostHelpful(ctx, f.book, 0)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}
