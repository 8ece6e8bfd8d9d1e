package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared/apperr"
)

const reconcileBatchSize = 100

// counterService implement user.CounterSynchronizer
// Chỉ dùng delta atomic ở tầng repository, không bao giờ read-modify-write.
type counterService struct {
	repo user.Repository
}

func NewCounterService(repo user.Repository) user.CounterSynchronizer {
	return &counterService{repo: repo}
}

// ========================================
// DELTAS
// ========================================

func (s *counterService) BookCreated(ctx context.Context, ownerID uuid.UUID) error {
	return s.adjust(ctx, ownerID, user.CounterBooks, 1)
}

func (s *counterService) BookDeleted(ctx context.Context, ownerID uuid.UUID) error {
	return s.adjust(ctx, ownerID, user.CounterBooks, -1)
}

func (s *counterService) ReviewCreated(ctx context.Context, authorID uuid.UUID) error {
	return s.adjust(ctx, authorID, user.CounterReviews, 1)
}

// ReviewDeleted trừ n review của cùng một author (n > 1 khi cascade từ book delete)
func (s *counterService) ReviewDeleted(ctx context.Context, authorID uuid.UUID, n int) error {
	if n <= 0 {
		return nil
	}
	return s.adjust(ctx, authorID, user.CounterReviews, -n)
}

func (s *counterService) adjust(ctx context.Context, userID uuid.UUID, counter user.Counter, delta int) error {
	if err := s.repo.AdjustCounter(ctx, userID, counter, delta); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.NewUserNotFoundError(userID.String())
		}
		return apperr.Store("adjust "+string(counter), err)
	}

	log.Debug().
		Str("user_id", userID.String()).
		Str("counter", string(counter)).
		Int("delta", delta).
		Msg("User counter adjusted")
	return nil
}

// ========================================
// RECONCILIATION
// ========================================

// Reconcile đếm lại books/reviews active và ghi đè counter cache
func (s *counterService) Reconcile(ctx context.Context, userID uuid.UUID) (user.Counters, error) {
	counters, err := s.repo.CountActive(ctx, userID)
	if err != nil {
		return user.Counters{}, apperr.Store("count user activity", err)
	}

	if err := s.repo.SetCounters(ctx, userID, counters); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.Counters{}, user.NewUserNotFoundError(userID.String())
		}
		return user.Counters{}, apperr.Store("set user counters", err)
	}

	return counters, nil
}

// ReconcileAll duyệt toàn bộ users theo keyset (id tăng dần).
// Trả về số user đã reconcile thành công; dừng ở lỗi đầu tiên.
func (s *counterService) ReconcileAll(ctx context.Context) (int, error) {
	var (
		after = uuid.Nil
		done  int
	)

	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		ids, err := s.repo.ListIDsAfter(ctx, after, reconcileBatchSize)
		if err != nil {
			return done, apperr.Store("list users", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if _, err := s.Reconcile(ctx, id); err != nil {
				return done, err
			}
			done++
		}

		after = ids[len(ids)-1]
		if len(ids) < reconcileBatchSize {
			break
		}
	}

	log.Info().Int("users", done).Msg("User counters reconciled")
	return done, nil
}
