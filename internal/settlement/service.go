package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/courtline/courtline/internal/users"
)

var (
	// ErrUnknownAdmin indicates the initiating admin id does not resolve.
	ErrUnknownAdmin = errors.New("settlement: unknown initiating admin")
	// ErrTrainingMissing indicates at least one requested training id does
	// not exist; the whole batch is aborted.
	ErrTrainingMissing = errors.New("settlement: training not found")
	ErrPaymentNotFound = errors.New("settlement: payment not found")
)

// CacheInvalidator invalidates derived report data after a settlement commits.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service is the settlement batch processor.
type Service struct {
	repo   Repository
	users  users.Repository
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance. cache may be nil.
func NewService(repo Repository, userRepo users.Repository, cache CacheInvalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: userRepo, cache: cache, logger: logger, now: time.Now}
}

// Settle creates a payment and atomically flips the given trainings to
// COMPENSATED. Prior status is deliberately not re-checked, so a NEW training
// can be force-settled. An empty id set is accepted and yields a zero-total
// payment. If any id does not exist the whole transaction is rolled back.
// The returned total is recomputed from storage, never trusted from the
// caller.
func (s *Service) Settle(ctx context.Context, trainingIDs []int64, adminID int64) (Payment, error) {
	admin, err := s.users.Get(ctx, adminID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return Payment{}, ErrUnknownAdmin
		}
		return Payment{}, err
	}

	ids := dedupe(trainingIDs)
	now := s.now()

	var payment Payment
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		paymentID, err := tx.CreatePayment(ctx, adminID, now)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			if err := tx.LockTrainings(ctx, ids); err != nil {
				return err
			}
			affected, err := tx.MarkCompensated(ctx, ids, paymentID, now)
			if err != nil {
				return err
			}
			if affected != int64(len(ids)) {
				return ErrTrainingMissing
			}
		}
		total, err := tx.SumLinkedCompensation(ctx, paymentID)
		if err != nil {
			return err
		}
		linked, err := tx.LinkedTrainingIDs(ctx, paymentID)
		if err != nil {
			return err
		}
		payment = Payment{
			ID:            paymentID,
			CreatedAt:     now,
			CreatedBy:     adminID,
			CreatedByName: admin.Name,
			TrainingIDs:   linked,
			TotalCents:    total,
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", slog.Any("error", err))
		}
	}
	return payment, nil
}

// GetPayment returns a payment with its totals recomputed live.
func (s *Service) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments enumerates payments, recomputing every total at read time.
func (s *Service) ListPayments(ctx context.Context) ([]Payment, error) {
	return s.repo.ListPayments(ctx)
}

// OpenCompensations lists the per-trainer candidate sets of approved, unpaid
// trainings.
func (s *Service) OpenCompensations(ctx context.Context) ([]OpenCompensation, error) {
	return s.repo.OpenCompensations(ctx)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
