package training

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/courtline/courtline/internal/shared"
)

var (
	ErrTrainingNotFound = errors.New("training: not found")
	// ErrTrainingCompensated is the distinct conflict raised for any mutation
	// of a COMPENSATED training, including a no-op transition.
	ErrTrainingCompensated = errors.New("training: already compensated")
	ErrInvalidStatus       = errors.New("training: invalid target status")
	ErrInvalidReference    = errors.New("training: unknown course reference")
)

// Service owns the training store and the status transition guard.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create logs a new session in status NEW. Trainers may only log sessions for
// themselves; admins may log on behalf of any trainer.
func (s *Service) Create(ctx context.Context, caller shared.Identity, input CreateTrainingInput) (Training, error) {
	if input.TrainerID == 0 {
		input.TrainerID = caller.UserID
	}
	if err := shared.Authorize(caller, input.TrainerID); err != nil {
		return Training{}, err
	}
	return s.repo.Create(ctx, input, s.now())
}

// Get returns a single training, owner-or-admin scoped.
func (s *Service) Get(ctx context.Context, caller shared.Identity, id int64) (Training, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Training{}, err
	}
	if err := shared.Authorize(caller, t.TrainerID); err != nil {
		return Training{}, err
	}
	return t, nil
}

// List returns trainings matching the filter. Non-admin callers are forced
// onto their own trainer id.
func (s *Service) List(ctx context.Context, caller shared.Identity, req ListTrainingsRequest) ([]Training, error) {
	if !caller.IsAdmin() {
		req.TrainerID = caller.UserID
	}
	return s.repo.List(ctx, req)
}

// Update edits an unsettled training. NEW trainings belong to their trainer
// (or an admin); once APPROVED only admins may edit; COMPENSATED is immutable.
func (s *Service) Update(ctx context.Context, caller shared.Identity, id int64, input UpdateTrainingInput) (Training, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Training{}, err
	}
	if err := s.guardMutable(caller, t); err != nil {
		return Training{}, err
	}
	if err := s.repo.UpdateDetails(ctx, id, input); err != nil {
		return Training{}, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes an unsettled training under the same ownership rules as Update.
func (s *Service) Delete(ctx context.Context, caller shared.Identity, id int64) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guardMutable(caller, t); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) guardMutable(caller shared.Identity, t Training) error {
	if t.Status == StatusCompensated {
		return ErrTrainingCompensated
	}
	if t.Status == StatusApproved {
		return shared.RequireAdmin(caller)
	}
	return shared.Authorize(caller, t.TrainerID)
}

// Transition moves a training to the target status. COMPENSATED is terminal:
// any attempted transition out of it fails, a no-op included. Moving to
// APPROVED stamps approvedAt and clears compensatedAt; moving back to NEW
// clears both. A direct transition to COMPENSATED is permitted as a manual
// correction path even though it leaves the training without a payment.
func (s *Service) Transition(ctx context.Context, caller shared.Identity, id int64, target Status) (Training, error) {
	if !target.Valid() {
		return Training{}, ErrInvalidStatus
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Training{}, err
	}
	if t.Status == StatusCompensated {
		return Training{}, ErrTrainingCompensated
	}
	if !caller.IsAdmin() {
		if err := shared.Authorize(caller, t.TrainerID); err != nil {
			return Training{}, err
		}
		if t.Status != StatusNew {
			return Training{}, shared.ErrForbidden
		}
	}

	now := s.now()
	var approvedAt, compensatedAt *time.Time
	switch target {
	case StatusNew:
		// both timestamps cleared
	case StatusApproved:
		approvedAt = &now
	case StatusCompensated:
		approvedAt = t.ApprovedAt
		compensatedAt = &now
		s.logger.Warn("training compensated outside settlement batch",
			slog.Int64("training_id", id))
	}

	if err := s.repo.SetStatus(ctx, id, target, approvedAt, compensatedAt); err != nil {
		return Training{}, err
	}

	t.Status = target
	t.ApprovedAt = approvedAt
	t.CompensatedAt = compensatedAt
	return t, nil
}

// FindDuplicates returns, for every queried training, all other trainings
// sharing its date and course. Non-admin callers may only query trainings
// they own.
func (s *Service) FindDuplicates(ctx context.Context, caller shared.Identity, ids []int64) ([]DuplicateCandidate, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return []DuplicateCandidate{}, nil
	}
	if !caller.IsAdmin() {
		for _, id := range ids {
			t, err := s.repo.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			if err := shared.Authorize(caller, t.TrainerID); err != nil {
				return nil, err
			}
		}
	}
	candidates, err := s.repo.FindDuplicates(ctx, ids)
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []DuplicateCandidate{}
	}
	return candidates, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
