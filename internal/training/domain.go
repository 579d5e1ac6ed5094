package training

import (
	"time"

	"github.com/courtline/courtline/internal/shared"
)

// Status enumerates the training lifecycle states.
type Status string

const (
	StatusNew         Status = "NEW"
	StatusApproved    Status = "APPROVED"
	StatusCompensated Status = "COMPENSATED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusApproved, StatusCompensated:
		return true
	}
	return false
}

// Training is one logged coaching session eligible for compensation.
// ApprovedAt is set iff the status has reached APPROVED or later;
// CompensatedAt and PaymentID are set iff the status is COMPENSATED. Once
// COMPENSATED the record never changes again.
type Training struct {
	ID                int64
	TrainerID         int64
	CourseID          *int64
	Date              shared.Day
	CompensationCents shared.Cents
	ParticipantCount  int
	Comment           string
	Status            Status
	CreatedAt         time.Time
	ApprovedAt        *time.Time
	CompensatedAt     *time.Time
	PaymentID         *int64
}

// PaymentRef is the tagged settled/unsettled option exposed at the API edge,
// replacing the magic sentinel payment id the old UI used.
type PaymentRef struct {
	Settled   bool  `json:"settled"`
	PaymentID int64 `json:"paymentId,omitempty"`
}

// Payment returns the tagged payment reference of the training.
func (t Training) Payment() PaymentRef {
	if t.PaymentID == nil {
		return PaymentRef{}
	}
	return PaymentRef{Settled: true, PaymentID: *t.PaymentID}
}

// CreateTrainingInput carries the fields a trainer logs for a session.
type CreateTrainingInput struct {
	TrainerID         int64
	CourseID          *int64
	Date              shared.Day
	CompensationCents shared.Cents
	ParticipantCount  int
	Comment           string
}

// UpdateTrainingInput carries the editable fields of an unsettled training.
type UpdateTrainingInput struct {
	CourseID          *int64
	Date              shared.Day
	CompensationCents shared.Cents
	ParticipantCount  int
	Comment           string
}

// ListTrainingsRequest filters the training list.
type ListTrainingsRequest struct {
	TrainerID int64
	Status    Status
	From      shared.Day
	To        shared.Day
}

// DuplicateCandidate pairs a queried training with another training logged on
// the same day for the same course, annotated for review.
type DuplicateCandidate struct {
	QueriedID            int64
	DuplicateID          int64
	DuplicateTrainerName string
	DuplicateCourseName  string
}
