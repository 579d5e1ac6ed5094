package settlement

import (
	"time"

	"github.com/courtline/courtline/internal/shared"
)

// Payment is a batch of trainings paid out together. TrainingIDs and
// TotalCents are derived from the trainings currently linked to the payment
// and recomputed on every read; they are never cached on the row.
type Payment struct {
	ID            int64
	CreatedAt     time.Time
	CreatedBy     int64
	CreatedByName string
	TrainingIDs   []int64
	TotalCents    shared.Cents
}

// OpenCompensation groups a trainer's APPROVED-but-unpaid trainings: the
// candidate set for the next settlement run and the input for a bank export.
type OpenCompensation struct {
	TrainerID   int64
	TrainerName string
	TrainerIBAN string
	TrainingIDs []int64
	TotalCents  shared.Cents
}
