package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EntryRepository interface {
	Create(ctx context.Context, e *ScheduleEntry) error
	// Find returns the non-deleted entry for the key, or nil when absent.
	Find(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (*ScheduleEntry, error)
	// FindForUpdate is Find with a row lock; callers run it inside a
	// transaction pinned via db.WithTx.
	FindForUpdate(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (*ScheduleEntry, error)
	// UpdateAssignment rewrites the assignment fields with a version
	// compare-and-set; returns ErrAlreadySwapped-class failures to the service.
	UpdateAssignment(ctx context.Context, e *ScheduleEntry) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleEntry, error)
	ListByDate(ctx context.Context, date time.Time) ([]*ScheduleEntry, error)
}

type DoctorRepository interface {
	ListActive(ctx context.Context) ([]*Doctor, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
}

// TxRunner runs fn atomically. The production wiring wraps db.WithTx over
// the pgx pool; tests pass the function through unchanged.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error
