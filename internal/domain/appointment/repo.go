package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medisched/medisched/internal/domain/roster"
	"github.com/medisched/medisched/pkg/pagination"
)

// Repository persists appointments. Create must surface ErrSlotConflict
// when the (doctor_id, starts_at) exclusivity constraint is violated.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// CASStatus moves id from expected to next and reports whether any
	// row matched. A false result with no error means the status no
	// longer equals expected.
	CASStatus(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error)
	AttachMeetingURL(ctx context.Context, id uuid.UUID, url string) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, pg pagination.Params) ([]*Appointment, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, pg pagination.Params) ([]*Appointment, int, error)
	List(ctx context.Context, pg pagination.Params) ([]*Appointment, int, error)
}

// ServiceRepository reads the bookable-service catalog.
type ServiceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ClinicService, error)
	List(ctx context.Context) ([]*ClinicService, error)
}

// DutyChecker answers whether a doctor holds a working schedule entry
// for a date+shift. Satisfied by the roster service.
type DutyChecker interface {
	IsDoctorOn(ctx context.Context, doctorID uuid.UUID, date time.Time, shift roster.Shift) (bool, error)
}

// MeetingProvisioner issues online-meeting URLs. Called asynchronously
// after an ONLINE appointment commits.
type MeetingProvisioner interface {
	CreateMeeting(ctx context.Context, appointmentID uuid.UUID) (string, error)
}

// Notifier receives booking lifecycle events for reminder delivery.
// Implementations must not block the request path.
type Notifier interface {
	AppointmentBooked(ctx context.Context, a *Appointment)
	AppointmentCancelled(ctx context.Context, a *Appointment)
}
