package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type says where the consultation happens.
type Type string

const (
	TypeOnline  Type = "ONLINE"
	TypeOffline Type = "OFFLINE"
)

// Status is the appointment lifecycle state. PENDING is the only entry
// point; CANCELLED and COMPLETED are terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusCancelled, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// transitions is the full state machine. Anything not listed here is an
// illegal edge.
var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// ServiceKind drives the creation rules: CONSULT appointments are
// ONLINE with an optional doctor, everything else is OFFLINE.
type ServiceKind string

const (
	KindConsult   ServiceKind = "CONSULT"
	KindTreatment ServiceKind = "TREATMENT"
	KindFollowup  ServiceKind = "FOLLOWUP"
)

// ClinicService is a bookable service from the catalog.
type ClinicService struct {
	ID    uuid.UUID   `db:"id" json:"id"`
	Name  string      `db:"name" json:"name"`
	Kind  ServiceKind `db:"kind" json:"kind"`
	Price int64       `db:"price" json:"price"`
}

// Appointment maps to the appointment table. At most one non-CANCELLED
// row exists per (doctor_id, starts_at); cancelled and completed rows
// are retained for audit.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	DoctorID    *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	ServiceID   uuid.UUID  `db:"service_id" json:"service_id"`
	StartsAt    time.Time  `db:"starts_at" json:"starts_at"`
	Type        Type       `db:"type" json:"type"`
	Status      Status     `db:"status" json:"status"`
	IsAnonymous bool       `db:"is_anonymous" json:"is_anonymous"`
	Notes       string     `db:"notes" json:"notes"`
	MeetingURL  *string    `db:"meeting_url" json:"meeting_url,omitempty"`
	Version     int        `db:"version" json:"version"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
