package roster

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Shift is a fixed daily work window a doctor is rostered into.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
)

// Shifts lists the shifts of a clinic day in order.
var Shifts = []Shift{ShiftMorning, ShiftAfternoon}

func ParseShift(s string) (Shift, error) {
	switch Shift(s) {
	case ShiftMorning, ShiftAfternoon:
		return Shift(s), nil
	}
	return "", fmt.Errorf("unknown shift %q", s)
}

// Doctor is the rotation-pool read model.
type Doctor struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Specialty string    `db:"specialty" json:"specialty"`
	Active    bool      `db:"active" json:"active"`
}

// ScheduleEntry maps to the schedule_entry table: one doctor, one shift,
// one date. Unique per (doctor_id, duty_date, shift) among non-deleted
// rows; never physically deleted, only soft-marked.
type ScheduleEntry struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	DoctorID        uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	DutyDate        time.Time  `db:"duty_date" json:"duty_date"`
	DayOfWeek       string     `db:"day_of_week" json:"day_of_week"`
	Shift           Shift      `db:"shift" json:"shift"`
	IsOff           bool       `db:"is_off" json:"is_off"`
	IsAutoGenerated bool       `db:"is_auto_generated" json:"is_auto_generated"`
	SwappedWithID   *uuid.UUID `db:"swapped_with_id" json:"swapped_with_id,omitempty"`
	Deleted         bool       `db:"deleted" json:"-"`
	Version         int        `db:"version" json:"version"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// DaySchedule is a schedule entry joined with its doctor, for the
// by-date read API.
type DaySchedule struct {
	Entry  *ScheduleEntry `json:"entry"`
	Doctor *Doctor        `json:"doctor"`
}

// EntryRef identifies one entry in a swap request.
type EntryRef struct {
	DoctorID uuid.UUID
	Date     time.Time
	Shift    Shift
}

// DateOnly truncates t to its calendar date in t's location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
