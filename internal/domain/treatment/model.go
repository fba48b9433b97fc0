package treatment

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DurationUnit is the unit a medicine's course length is expressed in.
// Spelled exactly as stored; the CHECK constraint on protocol_medicine
// uses the same list.
type DurationUnit string

const (
	UnitDay   DurationUnit = "DAY"
	UnitWeek  DurationUnit = "WEEK"
	UnitMonth DurationUnit = "MONTH"
)

// Days normalizes value in this unit to calendar days (month = 30).
// An unrecognized unit is an error, never a silent fallback: a 4-week
// course misread as 4 days would place every checkpoint wrong.
func (u DurationUnit) Days(value int) (int, error) {
	switch u {
	case UnitDay:
		return value, nil
	case UnitWeek:
		return value * 7, nil
	case UnitMonth:
		return value * 30, nil
	}
	return 0, fmt.Errorf("unknown duration unit %q", string(u))
}

// ParseDurationUnit accepts any casing ("week", "WEEK") and returns the
// canonical unit.
func ParseDurationUnit(s string) (DurationUnit, error) {
	switch u := DurationUnit(strings.ToUpper(s)); u {
	case UnitDay, UnitWeek, UnitMonth:
		return u, nil
	}
	return "", fmt.Errorf("unknown duration unit %q", s)
}

// ProtocolMedicine is one ordered medication line of a protocol.
type ProtocolMedicine struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	ProtocolID    uuid.UUID    `db:"protocol_id" json:"protocol_id"`
	MedicineID    uuid.UUID    `db:"medicine_id" json:"medicine_id"`
	Dosage        string       `db:"dosage" json:"dosage"`
	DurationValue int          `db:"duration_value" json:"duration_value"`
	DurationUnit  DurationUnit `db:"duration_unit" json:"duration_unit"`
	Notes         string       `db:"notes" json:"notes"`
	Position      int          `db:"position" json:"position"`
}

// Protocol is a named treatment plan. Read-only input to the follow-up
// generator.
type Protocol struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	TargetDisease string              `db:"target_disease" json:"target_disease"`
	Medicines     []*ProtocolMedicine `json:"medicines"`
}

// DurationDays is the protocol's overall course length: the maximum of
// its medicines' durations, normalized to days.
func (p *Protocol) DurationDays() (int, error) {
	max := 0
	for _, m := range p.Medicines {
		d, err := m.DurationUnit.Days(m.DurationValue)
		if err != nil {
			return 0, fmt.Errorf("protocol %s medicine %s: %w", p.ID, m.ID, err)
		}
		if d > max {
			max = d
		}
	}
	return max, nil
}

// Treatment records a patient put on a protocol.
type Treatment struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID   uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ProtocolID uuid.UUID `db:"protocol_id" json:"protocol_id"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Checkpoint is one computed follow-up date within a protocol's course.
type Checkpoint struct {
	Fraction float64
	Date     time.Time
}

// FollowupPlan is the ordered checkpoint list for one treatment.
// Derived, never persisted.
type FollowupPlan []Checkpoint

// CheckpointPolicy places follow-ups at fixed fractions of the protocol
// duration. It is configuration, not hard-coded business law.
type CheckpointPolicy struct {
	Fractions []float64
}

// Plan computes the checkpoint dates for a course of durationDays
// starting at start. Each date is start plus round(fraction x duration)
// days.
func (p CheckpointPolicy) Plan(start time.Time, durationDays int) FollowupPlan {
	plan := make(FollowupPlan, 0, len(p.Fractions))
	for _, f := range p.Fractions {
		offset := int(math.Round(f * float64(durationDays)))
		plan = append(plan, Checkpoint{
			Fraction: f,
			Date:     start.AddDate(0, 0, offset),
		})
	}
	return plan
}
