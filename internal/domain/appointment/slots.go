package appointment

import (
	"fmt"
	"time"

	"github.com/medisched/medisched/internal/domain/roster"
)

// Slot is one bookable window from the daily template. Derived, never
// persisted.
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`

	startMin int
}

// TemplateConfig describes the clinic's fixed daily slot template: a
// morning run of back-to-back slots and an afternoon run, all the same
// length.
type TemplateConfig struct {
	StartHour          int
	SlotMinutes        int
	MorningSlots       int
	AfternoonStartHour int
	AfternoonSlots     int
}

// SlotTemplate is the ordered daily template plus the shift windows it
// implies. The same template applies to every calendar date.
type SlotTemplate struct {
	slots   []Slot
	minutes int
	mornBeg int
	mornEnd int
	noonBeg int
	noonEnd int
}

func NewSlotTemplate(cfg TemplateConfig) *SlotTemplate {
	t := &SlotTemplate{
		minutes: cfg.SlotMinutes,
		mornBeg: cfg.StartHour * 60,
		noonBeg: cfg.AfternoonStartHour * 60,
	}
	t.mornEnd = t.mornBeg + cfg.MorningSlots*cfg.SlotMinutes
	t.noonEnd = t.noonBeg + cfg.AfternoonSlots*cfg.SlotMinutes

	for i := 0; i < cfg.MorningSlots; i++ {
		t.slots = append(t.slots, slotAt(t.mornBeg+i*cfg.SlotMinutes, cfg.SlotMinutes))
	}
	for i := 0; i < cfg.AfternoonSlots; i++ {
		t.slots = append(t.slots, slotAt(t.noonBeg+i*cfg.SlotMinutes, cfg.SlotMinutes))
	}
	return t
}

func slotAt(startMin, length int) Slot {
	return Slot{
		Start:    fmt.Sprintf("%02d:%02d", startMin/60, startMin%60),
		End:      fmt.Sprintf("%02d:%02d", (startMin+length)/60, (startMin+length)%60),
		startMin: startMin,
	}
}

// AvailableSlots returns the bookable slots for date. When date is the
// same calendar day as now, slots whose start is at or before now are
// dropped (booking must be strictly in the future); any other date gets
// the full template. The result is never nil.
func (t *SlotTemplate) AvailableSlots(date, now time.Time) []Slot {
	out := make([]Slot, 0, len(t.slots))
	sameDay := date.Year() == now.Year() && date.YearDay() == now.YearDay()
	nowMin := now.Hour()*60 + now.Minute()
	for _, s := range t.slots {
		if sameDay && s.startMin <= nowMin {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ShiftFor maps a concrete appointment time onto the shift window that
// contains it. The second return is false when the time falls outside
// both windows.
func (t *SlotTemplate) ShiftFor(at time.Time) (roster.Shift, bool) {
	min := at.Hour()*60 + at.Minute()
	switch {
	case min >= t.mornBeg && min < t.mornEnd:
		return roster.ShiftMorning, true
	case min >= t.noonBeg && min < t.noonEnd:
		return roster.ShiftAfternoon, true
	}
	return "", false
}

// Interval is the length of one slot, the unit the follow-up generator
// shifts by on a booking collision.
func (t *SlotTemplate) Interval() time.Duration {
	return time.Duration(t.minutes) * time.Minute
}

// FirstStart returns the timestamp of the first template slot on date.
func (t *SlotTemplate) FirstStart(date time.Time) time.Time {
	d := roster.DateOnly(date)
	return d.Add(time.Duration(t.mornBeg) * time.Minute)
}

// Slots exposes the full template in order.
func (t *SlotTemplate) Slots() []Slot {
	return t.slots
}
