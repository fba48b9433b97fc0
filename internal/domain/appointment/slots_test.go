package appointment

import (
	"testing"
	"time"

	"github.com/medisched/medisched/internal/domain/roster"
)

func testTemplate() *SlotTemplate {
	return NewSlotTemplate(TemplateConfig{
		StartHour:          7,
		SlotMinutes:        60,
		MorningSlots:       4,
		AfternoonStartHour: 13,
		AfternoonSlots:     4,
	})
}

func at(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAvailableSlots_FutureDate(t *testing.T) {
	tmpl := testTemplate()
	got := tmpl.AvailableSlots(at("2024-03-05 00:00"), at("2024-03-04 16:30"))
	if len(got) != 8 {
		t.Fatalf("future date should return the full template, got %d slots", len(got))
	}
	if got[0].Start != "07:00" || got[7].Start != "16:00" {
		t.Errorf("unexpected template bounds: %s .. %s", got[0].Start, got[7].Start)
	}
}

func TestAvailableSlots_TodayFiltersPast(t *testing.T) {
	tmpl := testTemplate()
	got := tmpl.AvailableSlots(at("2024-03-04 00:00"), at("2024-03-04 09:30"))
	// 07:00, 08:00, 09:00 are gone; 10:00 and the afternoon run remain.
	if len(got) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(got))
	}
	if got[0].Start != "10:00" {
		t.Errorf("expected first slot 10:00, got %s", got[0].Start)
	}
}

func TestAvailableSlots_ExactBoundaryExcluded(t *testing.T) {
	tmpl := testTemplate()
	// A slot starting exactly now is not bookable.
	got := tmpl.AvailableSlots(at("2024-03-04 00:00"), at("2024-03-04 13:00"))
	if len(got) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(got))
	}
	if got[0].Start != "14:00" {
		t.Errorf("expected first slot 14:00, got %s", got[0].Start)
	}
}

func TestAvailableSlots_TodayExhausted(t *testing.T) {
	tmpl := testTemplate()
	got := tmpl.AvailableSlots(at("2024-03-04 00:00"), at("2024-03-04 18:00"))
	if got == nil {
		t.Fatal("exhausted day must return an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no slots, got %d", len(got))
	}
}

func TestShiftFor(t *testing.T) {
	tmpl := testTemplate()
	cases := []struct {
		at    string
		shift roster.Shift
		ok    bool
	}{
		{"2024-03-04 07:00", roster.ShiftMorning, true},
		{"2024-03-04 10:59", roster.ShiftMorning, true},
		{"2024-03-04 11:00", "", false}, // lunch gap
		{"2024-03-04 13:00", roster.ShiftAfternoon, true},
		{"2024-03-04 16:59", roster.ShiftAfternoon, true},
		{"2024-03-04 17:00", "", false},
		{"2024-03-04 06:00", "", false},
	}
	for _, tc := range cases {
		shift, ok := tmpl.ShiftFor(at(tc.at))
		if ok != tc.ok || shift != tc.shift {
			t.Errorf("ShiftFor(%s) = %q,%v; want %q,%v", tc.at, shift, ok, tc.shift, tc.ok)
		}
	}
}

func TestFirstStartAndInterval(t *testing.T) {
	tmpl := testTemplate()
	first := tmpl.FirstStart(at("2024-03-04 15:45"))
	if first.Hour() != 7 || first.Minute() != 0 {
		t.Errorf("expected 07:00, got %s", first.Format("15:04"))
	}
	if tmpl.Interval() != time.Hour {
		t.Errorf("expected 1h interval, got %s", tmpl.Interval())
	}
}
