package roster

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type entryKey struct {
	doctor uuid.UUID
	date   string
	shift  Shift
}

type mockEntryRepo struct {
	entries map[entryKey]*ScheduleEntry
	byID    map[uuid.UUID]*ScheduleEntry
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{
		entries: make(map[entryKey]*ScheduleEntry),
		byID:    make(map[uuid.UUID]*ScheduleEntry),
	}
}

func keyOf(e *ScheduleEntry) entryKey {
	return entryKey{doctor: e.DoctorID, date: e.DutyDate.Format("2006-01-02"), shift: e.Shift}
}

func (m *mockEntryRepo) Create(_ context.Context, e *ScheduleEntry) error {
	e.ID = uuid.New()
	e.Version = 1
	e.CreatedAt = time.Now()
	e.UpdatedAt = time.Now()
	k := keyOf(e)
	if _, exists := m.entries[k]; exists {
		return fmt.Errorf("duplicate entry for %v", k)
	}
	m.entries[k] = e
	m.byID[e.ID] = e
	return nil
}

func (m *mockEntryRepo) Find(_ context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (*ScheduleEntry, error) {
	e := m.entries[entryKey{doctor: doctorID, date: DateOnly(date).Format("2006-01-02"), shift: shift}]
	if e != nil && e.Deleted {
		return nil, nil
	}
	return e, nil
}

func (m *mockEntryRepo) FindForUpdate(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (*ScheduleEntry, error) {
	return m.Find(ctx, doctorID, date, shift)
}

func (m *mockEntryRepo) UpdateAssignment(_ context.Context, e *ScheduleEntry) error {
	if m.byID[e.ID] == nil {
		return fmt.Errorf("entry %s not found", e.ID)
	}
	// The service mutates the entry returned by Find in place, so the
	// stored pointer no longer carries its original key; drop any key
	// that still maps to this entry's ID before re-inserting.
	for k, v := range m.entries {
		if v.ID == e.ID {
			delete(m.entries, k)
		}
	}
	e.Version++
	e.UpdatedAt = time.Now()
	m.entries[keyOf(e)] = e
	m.byID[e.ID] = e
	return nil
}

func (m *mockEntryRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleEntry, error) {
	var out []*ScheduleEntry
	for _, e := range m.entries {
		if e.DoctorID == doctorID && !e.DutyDate.Before(DateOnly(from)) && !e.DutyDate.After(DateOnly(to)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntryRepo) ListByDate(_ context.Context, date time.Time) ([]*ScheduleEntry, error) {
	var out []*ScheduleEntry
	day := DateOnly(date).Format("2006-01-02")
	for k, e := range m.entries {
		if k.date == day {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockDoctorRepo struct {
	doctors []*Doctor
}

func (m *mockDoctorRepo) ListActive(_ context.Context) ([]*Doctor, error) {
	var out []*Doctor
	for _, d := range m.doctors {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockDoctorRepo) List(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	return m.doctors, len(m.doctors), nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(doctorCount int) (*Service, *mockEntryRepo, []*Doctor) {
	entries := newMockEntryRepo()
	var docs []*Doctor
	for i := 0; i < doctorCount; i++ {
		docs = append(docs, &Doctor{
			ID:       uuid.New(),
			FullName: fmt.Sprintf("Doctor %d", i),
			Active:   true,
		})
	}
	svc := NewService(entries, &mockDoctorRepo{doctors: docs}, passthroughTx,
		Config{GenerationDays: 7, DoctorsPerShift: 2})
	return svc, entries, docs
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// -- Tests --

func TestGenerateSchedule(t *testing.T) {
	svc, _, _ := newTestService(4)
	entries, err := svc.GenerateSchedule(context.Background(), date("2024-03-04"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 7 days x 2 shifts x 2 doctors
	if len(entries) != 28 {
		t.Fatalf("expected 28 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if !e.IsAutoGenerated {
			t.Errorf("generated entry should be auto-generated: %+v", e)
		}
		if e.IsOff {
			t.Errorf("generated entry should not be off: %+v", e)
		}
	}
}

func TestGenerateSchedule_FairRotation(t *testing.T) {
	svc, _, docs := newTestService(4)
	entries, err := svc.GenerateSchedule(context.Background(), date("2024-03-04"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts := make(map[uuid.UUID]int)
	for _, e := range entries {
		counts[e.DoctorID]++
	}
	// 28 assignments over 4 doctors: exactly 7 each.
	for _, d := range docs {
		if counts[d.ID] != 7 {
			t.Errorf("doctor %s got %d shifts, expected 7", d.FullName, counts[d.ID])
		}
	}
}

func TestGenerateSchedule_InsufficientDoctors(t *testing.T) {
	svc, _, _ := newTestService(1)
	_, err := svc.GenerateSchedule(context.Background(), date("2024-03-04"), 2)
	if !errors.Is(err, ErrInsufficientDoctors) {
		t.Errorf("expected ErrInsufficientDoctors, got %v", err)
	}
}

func TestGenerateSchedule_SkipsOffDoctors(t *testing.T) {
	svc, entries, docs := newTestService(3)
	// Doctor 0 is off on the first day.
	off := date("2024-03-04")
	entries.Create(context.Background(), &ScheduleEntry{
		DoctorID: docs[0].ID, DutyDate: off, DayOfWeek: off.Weekday().String(),
		Shift: ShiftMorning, IsOff: true,
	})

	// Shorter window keeps the assertion focused on the off day.
	svc.cfg.GenerationDays = 1
	created, err := svc.GenerateSchedule(context.Background(), off, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range created {
		if e.DoctorID == docs[0].ID {
			t.Errorf("off doctor was assigned: %+v", e)
		}
	}
}

func TestAssignManually(t *testing.T) {
	svc, _, docs := newTestService(2)
	e, err := svc.AssignManually(context.Background(), docs[0].ID, date("2024-03-05"), ShiftMorning, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.IsAutoGenerated {
		t.Error("manual entry must not be auto-generated")
	}
	if e.DayOfWeek != "Tuesday" {
		t.Errorf("expected Tuesday, got %s", e.DayOfWeek)
	}
}

func TestAssignManually_Conflict(t *testing.T) {
	svc, _, docs := newTestService(2)
	d := date("2024-03-05")
	if _, err := svc.AssignManually(context.Background(), docs[0].ID, d, ShiftMorning, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.AssignManually(context.Background(), docs[0].ID, d, ShiftMorning, false, false)
	if !errors.Is(err, ErrAssignmentConflict) {
		t.Errorf("expected ErrAssignmentConflict, got %v", err)
	}
	// Override replaces the entry instead of conflicting.
	if _, err := svc.AssignManually(context.Background(), docs[0].ID, d, ShiftMorning, true, true); err != nil {
		t.Errorf("unexpected error with override: %v", err)
	}
}

func TestSwapShifts(t *testing.T) {
	svc, _, docs := newTestService(2)
	ctx := context.Background()
	monday, tuesday := date("2024-03-04"), date("2024-03-05")

	svc.AssignManually(ctx, docs[0].ID, monday, ShiftMorning, false, false)
	svc.AssignManually(ctx, docs[1].ID, tuesday, ShiftAfternoon, false, false)

	e1, e2, err := svc.SwapShifts(ctx,
		EntryRef{DoctorID: docs[0].ID, Date: monday, Shift: ShiftMorning},
		EntryRef{DoctorID: docs[1].ID, Date: tuesday, Shift: ShiftAfternoon})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !e1.DutyDate.Equal(DateOnly(tuesday)) || e1.Shift != ShiftAfternoon {
		t.Errorf("doctor1 should now hold Tue/AFTERNOON, got %s/%s", e1.DutyDate.Format("2006-01-02"), e1.Shift)
	}
	if !e2.DutyDate.Equal(DateOnly(monday)) || e2.Shift != ShiftMorning {
		t.Errorf("doctor2 should now hold Mon/MORNING, got %s/%s", e2.DutyDate.Format("2006-01-02"), e2.Shift)
	}
	if e1.SwappedWithID == nil || *e1.SwappedWithID != e2.ID {
		t.Error("doctor1 entry should link to doctor2 entry")
	}
	if e2.SwappedWithID == nil || *e2.SwappedWithID != e1.ID {
		t.Error("doctor2 entry should link to doctor1 entry")
	}

	// The read API agrees.
	sched1, _ := svc.ScheduleForDoctor(ctx, docs[0].ID, monday, tuesday)
	if len(sched1) != 1 || sched1[0].Shift != ShiftAfternoon {
		t.Errorf("unexpected doctor1 schedule after swap: %+v", sched1)
	}
}

func TestSwapShifts_NotFound(t *testing.T) {
	svc, _, docs := newTestService(2)
	_, _, err := svc.SwapShifts(context.Background(),
		EntryRef{DoctorID: docs[0].ID, Date: date("2024-03-04"), Shift: ShiftMorning},
		EntryRef{DoctorID: docs[1].ID, Date: date("2024-03-05"), Shift: ShiftAfternoon})
	if !errors.Is(err, ErrSwapNotFound) {
		t.Errorf("expected ErrSwapNotFound, got %v", err)
	}
}

func TestSwapShifts_AlreadySwapped(t *testing.T) {
	svc, _, docs := newTestService(3)
	ctx := context.Background()
	monday, tuesday, wednesday := date("2024-03-04"), date("2024-03-05"), date("2024-03-06")

	svc.AssignManually(ctx, docs[0].ID, monday, ShiftMorning, false, false)
	svc.AssignManually(ctx, docs[1].ID, tuesday, ShiftAfternoon, false, false)
	svc.AssignManually(ctx, docs[2].ID, wednesday, ShiftMorning, false, false)

	if _, _, err := svc.SwapShifts(ctx,
		EntryRef{DoctorID: docs[0].ID, Date: monday, Shift: ShiftMorning},
		EntryRef{DoctorID: docs[1].ID, Date: tuesday, Shift: ShiftAfternoon}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// doctor1's entry now sits on Tue/AFTERNOON and is link-marked.
	_, _, err := svc.SwapShifts(ctx,
		EntryRef{DoctorID: docs[0].ID, Date: tuesday, Shift: ShiftAfternoon},
		EntryRef{DoctorID: docs[2].ID, Date: wednesday, Shift: ShiftMorning})
	if !errors.Is(err, ErrAlreadySwapped) {
		t.Errorf("expected ErrAlreadySwapped, got %v", err)
	}
}

func TestSwapShifts_SameDoctor(t *testing.T) {
	svc, _, docs := newTestService(1)
	_, _, err := svc.SwapShifts(context.Background(),
		EntryRef{DoctorID: docs[0].ID, Date: date("2024-03-04"), Shift: ShiftMorning},
		EntryRef{DoctorID: docs[0].ID, Date: date("2024-03-05"), Shift: ShiftAfternoon})
	if !errors.Is(err, ErrSwapSameDoctor) {
		t.Errorf("expected ErrSwapSameDoctor, got %v", err)
	}
}

func TestIsDoctorOn(t *testing.T) {
	svc, _, docs := newTestService(2)
	ctx := context.Background()
	d := date("2024-03-04")

	on, err := svc.IsDoctorOn(ctx, docs[0].ID, d, ShiftMorning)
	if err != nil || on {
		t.Errorf("expected not on duty, got on=%v err=%v", on, err)
	}

	svc.AssignManually(ctx, docs[0].ID, d, ShiftMorning, false, false)
	on, err = svc.IsDoctorOn(ctx, docs[0].ID, d, ShiftMorning)
	if err != nil || !on {
		t.Errorf("expected on duty, got on=%v err=%v", on, err)
	}

	// Off-marked entries do not count as duty.
	svc.AssignManually(ctx, docs[1].ID, d, ShiftMorning, true, false)
	on, err = svc.IsDoctorOn(ctx, docs[1].ID, d, ShiftMorning)
	if err != nil || on {
		t.Errorf("expected off doctor not on duty, got on=%v err=%v", on, err)
	}
}

func TestParseShift(t *testing.T) {
	if _, err := ParseShift("MORNING"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseShift("NIGHT"); err == nil {
		t.Error("expected error for unknown shift")
	}
}
