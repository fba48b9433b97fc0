package roster

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Config carries the roster generation knobs.
type Config struct {
	GenerationDays  int
	DoctorsPerShift int
}

// Service owns the shift roster: generation, manual overrides, atomic
// swaps, and the read API the slot allocator validates against.
type Service struct {
	entries EntryRepository
	doctors DoctorRepository
	inTx    TxRunner
	cfg     Config
}

func NewService(entries EntryRepository, doctors DoctorRepository, inTx TxRunner, cfg Config) *Service {
	if cfg.GenerationDays <= 0 {
		cfg.GenerationDays = 7
	}
	if cfg.DoctorsPerShift <= 0 {
		cfg.DoctorsPerShift = 2
	}
	return &Service{entries: entries, doctors: doctors, inTx: inTx, cfg: cfg}
}

// GenerateSchedule fills every shift of the generation window starting at
// startDate with doctorsPerShift doctors, rotating fairly across the
// active pool. Doctors already assigned or marked off on a date are
// skipped. The whole window commits or nothing does.
func (s *Service) GenerateSchedule(ctx context.Context, startDate time.Time, doctorsPerShift int) ([]*ScheduleEntry, error) {
	if doctorsPerShift <= 0 {
		doctorsPerShift = s.cfg.DoctorsPerShift
	}

	pool, err := s.doctors.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	if len(pool) < doctorsPerShift {
		return nil, fmt.Errorf("%w: need %d, pool has %d", ErrInsufficientDoctors, doctorsPerShift, len(pool))
	}

	start := DateOnly(startDate)
	var created []*ScheduleEntry
	cursor := 0

	err = s.inTx(ctx, func(ctx context.Context) error {
		for day := 0; day < s.cfg.GenerationDays; day++ {
			date := start.AddDate(0, 0, day)

			existing, err := s.entries.ListByDate(ctx, date)
			if err != nil {
				return err
			}
			offToday := make(map[uuid.UUID]bool)
			taken := make(map[Shift]map[uuid.UUID]bool)
			for _, sh := range Shifts {
				taken[sh] = make(map[uuid.UUID]bool)
			}
			for _, e := range existing {
				if e.IsOff {
					offToday[e.DoctorID] = true
					continue
				}
				taken[e.Shift][e.DoctorID] = true
			}

			for _, shift := range Shifts {
				assigned := 0
				// One full pass over the pool from the rotation cursor.
				for probe := 0; probe < len(pool) && assigned < doctorsPerShift; probe++ {
					d := pool[(cursor+probe)%len(pool)]
					if offToday[d.ID] || taken[shift][d.ID] {
						continue
					}
					e := &ScheduleEntry{
						DoctorID:        d.ID,
						DutyDate:        date,
						DayOfWeek:       date.Weekday().String(),
						Shift:           shift,
						IsAutoGenerated: true,
					}
					if err := s.entries.Create(ctx, e); err != nil {
						return err
					}
					taken[shift][d.ID] = true
					created = append(created, e)
					assigned++
				}
				if assigned < doctorsPerShift {
					return fmt.Errorf("%w: %s %s needs %d, filled %d",
						ErrInsufficientDoctors, date.Format("2006-01-02"), shift, doctorsPerShift, assigned)
				}
				cursor = (cursor + assigned) % len(pool)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AssignManually upserts one entry with is_auto_generated=false. An
// existing non-off entry for the same key is a conflict unless the caller
// explicitly overrides.
func (s *Service) AssignManually(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift, isOff, override bool) (*ScheduleEntry, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("doctor %s: %w", doctorID, err)
	}

	date = DateOnly(date)
	var result *ScheduleEntry
	err := s.inTx(ctx, func(ctx context.Context) error {
		existing, err := s.entries.FindForUpdate(ctx, doctorID, date, shift)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.IsOff && !override {
				return ErrAssignmentConflict
			}
			existing.IsOff = isOff
			existing.IsAutoGenerated = false
			if err := s.entries.UpdateAssignment(ctx, existing); err != nil {
				return err
			}
			result = existing
			return nil
		}
		e := &ScheduleEntry{
			DoctorID:        doctorID,
			DutyDate:        date,
			DayOfWeek:       date.Weekday().String(),
			Shift:           shift,
			IsOff:           isOff,
			IsAutoGenerated: false,
		}
		if err := s.entries.Create(ctx, e); err != nil {
			return err
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SwapShifts exchanges the (date, shift) assignment between two doctors'
// entries in a single transaction and cross-links them. Both entries must
// exist, belong to different doctors, and be unswapped.
func (s *Service) SwapShifts(ctx context.Context, a, b EntryRef) (*ScheduleEntry, *ScheduleEntry, error) {
	if a.DoctorID == b.DoctorID {
		return nil, nil, ErrSwapSameDoctor
	}

	var e1, e2 *ScheduleEntry
	err := s.inTx(ctx, func(ctx context.Context) error {
		// Lock in a stable order so two concurrent swaps over the same
		// pair cannot deadlock.
		first, second := a, b
		flipped := bytes.Compare(b.DoctorID[:], a.DoctorID[:]) < 0
		if flipped {
			first, second = b, a
		}

		f, err := s.entries.FindForUpdate(ctx, first.DoctorID, first.Date, first.Shift)
		if err != nil {
			return err
		}
		sec, err := s.entries.FindForUpdate(ctx, second.DoctorID, second.Date, second.Shift)
		if err != nil {
			return err
		}
		if f == nil || sec == nil {
			return ErrSwapNotFound
		}
		if f.SwappedWithID != nil || sec.SwappedWithID != nil {
			return ErrAlreadySwapped
		}

		f.DutyDate, sec.DutyDate = sec.DutyDate, f.DutyDate
		f.DayOfWeek, sec.DayOfWeek = sec.DayOfWeek, f.DayOfWeek
		f.Shift, sec.Shift = sec.Shift, f.Shift
		f.SwappedWithID = &sec.ID
		sec.SwappedWithID = &f.ID
		f.IsAutoGenerated = false
		sec.IsAutoGenerated = false

		if err := s.entries.UpdateAssignment(ctx, f); err != nil {
			return err
		}
		if err := s.entries.UpdateAssignment(ctx, sec); err != nil {
			return err
		}

		if flipped {
			e1, e2 = sec, f
		} else {
			e1, e2 = f, sec
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return e1, e2, nil
}

// ScheduleForDoctor returns a doctor's entries for an inclusive date range.
func (s *Service) ScheduleForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleEntry, error) {
	return s.entries.ListByDoctor(ctx, doctorID, from, to)
}

// ScheduleForDate returns every doctor's entry for one date, joined with
// the doctor read model.
func (s *Service) ScheduleForDate(ctx context.Context, date time.Time) ([]*DaySchedule, error) {
	entries, err := s.entries.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	var out []*DaySchedule
	for _, e := range entries {
		d, err := s.doctors.GetByID(ctx, e.DoctorID)
		if err != nil {
			return nil, err
		}
		out = append(out, &DaySchedule{Entry: e, Doctor: d})
	}
	return out, nil
}

// IsDoctorOn reports whether the doctor holds a non-off entry for the
// date and shift. The appointment service calls this before booking.
func (s *Service) IsDoctorOn(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (bool, error) {
	e, err := s.entries.Find(ctx, doctorID, date, shift)
	if err != nil {
		return false, err
	}
	return e != nil && !e.IsOff, nil
}

// ListDoctors pages through the doctor directory.
func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}
