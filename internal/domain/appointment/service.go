package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisched/medisched/pkg/pagination"
)

// Service owns the appointment lifecycle: slot computation, creation
// rules, the status state machine, and the post-commit side effects.
type Service struct {
	appts    Repository
	services ServiceRepository
	duty     DutyChecker
	template *SlotTemplate
	meetings MeetingProvisioner
	notify   Notifier
	log      zerolog.Logger

	now   func() time.Time
	spawn func(func())
}

func NewService(appts Repository, services ServiceRepository, duty DutyChecker,
	template *SlotTemplate, meetings MeetingProvisioner, notify Notifier, log zerolog.Logger) *Service {
	return &Service{
		appts:    appts,
		services: services,
		duty:     duty,
		template: template,
		meetings: meetings,
		notify:   notify,
		log:      log,
		now:      time.Now,
		spawn:    func(f func()) { go f() },
	}
}

// AvailableSlots computes the bookable slots for a date. Today's past
// slots are filtered out; any other date returns the full template.
func (s *Service) AvailableSlots(date time.Time) []Slot {
	return s.template.AvailableSlots(date, s.now())
}

// CreateInput is the creation contract. Type and anonymity are derived
// from the referenced service's kind, not taken from the caller.
type CreateInput struct {
	UserID      uuid.UUID
	DoctorID    *uuid.UUID
	ServiceID   uuid.UUID
	StartsAt    time.Time
	IsAnonymous bool
	Notes       string
}

// Create books a new appointment in PENDING. CONSULT services become
// ONLINE with an optional doctor; every other kind becomes OFFLINE,
// requires a doctor, and drops anonymity. Doctor availability is
// checked against the roster; the final word on slot exclusivity is the
// store's unique constraint, surfaced as ErrSlotConflict.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	svc, err := s.services.GetByID(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if !in.StartsAt.After(s.now()) {
		return nil, ErrPastSlot
	}

	a := &Appointment{
		UserID:      in.UserID,
		DoctorID:    in.DoctorID,
		ServiceID:   in.ServiceID,
		StartsAt:    in.StartsAt,
		Status:      StatusPending,
		IsAnonymous: in.IsAnonymous,
		Notes:       in.Notes,
	}
	if svc.Kind == KindConsult {
		a.Type = TypeOnline
	} else {
		a.Type = TypeOffline
		a.IsAnonymous = false
		if a.DoctorID == nil {
			return nil, ErrDoctorRequired
		}
	}

	if a.DoctorID != nil {
		shift, ok := s.template.ShiftFor(a.StartsAt)
		if !ok {
			return nil, ErrNoAvailability
		}
		on, err := s.duty.IsDoctorOn(ctx, *a.DoctorID, a.StartsAt, shift)
		if err != nil {
			return nil, fmt.Errorf("check doctor availability: %w", err)
		}
		if !on {
			return nil, ErrNoAvailability
		}
	}

	if err := s.appts.Create(ctx, a); err != nil {
		return nil, err
	}

	s.emitCreated(a)
	return a, nil
}

// emitCreated runs the post-commit side effects. Failures here are
// logged and never reach the caller.
func (s *Service) emitCreated(a *Appointment) {
	if a.Type == TypeOnline && s.meetings != nil {
		id := a.ID
		s.spawn(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			url, err := s.meetings.CreateMeeting(ctx, id)
			if err != nil {
				s.log.Error().Err(err).Str("appointment_id", id.String()).
					Msg("meeting provisioning failed")
				return
			}
			if err := s.appts.AttachMeetingURL(ctx, id, url); err != nil {
				s.log.Error().Err(err).Str("appointment_id", id.String()).
					Msg("failed to attach meeting url")
			}
		})
	}
	if s.notify != nil {
		booked := *a
		s.spawn(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.notify.AppointmentBooked(ctx, &booked)
		})
	}
}

// Transition moves an appointment from expected to next along the state
// machine. The update is compare-and-set on the status column; losing
// the race yields ErrStaleStatus. An empty expected means "whatever the
// current status is", read just before the CAS.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, next, expected Status) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expected == "" {
		expected = a.Status
	}
	if !CanTransition(expected, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, next)
	}

	ok, err := s.appts.CASStatus(ctx, id, expected, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleStatus
	}
	return s.appts.GetByID(ctx, id)
}

// Cancel transitions to CANCELLED and is idempotent: cancelling an
// already-cancelled appointment is a no-op success. The freed slot
// becomes bookable again because the exclusivity constraint ignores
// cancelled rows.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCancelled {
		return a, nil
	}
	if !CanTransition(a.Status, StatusCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, StatusCancelled)
	}

	ok, err := s.appts.CASStatus(ctx, id, a.Status, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race. A concurrent cancel still counts as success.
		a, err = s.appts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if a.Status != StatusCancelled {
			return nil, ErrStaleStatus
		}
		return a, nil
	}

	a, err = s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.notify != nil {
		cancelled := *a
		s.spawn(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			s.notify.AppointmentCancelled(ctx, &cancelled)
		})
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appts.GetByID(ctx, id)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, pg pagination.Params) ([]*Appointment, int, error) {
	return s.appts.ListByDoctor(ctx, doctorID, pg)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, pg pagination.Params) ([]*Appointment, int, error) {
	return s.appts.ListByUser(ctx, userID, pg)
}

func (s *Service) List(ctx context.Context, pg pagination.Params) ([]*Appointment, int, error) {
	return s.appts.List(ctx, pg)
}

func (s *Service) ListServices(ctx context.Context) ([]*ClinicService, error) {
	return s.services.List(ctx)
}

// Template exposes the slot template so the follow-up generator can
// share the clinic's slot geometry.
func (s *Service) Template() *SlotTemplate {
	return s.template
}
