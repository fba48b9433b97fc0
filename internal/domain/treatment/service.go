package treatment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/domain/appointment"
)

// Service creates patient treatments and expands the selected protocol
// into a series of follow-up appointments.
type Service struct {
	protocols  ProtocolRepository
	treatments TreatmentRepository
	booker     Booker
	policy     CheckpointPolicy
	followupID uuid.UUID
	log        zerolog.Logger
}

func NewService(protocols ProtocolRepository, treatments TreatmentRepository,
	booker Booker, policy CheckpointPolicy, followupServiceID uuid.UUID, log zerolog.Logger) *Service {
	return &Service{
		protocols:  protocols,
		treatments: treatments,
		booker:     booker,
		policy:     policy,
		followupID: followupServiceID,
		log:        log,
	}
}

type CreateTreatmentInput struct {
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	ProtocolID uuid.UUID
	StartDate  time.Time
}

// TreatmentResult is what a treatment creation produced: the record,
// the booked follow-ups, and the checkpoints that stayed unscheduled.
type TreatmentResult struct {
	Treatment *Treatment
	Followups []*appointment.Appointment
	Partial   *PartialFollowupError
}

// CreateTreatment records the treatment and books its follow-up series.
// A checkpoint that collides with an existing booking is shifted one
// slot interval forward and retried once; a checkpoint that still fails
// is reported in Partial while the rest of the series stands.
func (s *Service) CreateTreatment(ctx context.Context, in CreateTreatmentInput) (*TreatmentResult, error) {
	protocol, err := s.protocols.GetByID(ctx, in.ProtocolID)
	if err != nil {
		return nil, err
	}
	if len(protocol.Medicines) == 0 {
		return nil, ErrEmptyProtocol
	}
	durationDays, err := protocol.DurationDays()
	if err != nil {
		return nil, err
	}

	t := &Treatment{
		PatientID:  in.PatientID,
		DoctorID:   in.DoctorID,
		ProtocolID: in.ProtocolID,
		StartDate:  in.StartDate,
		Status:     "ACTIVE",
	}
	if err := s.treatments.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create treatment: %w", err)
	}

	plan := s.policy.Plan(in.StartDate, durationDays)
	result := &TreatmentResult{Treatment: t}

	// Sequential on purpose: the retry-shift decision for one checkpoint
	// depends on what is already booked.
	var failed []FailedCheckpoint
	for _, cp := range plan {
		a, err := s.bookCheckpoint(ctx, t, cp)
		if err != nil {
			s.log.Warn().Err(err).
				Str("treatment_id", t.ID.String()).
				Str("checkpoint", cp.Date.Format("2006-01-02")).
				Msg("follow-up checkpoint not scheduled")
			failed = append(failed, FailedCheckpoint{Date: cp.Date, Reason: err.Error()})
			continue
		}
		result.Followups = append(result.Followups, a)
	}
	if len(failed) > 0 {
		result.Partial = &PartialFollowupError{Failed: failed}
	}
	return result, nil
}

// bookCheckpoint books one follow-up at the first template slot of the
// checkpoint date, shifting by one slot interval on a conflict.
func (s *Service) bookCheckpoint(ctx context.Context, t *Treatment, cp Checkpoint) (*appointment.Appointment, error) {
	doctorID := t.DoctorID
	startsAt := s.booker.Template().FirstStart(cp.Date)
	in := appointment.CreateInput{
		UserID:    t.PatientID,
		DoctorID:  &doctorID,
		ServiceID: s.followupID,
		StartsAt:  startsAt,
		Notes:     "Protocol follow-up",
	}

	a, err := s.booker.Create(ctx, in)
	if errors.Is(err, appointment.ErrSlotConflict) {
		in.StartsAt = startsAt.Add(s.booker.Template().Interval())
		a, err = s.booker.Create(ctx, in)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) GetProtocol(ctx context.Context, id uuid.UUID) (*Protocol, error) {
	return s.protocols.GetByID(ctx, id)
}

func (s *Service) ListProtocols(ctx context.Context) ([]*Protocol, error) {
	return s.protocols.List(ctx)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	return s.treatments.ListByPatient(ctx, patientID)
}
