package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/domain/appointment"
)

// RecipientResolver turns a user id into a deliverable address. The
// second return is false when the user has no address on file.
type RecipientResolver func(ctx context.Context, userID uuid.UUID) (string, bool)

// Reminder emits booking lifecycle notifications. It satisfies the
// appointment service's notifier contract; delivery failures are logged
// and never propagate into the booking flow.
type Reminder struct {
	manager *Manager
	resolve RecipientResolver
	log     zerolog.Logger
}

func NewReminder(manager *Manager, resolve RecipientResolver, log zerolog.Logger) *Reminder {
	return &Reminder{manager: manager, resolve: resolve, log: log}
}

func (r *Reminder) AppointmentBooked(ctx context.Context, a *appointment.Appointment) {
	r.send(ctx, TemplateBooked, a)
}

func (r *Reminder) AppointmentCancelled(ctx context.Context, a *appointment.Appointment) {
	r.send(ctx, TemplateCancelled, a)
}

func (r *Reminder) send(ctx context.Context, templateID string, a *appointment.Appointment) {
	// Anonymous bookings asked not to be contacted.
	if a.IsAnonymous {
		return
	}
	recipient, ok := r.resolve(ctx, a.UserID)
	if !ok {
		r.log.Debug().Str("user_id", a.UserID.String()).
			Msg("no address on file, skipping notification")
		return
	}

	data := map[string]string{
		"date":      a.StartsAt.Format("2006-01-02"),
		"time":      a.StartsAt.Format("15:04"),
		"type":      string(a.Type),
		"reference": a.ID.String(),
	}
	if _, err := r.manager.SendFromTemplate(ctx, templateID, data, recipient); err != nil {
		r.log.Error().Err(err).
			Str("appointment_id", a.ID.String()).
			Str("template", templateID).
			Msg("notification delivery failed")
	}
}
