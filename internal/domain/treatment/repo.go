package treatment

import (
	"context"

	"github.com/google/uuid"

	"github.com/medisched/medisched/internal/domain/appointment"
)

// ProtocolRepository reads the protocol catalog. GetByID returns the
// protocol with its medicines in position order.
type ProtocolRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Protocol, error)
	List(ctx context.Context) ([]*Protocol, error)
}

// TreatmentRepository persists patient treatments.
type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error)
}

// Booker is the slice of the appointment service the generator drives.
type Booker interface {
	Create(ctx context.Context, in appointment.CreateInput) (*appointment.Appointment, error)
	Template() *appointment.SlotTemplate
}
