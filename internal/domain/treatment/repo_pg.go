package treatment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/medisched/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Protocol Repository ===========

type protocolRepoPG struct{ pool *pgxpool.Pool }

func NewProtocolRepoPG(pool *pgxpool.Pool) ProtocolRepository { return &protocolRepoPG{pool: pool} }

func (r *protocolRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const protocolCols = `id, name, target_disease`

const medicineCols = `id, protocol_id, medicine_id, dosage, duration_value,
	duration_unit, notes, position`

func (r *protocolRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Protocol, error) {
	var p Protocol
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+protocolCols+` FROM treatment_protocol WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.TargetDisease)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProtocolNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+medicineCols+` FROM protocol_medicine
		WHERE protocol_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m ProtocolMedicine
		var unit string
		if err := rows.Scan(&m.ID, &m.ProtocolID, &m.MedicineID, &m.Dosage,
			&m.DurationValue, &unit, &m.Notes, &m.Position); err != nil {
			return nil, err
		}
		if m.DurationUnit, err = ParseDurationUnit(unit); err != nil {
			return nil, fmt.Errorf("protocol %s: %w", id, err)
		}
		p.Medicines = append(p.Medicines, &m)
	}
	return &p, rows.Err()
}

func (r *protocolRepoPG) List(ctx context.Context) ([]*Protocol, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+protocolCols+` FROM treatment_protocol ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Protocol
	for rows.Next() {
		var p Protocol
		if err := rows.Scan(&p.ID, &p.Name, &p.TargetDisease); err != nil {
			return nil, err
		}
		items = append(items, &p)
	}
	return items, rows.Err()
}

// =========== Treatment Repository ===========

type treatmentRepoPG struct{ pool *pgxpool.Pool }

func NewTreatmentRepoPG(pool *pgxpool.Pool) TreatmentRepository { return &treatmentRepoPG{pool: pool} }

func (r *treatmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const treatmentCols = `id, patient_id, doctor_id, protocol_id, start_date,
	status, created_at, updated_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.PatientID, &t.DoctorID, &t.ProtocolID, &t.StartDate,
		&t.Status, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_treatment (id, patient_id, doctor_id, protocol_id,
			start_date, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		t.ID, t.PatientID, t.DoctorID, t.ProtocolID, t.StartDate, t.Status)
	return err
}

func (r *treatmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	t, err := scanTreatment(r.conn(ctx).QueryRow(ctx, `
		SELECT `+treatmentCols+` FROM patient_treatment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTreatmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Treatment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+treatmentCols+` FROM patient_treatment
		WHERE patient_id = $1 ORDER BY start_date DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Treatment
	for rows.Next() {
		t, err := scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
