package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// =========== Entry Repository ===========

type entryRepoPG struct{ pool *pgxpool.Pool }

func NewEntryRepoPG(pool *pgxpool.Pool) EntryRepository { return &entryRepoPG{pool: pool} }

func (r *entryRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const entryCols = `id, doctor_id, duty_date, day_of_week, shift, is_off,
	is_auto_generated, swapped_with_id, deleted, version, created_at, updated_at`

func (r *entryRepoPG) scanEntry(row pgx.Row) (*ScheduleEntry, error) {
	var e ScheduleEntry
	err := row.Scan(&e.ID, &e.DoctorID, &e.DutyDate, &e.DayOfWeek, &e.Shift, &e.IsOff,
		&e.IsAutoGenerated, &e.SwappedWithID, &e.Deleted, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	return &e, err
}

func (r *entryRepoPG) Create(ctx context.Context, e *ScheduleEntry) error {
	e.ID = uuid.New()
	e.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO schedule_entry (id, doctor_id, duty_date, day_of_week, shift,
			is_off, is_auto_generated, swapped_with_id, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.DoctorID, e.DutyDate, e.DayOfWeek, e.Shift,
		e.IsOff, e.IsAutoGenerated, e.SwappedWithID, e.Version)
	return err
}

func (r *entryRepoPG) Find(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (*ScheduleEntry, error) {
	e, err := r.scanEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+entryCols+` FROM schedule_entry
		WHERE doctor_id = $1 AND duty_date = $2 AND shift = $3 AND NOT deleted`,
		doctorID, DateOnly(date), shift))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *entryRepoPG) FindForUpdate(ctx context.Context, doctorID uuid.UUID, date time.Time, shift Shift) (*ScheduleEntry, error) {
	e, err := r.scanEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+entryCols+` FROM schedule_entry
		WHERE doctor_id = $1 AND duty_date = $2 AND shift = $3 AND NOT deleted
		FOR UPDATE`,
		doctorID, DateOnly(date), shift))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *entryRepoPG) UpdateAssignment(ctx context.Context, e *ScheduleEntry) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE schedule_entry SET duty_date=$2, day_of_week=$3, shift=$4, is_off=$5,
			is_auto_generated=$6, swapped_with_id=$7, version=version+1, updated_at=NOW()
		WHERE id = $1 AND version = $8 AND NOT deleted`,
		e.ID, e.DutyDate, e.DayOfWeek, e.Shift, e.IsOff,
		e.IsAutoGenerated, e.SwappedWithID, e.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule entry %s: concurrent update", e.ID)
	}
	e.Version++
	return nil
}

func (r *entryRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]*ScheduleEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM schedule_entry
		WHERE doctor_id = $1 AND duty_date BETWEEN $2 AND $3 AND NOT deleted
		ORDER BY duty_date ASC, shift ASC`,
		doctorID, DateOnly(from), DateOnly(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *entryRepoPG) ListByDate(ctx context.Context, date time.Time) ([]*ScheduleEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+entryCols+` FROM schedule_entry
		WHERE duty_date = $1 AND NOT deleted
		ORDER BY shift ASC, doctor_id ASC`,
		DateOnly(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *entryRepoPG) collect(rows pgx.Rows) ([]*ScheduleEntry, error) {
	var items []*ScheduleEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

func (r *doctorRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const doctorCols = `id, full_name, specialty, active`

func (r *doctorRepoPG) ListActive(ctx context.Context) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorCols+` FROM doctor WHERE active ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.FullName, &d.Specialty, &d.Active); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id).
		Scan(&d.ID, &d.FullName, &d.Specialty, &d.Active)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+doctorCols+` FROM doctor ORDER BY full_name ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.FullName, &d.Specialty, &d.Active); err != nil {
			return nil, 0, err
		}
		items = append(items, &d)
	}
	return items, total, rows.Err()
}
