package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/medisched/internal/platform/db"
	"github.com/medisched/medisched/pkg/pagination"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// uniqueViolation is the Postgres SQL state raised by the partial
// unique index on (doctor_id, starts_at).
const uniqueViolation = "23505"

// =========== Appointment Repository ===========

type apptRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &apptRepoPG{pool: pool} }

func (r *apptRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, user_id, doctor_id, service_id, starts_at, type, status,
	is_anonymous, notes, meeting_url, version, created_at, updated_at`

var apptSortable = map[string]string{
	"starts_at":  "starts_at",
	"created_at": "created_at",
	"status":     "status",
}

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.ServiceID, &a.StartsAt, &a.Type,
		&a.Status, &a.IsAnonymous, &a.Notes, &a.MeetingURL, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *apptRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.Version = 1
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, user_id, doctor_id, service_id, starts_at,
			type, status, is_anonymous, notes, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.UserID, a.DoctorID, a.ServiceID, a.StartsAt,
		a.Type, a.Status, a.IsAnonymous, a.Notes, a.Version)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolation {
		return ErrSlotConflict
	}
	return err
}

func (r *apptRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppt(r.conn(ctx).QueryRow(ctx, `
		SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *apptRepoPG) CASStatus(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *apptRepoPG) AttachMeetingURL(ctx context.Context, id uuid.UUID, url string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET meeting_url = $2, updated_at = NOW() WHERE id = $1`,
		id, url)
	return err
}

func (r *apptRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, pg pagination.Params) ([]*Appointment, int, error) {
	return r.list(ctx, `WHERE doctor_id = $1`, []interface{}{doctorID}, pg)
}

func (r *apptRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, pg pagination.Params) ([]*Appointment, int, error) {
	return r.list(ctx, `WHERE user_id = $1`, []interface{}{userID}, pg)
}

func (r *apptRepoPG) List(ctx context.Context, pg pagination.Params) ([]*Appointment, int, error) {
	return r.list(ctx, ``, nil, pg)
}

func (r *apptRepoPG) list(ctx context.Context, where string, args []interface{}, pg pagination.Params) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := pg.OrderClause(apptSortable, "starts_at")
	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM appointment %s %s LIMIT $%d OFFSET $%d`,
		apptCols, where, order, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, pg.Limit, pg.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// =========== Service Catalog Repository ===========

type serviceRepoPG struct{ pool *pgxpool.Pool }

func NewServiceRepoPG(pool *pgxpool.Pool) ServiceRepository { return &serviceRepoPG{pool: pool} }

func (r *serviceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const serviceCols = `id, name, kind, price`

func (r *serviceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ClinicService, error) {
	var s ClinicService
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT `+serviceCols+` FROM service WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Kind, &s.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *serviceRepoPG) List(ctx context.Context) ([]*ClinicService, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+serviceCols+` FROM service ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ClinicService
	for rows.Next() {
		var s ClinicService
		if err := rows.Scan(&s.ID, &s.Name, &s.Kind, &s.Price); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}
