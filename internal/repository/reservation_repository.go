package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// ReservationRepo provides CRUD operations for reservations.  A
// reservation books a half-open interval [start_time, end_time) of a
// table, or sits unassigned until the restaurant picks one.  All
// timestamps are stored in UTC.  The repository enforces the
// single-active-booking invariant: at most one non-terminal
// reservation may occupy a table for any overlapping interval.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle for transaction-spanning callers.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

const reservationColumns = `id, restaurant_id, table_id, user_id, guests, status, start_time, end_time, client_name, client_email, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res         model.Reservation
		tableID     sql.NullInt64
		userID      sql.NullInt64
		status      string
		clientName  sql.NullString
		clientEmail sql.NullString
	)
	err := row.Scan(&res.ID, &res.RestaurantID, &tableID, &userID, &res.Guests,
		&status, &res.StartTime, &res.EndTime, &clientName, &clientEmail,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if normalized, ok := model.ParseStatus(status); ok {
		res.Status = normalized
	} else {
		res.Status = model.ReservationStatus(status)
	}
	if tableID.Valid {
		v := uint64(tableID.Int64)
		res.TableID = &v
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		res.UserID = &v
	}
	if clientName.Valid {
		res.ClientName = &clientName.String
	}
	if clientEmail.Valid {
		res.ClientEmail = &clientEmail.String
	}
	return res, nil
}

// hasOverlapTx reports whether an active reservation already occupies
// the table for any part of [start, end).  Runs inside the caller's
// transaction so the check and the subsequent insert are atomic.
func hasOverlapTx(ctx context.Context, tx *sql.Tx, tableID uint64, start, end time.Time, excludeID string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE table_id = ? AND id <> ?
		   AND status NOT IN ('DONE','CANCELLED')
		   AND start_time < ? AND end_time > ?`,
		tableID, excludeID, end.UTC(), start.UTC()).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a reservation, generating its UUID.  When a table is
// already assigned, the overlap invariant is checked inside a
// transaction and ErrConflict is returned on violation.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if res.TableID != nil {
		overlap, err := hasOverlapTx(ctx, tx, *res.TableID, res.StartTime, res.EndTime, res.ID)
		if err != nil {
			return err
		}
		if overlap {
			return ErrConflict
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations
			(id, restaurant_id, table_id, user_id, guests, status, start_time, end_time, client_name, client_email)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.RestaurantID, nullableUint(res.TableID), nullableUint(res.UserID),
		res.Guests, string(res.Status), res.StartTime.UTC(), res.EndTime.UTC(),
		nullableString(res.ClientName), nullableString(res.ClientEmail))
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches one reservation.  Returns ErrReservationNotFound
// when the id does not resolve.
func (r *ReservationRepo) GetByID(ctx context.Context, id string) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ? LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return model.Reservation{}, ErrReservationNotFound
	}
	return res, err
}

// ListByRestaurantAndDate returns every reservation of a restaurant
// whose start falls on the given service date (YYYY-MM-DD, UTC),
// ordered by start time.
func (r *ReservationRepo) ListByRestaurantAndDate(ctx context.Context, restaurantID uint64, date string) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE restaurant_id = ? AND DATE(start_time) = ?
		 ORDER BY start_time`, restaurantID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListByUser returns a customer's reservations, newest first, for the
// "my bookings" page.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE user_id = ? ORDER BY start_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateStatus sets the lifecycle status of a reservation.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrReservationNotFound
	}
	return err
}

// AssignTable moves a reservation onto a table after re-checking the
// overlap invariant inside a transaction.  Only the table reference
// changes; every other field stays intact.
func (r *ReservationRepo) AssignTable(ctx context.Context, id string, tableID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var start, end time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT start_time, end_time FROM reservations WHERE id = ? LIMIT 1`, id).
		Scan(&start, &end)
	if err == sql.ErrNoRows {
		return ErrReservationNotFound
	}
	if err != nil {
		return err
	}
	overlap, err := hasOverlapTx(ctx, tx, tableID, start, end, id)
	if err != nil {
		return err
	}
	if overlap {
		return ErrConflict
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE reservations SET table_id = ? WHERE id = ?`, tableID, id); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DetailsPatch carries the optional fields PatchDetails may change.
// Nil fields are left untouched in the row.
type DetailsPatch struct {
	Guests      *int
	StartTime   *time.Time
	EndTime     *time.Time
	ClientName  *string
	ClientEmail *string
}

// PatchDetails applies a partial update to a reservation.  Only the
// columns the patch specifies are written.
func (r *ReservationRepo) PatchDetails(ctx context.Context, id string, patch DetailsPatch) error {
	query := `UPDATE reservations SET updated_at = updated_at`
	args := make([]any, 0, 6)
	if patch.Guests != nil {
		query += `, guests = ?`
		args = append(args, *patch.Guests)
	}
	if patch.StartTime != nil {
		query += `, start_time = ?`
		args = append(args, patch.StartTime.UTC())
	}
	if patch.EndTime != nil {
		query += `, end_time = ?`
		args = append(args, patch.EndTime.UTC())
	}
	if patch.ClientName != nil {
		query += `, client_name = ?`
		args = append(args, *patch.ClientName)
	}
	if patch.ClientEmail != nil {
		query += `, client_email = ?`
		args = append(args, *patch.ClientEmail)
	}
	query += ` WHERE id = ?`
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrReservationNotFound
	}
	return err
}

// AttachSchedules groups a date's reservations into the Schedule of
// each table, preserving the invariant that a schedule only ever
// contains bookings for the loaded query date.  Unassigned
// reservations are returned separately.
func (r *ReservationRepo) AttachSchedules(ctx context.Context, tables []model.Table, restaurantID uint64, date string) ([]model.Table, []model.Reservation, error) {
	reservations, err := r.ListByRestaurantAndDate(ctx, restaurantID, date)
	if err != nil {
		return nil, nil, err
	}
	byTable := make(map[uint64][]model.Reservation)
	var unassigned []model.Reservation
	for _, res := range reservations {
		if res.TableID == nil {
			unassigned = append(unassigned, res)
			continue
		}
		byTable[*res.TableID] = append(byTable[*res.TableID], res)
	}
	out := make([]model.Table, len(tables))
	copy(out, tables)
	for i := range out {
		out[i].Schedule = byTable[out[i].ID]
	}
	return out, unassigned, nil
}

func nullableUint(v *uint64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
