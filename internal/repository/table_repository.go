package repository

import (
	"context"
	"database/sql"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// TableRepo provides data access to the restaurant_tables table.
// Tables carry both scheduling attributes (seat capacity, active
// flag) and purely presentational ones (shape, position, size) used
// by the floor editor.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, restaurant_id, table_number, shape, seats, section, pos_x, pos_y, width, height, is_active, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (model.Table, error) {
	var t model.Table
	err := row.Scan(&t.ID, &t.RestaurantID, &t.TableNumber, &t.Shape, &t.Seats,
		&t.Section, &t.X, &t.Y, &t.Width, &t.Height, &t.IsActive,
		&t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListByRestaurant returns all tables of a restaurant ordered by
// table number.  Schedules are not attached; callers needing the
// day-scoped view use ReservationRepo.AttachSchedules.
func (r *TableRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables
		 WHERE restaurant_id = ? ORDER BY table_number`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByID fetches one table.  Returns ErrTableNotFound when the id
// does not resolve.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (model.Table, error) {
	t, err := scanTable(r.db.QueryRowContext(ctx,
		`SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ? LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return model.Table{}, ErrTableNotFound
	}
	return t, err
}

// Create inserts a table and populates the generated ID on the record.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurant_tables
			(restaurant_id, table_number, shape, seats, section, pos_x, pos_y, width, height, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RestaurantID, t.TableNumber, t.Shape, t.Seats, t.Section,
		t.X, t.Y, t.Width, t.Height, t.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// UpdatePosition patches only the x/y coordinates of a table; layout
// drags are frequent and must not touch any other column.
func (r *TableRepo) UpdatePosition(ctx context.Context, id uint64, x, y int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE restaurant_tables SET pos_x = ?, pos_y = ? WHERE id = ?`, x, y, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrTableNotFound
	}
	return err
}

// UpdateDetails patches the descriptive attributes of a table.
func (r *TableRepo) UpdateDetails(ctx context.Context, t model.Table) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE restaurant_tables
		 SET shape = ?, seats = ?, section = ?, width = ?, height = ?, is_active = ?
		 WHERE id = ?`,
		t.Shape, t.Seats, t.Section, t.Width, t.Height, t.IsActive, t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrTableNotFound
	}
	return err
}

// Delete removes a table.  Deletion is refused with ErrConflict while
// active reservations still reference the table.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations
		 WHERE table_id = ? AND status NOT IN ('DONE','CANCELLED')`, id).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrTableNotFound
	}
	return err
}
