package repository

import (
	"context"
	"database/sql"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// RestaurantRepo provides data access to the restaurants and
// opening_hours tables.  All timestamp columns are stored in UTC, the
// fixed service timezone; opening hours are stored as minutes since
// midnight per weekday so slot arithmetic needs no parsing.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo returns a new RestaurantRepo bound to the provided database.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{db: db} }

// DB exposes the underlying handle for handlers that need to open
// transactions spanning multiple repositories.
func (r *RestaurantRepo) DB() *sql.DB { return r.db }

const restaurantColumns = `id, owner_id, name, description, city, address, phone, is_active, created_at, updated_at`

func scanRestaurant(row interface{ Scan(...any) error }) (model.Restaurant, error) {
	var rest model.Restaurant
	err := row.Scan(&rest.ID, &rest.OwnerID, &rest.Name, &rest.Description,
		&rest.City, &rest.Address, &rest.Phone, &rest.IsActive,
		&rest.CreatedAt, &rest.UpdatedAt)
	return rest, err
}

// ListActive returns all restaurants currently accepting bookings,
// ordered by name for the public browse page.
func (r *RestaurantRepo) ListActive(ctx context.Context) ([]model.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// GetByID fetches one restaurant.  Returns ErrRestaurantNotFound when
// the id does not resolve.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	rest, err := scanRestaurant(r.db.QueryRowContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE id = ? LIMIT 1`, id))
	if err == sql.ErrNoRows {
		return model.Restaurant{}, ErrRestaurantNotFound
	}
	return rest, err
}

// IsOwnedBy reports whether the restaurant belongs to the given user.
// Used by owner endpoints before any mutation.
func (r *RestaurantRepo) IsOwnedBy(ctx context.Context, restaurantID, userID uint64) (bool, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_id FROM restaurants WHERE id = ? LIMIT 1`, restaurantID).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return false, ErrRestaurantNotFound
	}
	if err != nil {
		return false, err
	}
	return ownerID == userID, nil
}

// OpeningHoursFor returns the service window for one weekday
// (0 = Sunday … 6 = Saturday).  A missing row is reported as a closed
// day rather than an error, so restaurants without configured hours
// simply produce empty slot lists.
func (r *RestaurantRepo) OpeningHoursFor(ctx context.Context, restaurantID uint64, weekday int) (model.OpeningHours, error) {
	hours := model.OpeningHours{RestaurantID: restaurantID, Weekday: weekday, IsClosed: true}
	err := r.db.QueryRowContext(ctx,
		`SELECT open_minute, close_minute, is_closed FROM opening_hours
		 WHERE restaurant_id = ? AND weekday = ? LIMIT 1`,
		restaurantID, weekday).Scan(&hours.OpenMinute, &hours.CloseMinute, &hours.IsClosed)
	if err == sql.ErrNoRows {
		return hours, nil
	}
	if err != nil {
		return model.OpeningHours{}, err
	}
	return hours, nil
}

// UpsertOpeningHours stores the service window for a weekday,
// replacing any previous row.
func (r *RestaurantRepo) UpsertOpeningHours(ctx context.Context, hours model.OpeningHours) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO opening_hours (restaurant_id, weekday, open_minute, close_minute, is_closed)
		 VALUES (?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE open_minute = VALUES(open_minute),
			 close_minute = VALUES(close_minute), is_closed = VALUES(is_closed)`,
		hours.RestaurantID, hours.Weekday, hours.OpenMinute, hours.CloseMinute, hours.IsClosed)
	return err
}
