package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// RestaurantRepo provides persistence for restaurants, including the
// discovery listings (filtered, trending, discounted) served to diners.
type RestaurantRepo struct{ DB *sql.DB }

func NewRestaurantRepo(db *sql.DB) *RestaurantRepo { return &RestaurantRepo{DB: db} }

const restaurantColumns = `id, owner_id, name, location, cuisine, rating,
	ST_Y(location_cords::geometry), ST_X(location_cords::geometry), created_at, updated_at`

func scanRestaurant(row interface{ Scan(...interface{}) error }) (model.Restaurant, error) {
	var r model.Restaurant
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Location, &r.Cuisine, &r.Rating,
		&r.Lat, &r.Lng, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Create inserts a restaurant for the owner and returns the stored row.
// Coordinates are persisted as a PostGIS point (lng first, per WKT
// convention).
func (r *RestaurantRepo) Create(ctx context.Context, ownerID uint64, name, location, cuisine string, lat, lng float64) (model.Restaurant, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO restaurants (owner_id, name, location, cuisine, location_cords)
		 VALUES ($1, $2, $3, $4, ST_SetSRID(ST_MakePoint($5, $6), 4326))
		 RETURNING `+restaurantColumns,
		ownerID, name, location, cuisine, lng, lat)
	return scanRestaurant(row)
}

// GetByID fetches one restaurant.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (model.Restaurant, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	return scanRestaurant(row)
}

// VerifyOwnership reports ErrForbidden unless the restaurant belongs to
// the owner. A missing restaurant yields the same denial so probing for
// existence is not possible.
func (r *RestaurantRepo) VerifyOwnership(ctx context.Context, restaurantID, ownerID uint64) error {
	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM restaurants WHERE id = $1 AND owner_id = $2`,
		restaurantID, ownerID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrForbidden
	}
	return err
}

// RestaurantPatch carries the updatable restaurant fields. Lat and Lng
// must be set together; the patch is ignored when only one is present.
type RestaurantPatch struct {
	Name     *string
	Location *string
	Cuisine  *string
	Lat      *float64
	Lng      *float64
}

// Update applies a patch to a restaurant owned by ownerID and returns
// the updated row. The SET list is assembled from a fixed column list.
func (r *RestaurantRepo) Update(ctx context.Context, id, ownerID uint64, patch RestaurantPatch) (model.Restaurant, error) {
	if err := r.VerifyOwnership(ctx, id, ownerID); err != nil {
		return model.Restaurant{}, err
	}
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, "name = "+placeholder(len(args)))
	}
	if patch.Location != nil {
		args = append(args, *patch.Location)
		sets = append(sets, "location = "+placeholder(len(args)))
	}
	if patch.Cuisine != nil {
		args = append(args, *patch.Cuisine)
		sets = append(sets, "cuisine = "+placeholder(len(args)))
	}
	if patch.Lat != nil && patch.Lng != nil {
		args = append(args, *patch.Lng)
		lngPos := placeholder(len(args))
		args = append(args, *patch.Lat)
		latPos := placeholder(len(args))
		sets = append(sets, "location_cords = ST_SetSRID(ST_MakePoint("+lngPos+", "+latPos+"), 4326)")
	}
	if len(sets) == 0 {
		return model.Restaurant{}, sql.ErrNoRows
	}
	args = append(args, id)
	q := `UPDATE restaurants SET ` + strings.Join(sets, ", ") + `, updated_at = NOW()
	      WHERE id = ` + placeholder(len(args)) + ` RETURNING ` + restaurantColumns
	row := r.DB.QueryRowContext(ctx, q, args...)
	return scanRestaurant(row)
}

// Delete removes a restaurant owned by ownerID.
func (r *RestaurantRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM restaurants WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}

// ListByOwner returns all restaurants managed by the owner.
func (r *RestaurantRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Restaurant, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+restaurantColumns+` FROM restaurants WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Restaurant{}
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// DiscoveryRow is one restaurant in a discovery listing, decorated with
// its most recent special menu and coupon as raw JSON documents. The
// nested rows come straight from row_to_json subqueries; they are
// passed through to the response unmodified.
type DiscoveryRow struct {
	model.Restaurant
	LatestSpecialMenu json.RawMessage // newest special_menus row, null if none
	LatestCoupon      json.RawMessage // newest coupons row, null if none
}

const discoverySelect = `
	SELECT r.id, r.owner_id, r.name, r.location, r.cuisine, r.rating,
	       ST_Y(r.location_cords::geometry), ST_X(r.location_cords::geometry),
	       r.created_at, r.updated_at,
	       (SELECT row_to_json(sm) FROM special_menus sm
	        WHERE sm.restaurant_id = r.id ORDER BY sm.id DESC LIMIT 1),
	       (SELECT row_to_json(c) FROM coupons c
	        WHERE c.restaurant_id = r.id ORDER BY c.id DESC LIMIT 1)
	FROM restaurants r`

func collectDiscoveryRows(rows *sql.Rows) ([]DiscoveryRow, error) {
	defer rows.Close()
	out := []DiscoveryRow{}
	for rows.Next() {
		var d DiscoveryRow
		err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.Location, &d.Cuisine, &d.Rating,
			&d.Lat, &d.Lng, &d.CreatedAt, &d.UpdatedAt,
			&d.LatestSpecialMenu, &d.LatestCoupon)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RestaurantFilter holds the whitelisted discovery filters. Nil fields
// add no WHERE fragment.
type RestaurantFilter struct {
	Cuisine   *string  // exact match, case-insensitive
	MinRating *float64 // rating >= value
	Location  *string  // substring match
	Name      *string  // substring match
}

// where renders the filter into a WHERE clause (possibly empty) and its
// arguments. Fragments come only from the fixed list below.
func (f RestaurantFilter) where() (string, []interface{}) {
	frags := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)
	if f.Cuisine != nil {
		args = append(args, *f.Cuisine)
		frags = append(frags, "LOWER(r.cuisine) = LOWER("+placeholder(len(args))+")")
	}
	if f.MinRating != nil {
		args = append(args, *f.MinRating)
		frags = append(frags, "r.rating >= "+placeholder(len(args)))
	}
	if f.Location != nil {
		args = append(args, "%"+*f.Location+"%")
		frags = append(frags, "r.location ILIKE "+placeholder(len(args)))
	}
	if f.Name != nil {
		args = append(args, "%"+*f.Name+"%")
		frags = append(frags, "r.name ILIKE "+placeholder(len(args)))
	}
	if len(frags) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(frags, " AND "), args
}

// ListFiltered returns one page of restaurants matching the filter,
// ordered by rating.
func (r *RestaurantRepo) ListFiltered(ctx context.Context, f RestaurantFilter, limit, offset int) ([]DiscoveryRow, error) {
	where, args := f.where()
	args = append(args, limit)
	limitPos := placeholder(len(args))
	args = append(args, offset)
	offsetPos := placeholder(len(args))
	rows, err := r.DB.QueryContext(ctx,
		discoverySelect+where+` ORDER BY r.rating DESC LIMIT `+limitPos+` OFFSET `+offsetPos,
		args...)
	if err != nil {
		return nil, err
	}
	return collectDiscoveryRows(rows)
}

// CountFiltered returns the total number of restaurants matching the
// filter, using the same WHERE fragments as ListFiltered.
func (r *RestaurantRepo) CountFiltered(ctx context.Context, f RestaurantFilter) (int, error) {
	where, args := f.where()
	var total int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM restaurants r`+where, args...).Scan(&total)
	return total, err
}

// Trending returns one page of restaurants ordered by rating, each with
// its latest special menu and coupon.
func (r *RestaurantRepo) Trending(ctx context.Context, limit, offset int) ([]DiscoveryRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		discoverySelect+` ORDER BY r.rating DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectDiscoveryRows(rows)
}

// Total returns the number of restaurants.
func (r *RestaurantRepo) Total(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM restaurants`).Scan(&total)
	return total, err
}

// DiscountedRow is one special menu in the discounted listing, with its
// restaurant embedded as raw JSON.
type DiscountedRow struct {
	model.SpecialMenu
	Restaurant json.RawMessage
}

// Discounted returns one page of special menus, newest first, each with
// the owning restaurant attached.
func (r *RestaurantRepo) Discounted(ctx context.Context, limit, offset int) ([]DiscountedRow, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT sm.id, sm.restaurant_id, sm.name, sm.description, sm.original_price,
		        sm.discounted_price, sm.discount_percentage, sm.photo_url,
		        sm.created_at, sm.updated_at, row_to_json(r)
		 FROM special_menus sm
		 JOIN restaurants r ON sm.restaurant_id = r.id
		 ORDER BY sm.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DiscountedRow{}
	for rows.Next() {
		var d DiscountedRow
		err := rows.Scan(&d.ID, &d.RestaurantID, &d.Name, &d.Description, &d.OriginalPrice,
			&d.DiscountedPrice, &d.DiscountPercentage, &d.PhotoURL,
			&d.CreatedAt, &d.UpdatedAt, &d.Restaurant)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DiscountedTotal returns the number of special menus across all
// restaurants.
func (r *RestaurantRepo) DiscountedTotal(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM special_menus`).Scan(&total)
	return total, err
}
