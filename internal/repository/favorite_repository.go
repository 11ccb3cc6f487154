package repository

import (
	"context"
	"database/sql"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// FavoriteRepo stores the diner's favorite restaurants.
type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Toggle adds the restaurant to the user's favorites, or removes it if
// already present. Returns true when the restaurant is a favorite after
// the call.
func (r *FavoriteRepo) Toggle(ctx context.Context, userID, restaurantID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_favorite_restaurants WHERE user_id = $1 AND restaurant_id = $2`,
		userID, restaurantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	// Nothing removed, so this is an add. The restaurant FK rejects
	// unknown ids.
	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO user_favorite_restaurants (user_id, restaurant_id) VALUES ($1, $2)`,
		userID, restaurantID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the user's favorite restaurants, newest first.
func (r *FavoriteRepo) List(ctx context.Context, userID uint64) ([]model.Restaurant, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT rs.id, rs.owner_id, rs.name, rs.location, rs.cuisine, rs.rating,
		        ST_Y(rs.location_cords::geometry), ST_X(rs.location_cords::geometry),
		        rs.created_at, rs.updated_at
		 FROM user_favorite_restaurants f
		 JOIN restaurants rs ON rs.id = f.restaurant_id
		 WHERE f.user_id = $1
		 ORDER BY f.created_at DESC`, userID)
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
