package repository

import (
	"context"
	"database/sql"

	"github.com/forkspot/restaurant-reservation/internal/model"
)

// TestimonialRepo serves the public landing-page quotes.
type TestimonialRepo struct{ DB *sql.DB }

func NewTestimonialRepo(db *sql.DB) *TestimonialRepo { return &TestimonialRepo{DB: db} }

// List returns one page of testimonials.
func (r *TestimonialRepo) List(ctx context.Context, limit, offset int) ([]model.Testimonial, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, message FROM testimonials ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Testimonial{}
	for rows.Next() {
		var t model.Testimonial
		if err := rows.Scan(&t.ID, &t.Message); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Total counts the testimonials.
func (r *TestimonialRepo) Total(ctx context.Context) (int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM testimonials`).Scan(&total)
	return total, err
}
