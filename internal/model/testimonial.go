package model

// Testimonial is a short quote shown on the landing page.  Row in the
// `testimonials` table; listed publicly with pagination.
type Testimonial struct {
    ID      uint64 // testimonials.id
    Message string // testimonials.message
}
