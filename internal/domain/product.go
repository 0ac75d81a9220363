package domain

import "time"

// Product is a catalog item with a fixed stock ceiling. Products are
// created administratively; the core never creates or destroys them.
type Product struct {
	ID        string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
