// Package models defines server-side data models persisted in the database
// and the public views returned over HTTP.
package models

import "time"

// Product is a catalogue item owned by a user. Price is a decimal string
// matching the NUMERIC(12,2) column; Image is the storage key.
type Product struct {
	ID          string
	Name        string
	UserID      string
	Description string
	Price       string
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublicProduct is the wire view of a Product.
type PublicProduct struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Image       string    `json:"image"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) Public(imageURL string) PublicProduct {
	return PublicProduct{
		ID:          p.ID,
		Name:        p.Name,
		UserID:      p.UserID,
		Description: p.Description,
		Price:       p.Price,
		Image:       p.Image,
		ImageURL:    imageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
