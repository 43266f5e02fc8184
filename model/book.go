// model/book.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	Pages           int       `json:"pages"`
	Color           string    `json:"color"`
	Synopsis        string    `json:"synopsis"`
	CoverURL        *string   `json:"cover_url,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	IsFeatured      bool      `json:"is_featured"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CopiesOnLoan is the number of copies currently rented out.
func (b Book) CopiesOnLoan() int { return b.TotalCopies - b.AvailableCopies }
