// model/rental.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Rental has exactly two states: active (returned=false) and returned.
// The only transition is active -> returned; a returned rental is immutable.
type Rental struct {
	ID           uuid.UUID  `json:"id"`
	BookID       uuid.UUID  `json:"book_id"`
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	RentalDate   time.Time  `json:"rental_date"`
	DueDate      time.Time  `json:"due_date"`
	Returned     bool       `json:"returned"`
	ReturnedDate *time.Time `json:"returned_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (r Rental) Active() bool { return !r.Returned }
