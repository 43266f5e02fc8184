package rental

import "github.com/google/uuid"

type CreateRentalReq struct {
	BookID     uuid.UUID `json:"book_id" validate:"required"`
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	PeriodDays int       `json:"period_days" validate:"required,gte=1,lte=15"`
}
