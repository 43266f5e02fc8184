package rental

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lylyly01/Biblioteca/model"
	rrepo "github.com/Lylyly01/Biblioteca/repository/rental"
)

// Hard business rules: a rental runs 1 to 15 days and a user may hold at most
// two active rentals at a time.
const (
	MinPeriodDays    = 1
	MaxPeriodDays    = 15
	MaxActiveRentals = 2
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrOutOfStock      ErrCode = "OUT_OF_STOCK"
	ErrRentalLimit     ErrCode = "RENTAL_LIMIT_EXCEEDED"
	ErrAlreadyReturned ErrCode = "ALREADY_RETURNED"
	ErrBadInput        ErrCode = "BAD_INPUT"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// TrackedRental is an active rental annotated with its urgency.
type TrackedRental struct {
	rrepo.ActiveRow
	DaysLeft int       `json:"days_left"`
	Status   DueStatus `json:"status"`
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, r *model.Rental) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error)
	MarkReturned(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	CountActiveByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
	ListActive(ctx context.Context) ([]rrepo.ActiveRow, error)
	ListActiveByBook(ctx context.Context, bookID uuid.UUID) ([]model.Rental, error)
	CountsByUser(ctx context.Context) (map[uuid.UUID]int, error)
}

type BookRepo interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error)
	DecrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	IncrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

type UserRepo interface {
	LockForRent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

type Service interface {
	// Rent: create a rental and take one copy off the shelf, atomically.
	Rent(ctx context.Context, bookID, userID uuid.UUID, periodDays int) (*model.Rental, error)

	// Return: mark an active rental returned and put the copy back.
	Return(ctx context.Context, rentalID uuid.UUID) (*model.Rental, error)

	// Active: all unreturned rentals ordered by due date, with urgency.
	Active(ctx context.Context) ([]TrackedRental, error)

	// ActiveByBook: unreturned rentals of one book, with urgency.
	ActiveByBook(ctx context.Context, bookID uuid.UUID) ([]TrackedRental, error)

	// UserCounts: active rentals per user, for the rent form's 0/2..2/2 display.
	UserCounts(ctx context.Context) (map[uuid.UUID]int, error)
}

// ----- Service implementation -----

type service struct {
	db    TxRunner
	r     Repo
	books BookRepo
	users UserRepo
	now   func() time.Time
}

func New(db TxRunner, r Repo, books BookRepo, users UserRepo) Service {
	return &service{db: db, r: r, books: books, users: users, now: time.Now}
}

func (s *service) Rent(ctx context.Context, bookID, userID uuid.UUID, periodDays int) (*model.Rental, error) {
	if periodDays < MinPeriodDays || periodDays > MaxPeriodDays {
		return nil, makeErr(ErrBadInput)
	}

	var out *model.Rental
	err := s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		ok, err := s.users.LockForRent(ctx, tx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrNotFound)
		}

		book, err := s.books.GetForUpdate(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return makeErr(ErrNotFound)
		}
		if book.AvailableCopies == 0 {
			return makeErr(ErrOutOfStock)
		}

		active, err := s.r.CountActiveByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if active >= MaxActiveRentals {
			return makeErr(ErrRentalLimit)
		}

		// Guarded decrement; with the book row locked above this cannot race,
		// but a zero rows-affected result still maps to out-of-stock.
		decremented, err := s.books.DecrementAvailable(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if !decremented {
			return makeErr(ErrOutOfStock)
		}

		now := s.now().UTC()
		rental := &model.Rental{
			BookID:     bookID,
			UserID:     &userID,
			RentalDate: now,
			DueDate:    now.AddDate(0, 0, periodDays),
		}
		if err := s.r.Insert(ctx, tx, rental); err != nil {
			return err
		}
		out = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Return(ctx context.Context, rentalID uuid.UUID) (*model.Rental, error) {
	var out *model.Rental
	err := s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		rental, err := s.r.GetForUpdate(ctx, tx, rentalID)
		if err != nil {
			return err
		}
		if rental == nil {
			return makeErr(ErrNotFound)
		}
		if rental.Returned {
			return makeErr(ErrAlreadyReturned)
		}

		at := s.now().UTC()
		if err := s.r.MarkReturned(ctx, tx, rentalID, at); err != nil {
			return err
		}
		if err := s.books.IncrementAvailable(ctx, tx, rental.BookID); err != nil {
			return err
		}

		rental.Returned = true
		rental.ReturnedDate = &at
		out = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Active(ctx context.Context) ([]TrackedRental, error) {
	rows, err := s.r.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]TrackedRental, 0, len(rows))
	for _, row := range rows {
		days := DaysUntilDue(row.DueDate, now)
		out = append(out, TrackedRental{ActiveRow: row, DaysLeft: days, Status: ClassifyDue(days)})
	}
	return out, nil
}

func (s *service) ActiveByBook(ctx context.Context, bookID uuid.UUID) ([]TrackedRental, error) {
	rentals, err := s.r.ListActiveByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]TrackedRental, 0, len(rentals))
	for _, m := range rentals {
		days := DaysUntilDue(m.DueDate, now)
		out = append(out, TrackedRental{
			ActiveRow: rrepo.ActiveRow{
				RentalID:   m.ID,
				BookID:     m.BookID,
				UserID:     m.UserID,
				RentalDate: m.RentalDate,
				DueDate:    m.DueDate,
			},
			DaysLeft: days,
			Status:   ClassifyDue(days),
		})
	}
	return out, nil
}

func (s *service) UserCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	return s.r.CountsByUser(ctx)
}
