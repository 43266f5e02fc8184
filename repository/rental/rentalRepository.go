// repository/rental/repo.go
package rentalrepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lylyly01/Biblioteca/model"
	"github.com/Lylyly01/Biblioteca/util/database"
)

// ActiveRow is an unreturned rental joined with its book, shaped for the
// rental tracker listing.
type ActiveRow struct {
	RentalID   uuid.UUID  `json:"rental_id"`
	BookID     uuid.UUID  `json:"book_id"`
	BookTitle  string     `json:"book_title"`
	BookAuthor string     `json:"book_author"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	RentalDate time.Time  `json:"rental_date"`
	DueDate    time.Time  `json:"due_date"`
}

type Repo interface {
	Insert(ctx context.Context, tx pgx.Tx, r *model.Rental) error
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error)
	MarkReturned(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	CountActiveByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
	ListActive(ctx context.Context) ([]ActiveRow, error)
	ListActiveByBook(ctx context.Context, bookID uuid.UUID) ([]model.Rental, error)
	CountsByUser(ctx context.Context) (map[uuid.UUID]int, error)
}

type repo struct {
	db *database.DB
}

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, tx pgx.Tx, m *model.Rental) error {
	const q = `
		INSERT INTO rentals (book_id, user_id, rental_date, due_date, returned)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, created_at`
	return tx.QueryRow(ctx, q, m.BookID, m.UserID, m.RentalDate, m.DueDate).
		Scan(&m.ID, &m.CreatedAt)
}

func (r *repo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error) {
	const q = `
		SELECT id, book_id, user_id, rental_date, due_date, returned, returned_date, created_at
		FROM rentals
		WHERE id = $1
		FOR UPDATE`
	m := &model.Rental{}
	err := tx.QueryRow(ctx, q, id).Scan(
		&m.ID, &m.BookID, &m.UserID, &m.RentalDate, &m.DueDate,
		&m.Returned, &m.ReturnedDate, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repo) MarkReturned(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	const q = `
		UPDATE rentals
		SET returned = true,
			returned_date = $2
		WHERE id = $1`
	_, err := tx.Exec(ctx, q, id, at)
	return err
}

func (r *repo) CountActiveByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM rentals WHERE user_id = $1 AND NOT returned`
	var n int
	err := tx.QueryRow(ctx, q, userID).Scan(&n)
	return n, err
}

func (r *repo) ListActive(ctx context.Context) ([]ActiveRow, error) {
	const q = `
			SELECT
			r.id          AS rental_id,
			r.book_id     AS book_id,
			b.title       AS book_title,
			b.author      AS book_author,
			r.user_id     AS user_id,
			r.rental_date AS rental_date,
			r.due_date    AS due_date
			FROM rentals r
			JOIN books b ON b.id = r.book_id
			WHERE NOT r.returned
			ORDER BY r.due_date ASC, r.id ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActiveRow
	for rows.Next() {
		var a ActiveRow
		if err := rows.Scan(
			&a.RentalID, &a.BookID, &a.BookTitle, &a.BookAuthor,
			&a.UserID, &a.RentalDate, &a.DueDate,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) ListActiveByBook(ctx context.Context, bookID uuid.UUID) ([]model.Rental, error) {
	const q = `
		SELECT id, book_id, user_id, rental_date, due_date, returned, returned_date, created_at
		FROM rentals
		WHERE book_id = $1 AND NOT returned
		ORDER BY due_date ASC, id ASC`
	rows, err := r.db.Pool.Query(ctx, q, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rental
	for rows.Next() {
		var m model.Rental
		if err := rows.Scan(
			&m.ID, &m.BookID, &m.UserID, &m.RentalDate, &m.DueDate,
			&m.Returned, &m.ReturnedDate, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repo) CountsByUser(ctx context.Context) (map[uuid.UUID]int, error) {
	const q = `
		SELECT user_id, COUNT(*)
		FROM rentals
		WHERE NOT returned AND user_id IS NOT NULL
		GROUP BY user_id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]int)
	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
