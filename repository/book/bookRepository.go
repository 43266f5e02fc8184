package bookrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lylyly01/Biblioteca/model"
	"github.com/Lylyly01/Biblioteca/util/database"
)

const bookColumns = `id, title, author, genre, pages, color, synopsis, cover_url,
       total_copies, available_copies, is_featured, created_at, updated_at`

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Get(ctx context.Context, id uuid.UUID) (*model.Book, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Featured(ctx context.Context) (*model.Book, error)
	Update(ctx context.Context, tx pgx.Tx, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	DecrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	IncrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) error

	ClearFeaturedExcept(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SetFeatured(ctx context.Context, tx pgx.Tx, id uuid.UUID, featured bool) (bool, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (title, author, genre, pages, color, synopsis, cover_url,
                   total_copies, available_copies, is_featured)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id, created_at, updated_at`
	return r.db.Pool.QueryRow(ctx, q,
		b.Title, b.Author, b.Genre, b.Pages, b.Color, b.Synopsis, b.CoverURL,
		b.TotalCopies, b.AvailableCopies, b.IsFeatured,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) Get(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
	return scanBook(row)
}

// GetForUpdate locks the book row for the rest of the transaction.
func (r *repo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
	row := tx.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id)
	return scanBook(row)
}

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books ORDER BY genre ASC, title ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) Featured(ctx context.Context) (*model.Book, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE is_featured LIMIT 1`)
	return scanBook(row)
}

func (r *repo) Update(ctx context.Context, tx pgx.Tx, b *model.Book) error {
	const q = `
UPDATE books
SET title = $2, author = $3, genre = $4, pages = $5, color = $6, synopsis = $7,
    cover_url = $8, total_copies = $9, available_copies = $10, updated_at = now()
WHERE id = $1
RETURNING updated_at`
	return tx.QueryRow(ctx, q,
		b.ID, b.Title, b.Author, b.Genre, b.Pages, b.Color, b.Synopsis,
		b.CoverURL, b.TotalCopies, b.AvailableCopies,
	).Scan(&b.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// DecrementAvailable takes one copy off the shelf. The available_copies > 0
// guard makes the decrement a compare-and-swap: of two racing rentals on the
// last copy, exactly one sees a row updated.
func (r *repo) DecrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	const q = `
UPDATE books
SET available_copies = available_copies - 1, updated_at = now()
WHERE id = $1 AND available_copies > 0`
	ct, err := tx.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// IncrementAvailable puts a copy back, capped at total_copies. The cap absorbs
// returns of copies that were edited out of the pool while on loan.
func (r *repo) IncrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	const q = `
UPDATE books
SET available_copies = LEAST(available_copies + 1, total_copies), updated_at = now()
WHERE id = $1`
	_, err := tx.Exec(ctx, q, id)
	return err
}

func (r *repo) ClearFeaturedExcept(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	const q = `UPDATE books SET is_featured = false, updated_at = now() WHERE id <> $1 AND is_featured`
	_, err := tx.Exec(ctx, q, id)
	return err
}

func (r *repo) SetFeatured(ctx context.Context, tx pgx.Tx, id uuid.UUID, featured bool) (bool, error) {
	const q = `UPDATE books SET is_featured = $2, updated_at = now() WHERE id = $1`
	ct, err := tx.Exec(ctx, q, id, featured)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func scanBook(row pgx.Row) (*model.Book, error) {
	b := &model.Book{}
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Genre, &b.Pages, &b.Color, &b.Synopsis,
		&b.CoverURL, &b.TotalCopies, &b.AvailableCopies, &b.IsFeatured,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
