package booksvc

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Lylyly01/Biblioteca/model"
)

type ErrCode string

const (
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrBadInput ErrCode = "BAD_INPUT"
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

// BookInput carries the librarian-editable fields of a book.
type BookInput struct {
	Title       string
	Author      string
	Genre       string
	Pages       int
	Color       string
	Synopsis    string
	CoverURL    *string
	TotalCopies int
}

type TxRunner interface {
	WithinTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	Get(ctx context.Context, id uuid.UUID) (*model.Book, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Featured(ctx context.Context) (*model.Book, error)
	Update(ctx context.Context, tx pgx.Tx, b *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ClearFeaturedExcept(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SetFeatured(ctx context.Context, tx pgx.Tx, id uuid.UUID, featured bool) (bool, error)
}

type Service interface {
	Create(ctx context.Context, in BookInput) (*model.Book, error)
	Update(ctx context.Context, id uuid.UUID, in BookInput) (*model.Book, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id uuid.UUID) (*model.Book, error)
	Featured(ctx context.Context) (*model.Book, error)
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*model.Book, error)
}

type service struct {
	db TxRunner
	r  Repo
}

func New(db TxRunner, r Repo) Service { return &service{db: db, r: r} }

func (s *service) Create(ctx context.Context, in BookInput) (*model.Book, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	// New books go on the shelf with every copy available and never featured.
	b := &model.Book{
		Title:           in.Title,
		Author:          in.Author,
		Genre:           in.Genre,
		Pages:           in.Pages,
		Color:           in.Color,
		Synopsis:        in.Synopsis,
		CoverURL:        in.CoverURL,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		IsFeatured:      false,
	}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in BookInput) (*model.Book, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	var out *model.Book
	err := s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		b, err := s.r.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return makeErr(ErrNotFound)
		}

		b.AvailableCopies = recomputeAvailable(b.AvailableCopies, b.TotalCopies, in.TotalCopies)
		b.Title = in.Title
		b.Author = in.Author
		b.Genre = in.Genre
		b.Pages = in.Pages
		b.Color = in.Color
		b.Synopsis = in.Synopsis
		b.CoverURL = in.CoverURL
		b.TotalCopies = in.TotalCopies

		if err := s.r.Update(ctx, tx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.r.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return makeErr(ErrNotFound)
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	b, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) Featured(ctx context.Context) (*model.Book, error) {
	b, err := s.r.Featured(ctx)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

// SetFeatured enforces the single-featured-book invariant: flagging a book
// clears every other flag in the same transaction, so no window exists where
// two books are featured. Unflagging touches only the given book.
func (s *service) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*model.Book, error) {
	err := s.db.WithinTx(ctx, func(tx pgx.Tx) error {
		if featured {
			if err := s.r.ClearFeaturedExcept(ctx, tx, id); err != nil {
				return err
			}
		}
		updated, err := s.r.SetFeatured(ctx, tx, id, featured)
		if err != nil {
			return err
		}
		if !updated {
			return makeErr(ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.r.Get(ctx, id)
}

// recomputeAvailable preserves the on-loan count across a total_copies edit:
// available' = max(0, available + (newTotal - oldTotal)). Shrinking below the
// on-loan count clamps at zero; the loaned-out surplus drains as copies come
// back (returns cap at total_copies).
func recomputeAvailable(available, oldTotal, newTotal int) int {
	a := available + (newTotal - oldTotal)
	if a < 0 {
		return 0
	}
	return a
}

func validate(in BookInput) error {
	if in.Title == "" || in.Author == "" || in.Genre == "" {
		return makeErr(ErrBadInput)
	}
	if in.Pages <= 0 || in.TotalCopies < 1 {
		return makeErr(ErrBadInput)
	}
	return nil
}
