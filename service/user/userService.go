package usersvc

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

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

type UserInput struct {
	Name  string
	Email string
	Phone *string
}

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service interface {
	Create(ctx context.Context, in UserInput) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, in UserInput) (*model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]model.User, error)
	Detail(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, in UserInput) (*model.User, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	u := &model.User{Name: in.Name, Email: in.Email, Phone: in.Phone}
	if err := s.r.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, in UserInput) (*model.User, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	u := &model.User{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone}
	updated, err := s.r.Update(ctx, u)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, makeErr(ErrNotFound)
	}
	return u, nil
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

func (s *service) List(ctx context.Context) ([]model.User, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, makeErr(ErrNotFound)
	}
	return u, nil
}

func normalize(in UserInput) (UserInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" {
		return in, makeErr(ErrBadInput)
	}
	if in.Phone != nil {
		p := strings.TrimSpace(*in.Phone)
		if p == "" {
			in.Phone = nil
		} else {
			in.Phone = &p
		}
	}
	return in, nil
}
