package usersvc_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Lylyly01/Biblioteca/model"
	usersvc "github.com/Lylyly01/Biblioteca/service/user"
)

type repoMock struct {
	createFn func(ctx context.Context, u *model.User) error
	getFn    func(ctx context.Context, id uuid.UUID) (*model.User, error)
	listFn   func(ctx context.Context) ([]model.User, error)
	updateFn func(ctx context.Context, u *model.User) (bool, error)
	deleteFn func(ctx context.Context, id uuid.UUID) (bool, error)
}

var _ usersvc.Repo = (*repoMock)(nil)

func (m *repoMock) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		u.ID = uuid.New()
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *repoMock) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if m.getFn == nil {
		return nil, nil
	}
	return m.getFn(ctx, id)
}

func (m *repoMock) List(ctx context.Context) ([]model.User, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *repoMock) Update(ctx context.Context, u *model.User) (bool, error) {
	if m.updateFn == nil {
		return true, nil
	}
	return m.updateFn(ctx, u)
}

func (m *repoMock) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.deleteFn == nil {
		return true, nil
	}
	return m.deleteFn(ctx, id)
}

func TestCreate_BadInput(t *testing.T) {
	s := usersvc.New(&repoMock{})
	ctx := context.Background()

	_, err := s.Create(ctx, usersvc.UserInput{Name: "  ", Email: "a@b.com"})
	require.Error(t, err)
	require.Equal(t, usersvc.ErrBadInput, usersvc.Code(err))

	_, err = s.Create(ctx, usersvc.UserInput{Name: "Ana", Email: " "})
	require.Error(t, err)
	require.Equal(t, usersvc.ErrBadInput, usersvc.Code(err))
}

func TestCreate_NormalizesInput(t *testing.T) {
	var captured *model.User
	m := &repoMock{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = uuid.New()
			captured = u
			return nil
		},
	}
	s := usersvc.New(m)

	phone := "  "
	u, err := s.Create(context.Background(), usersvc.UserInput{
		Name:  " Ana Souza ",
		Email: "Ana@Example.COM",
		Phone: &phone,
	})
	require.NoError(t, err)
	require.Equal(t, "Ana Souza", captured.Name)
	require.Equal(t, "ana@example.com", captured.Email)
	require.Nil(t, captured.Phone, "blank phone normalizes to null")
	require.Equal(t, captured.ID, u.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	m := &repoMock{
		updateFn: func(ctx context.Context, u *model.User) (bool, error) { return false, nil },
	}
	s := usersvc.New(m)

	_, err := s.Update(context.Background(), uuid.New(), usersvc.UserInput{Name: "Ana", Email: "a@b.com"})
	require.Error(t, err)
	require.Equal(t, usersvc.ErrNotFound, usersvc.Code(err))
}

func TestDelete_NotFound(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id uuid.UUID) (bool, error) { return false, nil },
	}
	s := usersvc.New(m)

	err := s.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	require.Equal(t, usersvc.ErrNotFound, usersvc.Code(err))
}
