package rental

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Lylyly01/Biblioteca/model"
	rrepo "github.com/Lylyly01/Biblioteca/repository/rental"
)

// fakeTx satisfies pgx.Tx through embedding; only the methods the mocks
// actually ignore would panic, and none are called.
type fakeTx struct{ pgx.Tx }

type txStub struct{}

func (txStub) WithinTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return fn(fakeTx{})
}

type rentalRepoMock struct {
	insertFn       func(ctx context.Context, tx pgx.Tx, r *model.Rental) error
	getForUpdateFn func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error)
	markReturnedFn func(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error
	countActiveFn  func(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error)
	listActiveFn   func(ctx context.Context) ([]rrepo.ActiveRow, error)
	listByBookFn   func(ctx context.Context, bookID uuid.UUID) ([]model.Rental, error)
	countsFn       func(ctx context.Context) (map[uuid.UUID]int, error)
}

var _ Repo = (*rentalRepoMock)(nil)

func (m *rentalRepoMock) Insert(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
	if m.insertFn == nil {
		r.ID = uuid.New()
		return nil
	}
	return m.insertFn(ctx, tx, r)
}

func (m *rentalRepoMock) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error) {
	if m.getForUpdateFn == nil {
		return nil, nil
	}
	return m.getForUpdateFn(ctx, tx, id)
}

func (m *rentalRepoMock) MarkReturned(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) error {
	if m.markReturnedFn == nil {
		return nil
	}
	return m.markReturnedFn(ctx, tx, id, at)
}

func (m *rentalRepoMock) CountActiveByUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
	if m.countActiveFn == nil {
		return 0, nil
	}
	return m.countActiveFn(ctx, tx, userID)
}

func (m *rentalRepoMock) ListActive(ctx context.Context) ([]rrepo.ActiveRow, error) {
	if m.listActiveFn == nil {
		return nil, nil
	}
	return m.listActiveFn(ctx)
}

func (m *rentalRepoMock) ListActiveByBook(ctx context.Context, bookID uuid.UUID) ([]model.Rental, error) {
	if m.listByBookFn == nil {
		return nil, nil
	}
	return m.listByBookFn(ctx, bookID)
}

func (m *rentalRepoMock) CountsByUser(ctx context.Context) (map[uuid.UUID]int, error) {
	if m.countsFn == nil {
		return nil, nil
	}
	return m.countsFn(ctx)
}

type bookRepoMock struct {
	getForUpdateFn func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error)
	decrementFn    func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	incrementFn    func(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

var _ BookRepo = (*bookRepoMock)(nil)

func (m *bookRepoMock) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
	if m.getForUpdateFn == nil {
		return nil, nil
	}
	return m.getForUpdateFn(ctx, tx, id)
}

func (m *bookRepoMock) DecrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	if m.decrementFn == nil {
		return true, nil
	}
	return m.decrementFn(ctx, tx, id)
}

func (m *bookRepoMock) IncrementAvailable(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if m.incrementFn == nil {
		return nil
	}
	return m.incrementFn(ctx, tx, id)
}

type userRepoMock struct {
	lockFn func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

var _ UserRepo = (*userRepoMock)(nil)

func (m *userRepoMock) LockForRent(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	if m.lockFn == nil {
		return true, nil
	}
	return m.lockFn(ctx, tx, id)
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(r Repo, b BookRepo, u UserRepo) *service {
	return &service{
		db:    txStub{},
		r:     r,
		books: b,
		users: u,
		now:   func() time.Time { return fixedNow },
	}
}

func bookWith(available int) *model.Book {
	return &model.Book{ID: uuid.New(), TotalCopies: 3, AvailableCopies: available}
}

// --- Rent ---

func TestRent_PeriodBounds(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&rentalRepoMock{}, &bookRepoMock{}, &userRepoMock{})

	for _, days := range []int{0, -1, 16, 100} {
		_, err := svc.Rent(ctx, uuid.New(), uuid.New(), days)
		require.Error(t, err)
		require.Equal(t, ErrBadInput, Code(err))
	}
}

func TestRent_UserNotFound(t *testing.T) {
	ctx := context.Background()
	users := &userRepoMock{
		lockFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(&rentalRepoMock{}, &bookRepoMock{}, users)

	_, err := svc.Rent(ctx, uuid.New(), uuid.New(), 7)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestRent_BookNotFound(t *testing.T) {
	ctx := context.Background()
	books := &bookRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
			return nil, nil
		},
	}
	svc := newTestService(&rentalRepoMock{}, books, &userRepoMock{})

	_, err := svc.Rent(ctx, uuid.New(), uuid.New(), 7)
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestRent_OutOfStock(t *testing.T) {
	ctx := context.Background()
	inserted := false
	books := &bookRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
			return bookWith(0), nil
		},
	}
	rentals := &rentalRepoMock{
		insertFn: func(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
			inserted = true
			return nil
		},
	}
	svc := newTestService(rentals, books, &userRepoMock{})

	_, err := svc.Rent(ctx, uuid.New(), uuid.New(), 7)
	require.Error(t, err)
	require.Equal(t, ErrOutOfStock, Code(err))
	require.False(t, inserted, "no rental may be created when out of stock")
}

func TestRent_LimitExceeded(t *testing.T) {
	ctx := context.Background()
	books := &bookRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
			return bookWith(1), nil
		},
	}
	rentals := &rentalRepoMock{
		countActiveFn: func(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (int, error) {
			return MaxActiveRentals, nil
		},
	}
	svc := newTestService(rentals, books, &userRepoMock{})

	_, err := svc.Rent(ctx, uuid.New(), uuid.New(), 7)
	require.Error(t, err)
	require.Equal(t, ErrRentalLimit, Code(err))
}

func TestRent_DecrementContention(t *testing.T) {
	// The row read said one copy was left, but the guarded decrement lost the
	// race: the rent must fail out-of-stock rather than go negative.
	ctx := context.Background()
	books := &bookRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
			return bookWith(1), nil
		},
		decrementFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(&rentalRepoMock{}, books, &userRepoMock{})

	_, err := svc.Rent(ctx, uuid.New(), uuid.New(), 7)
	require.Error(t, err)
	require.Equal(t, ErrOutOfStock, Code(err))
}

func TestRent_Success(t *testing.T) {
	ctx := context.Background()
	bookID := uuid.New()
	userID := uuid.New()

	decremented := 0
	books := &bookRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
			require.Equal(t, bookID, id)
			return &model.Book{ID: bookID, TotalCopies: 1, AvailableCopies: 1}, nil
		},
		decrementFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
			decremented++
			return true, nil
		},
	}
	rentals := &rentalRepoMock{
		countActiveFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
			return 1, nil
		},
		insertFn: func(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
			r.ID = uuid.New()
			return nil
		},
	}
	svc := newTestService(rentals, books, &userRepoMock{})

	out, err := svc.Rent(ctx, bookID, userID, 15)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Equal(t, 1, decremented)
	require.Equal(t, bookID, out.BookID)
	require.NotNil(t, out.UserID)
	require.Equal(t, userID, *out.UserID)
	require.False(t, out.Returned)
	require.Nil(t, out.ReturnedDate)
	require.Equal(t, fixedNow, out.RentalDate)
	require.Equal(t, fixedNow.AddDate(0, 0, 15), out.DueDate)
}

// --- Return ---

func TestReturn_NotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&rentalRepoMock{}, &bookRepoMock{}, &userRepoMock{})

	_, err := svc.Return(ctx, uuid.New())
	require.Error(t, err)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestReturn_AlreadyReturned(t *testing.T) {
	ctx := context.Background()
	at := fixedNow.Add(-24 * time.Hour)
	incremented := false
	rentals := &rentalRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error) {
			return &model.Rental{ID: id, Returned: true, ReturnedDate: &at}, nil
		},
	}
	books := &bookRepoMock{
		incrementFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
			incremented = true
			return nil
		},
	}
	svc := newTestService(rentals, books, &userRepoMock{})

	_, err := svc.Return(ctx, uuid.New())
	require.Error(t, err)
	require.Equal(t, ErrAlreadyReturned, Code(err))
	require.False(t, incremented, "available_copies must not change on a double return")
}

func TestReturn_Success(t *testing.T) {
	ctx := context.Background()
	rentalID := uuid.New()
	bookID := uuid.New()

	incremented := 0
	rentals := &rentalRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error) {
			return &model.Rental{ID: id, BookID: bookID, DueDate: fixedNow.AddDate(0, 0, 3)}, nil
		},
	}
	books := &bookRepoMock{
		incrementFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
			require.Equal(t, bookID, id)
			incremented++
			return nil
		},
	}
	svc := newTestService(rentals, books, &userRepoMock{})

	out, err := svc.Return(ctx, rentalID)
	require.NoError(t, err)
	require.Equal(t, 1, incremented)
	require.True(t, out.Returned)
	require.NotNil(t, out.ReturnedDate)
	require.Equal(t, fixedNow, *out.ReturnedDate)
}

// --- Round trip ---

func TestRentThenReturn_RoundTrip(t *testing.T) {
	// Stateful mocks: a rent followed by a return leaves available_copies
	// exactly where it started.
	ctx := context.Background()
	bookID := uuid.New()
	userID := uuid.New()

	available := 2
	var stored *model.Rental

	books := &bookRepoMock{
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Book, error) {
			return &model.Book{ID: bookID, TotalCopies: 2, AvailableCopies: available}, nil
		},
		decrementFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
			if available == 0 {
				return false, nil
			}
			available--
			return true, nil
		},
		incrementFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
			if available < 2 {
				available++
			}
			return nil
		},
	}
	rentals := &rentalRepoMock{
		insertFn: func(ctx context.Context, tx pgx.Tx, r *model.Rental) error {
			r.ID = uuid.New()
			stored = r
			return nil
		},
		getForUpdateFn: func(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Rental, error) {
			if stored == nil || stored.ID != id {
				return nil, nil
			}
			cp := *stored
			return &cp, nil
		},
	}
	svc := newTestService(rentals, books, &userRepoMock{})

	rented, err := svc.Rent(ctx, bookID, userID, 5)
	require.NoError(t, err)
	require.Equal(t, 1, available)

	_, err = svc.Return(ctx, rented.ID)
	require.NoError(t, err)
	require.Equal(t, 2, available)
}

// --- Listings ---

func TestActive_AnnotatesUrgency(t *testing.T) {
	ctx := context.Background()
	rentals := &rentalRepoMock{
		listActiveFn: func(ctx context.Context) ([]rrepo.ActiveRow, error) {
			return []rrepo.ActiveRow{
				{RentalID: uuid.New(), DueDate: fixedNow.Add(-48 * time.Hour)},
				{RentalID: uuid.New(), DueDate: fixedNow},
				{RentalID: uuid.New(), DueDate: fixedNow.AddDate(0, 0, 10)},
			}, nil
		},
	}
	svc := newTestService(rentals, &bookRepoMock{}, &userRepoMock{})

	out, err := svc.Active(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.Equal(t, -2, out[0].DaysLeft)
	require.Equal(t, DueOverdue, out[0].Status)
	require.Equal(t, 0, out[1].DaysLeft)
	require.Equal(t, DueSoon, out[1].Status)
	require.Equal(t, 10, out[2].DaysLeft)
	require.Equal(t, DueOnTrack, out[2].Status)
}
