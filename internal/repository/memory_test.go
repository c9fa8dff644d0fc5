package repository

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"banking-backoffice-api/internal/model"
)

func newTestAccount(number, holder, balance string, created time.Time) model.Account {
	return model.NewAccount(number, holder, decimal.RequireFromString(balance), model.AccountTypeChecking, created)
}

func TestMemoryAccountStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	created, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "1500.00", now))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	byID, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *byID)

	byNumber, err := store.GetByAccountNumber(ctx, "FR7630001007941234567890185")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)

	ok, err := store.ExistsByAccountNumber(ctx, "FR7630001007941234567890185")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ExistsByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// returned values are copies
	byID.Balance = decimal.RequireFromString("1.00")
	again, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, again.Balance.Equal(decimal.RequireFromString("1500.00")))
}

func TestMemoryAccountStore_CreateRejectsDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	now := time.Now()

	_, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "0", now))
	require.NoError(t, err)

	_, err = store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Bob Leroy", "0", now))
	assert.ErrorIs(t, err, ErrDuplicateAccountNumber)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryAccountStore_ConcurrentCreateSameNumber(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()

	var created, dup atomic.Int32
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "0", time.Now()))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrDuplicateAccountNumber):
				dup.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(19), dup.Load())
}

func TestMemoryAccountStore_ListFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	base := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, newTestAccount("FR0000000000000000000000003", "Claire Moreau", "5000.00", base.Add(2*time.Hour)))
	require.NoError(t, err)
	_, err = store.Create(ctx, newTestAccount("FR0000000000000000000000001", "Alice Dubois", "1500.00", base))
	require.NoError(t, err)
	bob, err := store.Create(ctx, newTestAccount("FR0000000000000000000000002", "Bob Leroy", "2750.50", base.Add(time.Hour)))
	require.NoError(t, err)

	_, err = store.Mutate(ctx, bob.ID, func(current model.Account) (model.Account, error) {
		current.IsActive = false
		return current, nil
	})
	require.NoError(t, err)

	all, err := store.List(ctx, model.AccountFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alice Dubois", all[0].AccountHolder)
	assert.Equal(t, "Bob Leroy", all[1].AccountHolder)
	assert.Equal(t, "Claire Moreau", all[2].AccountHolder)

	active, err := store.List(ctx, model.AccountFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	minBalance := decimal.RequireFromString("2000")
	rich, err := store.List(ctx, model.AccountFilter{MinBalance: &minBalance})
	require.NoError(t, err)
	assert.Len(t, rich, 2)

	holder, err := store.List(ctx, model.AccountFilter{AccountHolder: "Alice Dubois"})
	require.NoError(t, err)
	require.Len(t, holder, 1)
	assert.Equal(t, "FR0000000000000000000000001", holder[0].AccountNumber)
}

func TestMemoryAccountStore_MutateKeepsImmutableFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	now := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

	acc, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "100.00", now))
	require.NoError(t, err)

	updated, err := store.Mutate(ctx, acc.ID, func(current model.Account) (model.Account, error) {
		current.AccountNumber = "FR0000000000000000000000000"
		current.CreatedAt = now.Add(time.Hour)
		current.ID = uuid.New()
		return current.WithBalance(decimal.RequireFromString("50.00"), now.Add(time.Minute)), nil
	})
	require.NoError(t, err)
	assert.Equal(t, acc.ID, updated.ID)
	assert.Equal(t, acc.AccountNumber, updated.AccountNumber)
	assert.Equal(t, acc.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.Balance.Equal(decimal.RequireFromString("50.00")))
}

func TestMemoryAccountStore_MutateErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	acc, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "100.00", time.Now()))
	require.NoError(t, err)

	_, err = store.Mutate(ctx, uuid.New(), func(current model.Account) (model.Account, error) {
		return current, nil
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	boom := errors.New("boom")
	_, err = store.Mutate(ctx, acc.ID, func(current model.Account) (model.Account, error) {
		current.AccountHolder = "Changed"
		return current, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Mutate(ctx, acc.ID, func(current model.Account) (model.Account, error) {
		current.Balance = decimal.RequireFromString("-0.01")
		return current, nil
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	unchanged, err := store.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Dubois", unchanged.AccountHolder)
	assert.True(t, unchanged.Balance.Equal(decimal.RequireFromString("100.00")))
}

func TestMemoryAccountStore_ConcurrentMutateIsSerialized(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	acc, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "0", time.Now()))
	require.NoError(t, err)

	one := decimal.RequireFromString("1.00")
	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			_, err := store.Mutate(ctx, acc.ID, func(current model.Account) (model.Account, error) {
				return current.WithBalance(current.Balance.Add(one), time.Now()), nil
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	final, err := store.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, final.Balance.Equal(decimal.RequireFromString("100.00")), "got %s", final.Balance)
}

func TestMemoryAccountStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAccountStore()
	acc, err := store.Create(ctx, newTestAccount("FR7630001007941234567890185", "Alice Dubois", "0", time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, acc.ID))
	assert.ErrorIs(t, store.Delete(ctx, acc.ID), ErrAccountNotFound)

	_, err = store.GetByAccountNumber(ctx, acc.AccountNumber)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	// the number is free again
	_, err = store.Create(ctx, newTestAccount(acc.AccountNumber, "Bob Leroy", "0", time.Now()))
	assert.NoError(t, err)
}

func TestMemoryOperatorStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOperatorStore()

	jean, err := store.Create(ctx, model.Operator{Name: "Jean Dupont", Email: "jean.dupont@banking.com", IsActive: true})
	require.NoError(t, err)
	_, err = store.Create(ctx, model.Operator{Name: "Marie Curie", Email: "marie.curie@banking.com", IsActive: false})
	require.NoError(t, err)
	_, err = store.Create(ctx, model.Operator{Name: "Anne Jeanson", Email: "anne.jeanson@banking.com", IsActive: true})
	require.NoError(t, err)

	_, err = store.Create(ctx, model.Operator{Name: "Other", Email: "jean.dupont@banking.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	byEmail, err := store.GetByEmail(ctx, "jean.dupont@banking.com")
	require.NoError(t, err)
	assert.Equal(t, jean.ID, byEmail.ID)

	all, err := store.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Anne Jeanson", all[0].Name)

	active, err := store.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	found, err := store.SearchByName(ctx, "JEAN")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Anne Jeanson", found[0].Name)
	assert.Equal(t, "Jean Dupont", found[1].Name)
}

func TestMemoryOperatorStore_MutateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOperatorStore()

	jean, err := store.Create(ctx, model.Operator{Name: "Jean Dupont", Email: "jean@banking.com", IsActive: true})
	require.NoError(t, err)
	_, err = store.Create(ctx, model.Operator{Name: "Marie Curie", Email: "marie@banking.com", IsActive: true})
	require.NoError(t, err)

	_, err = store.Mutate(ctx, jean.ID, func(current model.Operator) (model.Operator, error) {
		current.Email = "marie@banking.com"
		return current, nil
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	updated, err := store.Mutate(ctx, jean.ID, func(current model.Operator) (model.Operator, error) {
		current.Email = "j.dupont@banking.com"
		return current, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "j.dupont@banking.com", updated.Email)

	taken, err := store.ExistsByEmail(ctx, "jean@banking.com")
	require.NoError(t, err)
	assert.False(t, taken)

	byEmail, err := store.GetByEmail(ctx, "j.dupont@banking.com")
	require.NoError(t, err)
	assert.Equal(t, jean.ID, byEmail.ID)
}

func TestMemoryStore_ConcurrentMutateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryOperatorStore()

	ids := make([]uuid.UUID, 10)
	for i := range ids {
		op, err := store.Create(ctx, model.Operator{Name: fmt.Sprintf("Operator %d", i), Email: fmt.Sprintf("op%d@banking.com", i)})
		require.NoError(t, err)
		ids[i] = op.ID
	}

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			for j := 0; j < 20; j++ {
				_, err := store.Mutate(ctx, id, func(current model.Operator) (model.Operator, error) {
					current.Email = fmt.Sprintf("op%d-%d@banking.com", i, j)
					return current, nil
				})
				if err != nil && !errors.Is(err, ErrOperatorNotFound) {
					return err
				}
			}
			return nil
		})
		g.Go(func() error {
			err := store.Delete(ctx, id)
			if err != nil && !errors.Is(err, ErrOperatorNotFound) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			_, err := store.List(ctx, false)
			return err
		})
	}
	require.NoError(t, g.Wait())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
	assert.Equal(t, "Jean", escapeLike("Jean"))
}

func TestPqCode(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pq.Error{Code: pgUniqueViolation})
	assert.Equal(t, pgUniqueViolation, pqCode(err))
	assert.Equal(t, "", pqCode(errors.New("plain")))
}
