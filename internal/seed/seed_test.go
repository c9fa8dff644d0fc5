package seed

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banking-backoffice-api/internal/iban"
	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/repository"
	"banking-backoffice-api/internal/service"
)

func newServices() (*service.AccountService, *service.OperatorService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewAccountService(repository.NewMemoryAccountStore(), nil, nil, logger),
		service.NewOperatorService(repository.NewMemoryOperatorStore(), nil, logger)
}

func TestLoad_SeedsEmptyStores(t *testing.T) {
	ctx := context.Background()
	accountSvc, operatorSvc := newServices()
	loader := NewLoader(accountSvc, operatorSvc, nil)

	require.NoError(t, loader.Load(ctx))

	ops, err := operatorSvc.ListOperators(ctx, true)
	require.NoError(t, err)
	assert.Len(t, ops, 3)

	accs, err := accountSvc.ListAccounts(ctx, model.AccountFilter{})
	require.NoError(t, err)
	require.Len(t, accs, 6)
	for _, a := range accs {
		assert.True(t, iban.Validate(a.AccountNumber), a.AccountNumber)
	}

	savings, err := accountSvc.ListAccounts(ctx, model.AccountFilter{AccountType: model.AccountTypeSavings})
	require.NoError(t, err)
	assert.Len(t, savings, 2)
}

func TestLoad_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	accountSvc, operatorSvc := newServices()
	loader := NewLoader(accountSvc, operatorSvc, nil)

	require.NoError(t, loader.Load(ctx))
	require.NoError(t, loader.Load(ctx))

	count, err := accountSvc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	count, err = operatorSvc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLoad_SkipsNonEmptyCollection(t *testing.T) {
	ctx := context.Background()
	accountSvc, operatorSvc := newServices()

	_, err := operatorSvc.CreateOperator(ctx, &model.OperatorRequest{Name: "Existing Op", Email: "op@banking.com"})
	require.NoError(t, err)

	require.NoError(t, NewLoader(accountSvc, operatorSvc, nil).Load(ctx))

	count, err := operatorSvc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = accountSvc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}
