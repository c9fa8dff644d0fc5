package repository

import (
	"context"

	"github.com/google/uuid"

	"banking-backoffice-api/internal/model"
)

// AccountMutation receives the current state of an account and returns the
// state to persist. Returning an error aborts the mutation with nothing written.
type AccountMutation func(current model.Account) (model.Account, error)

// OperatorMutation is the operator counterpart of AccountMutation
type OperatorMutation func(current model.Operator) (model.Operator, error)

// AccountStore is the durable record store behind the account service.
// Mutate is an atomic read-modify-write: while fn runs no other writer can
// commit a change to the same account.
type AccountStore interface {
	Create(ctx context.Context, account model.Account) (*model.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error)
	List(ctx context.Context, filter model.AccountFilter) ([]*model.Account, error)
	Mutate(ctx context.Context, id uuid.UUID, fn AccountMutation) (*model.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}

// OperatorStore is the durable record store behind the operator service
type OperatorStore interface {
	Create(ctx context.Context, operator model.Operator) (*model.Operator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	GetByEmail(ctx context.Context, email string) (*model.Operator, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Operator, error)
	SearchByName(ctx context.Context, name string) ([]*model.Operator, error)
	Mutate(ctx context.Context, id uuid.UUID, fn OperatorMutation) (*model.Operator, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
}
