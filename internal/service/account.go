package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-backoffice-api/internal/iban"
	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/notification"
	"banking-backoffice-api/internal/repository"
)

// generateAttempts bounds how many fresh numbers CreateAccount draws when a
// generated number is already taken
const generateAttempts = 5

// AccountService handles account business logic
type AccountService struct {
	store     repository.AccountStore
	generator *iban.Generator
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(store repository.AccountStore, generator *iban.Generator, notifier Notifier, logger *slog.Logger) *AccountService {
	if generator == nil {
		generator = iban.NewGenerator(nil)
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		store:     store,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateAccount creates a new account with optional initial balance. A
// supplied number that is taken fails; a generated one is redrawn.
func (s *AccountService) CreateAccount(ctx context.Context, req *model.CreateAccountRequest) (*model.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != nil {
		initialBalance = *req.InitialBalance
	}

	if req.AccountNumber != nil {
		return s.insert(ctx, *req.AccountNumber, req, initialBalance)
	}

	var lastErr error
	for attempt := 0; attempt < generateAttempts; attempt++ {
		number, err := s.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate account number: %w", err)
		}

		account, err := s.insert(ctx, number, req, initialBalance)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, repository.ErrDuplicateAccountNumber) {
			return nil, err
		}

		s.logger.Warn("generated account number already taken, retrying", "attempt", attempt+1)
		lastErr = err
	}

	return nil, lastErr
}

func (s *AccountService) insert(ctx context.Context, number string, req *model.CreateAccountRequest, balance decimal.Decimal) (*model.Account, error) {
	exists, err := s.store.ExistsByAccountNumber(ctx, number)
	if err != nil {
		return nil, storeError(err)
	}
	if exists {
		return nil, storeError(repository.ErrDuplicateAccountNumber)
	}

	account, err := s.store.Create(ctx, model.NewAccount(number, req.AccountHolder, balance, req.AccountType, s.now()))
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("account created",
		"account_id", account.ID,
		"account_number", account.AccountNumber,
		"account_type", account.AccountType,
	)
	s.notify(ctx, notification.AccountCreated, account, nil)

	return account, nil
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Debug("account fetched", "account_id", id)
	return account, nil
}

// GetAccountByNumber retrieves an account by its account number
func (s *AccountService) GetAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	account, err := s.store.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, storeError(err)
	}
	return account, nil
}

// ListAccounts returns the accounts matching filter
func (s *AccountService) ListAccounts(ctx context.Context, filter model.AccountFilter) ([]*model.Account, error) {
	if filter.AccountType != "" && !filter.AccountType.Valid() {
		return nil, &ServiceError{
			Code:    model.ErrCodeInvalidInput,
			Message: fmt.Sprintf("Unknown account type %q", filter.AccountType),
		}
	}

	accounts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Debug("accounts listed", "count", len(accounts))
	return accounts, nil
}

// UpdateAccount overwrites the holder, balance, type and, when given, the
// active flag of an account
func (s *AccountService) UpdateAccount(ctx context.Context, id uuid.UUID, req *model.UpdateAccountRequest) (*model.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	account, err := s.store.Mutate(ctx, id, func(current model.Account) (model.Account, error) {
		active := current.IsActive
		if req.IsActive != nil {
			active = *req.IsActive
		}
		return current.WithDetails(req.AccountHolder, req.Balance, req.AccountType, active, s.now()), nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("account updated", "account_id", account.ID)
	s.notify(ctx, notification.AccountUpdated, account, nil)

	return account, nil
}

// DeleteAccount permanently removes an account
func (s *AccountService) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.store.GetByID(ctx, id)
	if err != nil {
		return storeError(err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return storeError(err)
	}

	s.logger.Info("account deleted", "account_id", id)
	s.notify(ctx, notification.AccountDeleted, account, nil)

	return nil
}

// CheckAccountExists verifies if an account exists
func (s *AccountService) CheckAccountExists(ctx context.Context, id uuid.UUID) error {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil {
		return storeError(err)
	}

	if !exists {
		return storeError(repository.ErrAccountNotFound)
	}

	return nil
}

// Deposit credits amount to the account
func (s *AccountService) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	account, err := s.store.Mutate(ctx, id, func(current model.Account) (model.Account, error) {
		return current.WithBalance(current.Balance.Add(amount), s.now()), nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.logger.Info("deposit applied",
		"account_id", account.ID,
		"amount", amount.StringFixed(model.MoneyScale),
		"balance", account.Balance.StringFixed(model.MoneyScale),
	)
	s.notify(ctx, notification.AccountDeposit, account, &amount)

	return account, nil
}

// Withdraw debits amount from the account. The whole amount must be covered
// by the current balance; nothing is debited otherwise.
func (s *AccountService) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}

	account, err := s.store.Mutate(ctx, id, func(current model.Account) (model.Account, error) {
		if current.Balance.LessThan(amount) {
			return current, repository.ErrInsufficientFunds
		}
		return current.WithBalance(current.Balance.Sub(amount), s.now()), nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			s.logger.Info("withdrawal rejected", "account_id", id, "amount", amount.StringFixed(model.MoneyScale))
		}
		return nil, storeError(err)
	}

	s.logger.Info("withdrawal applied",
		"account_id", account.ID,
		"amount", amount.StringFixed(model.MoneyScale),
		"balance", account.Balance.StringFixed(model.MoneyScale),
	)
	s.notify(ctx, notification.AccountWithdrawal, account, &amount)

	return account, nil
}

// GenerateAccountNumber returns a fresh checksummed account number without
// reserving it
func (s *AccountService) GenerateAccountNumber() (string, error) {
	number, err := s.generator.Generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate account number: %w", err)
	}
	return number, nil
}

// ValidateAccountNumber reports whether number passes the mod-97 check
func (s *AccountService) ValidateAccountNumber(number string) bool {
	return iban.Validate(number)
}

// Count returns the number of stored accounts
func (s *AccountService) Count(ctx context.Context) (int, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ServiceError{
			Code:    model.ErrCodeInvalidAmount,
			Message: "Amount must be positive",
			Err:     repository.ErrInvalidAmount,
		}
	}
	if !model.IsCentPrecise(amount) {
		return &ServiceError{
			Code:    model.ErrCodeInvalidAmount,
			Message: "Amount cannot have more than 2 decimal places",
			Err:     repository.ErrInvalidAmount,
		}
	}
	return nil
}

func (s *AccountService) notify(ctx context.Context, typ notification.EventType, account *model.Account, amount *decimal.Decimal) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notifier panicked", "type", typ, "account_id", account.ID, "panic", r)
		}
	}()

	balance := account.Balance
	s.notifier.Notify(ctx, notification.Event{
		Type:          typ,
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Amount:        amount,
		Balance:       &balance,
		OccurredAt:    s.now(),
	})
}
