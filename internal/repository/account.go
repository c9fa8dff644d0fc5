package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"banking-backoffice-api/internal/model"
)

const accountColumns = `id, account_number, account_holder, balance, account_type, created_at, updated_at, is_active`

// AccountRepository handles account-related database operations
type AccountRepository struct {
	db *sql.DB
}

var _ AccountStore = (*AccountRepository)(nil)

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.AccountHolder,
		&account.Balance,
		&account.AccountType,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Create inserts a new account. The unique index on account_number makes the
// duplicate check and the insert a single atomic step.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) (*model.Account, error) {
	query := `
		INSERT INTO accounts (account_number, account_holder, balance, account_type, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + accountColumns

	created, err := scanAccount(r.db.QueryRowContext(ctx, query,
		account.AccountNumber,
		account.AccountHolder,
		account.Balance,
		account.AccountType,
		account.CreatedAt,
		account.UpdatedAt,
		account.IsActive,
	))
	if err != nil {
		switch pqCode(err) {
		case pgUniqueViolation:
			return nil, ErrDuplicateAccountNumber
		case pgCheckViolation:
			return nil, ErrInvalidAmount
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// GetByAccountNumber retrieves an account by its account number
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return account, nil
}

// ExistsByID checks if an account exists
func (r *AccountRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM accounts WHERE id = $1 LIMIT 1`, id)
}

// ExistsByAccountNumber checks if an account number is already taken
func (r *AccountRepository) ExistsByAccountNumber(ctx context.Context, accountNumber string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM accounts WHERE account_number = $1 LIMIT 1`, accountNumber)
}

func (r *AccountRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}

	return true, nil
}

// List returns the accounts matching filter, oldest first
func (r *AccountRepository) List(ctx context.Context, filter model.AccountFilter) ([]*model.Account, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if filter.AccountHolder != "" {
		add("account_holder = $%d", filter.AccountHolder)
	}
	if filter.MinBalance != nil {
		add("balance >= $%d", *filter.MinBalance)
	}
	if filter.AccountType != "" {
		add("account_type = $%d", filter.AccountType)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, account_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*model.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// Mutate locks the account row for the duration of fn and writes back the
// mutable fields it returns. Concurrent mutations of the same account queue
// on the row lock; other accounts are unaffected.
func (r *AccountRepository) Mutate(ctx context.Context, id uuid.UUID, fn AccountMutation) (*model.Account, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if tx.Commit() succeeds

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	current, err := scanAccount(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account for update: %w", err)
	}

	next, err := fn(*current)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.AccountNumber = current.AccountNumber
	next.CreatedAt = current.CreatedAt

	update := `
		UPDATE accounts
		SET account_holder = $1, balance = $2, account_type = $3, updated_at = $4, is_active = $5
		WHERE id = $6
	`
	if _, err := tx.ExecContext(ctx, update,
		next.AccountHolder,
		next.Balance,
		next.AccountType,
		next.UpdatedAt,
		next.IsActive,
		next.ID,
	); err != nil {
		if pqCode(err) == pgCheckViolation {
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit account update: %w", err)
	}

	return &next, nil
}

// Delete permanently removes an account
func (r *AccountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Count returns the number of stored accounts
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}
