package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places balances and amounts are kept at
const MoneyScale = 2

// AccountType classifies an account
type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
	AccountTypeBusiness AccountType = "BUSINESS"
)

// Valid reports whether t is one of the known account types
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeBusiness:
		return true
	}
	return false
}

// DisplayName returns the label shown to back-office users
func (t AccountType) DisplayName() string {
	switch t {
	case AccountTypeChecking:
		return "Compte courant"
	case AccountTypeSavings:
		return "Compte épargne"
	case AccountTypeBusiness:
		return "Compte professionnel"
	}
	return string(t)
}

// Account represents a bank account
type Account struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	AccountNumber string          `json:"account_number" db:"account_number"`
	AccountHolder string          `json:"account_holder" db:"account_holder"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	AccountType   AccountType     `json:"account_type" db:"account_type"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	IsActive      bool            `json:"is_active" db:"is_active"`
}

// NewAccount builds an active account that has not been stored yet.
// An empty type defaults to CHECKING.
func NewAccount(number, holder string, balance decimal.Decimal, accountType AccountType, now time.Time) Account {
	if accountType == "" {
		accountType = AccountTypeChecking
	}
	return Account{
		AccountNumber: number,
		AccountHolder: holder,
		Balance:       balance,
		AccountType:   accountType,
		CreatedAt:     now,
		UpdatedAt:     now,
		IsActive:      true,
	}
}

// WithBalance returns a copy of a carrying the new balance
func (a Account) WithBalance(balance decimal.Decimal, now time.Time) Account {
	a.Balance = balance
	a.UpdatedAt = a.touch(now)
	return a
}

// WithDetails returns a copy of a with every mutable field overwritten
func (a Account) WithDetails(holder string, balance decimal.Decimal, accountType AccountType, active bool, now time.Time) Account {
	a.AccountHolder = holder
	a.Balance = balance
	a.AccountType = accountType
	a.IsActive = active
	a.UpdatedAt = a.touch(now)
	return a
}

// touch returns the next UpdatedAt value. It always moves forward, even when
// the clock reads the same instant twice. Postgres keeps microseconds.
func (a Account) touch(now time.Time) time.Time {
	if !now.After(a.UpdatedAt) {
		return a.UpdatedAt.Add(time.Microsecond)
	}
	return now
}

// IsCentPrecise reports whether d has no more than two decimal places
func IsCentPrecise(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// AccountFilter narrows an account listing. Zero values mean "no constraint".
type AccountFilter struct {
	ActiveOnly    bool
	AccountHolder string
	MinBalance    *decimal.Decimal
	AccountType   AccountType
}

// Matches reports whether a satisfies every constraint of f
func (f AccountFilter) Matches(a *Account) bool {
	if f.ActiveOnly && !a.IsActive {
		return false
	}
	if f.AccountHolder != "" && a.AccountHolder != f.AccountHolder {
		return false
	}
	if f.MinBalance != nil && a.Balance.LessThan(*f.MinBalance) {
		return false
	}
	if f.AccountType != "" && a.AccountType != f.AccountType {
		return false
	}
	return true
}

// CreateAccountRequest represents the request to create a new account.
// AccountNumber is optional; one is generated when it is omitted.
type CreateAccountRequest struct {
	AccountNumber  *string          `json:"account_number,omitempty" validate:"omitempty,min=10,max=34,alphanum"`
	AccountHolder  string           `json:"account_holder" validate:"required,min=2,max=100"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
	AccountType    AccountType      `json:"account_type,omitempty" validate:"omitempty,oneof=CHECKING SAVINGS BUSINESS"`
}

// UpdateAccountRequest overwrites the mutable fields of an account.
// A nil IsActive keeps the current flag.
type UpdateAccountRequest struct {
	AccountHolder string          `json:"account_holder" validate:"required,min=2,max=100"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   AccountType     `json:"account_type" validate:"required,oneof=CHECKING SAVINGS BUSINESS"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

// AmountRequest is the body of deposit and withdraw calls
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AccountNumberResponse carries a generated or checked account number
type AccountNumberResponse struct {
	AccountNumber string `json:"account_number"`
	Valid         bool   `json:"valid"`
}

// Validate validates the create account request
func (r *CreateAccountRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.InitialBalance != nil {
		if r.InitialBalance.IsNegative() {
			return &ValidationError{
				Field:   "initial_balance",
				Message: "initial balance cannot be negative",
			}
		}
		if !IsCentPrecise(*r.InitialBalance) {
			return &ValidationError{
				Field:   "initial_balance",
				Message: "initial balance cannot have more than 2 decimal places",
			}
		}
	}
	return nil
}

// Validate validates the update account request
func (r *UpdateAccountRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Balance.IsNegative() {
		return &ValidationError{
			Field:   "balance",
			Message: "balance cannot be negative",
		}
	}
	if !IsCentPrecise(r.Balance) {
		return &ValidationError{
			Field:   "balance",
			Message: "balance cannot have more than 2 decimal places",
		}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}
