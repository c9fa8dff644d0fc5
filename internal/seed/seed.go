// Package seed loads demonstration data into empty stores.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"banking-backoffice-api/internal/model"
	"banking-backoffice-api/internal/service"
)

var operators = []model.OperatorRequest{
	{Name: "Jean Dupont", Email: "jean.dupont@banking.com", Phone: "+33 1 23 45 67 89"},
	{Name: "Marie Martin", Email: "marie.martin@banking.com", Phone: "+33 1 98 76 54 32"},
	{Name: "Pierre Durand", Email: "pierre.durand@banking.com", Phone: "+33 1 11 22 33 44"},
}

var accounts = []struct {
	holder      string
	balance     string
	accountType model.AccountType
}{
	{"Alice Dubois", "1500.00", model.AccountTypeChecking},
	{"Bob Leroy", "2750.50", model.AccountTypeSavings},
	{"Claire Moreau", "5000.00", model.AccountTypeBusiness},
	{"David Bernard", "850.25", model.AccountTypeChecking},
	{"Emma Petit", "12000.00", model.AccountTypeSavings},
	{"François Roux", "3200.75", model.AccountTypeBusiness},
}

// Loader creates the demonstration operators and accounts through the
// services, so account numbers are generated and checksummed
type Loader struct {
	accounts  *service.AccountService
	operators *service.OperatorService
	logger    *slog.Logger
}

func NewLoader(accounts *service.AccountService, operators *service.OperatorService, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{accounts: accounts, operators: operators, logger: logger}
}

// Load seeds each collection only when it is empty
func (l *Loader) Load(ctx context.Context) error {
	operatorCount, err := l.operators.Count(ctx)
	if err != nil {
		return fmt.Errorf("count operators: %w", err)
	}
	if operatorCount == 0 {
		if err := l.loadOperators(ctx); err != nil {
			return err
		}
	}

	accountCount, err := l.accounts.Count(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if accountCount == 0 {
		if err := l.loadAccounts(ctx); err != nil {
			return err
		}
	}

	l.logger.Info("seed data loaded", "operators_seeded", operatorCount == 0, "accounts_seeded", accountCount == 0)
	return nil
}

func (l *Loader) loadOperators(ctx context.Context) error {
	for _, op := range operators {
		req := op
		if _, err := l.operators.CreateOperator(ctx, &req); err != nil {
			return fmt.Errorf("seed operator %s: %w", op.Email, err)
		}
	}
	l.logger.Info("seed operators created", "count", len(operators))
	return nil
}

func (l *Loader) loadAccounts(ctx context.Context) error {
	for _, a := range accounts {
		balance := decimal.RequireFromString(a.balance)
		_, err := l.accounts.CreateAccount(ctx, &model.CreateAccountRequest{
			AccountHolder:  a.holder,
			InitialBalance: &balance,
			AccountType:    a.accountType,
		})
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.holder, err)
		}
	}
	l.logger.Info("seed accounts created", "count", len(accounts))
	return nil
}
