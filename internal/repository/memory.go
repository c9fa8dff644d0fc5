package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"banking-backoffice-api/internal/model"
)

// entry guards one record. Holding mu serializes mutators of that record
// only; readers go through the table lock.
type entry[T any] struct {
	mu      sync.Mutex
	value   T
	deleted bool
}

// table is an in-memory keyed collection with one unique secondary index.
// Lock order is always entry.mu before table.mu.
type table[T any] struct {
	mu      sync.RWMutex
	rows    map[uuid.UUID]*entry[T]
	unique  map[string]uuid.UUID
	key     func(T) string
	dup     error
	missing error
}

func newTable[T any](key func(T) string, dup, missing error) *table[T] {
	return &table[T]{
		rows:    make(map[uuid.UUID]*entry[T]),
		unique:  make(map[string]uuid.UUID),
		key:     key,
		dup:     dup,
		missing: missing,
	}
}

func (t *table[T]) insert(id uuid.UUID, v T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := t.key(v)
	if _, taken := t.unique[k]; taken {
		return t.dup
	}
	t.rows[id] = &entry[T]{value: v}
	t.unique[k] = id
	return nil
}

func (t *table[T]) get(id uuid.UUID) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, t.missing
	}
	return e.value, nil
}

func (t *table[T]) lookup(k string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.unique[k]
	if !ok {
		var zero T
		return zero, t.missing
	}
	return t.rows[id].value, nil
}

func (t *table[T]) has(id uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) hasKey(k string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.unique[k]
	return ok
}

func (t *table[T]) snapshot(keep func(*T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.rows))
	for _, e := range t.rows {
		v := e.value
		if keep == nil || keep(&v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[T]) count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// mutate holds the record lock while fn runs, then publishes the result and
// re-indexes it under the table lock. fix restores fields fn may not change.
func (t *table[T]) mutate(id uuid.UUID, fn func(T) (T, error), fix func(current, next T) T) (T, error) {
	var zero T

	t.mu.RLock()
	e, ok := t.rows[id]
	t.mu.RUnlock()
	if !ok {
		return zero, t.missing
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return zero, t.missing
	}

	current := e.value
	next, err := fn(current)
	if err != nil {
		return zero, err
	}
	next = fix(current, next)

	t.mu.Lock()
	defer t.mu.Unlock()

	oldKey, newKey := t.key(current), t.key(next)
	if oldKey != newKey {
		if _, taken := t.unique[newKey]; taken {
			return zero, t.dup
		}
		delete(t.unique, oldKey)
		t.unique[newKey] = id
	}
	e.value = next
	return next, nil
}

func (t *table[T]) remove(id uuid.UUID) error {
	t.mu.RLock()
	e, ok := t.rows[id]
	t.mu.RUnlock()
	if !ok {
		return t.missing
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return t.missing
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	e.deleted = true
	delete(t.unique, t.key(e.value))
	delete(t.rows, id)
	return nil
}

// MemoryAccountStore keeps accounts in process memory. It enforces the same
// constraints as the accounts table.
type MemoryAccountStore struct {
	t *table[model.Account]
}

var _ AccountStore = (*MemoryAccountStore)(nil)

// NewMemoryAccountStore creates an empty in-memory account store
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		t: newTable(func(a model.Account) string { return a.AccountNumber },
			ErrDuplicateAccountNumber, ErrAccountNotFound),
	}
}

func (s *MemoryAccountStore) Create(_ context.Context, account model.Account) (*model.Account, error) {
	if account.Balance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	account.ID = uuid.New()
	if err := s.t.insert(account.ID, account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *MemoryAccountStore) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.t.get(id)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *MemoryAccountStore) GetByAccountNumber(_ context.Context, accountNumber string) (*model.Account, error) {
	account, err := s.t.lookup(accountNumber)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *MemoryAccountStore) ExistsByID(_ context.Context, id uuid.UUID) (bool, error) {
	return s.t.has(id), nil
}

func (s *MemoryAccountStore) ExistsByAccountNumber(_ context.Context, accountNumber string) (bool, error) {
	return s.t.hasKey(accountNumber), nil
}

func (s *MemoryAccountStore) List(_ context.Context, filter model.AccountFilter) ([]*model.Account, error) {
	rows := s.t.snapshot(filter.Matches)
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].AccountNumber < rows[j].AccountNumber
	})

	accounts := make([]*model.Account, len(rows))
	for i := range rows {
		accounts[i] = &rows[i]
	}
	return accounts, nil
}

func (s *MemoryAccountStore) Mutate(_ context.Context, id uuid.UUID, fn AccountMutation) (*model.Account, error) {
	guarded := func(current model.Account) (model.Account, error) {
		next, err := fn(current)
		if err != nil {
			return next, err
		}
		if next.Balance.IsNegative() {
			return next, ErrInsufficientFunds
		}
		return next, nil
	}
	account, err := s.t.mutate(id, guarded, func(current, next model.Account) model.Account {
		next.ID = current.ID
		next.AccountNumber = current.AccountNumber
		next.CreatedAt = current.CreatedAt
		return next
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *MemoryAccountStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.t.remove(id)
}

func (s *MemoryAccountStore) Count(_ context.Context) (int, error) {
	return s.t.count(), nil
}

// MemoryOperatorStore keeps operators in process memory, unique by email
type MemoryOperatorStore struct {
	t *table[model.Operator]
}

var _ OperatorStore = (*MemoryOperatorStore)(nil)

// NewMemoryOperatorStore creates an empty in-memory operator store
func NewMemoryOperatorStore() *MemoryOperatorStore {
	return &MemoryOperatorStore{
		t: newTable(func(o model.Operator) string { return o.Email },
			ErrDuplicateEmail, ErrOperatorNotFound),
	}
}

func (s *MemoryOperatorStore) Create(_ context.Context, operator model.Operator) (*model.Operator, error) {
	operator.ID = uuid.New()
	if err := s.t.insert(operator.ID, operator); err != nil {
		return nil, err
	}
	return &operator, nil
}

func (s *MemoryOperatorStore) GetByID(_ context.Context, id uuid.UUID) (*model.Operator, error) {
	operator, err := s.t.get(id)
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

func (s *MemoryOperatorStore) GetByEmail(_ context.Context, email string) (*model.Operator, error) {
	operator, err := s.t.lookup(email)
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

func (s *MemoryOperatorStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return s.t.hasKey(email), nil
}

func (s *MemoryOperatorStore) List(_ context.Context, activeOnly bool) ([]*model.Operator, error) {
	var keep func(*model.Operator) bool
	if activeOnly {
		keep = func(o *model.Operator) bool { return o.IsActive }
	}
	return sortOperators(s.t.snapshot(keep)), nil
}

func (s *MemoryOperatorStore) SearchByName(_ context.Context, name string) ([]*model.Operator, error) {
	needle := strings.ToLower(name)
	return sortOperators(s.t.snapshot(func(o *model.Operator) bool {
		return strings.Contains(strings.ToLower(o.Name), needle)
	})), nil
}

func (s *MemoryOperatorStore) Mutate(_ context.Context, id uuid.UUID, fn OperatorMutation) (*model.Operator, error) {
	operator, err := s.t.mutate(id, fn, func(current, next model.Operator) model.Operator {
		next.ID = current.ID
		return next
	})
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

func (s *MemoryOperatorStore) Delete(_ context.Context, id uuid.UUID) error {
	return s.t.remove(id)
}

func (s *MemoryOperatorStore) Count(_ context.Context) (int, error) {
	return s.t.count(), nil
}

func sortOperators(rows []model.Operator) []*model.Operator {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Name != rows[j].Name {
			return rows[i].Name < rows[j].Name
		}
		return rows[i].Email < rows[j].Email
	})

	operators := make([]*model.Operator, len(rows))
	for i := range rows {
		operators[i] = &rows[i]
	}
	return operators
}
