package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"farmledger/internal/core"
	"farmledger/internal/storage"
)

// Store keeps the ledger in process memory. It honours the same owner
// filtering as the SQLite repository and is used for local runs and tests.
type Store struct {
	mu       sync.RWMutex
	expenses map[string]core.Expense // by expense id
	incomes  map[string]core.Income  // by owner id
	farms    map[string]core.Farm    // by farm id
	users    map[string]core.User    // by user id
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{
		expenses: make(map[string]core.Expense),
		incomes:  make(map[string]core.Income),
		farms:    make(map[string]core.Farm),
		users:    make(map[string]core.User),
	}
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.RLock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Expense) int {
		if c := b.Date.Compare(a.Date.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(ownerID, id)
}

func (s *Store) UpdateExpense(_ context.Context, ownerID, id string, fn func(core.Expense) (core.Expense, error)) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.lookup(ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	next, err := fn(current)
	if err != nil {
		return core.Expense{}, err
	}
	next.ID, next.OwnerID = current.ID, current.OwnerID
	s.expenses[id] = next
	return next, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(ownerID, id); err != nil {
		return err
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) GetIncome(_ context.Context, ownerID string) (core.Income, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incomes[ownerID]
	if !ok {
		return core.Income{OwnerID: ownerID}, false, nil
	}
	return inc, true, nil
}

func (s *Store) UpsertIncome(_ context.Context, inc core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes[inc.OwnerID] = inc
	return inc, nil
}

func (s *Store) CreateFarm(_ context.Context, f core.Farm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.farms[f.ID] = f
	return nil
}

func (s *Store) ListFarms(_ context.Context, ownerID string) ([]core.Farm, error) {
	s.mu.RLock()
	out := []core.Farm{}
	for _, f := range s.farms {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Farm) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) GetFarm(_ context.Context, ownerID, id string) (core.Farm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupFarm(ownerID, id)
}

func (s *Store) UpdateFarm(_ context.Context, ownerID, id string, fn func(core.Farm) (core.Farm, error)) (core.Farm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.lookupFarm(ownerID, id)
	if err != nil {
		return core.Farm{}, err
	}
	next, err := fn(current)
	if err != nil {
		return core.Farm{}, err
	}
	next.ID, next.OwnerID = current.ID, current.OwnerID
	s.farms[id] = next
	return next, nil
}

func (s *Store) DeleteFarm(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookupFarm(ownerID, id); err != nil {
		return err
	}
	delete(s.farms, id)
	for eid, e := range s.expenses {
		if e.OwnerID == ownerID && e.FarmID == id {
			e.FarmID = ""
			s.expenses[eid] = e
		}
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, u.ID) {
		return core.ErrEmailTaken
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrUserNotFound
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, id string, fn func(core.User) (core.User, error)) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	next, err := fn(current)
	if err != nil {
		return core.User{}, err
	}
	next.ID = current.ID
	if s.emailTaken(next.Email, id) {
		return core.User{}, core.ErrEmailTaken
	}
	s.users[id] = next
	return next, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return core.ErrUserNotFound
	}
	delete(s.users, id)
	delete(s.incomes, id)
	for eid, e := range s.expenses {
		if e.OwnerID == id {
			delete(s.expenses, eid)
		}
	}
	for fid, f := range s.farms {
		if f.OwnerID == id {
			delete(s.farms, fid)
		}
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// lookup must be called with the lock held.
func (s *Store) lookup(ownerID, id string) (core.Expense, error) {
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

// lookupFarm must be called with the lock held.
func (s *Store) lookupFarm(ownerID, id string) (core.Farm, error) {
	f, ok := s.farms[id]
	if !ok || f.OwnerID != ownerID {
		return core.Farm{}, core.ErrFarmNotFound
	}
	return f, nil
}

// emailTaken must be called with the lock held.
func (s *Store) emailTaken(email, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
