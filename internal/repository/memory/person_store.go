// Package memory is an in-process repository.PersonRepository.
// It enforces email uniqueness under its lock the way a unique index would.
package memory

import (
	"context"
	"sort"
	"sync"

	"personapi/internal/model"
	"personapi/internal/repository"
)

// PersonStore keeps persons in a map guarded by a RWMutex. Records are copied
// on the way in and out so callers never share memory with the store.
type PersonStore struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]model.Person
	byEmail map[string]int64
}

func NewPersonStore() *PersonStore {
	return &PersonStore{
		byID:    make(map[int64]model.Person),
		byEmail: make(map[string]int64),
	}
}

var _ repository.PersonRepository = (*PersonStore)(nil)

func (s *PersonStore) Insert(ctx context.Context, p *model.Person) (*model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[p.Email]; taken {
		return nil, repository.ErrDuplicateEmail
	}
	s.nextID++
	stored := clone(*p)
	stored.ID = s.nextID
	s.byID[stored.ID] = stored
	s.byEmail[stored.Email] = stored.ID

	out := clone(stored)
	return &out, nil
}

func (s *PersonStore) FindByID(ctx context.Context, id int64) (*model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(p)
	return &out, nil
}

func (s *PersonStore) FindByEmail(ctx context.Context, email string, excludeID int64) (*model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok || id == excludeID {
		return nil, repository.ErrNotFound
	}
	out := clone(s.byID[id])
	return &out, nil
}

func (s *PersonStore) FindAllByName(ctx context.Context, name string) ([]model.Person, error) {
	return s.filter(ctx, func(p model.Person) bool { return p.Name == name })
}

func (s *PersonStore) ListAll(ctx context.Context) ([]model.Person, error) {
	return s.filter(ctx, func(model.Person) bool { return true })
}

func (s *PersonStore) Update(ctx context.Context, id int64, p *model.Person) (*model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if holder, taken := s.byEmail[p.Email]; taken && holder != id {
		return nil, repository.ErrDuplicateEmail
	}

	next := clone(*p)
	next.ID = id
	next.CreatedAt = cur.CreatedAt
	delete(s.byEmail, cur.Email)
	s.byEmail[next.Email] = id
	s.byID[id] = next

	out := clone(next)
	return &out, nil
}

func (s *PersonStore) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	delete(s.byID, id)
	delete(s.byEmail, p.Email)
	return true, nil
}

func (s *PersonStore) filter(ctx context.Context, keep func(model.Person) bool) ([]model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	items := make([]model.Person, 0, len(s.byID))
	for _, p := range s.byID {
		if keep(p) {
			items = append(items, clone(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// clone deep-copies the pointer fields.
func clone(p model.Person) model.Person {
	if p.Phone != nil {
		v := *p.Phone
		p.Phone = &v
	}
	if p.UpdatedAt != nil {
		v := *p.UpdatedAt
		p.UpdatedAt = &v
	}
	return p
}
