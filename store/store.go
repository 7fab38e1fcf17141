// Package store holds every marketplace entity in process memory.
// Each entity type gets its own repository with its own lock; there are
// no cross-repository transactions.
package store

import (
	"sync"
	"time"

	"farm2market/models"

	"github.com/google/uuid"
)

// Repo is a mutex-guarded map keyed by entity id. Reads may run
// concurrently; writes are exclusive per repository.
type Repo[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

func NewRepo[T any]() *Repo[T] {
	return &Repo[T]{items: make(map[string]T)}
}

func (r *Repo[T]) Insert(id string, v T) {
	r.mu.Lock()
	r.items[id] = v
	r.mu.Unlock()
}

func (r *Repo[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	v, ok := r.items[id]
	r.mu.RUnlock()
	return v, ok
}

func (r *Repo[T]) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	r.mu.Unlock()
	return ok
}

// Scan returns a snapshot of every entity matching keep. A nil keep
// matches everything.
func (r *Repo[T]) Scan(keep func(T) bool) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0)
	for _, v := range r.items {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// ScanIDs is Scan but also reports each match's repository key.
func (r *Repo[T]) ScanIDs(keep func(T) bool) map[string]T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]T)
	for id, v := range r.items {
		if keep == nil || keep(v) {
			out[id] = v
		}
	}
	return out
}

func (r *Repo[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Store aggregates one repository per entity type. NewID and Now are
// injectable for tests.
type Store struct {
	Users    *Repo[models.User]
	Crops    *Repo[models.Crop]
	Cart     *Repo[models.CartItem]
	Orders   *Repo[models.Order]
	Messages *Repo[models.Message]
	Ratings  *Repo[models.FarmerRating]
	Carbon   *Repo[models.CarbonRecord]

	NewID func() string
	Now   func() time.Time
}

func New() *Store {
	return &Store{
		Users:    NewRepo[models.User](),
		Crops:    NewRepo[models.Crop](),
		Cart:     NewRepo[models.CartItem](),
		Orders:   NewRepo[models.Order](),
		Messages: NewRepo[models.Message](),
		Ratings:  NewRepo[models.FarmerRating](),
		Carbon:   NewRepo[models.CarbonRecord](),

		NewID: uuid.NewString,
		Now:   time.Now,
	}
}
