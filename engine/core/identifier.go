package core

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry hands out unique handles for owned objects. The zero UUID is
// never issued, so it can be used as a "none" sentinel by callers.
type Registry[T any] struct {
	mutex  sync.RWMutex
	owners map[uuid.UUID]T
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		owners: make(map[uuid.UUID]T),
	}
}

func (r *Registry[T]) Acquire(owner T) uuid.UUID {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	id := uuid.New()
	for id == uuid.Nil {
		id = uuid.New()
	}
	r.owners[id] = owner
	return id
}

func (r *Registry[T]) Get(id uuid.UUID) (T, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	owner, ok := r.owners[id]
	return owner, ok
}

// Set replaces the owner of an existing handle.
func (r *Registry[T]) Set(id uuid.UUID, owner T) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.owners[id]; !ok {
		return fmt.Errorf("registry: id '%s' is not registered: %w", id, ErrUnknownHandle)
	}
	r.owners[id] = owner
	return nil
}

func (r *Registry[T]) Release(id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.owners[id]; !ok {
		return fmt.Errorf("registry: release of unknown id '%s'. Nothing was done", id)
	}
	delete(r.owners, id)
	return nil
}

func (r *Registry[T]) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.owners)
}

// Each calls fn for every registered handle. fn must not modify the registry.
func (r *Registry[T]) Each(fn func(id uuid.UUID, owner T)) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for id, owner := range r.owners {
		fn(id, owner)
	}
}
