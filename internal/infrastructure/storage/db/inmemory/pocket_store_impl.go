package inmemory

import (
	"context"
	"sync"

	"github.com/darkwallet/pockets/internal/core/domain"
)

// PocketStoreImpl represents an in memory storage
type PocketStoreImpl struct {
	slotsByKey map[string]domain.PocketSlots

	lock *sync.RWMutex
}

// NewPocketStoreImpl returns a new empty PocketStoreImpl
func NewPocketStoreImpl() *PocketStoreImpl {
	return &PocketStoreImpl{
		slotsByKey: map[string]domain.PocketSlots{},
		lock:       &sync.RWMutex{},
	}
}

// Init returns a copy of the slots stored under key, storing defaults first if
// the key is unset
func (r *PocketStoreImpl) Init(
	_ context.Context, key string, defaults domain.PocketSlots,
) (domain.PocketSlots, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	slots, ok := r.slotsByKey[key]
	if !ok {
		slots = defaults.Clone()
		if slots == nil {
			slots = domain.PocketSlots{}
		}
		r.slotsByKey[key] = slots
	}
	return slots.Clone(), nil
}

// Save stores a copy of the given slots under key
func (r *PocketStoreImpl) Save(
	_ context.Context, key string, slots domain.PocketSlots,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if slots == nil {
		slots = domain.PocketSlots{}
	}
	r.slotsByKey[key] = slots.Clone()
	return nil
}
