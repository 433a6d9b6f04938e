package dbbadger

import (
	"context"
	"errors"
	"sync"

	"github.com/darkwallet/pockets/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

// pocketsDocument is the value stored for a key: the whole slot sequence,
// tombstones included.
type pocketsDocument struct {
	Slots domain.PocketSlots `json:"slots"`
}

type pocketStoreImpl struct {
	store *badgerhold.Store

	lock *sync.Mutex
}

// NewPocketStoreImpl returns a PocketStore persisting slots with badgerhold
func NewPocketStoreImpl(db *DbManager) (domain.PocketStore, error) {
	if db == nil || db.Store == nil {
		return nil, ErrNullDbManager
	}
	return &pocketStoreImpl{
		store: db.Store,
		lock:  &sync.Mutex{},
	}, nil
}

func (p *pocketStoreImpl) Init(
	_ context.Context, key string, defaults domain.PocketSlots,
) (domain.PocketSlots, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	var doc pocketsDocument
	err := p.store.Get(key, &doc)
	if err == nil {
		if doc.Slots == nil {
			doc.Slots = domain.PocketSlots{}
		}
		return doc.Slots, nil
	}
	if !errors.Is(err, badgerhold.ErrNotFound) {
		return nil, err
	}

	doc.Slots = defaults.Clone()
	if doc.Slots == nil {
		doc.Slots = domain.PocketSlots{}
	}
	if err := p.store.Upsert(key, &doc); err != nil {
		return nil, err
	}
	return doc.Slots.Clone(), nil
}

func (p *pocketStoreImpl) Save(
	_ context.Context, key string, slots domain.PocketSlots,
) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if slots == nil {
		slots = domain.PocketSlots{}
	}
	return p.store.Upsert(key, &pocketsDocument{slots})
}
