package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"

	"github.com/darkwallet/pockets/internal/core/domain"
	"github.com/darkwallet/pockets/pkg/stats"
)

// PocketService is the registry of the wallet's pockets. It owns the pocket
// types, the in-memory pockets keyed by kind and id, and the persisted HD
// pocket records.
type PocketService interface {
	RegisterType(pt domain.PocketType) error
	Initialize(ctx context.Context) (domain.PocketSlots, error)
	CreatePocket(ctx context.Context, name string) (domain.Pocket, error)
	RenamePocket(ctx context.Context, id domain.PocketID, name string) error
	InitPocketWallet(
		ctx context.Context,
		kind domain.PocketKind,
		id domain.PocketID,
		record *domain.PocketRecord,
	) (domain.Pocket, error)
	Search(kind domain.PocketKind, query domain.SearchQuery) (domain.Pocket, bool)
	GetPocket(
		id domain.PocketID, addressType domain.AddressType,
	) (domain.Pocket, error)
	DeletePocket(ctx context.Context, kind domain.PocketKind, id domain.PocketID) error
	GetAddressPocketID(addr domain.Address) (domain.PocketID, error)
	GetPockets(
		addressType domain.AddressType,
	) (map[domain.PocketID]domain.Pocket, error)
	ListPockets(kind domain.PocketKind) []domain.Pocket
	AddToPocket(ctx context.Context, addr domain.Address) error
	GetAddresses(kind domain.PocketKind, id domain.PocketID) ([]string, error)
	GetChangeAddresses(kind domain.PocketKind, id domain.PocketID) ([]string, error)
	GetAllAddresses(kind domain.PocketKind, id domain.PocketID) ([]string, error)
	GetPocketWallet(kind domain.PocketKind, id domain.PocketID) (domain.Pocket, error)
	Slots() domain.PocketSlots
}

// PocketServiceOpts ...
type PocketServiceOpts struct {
	Store  domain.PocketStore
	Wallet domain.Wallet
	// Network is used to validate imported addresses. Defaults to mainnet.
	Network *chaincfg.Params
	// StoreKey defaults to domain.PocketsStoreKey.
	StoreKey string
	// DefaultNames are the HD pockets seeded into an empty store. Defaults to
	// domain.DefaultPocketNames.
	DefaultNames []string
}

func (o PocketServiceOpts) validate() error {
	if o.Store == nil {
		return ErrNullPocketStore
	}
	return nil
}

type pocketService struct {
	store        domain.PocketStore
	storeKey     string
	defaultNames []string
	pctx         domain.PocketContext

	lock         sync.RWMutex
	pocketTypes  map[domain.PocketKind]domain.PocketType
	addressTypes map[domain.AddressType]domain.PocketType
	pockets      map[domain.PocketKind]map[domain.PocketID]domain.Pocket
	slots        domain.PocketSlots
	initialized  bool
}

// NewPocketService returns a registry with every known pocket type
// registered. Persisted pockets are loaded with Initialize.
func NewPocketService(opts PocketServiceOpts) (PocketService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	storeKey := opts.StoreKey
	if storeKey == "" {
		storeKey = domain.PocketsStoreKey
	}
	defaultNames := opts.DefaultNames
	if defaultNames == nil {
		defaultNames = domain.DefaultPocketNames
	}

	svc := &pocketService{
		store:        opts.Store,
		storeKey:     storeKey,
		defaultNames: defaultNames,
		pctx:         domain.NewPocketContext(opts.Wallet, opts.Network),
		pocketTypes:  map[domain.PocketKind]domain.PocketType{},
		addressTypes: map[domain.AddressType]domain.PocketType{},
		pockets:      map[domain.PocketKind]map[domain.PocketID]domain.Pocket{},
	}
	for _, pt := range domain.PocketTypes() {
		if err := svc.RegisterType(pt); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// RegisterType adds a pocket type to the registry. An address type can be
// claimed by one kind only.
func (s *pocketService) RegisterType(pt domain.PocketType) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	kind := pt.Kind()
	if _, ok := s.pocketTypes[kind]; ok {
		return fmt.Errorf("%w: %s", domain.ErrPocketKindAlreadyRegistered, kind)
	}
	for _, addrType := range pt.AddressTypes() {
		if owner, ok := s.addressTypes[addrType]; ok {
			return fmt.Errorf(
				"%w: %s owned by %s", domain.ErrAddressTypeAlreadyClaimed,
				addrType, owner.Kind(),
			)
		}
	}

	s.pocketTypes[kind] = pt
	for _, addrType := range pt.AddressTypes() {
		s.addressTypes[addrType] = pt
	}
	if _, ok := s.pockets[kind]; !ok {
		s.pockets[kind] = map[domain.PocketID]domain.Pocket{}
	}
	return nil
}

// Initialize loads the HD pocket records from the store and instantiates a
// pocket for each live one. Multisig and read-only pockets are created lazily.
// The returned slots are a copy of the loaded ones.
func (s *pocketService) Initialize(ctx context.Context) (slots domain.PocketSlots, err error) {
	defer func() { stats.ObserveOperation("initialize", err) }()

	s.lock.Lock()
	defer s.lock.Unlock()

	loaded, err := s.store.Init(
		ctx, s.storeKey, domain.NewPocketSlots(s.defaultNames...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load pockets: %w", err)
	}

	s.slots = loaded.Clone()
	s.pockets[domain.PocketKindHD] = map[domain.PocketID]domain.Pocket{}
	s.slots.Live(func(index int, record domain.PocketRecord) {
		s.initPocketWallet(ctx, domain.PocketKindHD, domain.HDPocketID(index), &record)
	})
	s.initialized = true

	log.WithFields(log.Fields{
		"slots":  len(s.slots),
		"loaded": len(s.pockets[domain.PocketKindHD]),
	}).Debug("pockets initialized")

	return s.slots.Clone(), nil
}

// CreatePocket adds a new HD pocket with the given name at the end of the
// slots and persists them before returning.
func (s *pocketService) CreatePocket(
	ctx context.Context, name string,
) (pocket domain.Pocket, err error) {
	defer func() { stats.ObserveOperation("create", err) }()

	if strings.TrimSpace(name) == "" {
		return nil, domain.ErrInvalidPocketName
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.initialized {
		return nil, ErrRegistryNotInitialized
	}
	if s.slots.IndexOfName(name) >= 0 {
		return nil, domain.ErrPocketNameAlreadyExists
	}

	slots := s.slots.Clone()
	record := domain.PocketRecord{Name: name}
	index := slots.Append(record)
	if err := s.store.Save(ctx, s.storeKey, slots); err != nil {
		return nil, fmt.Errorf("failed to save pockets: %w", err)
	}
	s.slots = slots

	return s.initPocketWallet(ctx, domain.PocketKindHD, domain.HDPocketID(index), &record), nil
}

// RenamePocket changes the name of a live HD pocket, with the same uniqueness
// rule of CreatePocket.
func (s *pocketService) RenamePocket(
	ctx context.Context, id domain.PocketID, name string,
) (err error) {
	defer func() { stats.ObserveOperation("rename", err) }()

	if strings.TrimSpace(name) == "" {
		return domain.ErrInvalidPocketName
	}
	index, err := id.HDIndex()
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.initialized {
		return ErrRegistryNotInitialized
	}
	current, ok := s.slots.Get(index)
	if !ok {
		return domain.ErrPocketNotFound
	}
	if current.Name == name {
		return nil
	}
	if s.slots.IndexOfName(name) >= 0 {
		return domain.ErrPocketNameAlreadyExists
	}

	slots := s.slots.Clone()
	if err := slots.Set(index, domain.PocketRecord{Name: name}); err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.storeKey, slots); err != nil {
		return fmt.Errorf("failed to save pockets: %w", err)
	}
	s.slots = slots

	if pocket, ok := s.pockets[domain.PocketKindHD][id].(*domain.HDPocket); ok {
		pocket.Rename(name)
	}
	return nil
}

// InitPocketWallet instantiates and caches the pocket of the given kind and
// id. Multisig pockets whose fund is unknown to the wallet get a placeholder
// fund. Nothing is created for unregistered kinds.
func (s *pocketService) InitPocketWallet(
	ctx context.Context,
	kind domain.PocketKind,
	id domain.PocketID,
	record *domain.PocketRecord,
) (domain.Pocket, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.initPocketWallet(ctx, kind, id, record), nil
}

// Search returns the first pocket of the given kind, in id order, matching
// the query.
func (s *pocketService) Search(
	kind domain.PocketKind, query domain.SearchQuery,
) (domain.Pocket, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	for _, pocket := range sortPockets(s.pockets[kind]) {
		if value, ok := pocket.Attribute(query.Field); ok && value == query.Value {
			return pocket, true
		}
	}
	return nil, false
}

func (s *pocketService) GetPocket(
	id domain.PocketID, addressType domain.AddressType,
) (domain.Pocket, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	pt, err := s.pocketTypeOf(addressType)
	if err != nil {
		return nil, err
	}
	return s.getPocket(pt.Kind(), id)
}

// DeletePocket drops the pocket from memory. Multisig and read-only pockets
// have no persisted record, so deleting them never writes to the store.
// For HD pockets, the slot of the record with the pocket's name is also
// tombstoned and persisted; if no such record exists, memory and store have
// diverged and ErrPocketNotFound is returned.
func (s *pocketService) DeletePocket(
	ctx context.Context, kind domain.PocketKind, id domain.PocketID,
) (err error) {
	defer func() { stats.ObserveOperation("delete", err) }()

	s.lock.Lock()
	defer s.lock.Unlock()

	cache := s.pockets[kind]
	pocket, ok := cache[id]

	if kind != domain.PocketKindHD {
		if ok {
			delete(cache, id)
			s.updateLoadedGauge(kind)
		}
		return nil
	}

	if !s.initialized {
		return ErrRegistryNotInitialized
	}
	if !ok {
		return domain.ErrPocketNotFound
	}

	index := s.slots.IndexOfName(pocket.Name())
	if index < 0 {
		delete(cache, id)
		s.updateLoadedGauge(kind)
		log.WithFields(log.Fields{
			"id":   id,
			"name": pocket.Name(),
		}).Warn("no persisted record found for deleted pocket")
		return domain.ErrPocketNotFound
	}
	if id != domain.HDPocketID(index) {
		log.WithFields(log.Fields{
			"id":    id,
			"index": index,
		}).Warn("deleted pocket and its record have different indexes")
	}

	slots := s.slots.Clone()
	slots.Tombstone(index)
	if err := s.store.Save(ctx, s.storeKey, slots); err != nil {
		return fmt.Errorf("failed to save pockets: %w", err)
	}
	s.slots = slots

	delete(cache, id)
	s.updateLoadedGauge(kind)
	return nil
}

// GetAddressPocketID returns the id of the pocket the address belongs to.
func (s *pocketService) GetAddressPocketID(
	addr domain.Address,
) (domain.PocketID, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	pt, err := s.pocketTypeOf(addr.Type)
	if err != nil {
		return "", err
	}
	return pt.PocketID(addr)
}

// GetPockets returns a copy of the pockets of the kind owning the address
// type.
func (s *pocketService) GetPockets(
	addressType domain.AddressType,
) (map[domain.PocketID]domain.Pocket, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	pt, err := s.pocketTypeOf(addressType)
	if err != nil {
		return nil, err
	}

	cache := s.pockets[pt.Kind()]
	pockets := make(map[domain.PocketID]domain.Pocket, len(cache))
	for id, pocket := range cache {
		pockets[id] = pocket
	}
	return pockets, nil
}

// ListPockets returns the pockets of the given kind sorted by id.
func (s *pocketService) ListPockets(kind domain.PocketKind) []domain.Pocket {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return sortPockets(s.pockets[kind])
}

// AddToPocket assigns the address to its pocket. If the pocket doesn't exist
// yet, it's created only for kinds that allow it.
func (s *pocketService) AddToPocket(
	ctx context.Context, addr domain.Address,
) (err error) {
	defer func() { stats.ObserveOperation("add_address", err) }()

	s.lock.Lock()
	defer s.lock.Unlock()

	pt, err := s.pocketTypeOf(addr.Type)
	if err != nil {
		return err
	}
	id, err := pt.PocketID(addr)
	if err != nil {
		return err
	}

	pocket, ok := s.pockets[pt.Kind()][id]
	if !ok && pt.AutoCreate() {
		pocket = s.initPocketWallet(ctx, pt.Kind(), id, nil)
	}
	if pocket == nil {
		return domain.ErrPocketNotFound
	}

	return pocket.AddToPocket(addr)
}

func (s *pocketService) GetAddresses(
	kind domain.PocketKind, id domain.PocketID,
) ([]string, error) {
	pocket, err := s.GetPocketWallet(kind, id)
	if err != nil {
		return nil, err
	}
	return pocket.Addresses(), nil
}

func (s *pocketService) GetChangeAddresses(
	kind domain.PocketKind, id domain.PocketID,
) ([]string, error) {
	pocket, err := s.GetPocketWallet(kind, id)
	if err != nil {
		return nil, err
	}
	return pocket.ChangeAddresses(), nil
}

func (s *pocketService) GetAllAddresses(
	kind domain.PocketKind, id domain.PocketID,
) ([]string, error) {
	pocket, err := s.GetPocketWallet(kind, id)
	if err != nil {
		return nil, err
	}
	return pocket.AllAddresses(), nil
}

// GetPocketWallet returns the pocket with the given kind and id.
func (s *pocketService) GetPocketWallet(
	kind domain.PocketKind, id domain.PocketID,
) (domain.Pocket, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.getPocket(kind, id)
}

// Slots returns a copy of the persisted HD pocket records.
func (s *pocketService) Slots() domain.PocketSlots {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.slots.Clone()
}

func (s *pocketService) initPocketWallet(
	ctx context.Context,
	kind domain.PocketKind,
	id domain.PocketID,
	record *domain.PocketRecord,
) domain.Pocket {
	pt, ok := s.pocketTypes[kind]
	if !ok {
		log.WithField("kind", kind).Warn("pocket kind not registered, skipping")
		return nil
	}

	src := domain.PocketSource{ID: id, Record: record}
	if kind == domain.PocketKindMultisig {
		fund, ok := s.pctx.SearchMultisigFund(ctx, id.String())
		if !ok {
			log.WithField("address", id).Warn(
				"multisig fund not found, using placeholder",
			)
			fund = &domain.MultisigFund{Address: id.String(), Name: id.String()}
		}
		src.Fund = fund
	}

	pocket := pt.NewPocket(src, s.pctx)
	s.pockets[kind][id] = pocket
	s.updateLoadedGauge(kind)
	return pocket
}

func (s *pocketService) pocketTypeOf(
	addressType domain.AddressType,
) (domain.PocketType, error) {
	pt, ok := s.addressTypes[addressType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAddressType, addressType)
	}
	return pt, nil
}

func (s *pocketService) getPocket(
	kind domain.PocketKind, id domain.PocketID,
) (domain.Pocket, error) {
	pocket, ok := s.pockets[kind][id]
	if !ok {
		return nil, domain.ErrPocketNotFound
	}
	return pocket, nil
}

func (s *pocketService) updateLoadedGauge(kind domain.PocketKind) {
	stats.PocketsLoaded.WithLabelValues(kind.String()).Set(
		float64(len(s.pockets[kind])),
	)
}

// sortPockets returns the pockets ordered by id, numerically for HD ones.
func sortPockets(cache map[domain.PocketID]domain.Pocket) []domain.Pocket {
	pockets := make([]domain.Pocket, 0, len(cache))
	for _, pocket := range cache {
		pockets = append(pockets, pocket)
	}
	sort.Slice(pockets, func(i, j int) bool {
		a, errA := pockets[i].ID().HDIndex()
		b, errB := pockets[j].ID().HDIndex()
		if errA == nil && errB == nil {
			return a < b
		}
		return pockets[i].ID() < pockets[j].ID()
	})
	return pockets
}
