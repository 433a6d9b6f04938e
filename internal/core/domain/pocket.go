package domain

import (
	"context"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
)

// Pocket is a named grouping of wallet addresses. Only the record backing an
// HD pocket is persisted, the pocket itself lives in memory.
type Pocket interface {
	Kind() PocketKind
	ID() PocketID
	Name() string
	// Attribute returns the value of the given searchable field.
	Attribute(field PocketField) (string, bool)
	// AddToPocket assigns the address to the pocket.
	AddToPocket(addr Address) error
	// Addresses returns the receiving addresses of the pocket.
	Addresses() []string
	// ChangeAddresses returns the change addresses of the pocket.
	ChangeAddresses() []string
	// AllAddresses returns receiving and change addresses.
	AllAddresses() []string
	// Wallet returns the wallet the pocket belongs to.
	Wallet() Wallet
}

// PocketType describes a pocket kind. The set of pocket types is closed, see
// PocketTypes.
type PocketType interface {
	Kind() PocketKind
	// AddressTypes returns the address types owned by the kind.
	AddressTypes() []AddressType
	// AutoCreate returns whether a pocket is created the first time an address
	// belonging to it is added.
	AutoCreate() bool
	// PocketID returns the id of the pocket the address belongs to.
	PocketID(addr Address) (PocketID, error)
	// NewPocket instantiates a pocket of this kind.
	NewPocket(src PocketSource, pctx PocketContext) Pocket

	sealed()
}

// PocketSource holds what a pocket is built from: the HD record, the multisig
// fund, or just the id.
type PocketSource struct {
	ID     PocketID
	Record *PocketRecord
	Fund   *MultisigFund
}

// PocketContext is the handle a pocket gets back to the wallet it belongs to.
// It's a value: pockets can't reach or mutate the registry through it.
type PocketContext struct {
	wallet  Wallet
	network *chaincfg.Params
}

// NewPocketContext ...
func NewPocketContext(w Wallet, net *chaincfg.Params) PocketContext {
	if net == nil {
		net = &chaincfg.MainNetParams
	}
	return PocketContext{w, net}
}

func (c PocketContext) Wallet() Wallet {
	return c.wallet
}

func (c PocketContext) Network() *chaincfg.Params {
	return c.network
}

// SearchMultisigFund looks up a fund through the wallet, if any.
func (c PocketContext) SearchMultisigFund(
	ctx context.Context, address string,
) (*MultisigFund, bool) {
	if c.wallet == nil {
		return nil, false
	}
	return c.wallet.SearchMultisigFund(ctx, address)
}

// PocketTypes returns every supported pocket type.
func PocketTypes() []PocketType {
	return []PocketType{
		HDPocketType{},
		MultisigPocketType{},
		ReadOnlyPocketType{},
	}
}

// addressBook keeps track of the receiving and change addresses of a pocket,
// in insertion order and without duplicates.
type addressBook struct {
	lock    sync.RWMutex
	main    []string
	change  []string
	indexed map[string]struct{}
}

func newAddressBook() *addressBook {
	return &addressBook{indexed: map[string]struct{}{}}
}

func (b *addressBook) add(addr string, change bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if _, ok := b.indexed[addr]; ok {
		return
	}
	b.indexed[addr] = struct{}{}
	if change {
		b.change = append(b.change, addr)
		return
	}
	b.main = append(b.main, addr)
}

func (b *addressBook) addresses() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]string{}, b.main...)
}

func (b *addressBook) changeAddresses() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return append([]string{}, b.change...)
}

func (b *addressBook) allAddresses() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	all := make([]string, 0, len(b.main)+len(b.change))
	all = append(all, b.main...)
	return append(all, b.change...)
}
