package domain

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
)

// ReadOnlyPocketType is the kind of the watch-only pockets. Their addresses
// are imported, not derived, and are never spent from.
type ReadOnlyPocketType struct{}

func (ReadOnlyPocketType) Kind() PocketKind {
	return PocketKindReadOnly
}

func (ReadOnlyPocketType) AddressTypes() []AddressType {
	return []AddressType{AddressTypeReadOnly}
}

func (ReadOnlyPocketType) AutoCreate() bool {
	return true
}

func (ReadOnlyPocketType) PocketID(addr Address) (PocketID, error) {
	if addr.Pocket == "" {
		return "", ErrInvalidPocketID
	}
	return PocketID(addr.Pocket), nil
}

func (ReadOnlyPocketType) NewPocket(src PocketSource, pctx PocketContext) Pocket {
	return &ReadOnlyPocket{
		id:   src.ID,
		pctx: pctx,
		book: newAddressBook(),
	}
}

func (ReadOnlyPocketType) sealed() {}

// ReadOnlyPocket groups watch-only addresses under a label.
type ReadOnlyPocket struct {
	id   PocketID
	pctx PocketContext
	book *addressBook
}

func (p *ReadOnlyPocket) Kind() PocketKind {
	return PocketKindReadOnly
}

func (p *ReadOnlyPocket) ID() PocketID {
	return p.id
}

// Name is the label of the pocket, that is also its id.
func (p *ReadOnlyPocket) Name() string {
	return p.id.String()
}

func (p *ReadOnlyPocket) Attribute(field PocketField) (string, bool) {
	switch field {
	case PocketFieldName, PocketFieldID:
		return p.id.String(), true
	default:
		return "", false
	}
}

// AddToPocket adds the address once made sure it's valid for the network of
// the wallet.
func (p *ReadOnlyPocket) AddToPocket(addr Address) error {
	id, err := ReadOnlyPocketType{}.PocketID(addr)
	if err != nil {
		return err
	}
	if id != p.id {
		return ErrWrongPocket
	}

	net := p.pctx.Network()
	decoded, err := btcutil.DecodeAddress(addr.Address, net)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if !decoded.IsForNet(net) {
		return ErrInvalidAddress
	}

	p.book.add(addr.Address, false)
	return nil
}

func (p *ReadOnlyPocket) Addresses() []string {
	return p.book.addresses()
}

// ChangeAddresses is always empty.
func (p *ReadOnlyPocket) ChangeAddresses() []string {
	return nil
}

func (p *ReadOnlyPocket) AllAddresses() []string {
	return p.book.allAddresses()
}

func (p *ReadOnlyPocket) Wallet() Wallet {
	return p.pctx.Wallet()
}
