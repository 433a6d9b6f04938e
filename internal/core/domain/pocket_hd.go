package domain

import (
	"fmt"
	"sync"
)

// HDPocketType is the kind of the pockets derived from the wallet's master
// key. Every HD pocket owns two derivation branches, see wallet.NewPocketPath.
type HDPocketType struct{}

func (HDPocketType) Kind() PocketKind {
	return PocketKindHD
}

func (HDPocketType) AddressTypes() []AddressType {
	return []AddressType{AddressTypeP2PKH, AddressTypeP2WPKH, AddressTypeStealth}
}

// AutoCreate is false: HD pockets exist only if created explicitly.
func (HDPocketType) AutoCreate() bool {
	return false
}

func (HDPocketType) PocketID(addr Address) (PocketID, error) {
	index, err := addr.Path.PocketIndex()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDerivationPath, err)
	}
	return HDPocketID(index), nil
}

func (HDPocketType) NewPocket(src PocketSource, pctx PocketContext) Pocket {
	name := src.ID.String()
	if src.Record != nil {
		name = src.Record.Name
	}
	return &HDPocket{
		id:   src.ID,
		name: name,
		pctx: pctx,
		book: newAddressBook(),
	}
}

func (HDPocketType) sealed() {}

// HDPocket groups the addresses derived on the branches of a pocket index.
type HDPocket struct {
	id   PocketID
	pctx PocketContext
	book *addressBook

	lock sync.RWMutex
	name string
}

func (p *HDPocket) Kind() PocketKind {
	return PocketKindHD
}

func (p *HDPocket) ID() PocketID {
	return p.id
}

func (p *HDPocket) Name() string {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.name
}

// Index returns the slot index of the pocket.
func (p *HDPocket) Index() int {
	index, _ := p.id.HDIndex()
	return index
}

func (p *HDPocket) Attribute(field PocketField) (string, bool) {
	switch field {
	case PocketFieldName:
		return p.Name(), true
	case PocketFieldID:
		return p.id.String(), true
	default:
		return "", false
	}
}

// AddToPocket adds the address to the receiving or change list depending on
// the branch of its derivation path.
func (p *HDPocket) AddToPocket(addr Address) error {
	id, err := HDPocketType{}.PocketID(addr)
	if err != nil {
		return err
	}
	if id != p.id {
		return ErrWrongPocket
	}
	p.book.add(addr.Address, addr.Path.IsChange())
	return nil
}

func (p *HDPocket) Addresses() []string {
	return p.book.addresses()
}

func (p *HDPocket) ChangeAddresses() []string {
	return p.book.changeAddresses()
}

func (p *HDPocket) AllAddresses() []string {
	return p.book.allAddresses()
}

func (p *HDPocket) Wallet() Wallet {
	return p.pctx.Wallet()
}

// Rename changes the name of the pocket. The caller is in charge of
// updating the backing record.
func (p *HDPocket) Rename(name string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.name = name
}
