package domain

// MultisigPocketType is the kind of the pockets backed by a multisig fund of
// the wallet. A pocket is identified by the fund address.
type MultisigPocketType struct{}

func (MultisigPocketType) Kind() PocketKind {
	return PocketKindMultisig
}

func (MultisigPocketType) AddressTypes() []AddressType {
	return []AddressType{AddressTypeMultisig}
}

func (MultisigPocketType) AutoCreate() bool {
	return true
}

// PocketID returns the fund address referenced by the address, or the
// address itself if it's the fund one.
func (MultisigPocketType) PocketID(addr Address) (PocketID, error) {
	if addr.Pocket != "" {
		return PocketID(addr.Pocket), nil
	}
	if addr.Address == "" {
		return "", ErrInvalidPocketID
	}
	return PocketID(addr.Address), nil
}

// NewPocket builds a pocket for the given fund. Without a fund, a placeholder
// named after the id is used.
func (MultisigPocketType) NewPocket(src PocketSource, pctx PocketContext) Pocket {
	fund := src.Fund
	if fund == nil {
		fund = &MultisigFund{Address: src.ID.String(), Name: src.ID.String()}
	}
	return &MultisigPocket{
		fund: *fund,
		pctx: pctx,
		book: newAddressBook(),
	}
}

func (MultisigPocketType) sealed() {}

// MultisigPocket groups the addresses of a multisig fund.
type MultisigPocket struct {
	fund MultisigFund
	pctx PocketContext
	book *addressBook
}

func (p *MultisigPocket) Kind() PocketKind {
	return PocketKindMultisig
}

func (p *MultisigPocket) ID() PocketID {
	return PocketID(p.fund.Address)
}

func (p *MultisigPocket) Name() string {
	return p.fund.Name
}

// Fund returns the fund backing the pocket.
func (p *MultisigPocket) Fund() MultisigFund {
	return p.fund
}

// IsPlaceholder returns whether the pocket was built without the wallet
// knowing its fund.
func (p *MultisigPocket) IsPlaceholder() bool {
	return p.fund.M == 0 && len(p.fund.PubKeys) == 0
}

func (p *MultisigPocket) Attribute(field PocketField) (string, bool) {
	switch field {
	case PocketFieldName:
		return p.fund.Name, true
	case PocketFieldID:
		return p.fund.Address, true
	default:
		return "", false
	}
}

func (p *MultisigPocket) AddToPocket(addr Address) error {
	id, err := MultisigPocketType{}.PocketID(addr)
	if err != nil {
		return err
	}
	if id != p.ID() {
		return ErrWrongPocket
	}
	p.book.add(addr.Address, false)
	return nil
}

func (p *MultisigPocket) Addresses() []string {
	return p.book.addresses()
}

// ChangeAddresses returns the fund address, change of a multisig spend goes
// back to the fund.
func (p *MultisigPocket) ChangeAddresses() []string {
	return []string{p.fund.Address}
}

// AllAddresses returns the receiving addresses followed by the fund address,
// unless it's already among them.
func (p *MultisigPocket) AllAddresses() []string {
	all := p.book.addresses()
	for _, addr := range all {
		if addr == p.fund.Address {
			return all
		}
	}
	return append(all, p.fund.Address)
}

func (p *MultisigPocket) Wallet() Wallet {
	return p.pctx.Wallet()
}
