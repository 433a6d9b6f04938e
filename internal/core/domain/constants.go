package domain

// PocketKind identifies one of the supported pocket variants.
type PocketKind string

// AddressType tags an address with the kind of pocket it can be assigned to.
type AddressType string

const (
	PocketKindHD       PocketKind = "hd"
	PocketKindMultisig PocketKind = "multisig"
	PocketKindReadOnly PocketKind = "readonly"

	AddressTypeP2PKH    AddressType = "p2pkh"
	AddressTypeP2WPKH   AddressType = "p2wpkh"
	AddressTypeStealth  AddressType = "stealth"
	AddressTypeMultisig AddressType = "multisig"
	AddressTypeReadOnly AddressType = "readonly"

	// PocketsStoreKey is the key under which the HD pocket records are stored.
	PocketsStoreKey = "pockets"
)

// DefaultPocketNames are the HD pockets seeded into an empty store.
var DefaultPocketNames = []string{"spending", "savings"}

func (k PocketKind) String() string {
	return string(k)
}

func (t AddressType) String() string {
	return string(t)
}
