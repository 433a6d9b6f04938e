package domain

import "context"

// PocketStore persists the ordered sequence of HD pocket records.
type PocketStore interface {
	// Init returns the slots stored under key. If none exist, defaults are
	// stored and returned.
	Init(ctx context.Context, key string, defaults PocketSlots) (PocketSlots, error)
	// Save replaces the slots stored under key.
	Save(ctx context.Context, key string, slots PocketSlots) error
}

// Wallet is the subset of the wallet the pockets depend on.
type Wallet interface {
	// SearchMultisigFund returns the multisig fund with the given address.
	SearchMultisigFund(ctx context.Context, address string) (*MultisigFund, bool)
}
