package wallet

import "errors"

var (
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrHardenedBranch is returned when a pocket branch is requested from a
	// path whose first relative component is hardened
	ErrHardenedBranch = errors.New("pocket branch must not be hardened")
)
