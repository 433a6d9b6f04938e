package application

import "errors"

var (
	// ErrNullPocketStore ...
	ErrNullPocketStore = errors.New("pocket store must not be null")
	// ErrRegistryNotInitialized is returned by operations that touch the
	// persisted pockets before they have been loaded with Initialize
	ErrRegistryNotInitialized = errors.New(
		"pocket registry is not initialized, call Initialize first",
	)
)
