package domain

import "errors"

var (
	// ErrPocketNameAlreadyExists is returned when creating or renaming an HD
	// pocket with the name of another live one
	ErrPocketNameAlreadyExists = errors.New("pocket with this name already exists")
	// ErrPocketNotFound ...
	ErrPocketNotFound = errors.New("pocket does not exist")
	// ErrUnknownAddressType is returned for address types no registered pocket
	// kind claims
	ErrUnknownAddressType = errors.New("unknown address type")
	// ErrInvalidPocketName ...
	ErrInvalidPocketName = errors.New("pocket name must not be empty")
	// ErrInvalidPocketID ...
	ErrInvalidPocketID = errors.New("invalid pocket id")
	// ErrInvalidDerivationPath is returned when an HD address carries no path
	// a pocket index can be derived from
	ErrInvalidDerivationPath = errors.New("address has no valid derivation path")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address is not valid for the current network")
	// ErrWrongPocket is returned when an address is added to a pocket it does
	// not belong to
	ErrWrongPocket = errors.New("address does not belong to this pocket")
	// ErrPocketKindAlreadyRegistered ...
	ErrPocketKindAlreadyRegistered = errors.New("pocket kind already registered")
	// ErrAddressTypeAlreadyClaimed is returned when registering a pocket kind
	// claiming an address type owned by another kind
	ErrAddressTypeAlreadyClaimed = errors.New("address type already claimed by another pocket kind")
	// ErrTombstonedSlot ...
	ErrTombstonedSlot = errors.New("pocket slot has been deleted")
)
