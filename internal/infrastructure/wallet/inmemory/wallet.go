package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/darkwallet/pockets/internal/core/domain"
)

var (
	// ErrInvalidFund ...
	ErrInvalidFund = errors.New("multisig fund must have an address")
	// ErrFundAlreadyExists ...
	ErrFundAlreadyExists = errors.New("multisig fund already exists")
)

// Wallet keeps the multisig funds of the wallet in memory.
type Wallet struct {
	funds map[string]domain.MultisigFund

	lock *sync.RWMutex
}

// NewWallet returns a wallet holding the given funds.
func NewWallet(funds ...domain.MultisigFund) (*Wallet, error) {
	w := &Wallet{
		funds: map[string]domain.MultisigFund{},
		lock:  &sync.RWMutex{},
	}
	for _, fund := range funds {
		if err := w.AddMultisigFund(fund); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// AddMultisigFund ...
func (w *Wallet) AddMultisigFund(fund domain.MultisigFund) error {
	if fund.Address == "" {
		return ErrInvalidFund
	}

	w.lock.Lock()
	defer w.lock.Unlock()

	if _, ok := w.funds[fund.Address]; ok {
		return ErrFundAlreadyExists
	}
	fund.PubKeys = append([]string{}, fund.PubKeys...)
	w.funds[fund.Address] = fund
	return nil
}

// SearchMultisigFund returns a copy of the fund with the given address.
func (w *Wallet) SearchMultisigFund(
	_ context.Context, address string,
) (*domain.MultisigFund, bool) {
	w.lock.RLock()
	defer w.lock.RUnlock()

	fund, ok := w.funds[address]
	if !ok {
		return nil, false
	}
	fund.PubKeys = append([]string{}, fund.PubKeys...)
	return &fund, true
}
