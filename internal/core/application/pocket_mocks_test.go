package application_test

import (
	"context"

	"github.com/darkwallet/pockets/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// **** PocketStore ****

type mockPocketStore struct {
	mock.Mock
}

func (m *mockPocketStore) Init(
	ctx context.Context,
	key string,
	defaults domain.PocketSlots,
) (domain.PocketSlots, error) {
	args := m.Called(ctx, key, defaults)

	var res domain.PocketSlots
	if a := args.Get(0); a != nil {
		res = a.(domain.PocketSlots).Clone()
	}
	return res, args.Error(1)
}

func (m *mockPocketStore) Save(
	ctx context.Context,
	key string,
	slots domain.PocketSlots,
) error {
	args := m.Called(ctx, key, slots)
	return args.Error(0)
}

// **** Wallet ****

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) SearchMultisigFund(
	ctx context.Context,
	address string,
) (*domain.MultisigFund, bool) {
	args := m.Called(ctx, address)

	var res *domain.MultisigFund
	if a := args.Get(0); a != nil {
		res = a.(*domain.MultisigFund)
	}
	return res, args.Bool(1)
}
