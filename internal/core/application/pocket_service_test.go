package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/darkwallet/pockets/internal/core/application"
	"github.com/darkwallet/pockets/internal/core/domain"
	"github.com/darkwallet/pockets/internal/infrastructure/storage/db/inmemory"
	"github.com/darkwallet/pockets/pkg/wallet"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	watchAddress = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
	fundAddress  = "3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy"
)

var ctx = context.Background()

func newTestService(
	t *testing.T, store domain.PocketStore, w domain.Wallet,
) application.PocketService {
	t.Helper()

	svc, err := application.NewPocketService(application.PocketServiceOpts{
		Store:   store,
		Wallet:  w,
		Network: &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	return svc
}

func newInitializedService(t *testing.T) (
	application.PocketService, *inmemory.PocketStoreImpl,
) {
	t.Helper()

	store := inmemory.NewPocketStoreImpl()
	svc := newTestService(t, store, nil)
	_, err := svc.Initialize(ctx)
	require.NoError(t, err)
	return svc, store
}

func storedSlots(t *testing.T, store domain.PocketStore) domain.PocketSlots {
	t.Helper()

	slots, err := store.Init(ctx, domain.PocketsStoreKey, nil)
	require.NoError(t, err)
	return slots
}

func hdAddress(addr string, pocketIndex int, change bool) domain.Address {
	return domain.Address{
		Address: addr,
		Type:    domain.AddressTypeP2PKH,
		Path:    wallet.NewPocketPath(pocketIndex, change, 0),
	}
}

func TestNewPocketService(t *testing.T) {
	_, err := application.NewPocketService(application.PocketServiceOpts{})
	require.Equal(t, application.ErrNullPocketStore, err)

	svc := newTestService(t, inmemory.NewPocketStoreImpl(), nil)
	for _, pt := range domain.PocketTypes() {
		err := svc.RegisterType(pt)
		require.ErrorIs(t, err, domain.ErrPocketKindAlreadyRegistered)
	}
}

// renamedHDType claims the HD address types under another kind.
type renamedHDType struct {
	domain.HDPocketType
}

func (renamedHDType) Kind() domain.PocketKind {
	return "hd2"
}

func TestRegisterTypeAddressCollision(t *testing.T) {
	svc := newTestService(t, inmemory.NewPocketStoreImpl(), nil)

	err := svc.RegisterType(renamedHDType{})
	require.ErrorIs(t, err, domain.ErrAddressTypeAlreadyClaimed)
	require.Empty(t, svc.ListPockets("hd2"))

	pockets, err := svc.GetPockets(domain.AddressTypeP2PKH)
	require.NoError(t, err)
	require.Empty(t, pockets)
}

func TestInitialize(t *testing.T) {
	t.Run("seeds defaults on empty store", func(t *testing.T) {
		svc, store := newInitializedService(t)

		pockets := svc.ListPockets(domain.PocketKindHD)
		require.Len(t, pockets, 2)
		require.Equal(t, domain.HDPocketID(0), pockets[0].ID())
		require.Equal(t, "spending", pockets[0].Name())
		require.Equal(t, domain.HDPocketID(1), pockets[1].ID())
		require.Equal(t, "savings", pockets[1].Name())

		require.Equal(t, domain.NewPocketSlots("spending", "savings"), storedSlots(t, store))
		require.Empty(t, svc.ListPockets(domain.PocketKindMultisig))
		require.Empty(t, svc.ListPockets(domain.PocketKindReadOnly))
	})

	t.Run("loads live slots at their index", func(t *testing.T) {
		store := inmemory.NewPocketStoreImpl()
		seed := domain.NewPocketSlots("a", "b", "c", "d")
		seed.Tombstone(1)
		seed.Tombstone(2)
		require.NoError(t, store.Save(ctx, domain.PocketsStoreKey, seed))

		svc := newTestService(t, store, nil)
		slots, err := svc.Initialize(ctx)
		require.NoError(t, err)
		require.Equal(t, seed, slots)

		pockets, err := svc.GetPockets(domain.AddressTypeP2WPKH)
		require.NoError(t, err)
		require.Len(t, pockets, 2)
		require.Equal(t, "a", pockets[domain.HDPocketID(0)].Name())
		require.Equal(t, "d", pockets[domain.HDPocketID(3)].Name())
	})

	t.Run("uses custom defaults and key", func(t *testing.T) {
		store := inmemory.NewPocketStoreImpl()
		svc, err := application.NewPocketService(application.PocketServiceOpts{
			Store:        store,
			StoreKey:     "custom",
			DefaultNames: []string{"main"},
		})
		require.NoError(t, err)

		slots, err := svc.Initialize(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.NewPocketSlots("main"), slots)

		stored, err := store.Init(ctx, "custom", nil)
		require.NoError(t, err)
		require.Equal(t, slots, stored)
	})

	t.Run("fails if store fails", func(t *testing.T) {
		store := &mockPocketStore{}
		store.On("Init", mock.Anything, domain.PocketsStoreKey, mock.Anything).
			Return(nil, errors.New("disk error"))

		svc := newTestService(t, store, nil)
		_, err := svc.Initialize(ctx)
		require.Error(t, err)

		_, err = svc.CreatePocket(ctx, "vault")
		require.Equal(t, application.ErrRegistryNotInitialized, err)
	})
}

func TestCreatePocket(t *testing.T) {
	svc, store := newInitializedService(t)

	pocket, err := svc.CreatePocket(ctx, "vault")
	require.NoError(t, err)
	require.Equal(t, domain.HDPocketID(2), pocket.ID())

	found, ok := svc.Search(domain.PocketKindHD, domain.ByName("vault"))
	require.True(t, ok)
	require.Equal(t, "vault", found.Name())
	require.True(t, found == pocket)

	_, err = svc.CreatePocket(ctx, "vault")
	require.Equal(t, domain.ErrPocketNameAlreadyExists, err)

	// names are case sensitive
	_, err = svc.CreatePocket(ctx, "Vault")
	require.NoError(t, err)

	_, err = svc.CreatePocket(ctx, "  ")
	require.Equal(t, domain.ErrInvalidPocketName, err)

	slots := storedSlots(t, store)
	require.Len(t, slots, 4)
	count := 0
	slots.Live(func(_ int, r domain.PocketRecord) {
		if r.Name == "vault" {
			count++
		}
	})
	require.Equal(t, 1, count)
	require.Equal(t, slots, svc.Slots())
}

func TestCreatePocketSaveFailure(t *testing.T) {
	store := &mockPocketStore{}
	store.On("Init", mock.Anything, domain.PocketsStoreKey, mock.Anything).
		Return(domain.NewPocketSlots("spending"), nil)
	store.On("Save", mock.Anything, domain.PocketsStoreKey, mock.Anything).
		Return(errors.New("disk error"))

	svc := newTestService(t, store, nil)
	_, err := svc.Initialize(ctx)
	require.NoError(t, err)

	_, err = svc.CreatePocket(ctx, "vault")
	require.Error(t, err)

	require.Len(t, svc.Slots(), 1)
	_, ok := svc.Search(domain.PocketKindHD, domain.ByName("vault"))
	require.False(t, ok)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestSearch(t *testing.T) {
	svc, _ := newInitializedService(t)

	found, ok := svc.Search(domain.PocketKindHD, domain.ByID(domain.HDPocketID(1)))
	require.True(t, ok)
	require.Equal(t, "savings", found.Name())

	_, ok = svc.Search(domain.PocketKindHD, domain.ByName("missing"))
	require.False(t, ok)

	_, ok = svc.Search(domain.PocketKindHD, domain.SearchQuery{Field: "color", Value: "red"})
	require.False(t, ok)

	_, ok = svc.Search(domain.PocketKindMultisig, domain.ByName("spending"))
	require.False(t, ok)
}

func TestDeletePocket(t *testing.T) {
	svc, store := newInitializedService(t)

	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindHD, domain.HDPocketID(0)))

	_, ok := svc.Search(domain.PocketKindHD, domain.ByName("spending"))
	require.False(t, ok)
	_, err := svc.GetPocketWallet(domain.PocketKindHD, domain.HDPocketID(0))
	require.Equal(t, domain.ErrPocketNotFound, err)

	slots := storedSlots(t, store)
	require.Len(t, slots, 2)
	require.True(t, slots[0].IsTombstone())

	err = svc.DeletePocket(ctx, domain.PocketKindHD, domain.HDPocketID(0))
	require.Equal(t, domain.ErrPocketNotFound, err)

	// the name of a deleted pocket can be reused, at a new index
	pocket, err := svc.CreatePocket(ctx, "spending")
	require.NoError(t, err)
	require.Equal(t, domain.HDPocketID(2), pocket.ID())
}

func TestDeletePocketDiverged(t *testing.T) {
	svc, store := newInitializedService(t)

	ghost, err := svc.InitPocketWallet(
		ctx, domain.PocketKindHD, domain.HDPocketID(7), &domain.PocketRecord{Name: "ghost"},
	)
	require.NoError(t, err)
	require.NotNil(t, ghost)

	err = svc.DeletePocket(ctx, domain.PocketKindHD, domain.HDPocketID(7))
	require.Equal(t, domain.ErrPocketNotFound, err)

	_, err = svc.GetPocketWallet(domain.PocketKindHD, domain.HDPocketID(7))
	require.Equal(t, domain.ErrPocketNotFound, err)
	require.Equal(t, domain.NewPocketSlots("spending", "savings"), storedSlots(t, store))
}

func TestDeleteNonHDPocket(t *testing.T) {
	svc, store := newInitializedService(t)

	require.NoError(t, svc.AddToPocket(ctx, domain.Address{
		Address: watchAddress, Type: domain.AddressTypeReadOnly, Pocket: "cold",
	}))
	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindReadOnly, "cold"))
	_, err := svc.GetPocket("cold", domain.AddressTypeReadOnly)
	require.Equal(t, domain.ErrPocketNotFound, err)

	// deleting a missing non HD pocket is a no-op
	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindReadOnly, "cold"))
	require.Len(t, storedSlots(t, store), 2)

	// nothing is written for non HD pockets
	mockStore := &mockPocketStore{}
	mockStore.On("Init", mock.Anything, domain.PocketsStoreKey, mock.Anything).
		Return(domain.NewPocketSlots(domain.DefaultPocketNames...), nil)
	svc = newTestService(t, mockStore, nil)
	_, err = svc.Initialize(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.AddToPocket(ctx, domain.Address{
		Address: fundAddress, Type: domain.AddressTypeMultisig,
	}))
	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindMultisig, fundAddress))
	mockStore.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestRenamePocket(t *testing.T) {
	svc, store := newInitializedService(t)

	require.NoError(t, svc.RenamePocket(ctx, domain.HDPocketID(1), "vault"))
	pocket, err := svc.GetPocketWallet(domain.PocketKindHD, domain.HDPocketID(1))
	require.NoError(t, err)
	require.Equal(t, "vault", pocket.Name())

	record, ok := storedSlots(t, store).Get(1)
	require.True(t, ok)
	require.Equal(t, "vault", record.Name)

	require.NoError(t, svc.RenamePocket(ctx, domain.HDPocketID(1), "vault"))
	err = svc.RenamePocket(ctx, domain.HDPocketID(1), "spending")
	require.Equal(t, domain.ErrPocketNameAlreadyExists, err)
	err = svc.RenamePocket(ctx, domain.HDPocketID(5), "other")
	require.Equal(t, domain.ErrPocketNotFound, err)
	err = svc.RenamePocket(ctx, "abc", "other")
	require.Equal(t, domain.ErrInvalidPocketID, err)

	// deleting after a rename tombstones the renamed record
	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindHD, domain.HDPocketID(1)))
	require.True(t, storedSlots(t, store)[1].IsTombstone())
}

func TestRenamePocketNonCanonicalID(t *testing.T) {
	svc, store := newInitializedService(t)

	for _, id := range []domain.PocketID{"01", "+1"} {
		err := svc.RenamePocket(ctx, id, "vault")
		require.Equal(t, domain.ErrInvalidPocketID, err, id)
	}

	record, ok := storedSlots(t, store).Get(1)
	require.True(t, ok)
	require.Equal(t, "savings", record.Name)

	pocket, found := svc.Search(domain.PocketKindHD, domain.ByName("savings"))
	require.True(t, found)
	require.Equal(t, domain.HDPocketID(1), pocket.ID())

	_, err := svc.CreatePocket(ctx, "savings")
	require.Equal(t, domain.ErrPocketNameAlreadyExists, err)

	err = svc.DeletePocket(ctx, domain.PocketKindHD, "01")
	require.Equal(t, domain.ErrPocketNotFound, err)

	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindHD, domain.HDPocketID(1)))
	slots := storedSlots(t, store)
	require.Len(t, slots, 2)
	require.True(t, slots[1].IsTombstone())
	require.False(t, slots[0].IsTombstone())
}

func TestInitPocketWallet(t *testing.T) {
	t.Run("multisig with known fund", func(t *testing.T) {
		fund := &domain.MultisigFund{
			Address: fundAddress, Name: "family", M: 2, PubKeys: []string{"a", "b"},
		}
		w := &mockWallet{}
		w.On("SearchMultisigFund", mock.Anything, fundAddress).Return(fund, true)

		svc := newTestService(t, inmemory.NewPocketStoreImpl(), w)
		pocket, err := svc.InitPocketWallet(ctx, domain.PocketKindMultisig, fundAddress, nil)
		require.NoError(t, err)
		require.Equal(t, "family", pocket.Name())
		require.Equal(t, w, pocket.Wallet())
		require.False(t, pocket.(*domain.MultisigPocket).IsPlaceholder())
		w.AssertExpectations(t)
	})

	t.Run("multisig with unknown fund", func(t *testing.T) {
		w := &mockWallet{}
		w.On("SearchMultisigFund", mock.Anything, mock.Anything).Return(nil, false)

		svc := newTestService(t, inmemory.NewPocketStoreImpl(), w)
		pocket, err := svc.InitPocketWallet(ctx, domain.PocketKindMultisig, fundAddress, nil)
		require.NoError(t, err)
		require.Equal(t, fundAddress, pocket.Name())
		require.Equal(t, domain.PocketID(fundAddress), pocket.ID())
		require.True(t, pocket.(*domain.MultisigPocket).IsPlaceholder())
	})

	t.Run("unregistered kind", func(t *testing.T) {
		svc := newTestService(t, inmemory.NewPocketStoreImpl(), nil)
		pocket, err := svc.InitPocketWallet(ctx, domain.PocketKind("stealth"), "x", nil)
		require.NoError(t, err)
		require.Nil(t, pocket)
		require.Empty(t, svc.ListPockets(domain.PocketKind("stealth")))
	})
}

func TestGetAddressPocketID(t *testing.T) {
	svc, _ := newInitializedService(t)

	id, err := svc.GetAddressPocketID(hdAddress("a", 4, true))
	require.NoError(t, err)
	require.Equal(t, domain.HDPocketID(4), id)

	id, err = svc.GetAddressPocketID(domain.Address{
		Address: fundAddress, Type: domain.AddressTypeMultisig,
	})
	require.NoError(t, err)
	require.Equal(t, domain.PocketID(fundAddress), id)

	_, err = svc.GetAddressPocketID(domain.Address{Address: "a", Type: "unknown"})
	require.ErrorIs(t, err, domain.ErrUnknownAddressType)
}

func TestGetPockets(t *testing.T) {
	svc, _ := newInitializedService(t)

	_, err := svc.GetPockets("unknown")
	require.ErrorIs(t, err, domain.ErrUnknownAddressType)

	_, err = svc.GetPocket(domain.HDPocketID(0), "unknown")
	require.ErrorIs(t, err, domain.ErrUnknownAddressType)

	pocket, err := svc.GetPocket(domain.HDPocketID(0), domain.AddressTypeStealth)
	require.NoError(t, err)
	require.Equal(t, "spending", pocket.Name())

	// the returned map is a copy
	pockets, err := svc.GetPockets(domain.AddressTypeP2PKH)
	require.NoError(t, err)
	delete(pockets, domain.HDPocketID(0))
	pockets, err = svc.GetPockets(domain.AddressTypeP2PKH)
	require.NoError(t, err)
	require.Len(t, pockets, 2)
}

func TestAddToPocket(t *testing.T) {
	t.Run("hd pocket must exist", func(t *testing.T) {
		svc, _ := newInitializedService(t)

		require.NoError(t, svc.AddToPocket(ctx, hdAddress("r0", 1, false)))
		require.NoError(t, svc.AddToPocket(ctx, hdAddress("c0", 1, true)))

		addresses, err := svc.GetAddresses(domain.PocketKindHD, domain.HDPocketID(1))
		require.NoError(t, err)
		require.Equal(t, []string{"r0"}, addresses)
		change, err := svc.GetChangeAddresses(domain.PocketKindHD, domain.HDPocketID(1))
		require.NoError(t, err)
		require.Equal(t, []string{"c0"}, change)
		all, err := svc.GetAllAddresses(domain.PocketKindHD, domain.HDPocketID(1))
		require.NoError(t, err)
		require.Equal(t, []string{"r0", "c0"}, all)

		err = svc.AddToPocket(ctx, hdAddress("x", 9, false))
		require.Equal(t, domain.ErrPocketNotFound, err)
		require.Len(t, svc.ListPockets(domain.PocketKindHD), 2)

		err = svc.AddToPocket(ctx, domain.Address{Address: "x", Type: domain.AddressTypeP2PKH})
		require.ErrorIs(t, err, domain.ErrInvalidDerivationPath)
	})

	t.Run("read-only pockets are created once", func(t *testing.T) {
		svc, _ := newInitializedService(t)
		addr := domain.Address{
			Address: watchAddress, Type: domain.AddressTypeReadOnly, Pocket: "cold",
		}

		require.NoError(t, svc.AddToPocket(ctx, addr))
		first, err := svc.GetPocket("cold", domain.AddressTypeReadOnly)
		require.NoError(t, err)

		addr.Address = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
		require.NoError(t, svc.AddToPocket(ctx, addr))
		second, err := svc.GetPocket("cold", domain.AddressTypeReadOnly)
		require.NoError(t, err)

		require.True(t, first == second)
		require.Len(t, svc.ListPockets(domain.PocketKindReadOnly), 1)
		require.Len(t, second.AllAddresses(), 2)

		addr.Address = "invalid"
		err = svc.AddToPocket(ctx, addr)
		require.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("multisig pockets are created from wallet funds", func(t *testing.T) {
		fund := &domain.MultisigFund{Address: fundAddress, Name: "family", M: 2}
		w := &mockWallet{}
		w.On("SearchMultisigFund", mock.Anything, fundAddress).Return(fund, true).Once()

		svc := newTestService(t, inmemory.NewPocketStoreImpl(), w)
		_, err := svc.Initialize(ctx)
		require.NoError(t, err)

		addr := domain.Address{Address: fundAddress, Type: domain.AddressTypeMultisig}
		require.NoError(t, svc.AddToPocket(ctx, addr))
		require.NoError(t, svc.AddToPocket(ctx, addr))

		pocket, ok := svc.Search(domain.PocketKindMultisig, domain.ByName("family"))
		require.True(t, ok)
		require.Equal(t, []string{fundAddress}, pocket.Addresses())
		w.AssertNumberOfCalls(t, "SearchMultisigFund", 1)

		all, err := svc.GetAllAddresses(domain.PocketKindMultisig, fundAddress)
		require.NoError(t, err)
		require.Equal(t, []string{fundAddress}, all)
	})

	t.Run("unknown address type", func(t *testing.T) {
		svc, _ := newInitializedService(t)
		err := svc.AddToPocket(ctx, domain.Address{Address: "x", Type: "unknown"})
		require.ErrorIs(t, err, domain.ErrUnknownAddressType)
	})
}

func TestPocketLifecycle(t *testing.T) {
	store := inmemory.NewPocketStoreImpl()
	require.NoError(t, store.Save(
		ctx, domain.PocketsStoreKey, domain.NewPocketSlots("spending", "savings"),
	))

	svc := newTestService(t, store, nil)
	_, err := svc.Initialize(ctx)
	require.NoError(t, err)

	pockets, err := svc.GetPockets(domain.AddressTypeP2PKH)
	require.NoError(t, err)
	require.Len(t, pockets, 2)
	require.Equal(t, "spending", pockets["0"].Name())
	require.Equal(t, "savings", pockets["1"].Name())

	_, err = svc.CreatePocket(ctx, "vault")
	require.NoError(t, err)
	pockets, err = svc.GetPockets(domain.AddressTypeP2PKH)
	require.NoError(t, err)
	require.Equal(t, "vault", pockets["2"].Name())
	require.Len(t, storedSlots(t, store), 3)

	require.NoError(t, svc.DeletePocket(ctx, domain.PocketKindHD, "2"))
	pockets, err = svc.GetPockets(domain.AddressTypeP2PKH)
	require.NoError(t, err)
	require.NotContains(t, pockets, domain.PocketID("2"))

	slots := storedSlots(t, store)
	require.Len(t, slots, 3)
	require.True(t, slots[2].IsTombstone())

	// a fresh registry over the same store sees the same pockets
	reloaded := newTestService(t, store, nil)
	_, err = reloaded.Initialize(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.ListPockets(domain.PocketKindHD), 2)
}
