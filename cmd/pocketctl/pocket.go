package main

import (
	"github.com/urfave/cli/v2"

	"github.com/darkwallet/pockets/internal/core/application"
	"github.com/darkwallet/pockets/internal/core/domain"
	"github.com/darkwallet/pockets/pkg/wallet"
)

type pocketInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

var listpockets = cli.Command{
	Name:   "list",
	Usage:  "list the HD pockets, deleted ones included",
	Action: listPocketsAction,
}

var createpocket = cli.Command{
	Name:      "create",
	Usage:     "create a new HD pocket",
	ArgsUsage: "<name>",
	Action:    createPocketAction,
}

var renamepocket = cli.Command{
	Name:      "rename",
	Usage:     "rename an HD pocket",
	ArgsUsage: "<index> <name>",
	Action:    renamePocketAction,
}

var deletepocket = cli.Command{
	Name:      "delete",
	Usage:     "delete an HD pocket, its index is never reused",
	ArgsUsage: "<index>",
	Action:    deletePocketAction,
}

var searchpocket = cli.Command{
	Name:  "search",
	Usage: "find an HD pocket by name",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Usage:    "the name of the pocket",
			Required: true,
		},
	},
	Action: searchPocketAction,
}

var locatepocket = cli.Command{
	Name:  "locate",
	Usage: "find the pocket an address belongs to",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "type",
			Usage:    "the address type, ie. p2pkh, p2wpkh, stealth, multisig or readonly",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "the derivation path of an HD address, eg. m/2/0",
		},
		&cli.StringFlag{
			Name:  "pocket",
			Usage: "the fund address or label of a non HD address",
		},
		&cli.StringFlag{
			Name:  "address",
			Usage: "the address",
		},
	},
	Action: locatePocketAction,
}

type locateInfo struct {
	Pocket string `json:"pocket"`
	Name   string `json:"name,omitempty"`
	Path   string `json:"path,omitempty"`
	Change bool   `json:"change,omitempty"`
	Loaded bool   `json:"loaded"`
}

func listPocketsAction(ctx *cli.Context) error {
	svc, cleanup, err := getPocketService(ctx.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	slots := svc.Slots()
	pockets := make([]pocketInfo, 0, len(slots))
	for i, slot := range slots {
		record, ok := slot.Record()
		pockets = append(pockets, pocketInfo{
			Index:   i,
			Name:    record.Name,
			Deleted: !ok,
		})
	}

	printRespJSON(pockets)
	return nil
}

func createPocketAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getPocketService(ctx.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	pocket, err := svc.CreatePocket(ctx.Context, ctx.Args().First())
	if err != nil {
		return err
	}

	printRespJSON(infoOf(pocket))
	return nil
}

func renamePocketAction(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getPocketService(ctx.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	id := domain.PocketID(ctx.Args().Get(0))
	if err := svc.RenamePocket(ctx.Context, id, ctx.Args().Get(1)); err != nil {
		return err
	}

	pocket, err := svc.GetPocketWallet(domain.PocketKindHD, id)
	if err != nil {
		return err
	}
	printRespJSON(infoOf(pocket))
	return nil
}

func deletePocketAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}

	svc, cleanup, err := getPocketService(ctx.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	id := domain.PocketID(ctx.Args().First())
	if _, err := id.HDIndex(); err != nil {
		return err
	}
	if err := svc.DeletePocket(ctx.Context, domain.PocketKindHD, id); err != nil {
		return err
	}

	printRespJSON(map[string]string{"deleted": id.String()})
	return nil
}

func searchPocketAction(ctx *cli.Context) error {
	svc, cleanup, err := getPocketService(ctx.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	pocket, ok := svc.Search(domain.PocketKindHD, domain.ByName(ctx.String("name")))
	if !ok {
		return domain.ErrPocketNotFound
	}

	printRespJSON(infoOf(pocket))
	return nil
}

func infoOf(pocket domain.Pocket) pocketInfo {
	index, _ := pocket.ID().HDIndex()
	return pocketInfo{Index: index, Name: pocket.Name()}
}

func locatePocketAction(ctx *cli.Context) error {
	addr, err := newAddress(
		ctx.String("type"), ctx.String("path"),
		ctx.String("pocket"), ctx.String("address"),
	)
	if err != nil {
		return err
	}

	svc, cleanup, err := getPocketService(ctx.Context)
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := locate(svc, addr)
	if err != nil {
		return err
	}

	printRespJSON(info)
	return nil
}

func newAddress(addrType, strPath, pocket, address string) (domain.Address, error) {
	addr := domain.Address{
		Address: address,
		Type:    domain.AddressType(addrType),
		Pocket:  pocket,
	}
	if strPath != "" {
		path, err := wallet.ParseDerivationPath(strPath)
		if err != nil {
			return domain.Address{}, err
		}
		addr.Path = path
	}
	return addr, nil
}

func locate(svc application.PocketService, addr domain.Address) (locateInfo, error) {
	id, err := svc.GetAddressPocketID(addr)
	if err != nil {
		return locateInfo{}, err
	}

	info := locateInfo{
		Pocket: id.String(),
		Path:   addr.Path.String(),
		Change: addr.Path.IsChange(),
	}
	if pocket, err := svc.GetPocket(id, addr.Type); err == nil {
		info.Name = pocket.Name()
		info.Loaded = true
	}
	return info, nil
}
