package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/darkwallet/pockets/internal/config"
	"github.com/darkwallet/pockets/internal/core/application"
	"github.com/darkwallet/pockets/internal/core/domain"
	dbbadger "github.com/darkwallet/pockets/internal/infrastructure/storage/db/badger"
	"github.com/darkwallet/pockets/internal/infrastructure/storage/db/inmemory"
	walletinmemory "github.com/darkwallet/pockets/internal/infrastructure/wallet/inmemory"
	"github.com/darkwallet/pockets/pkg/stats"
)

const statsFilename = "stats"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "pocketctl"
	app.Usage = "Command line interface to manage the pockets of a wallet"
	// metrics are dumped to the datadir at exit when debugging
	statsFile := ""
	app.Before = func(*cli.Context) error {
		if err := config.InitConfig(); err != nil {
			return err
		}
		log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
		if log.IsLevelEnabled(log.DebugLevel) {
			statsFile = filepath.Join(config.GetDatadir(), statsFilename)
		}
		return nil
	}
	app.After = func(*cli.Context) error {
		if statsFile == "" {
			return nil
		}
		if err := stats.DumpPrometheusDefaults(statsFile); err != nil {
			log.WithError(err).Warn("failed to dump metrics")
			return nil
		}
		log.Debugf("metrics dumped to %s", statsFile)
		return nil
	}
	app.Commands = append(
		app.Commands,
		&listpockets,
		&createpocket,
		&renamepocket,
		&deletepocket,
		&searchpocket,
		&locatepocket,
	)
	return app
}

// getPocketService opens the configured store and returns an initialized
// registry over it, along with a func to release the store.
func getPocketService(ctx context.Context) (application.PocketService, func(), error) {
	var store domain.PocketStore
	cleanup := func() {}

	switch config.GetString(config.DBTypeKey) {
	case config.DBInMemory:
		store = inmemory.NewPocketStoreImpl()
	default:
		db, err := dbbadger.NewDbManager(config.GetDbDir(), log.StandardLogger())
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Warn("error while closing db")
			}
		}
		if store, err = dbbadger.NewPocketStoreImpl(db); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	wallet, _ := walletinmemory.NewWallet()
	svc, err := application.NewPocketService(application.PocketServiceOpts{
		Store:        store,
		Wallet:       wallet,
		Network:      config.GetNetwork(),
		StoreKey:     config.GetString(config.StoreKeyKey),
		DefaultNames: config.GetStringSlice(config.DefaultPocketsKey),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if _, err := svc.Initialize(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}

	return svc, cleanup, nil
}

func printRespJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(buf))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[pocketctl] %v\n", err)
	}
	os.Exit(1)
}
