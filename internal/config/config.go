package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"

	"github.com/darkwallet/pockets/internal/core/domain"
)

const (
	// DatadirKey is the local data directory to store the pockets
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch database type between those supported
	DBTypeKey = "DB_TYPE"
	// NetworkKey is the bitcoin network imported addresses are validated
	// against. Either "mainnet", "testnet" or "regtest"
	NetworkKey = "NETWORK"
	// DefaultPocketsKey are the names of the HD pockets seeded into an empty
	// store
	DefaultPocketsKey = "DEFAULT_POCKETS"
	// StoreKeyKey is the key the HD pocket records are stored under
	StoreKeyKey = "STORE_KEY"

	DbLocation = "db"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkRegtest = "regtest"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("pockets", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("POCKETS")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(NetworkKey, NetworkMainnet)
	vip.SetDefault(DefaultPocketsKey, strings.Join(domain.DefaultPocketNames, ","))
	vip.SetDefault(StoreKeyKey, domain.PocketsStoreKey)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetStringSlice splits comma separated values, since env vars can't hold
// lists
func GetStringSlice(key string) []string {
	list := make([]string, 0)
	for _, v := range strings.Split(vip.GetString(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

func GetNetwork() *chaincfg.Params {
	switch GetString(NetworkKey) {
	case NetworkTestnet:
		return &chaincfg.TestNet3Params
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams
	default:
		return &chaincfg.MainNetParams
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	dbType := GetString(DBTypeKey)
	if dbType != DBBadger && dbType != DBInMemory {
		return fmt.Errorf(
			"db type must be either '%s' or '%s'", DBBadger, DBInMemory,
		)
	}

	net := GetString(NetworkKey)
	if net != NetworkMainnet && net != NetworkTestnet && net != NetworkRegtest {
		return fmt.Errorf(
			"network must be one of '%s', '%s' or '%s'",
			NetworkMainnet, NetworkTestnet, NetworkRegtest,
		)
	}

	if len(GetString(StoreKeyKey)) <= 0 {
		return fmt.Errorf("missing store key")
	}

	return nil
}

func initDatadir() error {
	if GetString(DBTypeKey) != DBBadger {
		return nil
	}
	return makeDirectoryIfNotExists(GetDbDir())
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
