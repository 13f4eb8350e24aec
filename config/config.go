package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	"github.com/tonmarket-network/sale-daemon/pkg/tonaddr"
)

const (
	// HTTPPortKey is the port where the HTTP query interface will listen on
	HTTPPortKey = "HTTP_PORT"
	// GatewayWSURLKey is the websocket endpoint of the chain gateway's message feed
	GatewayWSURLKey = "GATEWAY_WS_URL"
	// GatewayHTTPURLKey is the base url of the chain gateway's REST API
	GatewayHTTPURLKey = "GATEWAY_HTTP_URL"
	// DatadirKey is the local data directory to store the internal state of daemon
	DatadirKey = "DATA_DIR_PATH"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DbTypeKey selects the storage backend. Either "badger" or "inmemory"
	DbTypeKey = "DB_TYPE"
	// ContractAddressKey is the address of the sale contract guarded by the daemon
	ContractAddressKey = "CONTRACT_ADDRESS"

	// CreatedAtKey is the deploy timestamp in Unix seconds, covered by the deploy signature
	CreatedAtKey = "CREATED_AT"
	// MarketplaceAddressKey is the address of the marketplace that deployed the sale
	MarketplaceAddressKey = "MARKETPLACE_ADDRESS"
	// NftAddressKey is the address of the nft put on sale
	NftAddressKey = "NFT_ADDRESS"
	// FullPriceKey is the native price of the nft in minimal units
	FullPriceKey = "FULL_PRICE"
	// FeeAddressKey is the destination of the marketplace fee
	FeeAddressKey = "FEE_ADDRESS"
	// FeeAmountKey is the marketplace fee in minimal units
	FeeAmountKey = "FEE_AMOUNT"
	// RoyaltyAddressKey is the destination of the royalty
	RoyaltyAddressKey = "ROYALTY_ADDRESS"
	// RoyaltyAmountKey is the royalty in minimal units
	RoyaltyAmountKey = "ROYALTY_AMOUNT"
	// PublicKeyKey is the hex encoded ed25519 key authorizing the deploy message
	PublicKeyKey = "PUBLIC_KEY"

	DbLocation = "db"

	DbTypeBadger   = "badger"
	DbTypeInMemory = "inmemory"
)

var vip *viper.Viper

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("SALE")
	vip.AutomaticEnv()

	vip.SetDefault(HTTPPortKey, 9945)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DbTypeKey, DbTypeBadger)
	vip.SetDefault(GatewayWSURLKey, "ws://localhost:8546/ws")
	vip.SetDefault(GatewayHTTPURLKey, "http://localhost:8545")
	vip.SetDefault(DatadirKey, defaultDatadir())

	if err := validate(); err != nil {
		log.WithError(err).Panic("error while validating config")
	}

	if err := initDatadir(); err != nil {
		log.WithError(err).Panic("error while creating datadir")
	}
}

//GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

//GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

//GetUint64 ...
func GetUint64(key string) uint64 {
	return vip.GetUint64(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetSaleConfig assembles the deploy-time sale parameters from the
// environment.
func GetSaleConfig() (*domain.SaleConfig, error) {
	marketplace, err := tonaddr.Parse(GetString(MarketplaceAddressKey))
	if err != nil {
		return nil, fmt.Errorf("invalid marketplace address: %w", err)
	}
	nft, err := tonaddr.Parse(GetString(NftAddressKey))
	if err != nil {
		return nil, fmt.Errorf("invalid nft address: %w", err)
	}
	feeAddr, err := tonaddr.Parse(GetString(FeeAddressKey))
	if err != nil {
		return nil, fmt.Errorf("invalid fee address: %w", err)
	}
	royaltyAddr, err := tonaddr.Parse(GetString(RoyaltyAddressKey))
	if err != nil {
		return nil, fmt.Errorf("invalid royalty address: %w", err)
	}
	pubKey, err := hex.DecodeString(GetString(PublicKeyKey))
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	return &domain.SaleConfig{
		CreatedAt:             vip.GetInt64(CreatedAtKey),
		MarketplaceAddress:    marketplace,
		NftAddress:            nft,
		FullPrice:             GetUint64(FullPriceKey),
		MarketplaceFeeAddress: feeAddr,
		MarketplaceFee:        GetUint64(FeeAmountKey),
		RoyaltyAddress:        royaltyAddr,
		RoyaltyAmount:         GetUint64(RoyaltyAmountKey),
		PublicKey:             pubKey,
	}, nil
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	dbType := GetString(DbTypeKey)
	if dbType != DbTypeBadger && dbType != DbTypeInMemory {
		return fmt.Errorf(
			"db type must be either '%s' or '%s'", DbTypeBadger, DbTypeInMemory,
		)
	}

	return nil
}

func defaultDatadir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".saled"
	}
	return filepath.Join(home, ".saled")
}

func initDatadir() error {
	return makeDirectoryIfNotExists(filepath.Join(GetDatadir(), DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
