package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/tonmarket-network/sale-daemon/config"
	"github.com/tonmarket-network/sale-daemon/internal/core/application"
	"github.com/tonmarket-network/sale-daemon/internal/core/domain"
	dbbadger "github.com/tonmarket-network/sale-daemon/internal/infrastructure/storage/db/badger"
	"github.com/tonmarket-network/sale-daemon/internal/infrastructure/storage/db/inmemory"
	"golang.org/x/sync/errgroup"

	"github.com/tonmarket-network/sale-daemon/internal/infrastructure/chain"
	httpinterface "github.com/tonmarket-network/sale-daemon/internal/interfaces/http"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	saleConfig, err := config.GetSaleConfig()
	if err != nil {
		log.WithError(err).Panic("invalid sale parameters")
	}

	saleRepository, closeDb, err := openSaleRepository()
	if err != nil {
		log.WithError(err).Panic("error while opening storage")
	}
	defer closeDb()

	// seed the record so that the query interface works from the start
	if _, err := saleRepository.GetOrCreateSale(
		context.Background(), domain.NewSale(*saleConfig),
	); err != nil {
		log.WithError(err).Panic("error while seeding sale record")
	}

	transferSender := chain.NewGatewaySender(config.GetString(config.GatewayHTTPURLKey))
	saleService := application.NewSaleService(saleRepository, transferSender)

	chainSource := chain.NewWebsocketSource(
		config.GetString(config.GatewayWSURLKey),
		config.GetString(config.ContractAddressKey),
	)
	chainListener := application.NewChainListener(saleService, chainSource)
	chainListener.ObserveChain()
	defer chainListener.StopObserveChain()

	httpAddress := fmt.Sprintf(":%+v", config.GetInt(config.HTTPPortKey))
	httpServer := httpinterface.NewServer(httpAddress, saleService)

	var eg errgroup.Group
	eg.Go(httpServer.ListenAndServe)
	eg.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		log.Debug("shutting down")
		return httpServer.Shutdown()
	})

	log.Debug("daemon started")

	if err := eg.Wait(); err != nil {
		log.WithError(err).Error("daemon stopped with error")
	}

	log.Debug("exiting")
}

// openSaleRepository picks the storage backend from the config and returns
// the repository together with its closer.
func openSaleRepository() (domain.SaleRepository, func(), error) {
	if config.GetString(config.DbTypeKey) == config.DbTypeInMemory {
		return inmemory.NewSaleRepositoryImpl(), func() {}, nil
	}

	dbDir := filepath.Join(config.GetDatadir(), config.DbLocation)
	dbManager, err := dbbadger.NewDbManager(dbDir, log.New())
	if err != nil {
		return nil, nil, err
	}
	return dbbadger.NewSaleRepositoryImpl(dbManager), func() {
		if err := dbManager.Close(); err != nil {
			log.WithError(err).Warn("error while closing storage")
		}
	}, nil
}
