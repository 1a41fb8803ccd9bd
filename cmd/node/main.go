package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/crestdex/crest/params"
	"github.com/crestdex/crest/pkg/api"
	"github.com/crestdex/crest/pkg/app/exchange"
	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/storage"
	"github.com/crestdex/crest/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("logger_initialized", zap.String("log_file", cfg.Node.LogFile))

	// ---- Storage ----
	if err := os.MkdirAll(cfg.Node.DataDir, 0o755); err != nil {
		logger.Fatal("data_dir_failed", zap.Error(err))
	}
	store, err := storage.NewPebbleStore(filepath.Join(cfg.Node.DataDir, "state"))
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer store.Close()

	wal, err := storage.NewFileWAL(cfg.Node.EventLog)
	if err != nil {
		logger.Fatal("event_log_open_failed", zap.Error(err))
	}
	defer wal.Close()

	// ---- Exchange + API ----
	// The API server doubles as the event broadcaster, so it is wired in
	// after construction.
	x := exchange.New(exchange.Options{
		Store:  store,
		WAL:    wal,
		Logger: logger,
	})
	srv := api.NewServer(x, logger)
	x.SetBroadcaster(srv)

	// ---- Default market: restore from snapshot or create fresh ----
	symbol := cfg.Market.Symbol
	restored, err := x.RestoreMarket(symbol)
	if err != nil {
		logger.Fatal("restore_failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if !restored {
		err := x.CreateMarket(book.Params{
			Symbol:     symbol,
			BaseAsset:  cfg.Market.BaseAsset,
			QuoteAsset: cfg.Market.QuoteAsset,
			TickSize:   cfg.Market.TickSize,
			LotSize:    cfg.Market.LotSize,
		})
		if err != nil {
			logger.Fatal("create_market_failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(cfg.API.Addr); err != nil {
			logger.Fatal("api_server_failed", zap.Error(err))
		}
	}()

	// ---- Snapshot loop ----
	if cfg.Node.SnapshotInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Node.SnapshotInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := x.SnapshotAll(); err != nil {
						logger.Warn("snapshot_failed", zap.Error(err))
					}
				}
			}
		}()
	}

	logger.Info("node_started",
		zap.String("symbol", symbol),
		zap.Bool("restored", restored),
		zap.String("api_addr", cfg.API.Addr))

	<-ctx.Done()

	// Final snapshot on shutdown so the next boot restores the live book.
	if err := x.SnapshotAll(); err != nil {
		logger.Warn("final_snapshot_failed", zap.Error(err))
	}
	logger.Info("node_stopped")
}
