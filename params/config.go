package params

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type API struct {
	Addr string
}

type Node struct {
	DataDir string
	// SnapshotInterval is how often books are persisted. Zero disables the
	// periodic snapshot loop (a snapshot is still taken on shutdown).
	SnapshotInterval time.Duration
	EventLog         string
	LogFile          string
}

// Market is the default market bootstrapped on a fresh node.
type Market struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	TickSize   uint64
	LotSize    uint64
}

type Config struct {
	API    API
	Node   Node
	Market Market
}

func Default() Config {
	return Config{
		API: API{Addr: ":8080"},
		Node: Node{
			DataDir:          "data",
			SnapshotInterval: 30 * time.Second,
			EventLog:         "data/events.log",
			LogFile:          "data/node.log",
		},
		Market: Market{
			Symbol:     "CRST-USDC",
			BaseAsset:  "CRST",
			QuoteAsset: "USDC",
			TickSize:   1,
			LotSize:    1,
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if addr := os.Getenv("API_ADDR"); addr != "" {
		cfg.API.Addr = addr
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Node.DataDir = dir
	}
	if path := os.Getenv("EVENT_LOG_FILE"); path != "" {
		cfg.Node.EventLog = path
	}
	if path := os.Getenv("LOG_FILE"); path != "" {
		cfg.Node.LogFile = path
	}
	if iv := os.Getenv("SNAPSHOT_INTERVAL_MS"); iv != "" {
		if ms, err := strconv.Atoi(iv); err == nil && ms >= 0 {
			cfg.Node.SnapshotInterval = time.Duration(ms) * time.Millisecond
		}
	}

	if sym := os.Getenv("MARKET_SYMBOL"); sym != "" {
		cfg.Market.Symbol = sym
	}
	if base := os.Getenv("MARKET_BASE"); base != "" {
		cfg.Market.BaseAsset = base
	}
	if quote := os.Getenv("MARKET_QUOTE"); quote != "" {
		cfg.Market.QuoteAsset = quote
	}
	if tick := os.Getenv("MARKET_TICK_SIZE"); tick != "" {
		if v, err := strconv.ParseUint(tick, 10, 64); err == nil && v > 0 {
			cfg.Market.TickSize = v
		}
	}
	if lot := os.Getenv("MARKET_LOT_SIZE"); lot != "" {
		if v, err := strconv.ParseUint(lot, 10, 64); err == nil && v > 0 {
			cfg.Market.LotSize = v
		}
	}

	return cfg
}
