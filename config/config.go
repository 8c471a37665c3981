package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del sniper.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// EngineConfig controla el loop de trading y el gate de entrada.
type EngineConfig struct {
	PollIntervalMS    int     `yaml:"poll_interval_ms"`
	PacingDelayMS     int     `yaml:"pacing_delay_ms"`    // pausa entre tokens de un mismo lote
	MonitorIntervalMS int     `yaml:"monitor_interval_ms"`
	TradeSize         float64 `yaml:"trade_size"`         // SOL por compra
	ExitAgeMinutes    float64 `yaml:"exit_age_minutes"`   // edad del par a la que se vende
	MinLiquidityUSD   float64 `yaml:"min_liquidity_usd"`
	MinBuys24h        int     `yaml:"min_buys_24h"`
	MaxAgeMinutes     float64 `yaml:"max_age_minutes"`
	CatalogWorkers    int     `yaml:"catalog_workers"`
}

// LedgerConfig controla el wallet simulado.
type LedgerConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
	SlippageBps    int     `yaml:"slippage_bps"`
	BaseMint       string  `yaml:"base_mint"`
	BaseDecimals   int32   `yaml:"base_decimals"`
}

// DiscoveryConfig controla el feed de tokens.
type DiscoveryConfig struct {
	ChainID     string   `yaml:"chain_id"`
	Keywords    []string `yaml:"keywords"` // vacío = lista por defecto
	MaxRetries  int      `yaml:"max_retries"`
	RetryBaseMS int      `yaml:"retry_base_ms"`
	TimeoutMS   int      `yaml:"timeout_ms"`
}

// APIConfig contiene los base URLs de las APIs externas.
type APIConfig struct {
	DexScreenerBase string  `yaml:"dexscreener_base"`
	JupiterBase     string  `yaml:"jupiter_base"`
	JupiterRate     float64 `yaml:"jupiter_rate_per_sec"`
	SolanaRPC       string  `yaml:"solana_rpc"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // sqlite | postgres
	DSN         string `yaml:"dsn"`    // ruta SQLite (o ":memory:") o URL de Postgres
	RedisURL    string `yaml:"redis_url"`
	CacheTTLSec int    `yaml:"cache_ttl_seconds"`
	JournalDSN  string `yaml:"journal_dsn"` // SQLite con los resúmenes de trades
}

// ServerConfig controla la API HTTP.
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Enabled *bool  `yaml:"enabled"` // nil = habilitado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PollInterval devuelve el intervalo del engine como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Engine.PollIntervalMS) * time.Millisecond
}

// PacingDelay devuelve la pausa entre tokens.
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.Engine.PacingDelayMS) * time.Millisecond
}

// MonitorInterval devuelve el intervalo de chequeo de posiciones.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Engine.MonitorIntervalMS) * time.Millisecond
}

func (c *Config) RetryBase() time.Duration {
	return time.Duration(c.Discovery.RetryBaseMS) * time.Millisecond
}

func (c *Config) DiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.TimeoutMS) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Storage.CacheTTLSec) * time.Second
}

// ServerEnabled es true salvo que el YAML lo desactive explícitamente.
func (c *Config) ServerEnabled() bool {
	return c.Server.Enabled == nil || *c.Server.Enabled
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Driver = "postgres"
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		cfg.API.SolanaRPC = v
	}
	if v := os.Getenv("DEXSCREENER_BASE_URL"); v != "" {
		cfg.API.DexScreenerBase = v
	}
	if v := os.Getenv("JUPITER_BASE_URL"); v != "" {
		cfg.API.JupiterBase = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	e := &cfg.Engine
	if e.PollIntervalMS <= 0 {
		e.PollIntervalMS = 5000
	}
	if e.PacingDelayMS <= 0 {
		e.PacingDelayMS = 1000
	}
	if e.MonitorIntervalMS <= 0 {
		e.MonitorIntervalMS = 100
	}
	if e.TradeSize <= 0 {
		e.TradeSize = 0.1
	}
	if e.ExitAgeMinutes <= 0 {
		e.ExitAgeMinutes = 4.5
	}
	if e.MinLiquidityUSD <= 0 {
		e.MinLiquidityUSD = 100_000
	}
	if e.MinBuys24h <= 0 {
		e.MinBuys24h = 50
	}
	if e.MaxAgeMinutes <= 0 {
		e.MaxAgeMinutes = 4
	}

	if cfg.Ledger.InitialBalance <= 0 {
		cfg.Ledger.InitialBalance = 5
	}
	if cfg.Ledger.SlippageBps <= 0 {
		cfg.Ledger.SlippageBps = 100
	}

	d := &cfg.Discovery
	if d.ChainID == "" {
		d.ChainID = "solana"
	}
	if d.MaxRetries <= 0 {
		d.MaxRetries = 3
	}
	if d.RetryBaseMS <= 0 {
		d.RetryBaseMS = 2000
	}
	if d.TimeoutMS <= 0 {
		d.TimeoutMS = 10_000
	}

	if cfg.API.DexScreenerBase == "" {
		cfg.API.DexScreenerBase = "https://api.dexscreener.com"
	}
	if cfg.API.JupiterBase == "" {
		cfg.API.JupiterBase = "https://quote-api.jup.ag/v6"
	}
	if cfg.API.SolanaRPC == "" {
		cfg.API.SolanaRPC = "https://api.mainnet-beta.solana.com"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "dexsniper.db"
	}
	if cfg.Storage.CacheTTLSec <= 0 {
		cfg.Storage.CacheTTLSec = 30
	}
	if cfg.Storage.JournalDSN == "" {
		cfg.Storage.JournalDSN = "trades.db"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver %q: must be sqlite or postgres", c.Storage.Driver)
	}
	if c.Engine.ExitAgeMinutes <= c.Engine.MaxAgeMinutes {
		return fmt.Errorf("engine.exit_age_minutes (%.2f) must exceed max_age_minutes (%.2f)",
			c.Engine.ExitAgeMinutes, c.Engine.MaxAgeMinutes)
	}
	return nil
}
