package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

type ServerConfig struct {
	Port              string        `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

const (
	_portDefault              = "8080"
	_readHeaderTimeoutDefault = 10 * time.Second
	_shutdownTimeoutDefault   = 15 * time.Second
)

func (c *ServerConfig) Setup() {
	if c.Port == "" {
		c.Port = _portDefault
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = _readHeaderTimeoutDefault
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = _shutdownTimeoutDefault
	}
}

type LogConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json, console
}

func (c *LogConfig) Setup() error {
	c.Level = strings.ToLower(c.Level)
	if c.Level == "" {
		c.Level = "info"
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Level) {
		return fmt.Errorf("unknown log level %q", c.Level)
	}

	c.Encoding = strings.ToLower(c.Encoding)
	if c.Encoding == "" {
		c.Encoding = "json"
	}
	if c.Encoding != "json" && c.Encoding != "console" {
		return fmt.Errorf("unknown log encoding %q", c.Encoding)
	}
	return nil
}

type EngineConfig struct {
	FallbackCurrency string        `yaml:"fallback_currency"`
	Workers          int           `yaml:"workers"`
	LookupTimeout    time.Duration `yaml:"lookup_timeout"`
}

const (
	_fallbackCurrencyDefault = "THB"
	_workersDefault          = 8
	_lookupTimeoutDefault    = 5 * time.Second
)

func (c *EngineConfig) Setup() {
	c.FallbackCurrency = strings.ToUpper(c.FallbackCurrency)
	if c.FallbackCurrency == "" {
		c.FallbackCurrency = _fallbackCurrencyDefault
	}
	if c.Workers <= 0 {
		c.Workers = _workersDefault
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = _lookupTimeoutDefault
	}
}

type HTTPSourceConfig struct {
	Enabled       *bool         `yaml:"enabled"`
	BaseURL       string        `yaml:"base_url"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	Timeout       time.Duration `yaml:"timeout"`
}

func (c *HTTPSourceConfig) setup(baseURL string, rate int) {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = rate
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

func (c HTTPSourceConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

type StoredConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CacheBackend string

const (
	MemoryCache CacheBackend = "memory"
	RedisCache  CacheBackend = "redis"
	NoCache     CacheBackend = "none"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	Backend CacheBackend  `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Redis   RedisConfig   `yaml:"redis"`
}

const (
	_cacheTTLDefault  = 60 * time.Second
	_redisAddrDefault = "localhost:6379"
)

func (c *CacheConfig) Setup() error {
	if c.Backend == "" {
		c.Backend = MemoryCache
	}
	switch c.Backend {
	case MemoryCache, NoCache:
	case RedisCache:
		if c.Redis.Addr == "" {
			c.Redis.Addr = _redisAddrDefault
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Backend)
	}
	if c.TTL <= 0 {
		c.TTL = _cacheTTLDefault
	}
	return nil
}

// Source names usable in PricesConfig.Order.
const (
	SourceYahoo   = "yahoo"
	SourceBinance = "binance"
	SourceTInvest = "tinvest"
	SourceStored  = "stored"
)

var _sourceNames = []string{SourceYahoo, SourceBinance, SourceTInvest, SourceStored}

type PricesConfig struct {
	Yahoo   HTTPSourceConfig                  `yaml:"yahoo"`
	Binance HTTPSourceConfig                  `yaml:"binance"`
	TInvest TInvestConfig                     `yaml:"tinvest"`
	Stored  StoredConfig                      `yaml:"stored"`
	Cache   CacheConfig                       `yaml:"cache"`
	Order   map[model.InstrumentType][]string `yaml:"order"`
}

const (
	_yahooBaseURLDefault   = "https://query1.finance.yahoo.com"
	_yahooRateDefault      = 60
	_binanceBaseURLDefault = "https://api.binance.com"
	_binanceRateDefault    = 600
)

// DefaultOrder is the source chain per instrument type used when the config
// leaves a type out.
func DefaultOrder() map[model.InstrumentType][]string {
	return map[model.InstrumentType][]string{
		model.Stock:        {SourceStored, SourceYahoo},
		model.ForeignStock: {SourceStored, SourceYahoo},
		model.Crypto:       {SourceBinance, SourceYahoo, SourceStored},
		model.Tfex:         {SourceYahoo, SourceStored},
		model.Gold:         {SourceYahoo, SourceStored},
		model.Commodity:    {SourceYahoo, SourceStored},
	}
}

func (c *PricesConfig) Setup() error {
	c.Yahoo.setup(_yahooBaseURLDefault, _yahooRateDefault)
	c.Binance.setup(_binanceBaseURLDefault, _binanceRateDefault)
	c.TInvest.Setup()

	if err := c.Cache.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup cache", err)
	}

	if c.Order == nil {
		c.Order = make(map[model.InstrumentType][]string)
	}
	for t, sources := range c.Order {
		if !t.Valid() {
			return fmt.Errorf("unknown instrument type %q in price order", t)
		}
		for _, s := range sources {
			if !slices.Contains(_sourceNames, s) {
				return fmt.Errorf("unknown price source %q for %s", s, t)
			}
		}
	}
	for t, sources := range DefaultOrder() {
		if _, ok := c.Order[t]; !ok {
			c.Order[t] = sources
		}
	}
	return nil
}

type LedgerConfig struct {
	AllowedCurrencies []string `yaml:"allowed_currencies"`
}

func (c *LedgerConfig) Setup() {
	if len(c.AllowedCurrencies) == 0 {
		c.AllowedCurrencies = []string{"USDT", "USDC"}
	}
	for i := range c.AllowedCurrencies {
		c.AllowedCurrencies[i] = strings.ToUpper(c.AllowedCurrencies[i])
	}
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Engine EngineConfig `yaml:"engine"`
	Prices PricesConfig `yaml:"prices"`
	Ledger LedgerConfig `yaml:"ledger"`
}

func (c *Config) ValidateAndSetup() error {
	c.Server.Setup()
	if err := c.Log.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup log", err)
	}
	c.Engine.Setup()
	if err := c.Prices.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup prices", err)
	}
	c.Ledger.Setup()

	return nil
}

// Default returns a fully set up config for runs without a config file.
func Default() Config {
	var cfg Config
	_ = cfg.ValidateAndSetup()
	return cfg
}

func LoadConfig(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
