package price

import (
	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/metrics"
)

// Deps are the optional collaborators of the configured sources. A nil DB
// disables the stored source, a nil Invest client disables t-invest.
type Deps struct {
	DB      *sqlx.DB
	Invest  *investgo.Client
	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// NewResolver assembles the configured sources behind a router and cache.
// The returned func releases the http and redis clients.
func NewResolver(cfg config.PricesConfig, deps Deps) (Resolver, func()) {
	var (
		sources []Source
		closers []func() error
	)
	add := func(s Source) {
		sources = append(sources, NewInstrumented(s, deps.Metrics))
	}

	if cfg.Yahoo.IsEnabled() {
		y := NewYahooSource(cfg.Yahoo, deps.Logger.With("source", config.SourceYahoo))
		add(y)
		closers = append(closers, y.Close)
	}
	if cfg.Binance.IsEnabled() {
		b := NewBinanceSource(cfg.Binance, deps.Logger.With("source", config.SourceBinance))
		add(b)
		closers = append(closers, b.Close)
	}
	if cfg.TInvest.Enabled && deps.Invest != nil {
		add(NewTInvestSource(deps.Invest, deps.Logger.With("source", config.SourceTInvest)))
	}
	if cfg.Stored.Enabled && deps.DB != nil {
		add(NewStoredSource(deps.DB))
	}

	var resolver Resolver = NewRouter(cfg.Order, deps.Logger, sources...)

	switch cfg.Cache.Backend {
	case config.MemoryCache:
		resolver = NewCached(resolver, NewMemoryCache(), cfg.Cache.TTL)
	case config.RedisCache:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		closers = append(closers, rdb.Close)
		resolver = NewCached(resolver, NewRedisCache(rdb, deps.Logger), cfg.Cache.TTL)
	}

	return resolver, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				deps.Logger.Warnf("%s: can't close price client", err)
			}
		}
	}
}
