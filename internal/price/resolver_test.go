package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/metrics"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

type stubSource struct {
	name  string
	quote model.Quote
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Quote(context.Context, string, model.InstrumentType, model.Market) (model.Quote, error) {
	s.calls++
	return s.quote, s.err
}

func TestRouter_FirstSuccessWins(t *testing.T) {
	binance := &stubSource{name: config.SourceBinance, err: errors.New("timeout")}
	yahoo := &stubSource{name: config.SourceYahoo, quote: model.Quote{Price: 60000, Currency: "USD"}}
	stored := &stubSource{name: config.SourceStored, quote: model.Quote{Price: 1}}

	r := NewRouter(config.DefaultOrder(), logger.NewNop(), binance, yahoo, stored)
	q, err := r.Resolve(context.Background(), "BTC", model.Crypto, model.Binance)
	require.NoError(t, err)

	assert.Equal(t, 60000.0, q.Price)
	assert.Equal(t, config.SourceYahoo, q.Source)
	assert.Equal(t, 1, binance.calls)
	assert.Zero(t, stored.calls)
}

func TestRouter_AllFail(t *testing.T) {
	yahoo := &stubSource{name: config.SourceYahoo, err: ErrNotFound}
	stored := &stubSource{name: config.SourceStored, err: errors.New("db down")}

	r := NewRouter(config.DefaultOrder(), logger.NewNop(), yahoo, stored)
	_, err := r.Resolve(context.Background(), "PTT", model.Stock, model.Set)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "db down")
	assert.ErrorContains(t, err, "yahoo")
}

func TestRouter_NoSources(t *testing.T) {
	r := NewRouter(config.DefaultOrder(), logger.NewNop())
	_, err := r.Resolve(context.Background(), "PTT", model.Stock, model.Set)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRouter_MoexTriesTInvestFirst(t *testing.T) {
	tinvest := &stubSource{name: config.SourceTInvest, quote: model.Quote{Price: 280, Currency: "RUB"}}
	yahoo := &stubSource{name: config.SourceYahoo, quote: model.Quote{Price: 1}}

	r := NewRouter(config.DefaultOrder(), logger.NewNop(), tinvest, yahoo)
	q, err := r.Resolve(context.Background(), "SBER", model.ForeignStock, model.Moex)
	require.NoError(t, err)
	assert.Equal(t, "RUB", q.Currency)
	assert.Zero(t, yahoo.calls)

	_, err = r.Resolve(context.Background(), "AAPL", model.ForeignStock, model.Nasdaq)
	require.NoError(t, err)
	assert.Equal(t, 1, tinvest.calls)
}

func TestInstrumented(t *testing.T) {
	m := metrics.New()
	ok := NewInstrumented(&stubSource{name: "ok", quote: model.Quote{Price: 1}}, m)
	bad := NewInstrumented(&stubSource{name: "bad", err: errors.New("boom")}, m)
	skip := NewInstrumented(&stubSource{name: "skip", err: ErrUnsupported}, m)

	_, _ = ok.Quote(context.Background(), "A", model.Stock, model.Set)
	_, _ = bad.Quote(context.Background(), "A", model.Stock, model.Set)
	_, _ = skip.Quote(context.Background(), "A", model.Stock, model.Set)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	lookups := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "portfolio_price_lookups_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range metric.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			lookups[labels["source"]+"/"+labels["result"]] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"ok/ok": 1, "bad/error": 1}, lookups)
}

type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) Resolve(context.Context, string, model.InstrumentType, model.Market) (model.Quote, error) {
	r.calls++
	if r.err != nil {
		return model.Quote{}, r.err
	}
	return model.Quote{Price: float64(r.calls), Currency: "THB"}, nil
}

func TestCached(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }

	next := &countingResolver{}
	c := NewCached(next, cache, time.Minute)
	ctx := context.Background()

	q, err := c.Resolve(ctx, "ptt", model.Stock, model.Set)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q.Price)

	q, err = c.Resolve(ctx, "PTT", model.Stock, model.Set)
	require.NoError(t, err)
	assert.Equal(t, 1.0, q.Price, "served from cache")

	_, err = c.Resolve(ctx, "PTT", model.Stock, model.Mai)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "market is part of the key")

	now = now.Add(time.Minute)
	q, err = c.Resolve(ctx, "PTT", model.Stock, model.Set)
	require.NoError(t, err)
	assert.Equal(t, 3.0, q.Price, "expired")
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	next := &countingResolver{err: ErrNotFound}
	c := NewCached(next, NewMemoryCache(), time.Minute)

	for range 2 {
		_, err := c.Resolve(context.Background(), "X", model.Gold, model.NoMarket)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 2, next.calls)
}

func TestCached_ClearCache(t *testing.T) {
	next := &countingResolver{}
	c := NewCached(next, NewMemoryCache(), time.Minute)
	ctx := context.Background()

	_, err := c.Resolve(ctx, "PTT", model.Stock, model.Set)
	require.NoError(t, err)
	require.NoError(t, c.ClearCache(ctx))

	q, err := c.Resolve(ctx, "PTT", model.Stock, model.Set)
	require.NoError(t, err)
	assert.Equal(t, 2.0, q.Price)
	assert.Equal(t, 2, next.calls)

	var _ CacheClearer = c
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "crypto:BINANCE:BTC", CacheKey("btc", model.Crypto, model.Binance))
	assert.Equal(t, "gold::XAU", CacheKey("XAU", model.Gold, model.NoMarket))
}

func TestStoredSource(t *testing.T) {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	ctx := context.Background()
	s := NewStoredSource(db)
	require.NoError(t, s.Migrate(ctx))

	_, err = s.Quote(ctx, "GOLD96.5", model.Gold, model.NoMarket)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Upsert(ctx, "gold96.5", model.Gold, model.NoMarket, model.Quote{Price: 42000, Currency: "thb"}))
	q, err := s.Quote(ctx, "GOLD96.5", model.Gold, model.NoMarket)
	require.NoError(t, err)
	assert.Equal(t, model.Quote{Price: 42000, Currency: "THB", Source: "stored"}, q)

	require.NoError(t, s.Upsert(ctx, "GOLD96.5", model.Gold, model.NoMarket, model.Quote{Price: 42500, Currency: "THB"}))
	q, err = s.Quote(ctx, "gold96.5", model.Gold, model.NoMarket)
	require.NoError(t, err)
	assert.Equal(t, 42500.0, q.Price)

	require.NoError(t, s.Upsert(ctx, "ADVANC", model.Stock, model.Set, model.Quote{Price: 250}))
	q, err = s.Quote(ctx, "ADVANC", model.Stock, model.Set)
	require.NoError(t, err)
	assert.Equal(t, "THB", q.Currency)

	assert.Error(t, s.Upsert(ctx, "X", model.Gold, model.NoMarket, model.Quote{Price: 0, Currency: "USD"}))
	assert.Error(t, s.Upsert(ctx, "X", model.Gold, model.NoMarket, model.Quote{Price: 1}))
}

func TestNewResolver_DisabledSources(t *testing.T) {
	cfg := config.Default().Prices
	disabled := false
	cfg.Yahoo.Enabled = &disabled
	cfg.Binance.Enabled = &disabled

	r, closeFn := NewResolver(cfg, Deps{Logger: logger.NewNop(), Metrics: metrics.New()})
	defer closeFn()

	_, err := r.Resolve(context.Background(), "PTT", model.Stock, model.Set)
	assert.ErrorIs(t, err, ErrNotFound)
}
