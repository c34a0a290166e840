package price

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

const (
	_binanceTickerURL = "/api/v3/ticker/price"
	_binanceCurrency  = "USDT"
)

type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type binanceError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// BinanceSource quotes crypto against USDT on Binance spot.
type BinanceSource struct {
	c           *resty.Client
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

func NewBinanceSource(cfg config.HTTPSourceConfig, logger logger.Logger) *BinanceSource {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	return &BinanceSource{
		c:           client,
		rateLimiter: ratelimit.New(cfg.RatePerMinute, ratelimit.Per(time.Minute)),
		logger:      logger,
	}
}

func (s *BinanceSource) Name() string {
	return config.SourceBinance
}

func (s *BinanceSource) Close() error {
	return s.c.Close()
}

// curl "https://api.binance.com/api/v3/ticker/price?symbol=BTCUSDT"
func (s *BinanceSource) Quote(ctx context.Context, symbol string, instrumentType model.InstrumentType, _ model.Market) (model.Quote, error) {
	if instrumentType != model.Crypto {
		return model.Quote{}, fmt.Errorf("%w: binance quotes crypto only", ErrUnsupported)
	}
	pair := BinancePair(symbol)

	s.rateLimiter.Take()
	resp, err := s.c.R().
		SetQueryParam("symbol", pair).
		SetResult(&binanceTicker{}).
		SetError(&binanceError{}).
		SetContext(ctx).
		Get(_binanceTickerURL)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: can't send binance ticker request", err)
	}
	defer resp.Body.Close()

	s.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		if e, ok := resp.Error().(*binanceError); ok && e.Msg != "" {
			return model.Quote{}, fmt.Errorf("%w: binance %d: %s", ErrNotFound, e.Code, e.Msg)
		}
		return model.Quote{}, fmt.Errorf("binance ticker request error: %s", resp.Status())
	}

	ticker, ok := resp.Result().(*binanceTicker)
	if !ok || ticker.Price == "" {
		return model.Quote{}, fmt.Errorf("%w: empty binance ticker for %s", ErrNotFound, pair)
	}
	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: can't parse binance price %q", err, ticker.Price)
	}
	if !price.IsPositive() {
		return model.Quote{}, fmt.Errorf("%w: zero binance price for %s", ErrNotFound, pair)
	}

	return model.Quote{
		Price:    price.InexactFloat64(),
		Currency: _binanceCurrency,
		Source:   config.SourceBinance,
	}, nil
}
