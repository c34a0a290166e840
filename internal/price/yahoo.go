package price

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

const (
	_yahooChartURL  = "/v8/finance/chart/{symbol}"
	_yahooUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooErrorResponse struct {
	Chart struct {
		Error *yahooError `json:"error"`
	} `json:"chart"`
}

type YahooSource struct {
	c           *resty.Client
	rateLimiter ratelimit.Limiter
	logger      logger.Logger
}

func NewYahooSource(cfg config.HTTPSourceConfig, logger logger.Logger) *YahooSource {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", _yahooUserAgent)

	return &YahooSource{
		c:           client,
		rateLimiter: ratelimit.New(cfg.RatePerMinute, ratelimit.Per(time.Minute)),
		logger:      logger,
	}
}

func (s *YahooSource) Name() string {
	return config.SourceYahoo
}

func (s *YahooSource) Close() error {
	return s.c.Close()
}

// curl "https://query1.finance.yahoo.com/v8/finance/chart/PTT.BK?interval=1d&range=1d"
func (s *YahooSource) Quote(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error) {
	ticker, currency, err := YahooSymbol(symbol, instrumentType, market)
	if err != nil {
		return model.Quote{}, err
	}

	s.rateLimiter.Take()
	resp, err := s.c.R().
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"interval": "1d",
			"range":    "1d",
		}).
		SetResult(&yahooChartResponse{}).
		SetError(&yahooErrorResponse{}).
		SetContext(ctx).
		Get(_yahooChartURL)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: can't send yahoo chart request", err)
	}
	defer resp.Body.Close()

	s.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		if e, ok := resp.Error().(*yahooErrorResponse); ok && e.Chart.Error != nil {
			return model.Quote{}, fmt.Errorf("%w: yahoo %s: %s", ErrNotFound, e.Chart.Error.Code, e.Chart.Error.Description)
		}
		return model.Quote{}, fmt.Errorf("yahoo chart request error: %s", resp.Status())
	}

	chart, ok := resp.Result().(*yahooChartResponse)
	if !ok || len(chart.Chart.Result) == 0 {
		return model.Quote{}, fmt.Errorf("%w: empty yahoo chart for %s", ErrNotFound, ticker)
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 {
		return model.Quote{}, fmt.Errorf("%w: no market price for %s", ErrNotFound, ticker)
	}
	if meta.Currency != "" {
		currency = meta.Currency
	}

	return model.Quote{
		Price:    meta.RegularMarketPrice,
		Currency: currency,
		Source:   config.SourceYahoo,
	}, nil
}
