package price

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"
	"go.uber.org/ratelimit"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

type tinvestInstrument struct {
	uid      string
	currency string
}

// TInvestSource quotes MOEX instruments through the T-Invest API.
type TInvestSource struct {
	instrClient *investgo.InstrumentsServiceClient
	mdClient    *investgo.MarketDataServiceClient
	rateLimiter ratelimit.Limiter
	logger      logger.Logger

	mu          sync.Mutex
	instruments map[string]tinvestInstrument
}

func NewTInvestSource(client *investgo.Client, logger logger.Logger) *TInvestSource {
	return &TInvestSource{
		instrClient: client.NewInstrumentsServiceClient(),
		mdClient:    client.NewMarketDataServiceClient(),
		rateLimiter: ratelimit.New(200, ratelimit.Per(1*time.Minute)),
		logger:      logger,
		instruments: make(map[string]tinvestInstrument),
	}
}

func (s *TInvestSource) Name() string {
	return config.SourceTInvest
}

func (s *TInvestSource) Quote(ctx context.Context, symbol string, _ model.InstrumentType, market model.Market) (model.Quote, error) {
	if market != model.Moex {
		return model.Quote{}, fmt.Errorf("%w: t-invest quotes moex only", ErrUnsupported)
	}
	if err := ctx.Err(); err != nil {
		return model.Quote{}, err
	}

	instr, err := s.instrument(strings.ToUpper(symbol))
	if err != nil {
		return model.Quote{}, err
	}

	s.rateLimiter.Take()
	resp, err := s.mdClient.GetLastPrices([]string{instr.uid})
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: can't get last price", err)
	}
	if len(resp.GetLastPrices()) == 0 {
		return model.Quote{}, fmt.Errorf("%w: empty last price for %s", ErrNotFound, symbol)
	}

	return model.Quote{
		Price:    resp.GetLastPrices()[0].GetPrice().ToFloat(),
		Currency: strings.ToUpper(instr.currency),
		Source:   config.SourceTInvest,
	}, nil
}

func (s *TInvestSource) instrument(ticker string) (tinvestInstrument, error) {
	s.mu.Lock()
	if v, ok := s.instruments[ticker]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	s.rateLimiter.Take()
	resp, err := s.instrClient.FindInstrument(ticker)
	if err != nil {
		return tinvestInstrument{}, fmt.Errorf("%w: can't find instrument", err)
	}

	for _, i := range resp.GetInstruments() {
		if !strings.EqualFold(i.GetTicker(), ticker) || !i.GetApiTradeAvailableFlag() {
			continue
		}

		s.rateLimiter.Take()
		info, err := s.instrClient.InstrumentByFigi(i.GetFigi())
		if err != nil {
			s.logger.Warnf("%s: can't get info for figi=%s", err, i.GetFigi())
			continue
		}

		instr := tinvestInstrument{
			uid:      info.GetInstrument().GetUid(),
			currency: info.GetInstrument().GetCurrency(),
		}
		s.mu.Lock()
		s.instruments[ticker] = instr
		s.mu.Unlock()
		return instr, nil
	}

	return tinvestInstrument{}, fmt.Errorf("%w: no tradable t-invest instrument %s", ErrNotFound, ticker)
}
