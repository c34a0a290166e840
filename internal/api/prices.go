package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
	"github.com/STTM-NSU/portfolio-tracker/internal/price"
)

const (
	_maxBatchSymbols = 100
	_batchWorkers    = 8
)

type priceResponse struct {
	Symbol         string               `json:"symbol"`
	InstrumentType model.InstrumentType `json:"instrument_type"`
	Market         model.Market         `json:"market,omitempty"`
	Price          float64              `json:"price"`
	Currency       string               `json:"currency"`
	Source         string               `json:"source,omitempty"`
}

type batchPriceRequest struct {
	Symbols []batchPriceSymbol `json:"symbols"`
}

type batchPriceSymbol struct {
	Symbol         string `json:"symbol"`
	InstrumentType string `json:"instrument_type"`
	Market         string `json:"market"`
}

// batchPriceResult holds either a quote or the reason there is none.
type batchPriceResult struct {
	*priceResponse
	Error string `json:"error,omitempty"`
}

func (h *Handler) pricesEnabled(w http.ResponseWriter) bool {
	if h.prices == nil {
		h.writeError(w, http.StatusServiceUnavailable, "price lookups are disabled")
		return false
	}
	return true
}

func (h *Handler) quote(ctx context.Context, symbol string, t model.InstrumentType, m model.Market) (*priceResponse, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	q, err := h.prices.Resolve(ctx, symbol, t, m)
	if err != nil {
		return nil, err
	}
	return &priceResponse{
		Symbol:         symbol,
		InstrumentType: t,
		Market:         m,
		Price:          q.Price,
		Currency:       q.Currency,
		Source:         q.Source,
	}, nil
}

// GET /api/prices/{instrumentType}/{symbol}?market=
func (h *Handler) getPrice(w http.ResponseWriter, r *http.Request) {
	if !h.pricesEnabled(w) {
		return
	}
	t, err := model.ParseInstrumentType(chi.URLParam(r, "instrumentType"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var m model.Market
	if v := r.URL.Query().Get("market"); v != "" {
		if m, err = model.ParseMarket(v); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	symbol := chi.URLParam(r, "symbol")
	resp, err := h.quote(r.Context(), symbol, t, m)
	if err != nil {
		if errors.Is(err, price.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "could not get price for "+symbol)
			return
		}
		h.logger.Warnf("%s: can't get price for %s", err, symbol)
		h.writeError(w, http.StatusBadGateway, "could not get price for "+symbol)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// POST /api/prices/batch
//
// Results are keyed by the requested symbol. A failed symbol carries an error
// instead of failing the whole batch.
func (h *Handler) batchPrices(w http.ResponseWriter, r *http.Request) {
	if !h.pricesEnabled(w) {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, _maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "can't read request body")
		return
	}
	var req batchPriceRequest
	if err := sonic.ConfigStd.Unmarshal(body, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid batch: "+err.Error())
		return
	}
	if len(req.Symbols) > _maxBatchSymbols {
		h.writeError(w, http.StatusBadRequest, "too many symbols in batch")
		return
	}

	results := make([]batchPriceResult, len(req.Symbols))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(_batchWorkers)
	for i, item := range req.Symbols {
		g.Go(func() error {
			results[i] = h.batchQuote(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]batchPriceResult, len(results))
	for i, item := range req.Symbols {
		out[item.Symbol] = results[i]
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) batchQuote(ctx context.Context, item batchPriceSymbol) batchPriceResult {
	t, err := model.ParseInstrumentType(item.InstrumentType)
	if err != nil {
		return batchPriceResult{Error: err.Error()}
	}
	var m model.Market
	if item.Market != "" {
		if m, err = model.ParseMarket(item.Market); err != nil {
			return batchPriceResult{Error: err.Error()}
		}
	}
	resp, err := h.quote(ctx, item.Symbol, t, m)
	if err != nil {
		return batchPriceResult{Error: err.Error()}
	}
	return batchPriceResult{priceResponse: resp}
}

// DELETE /api/prices/cache
func (h *Handler) clearPriceCache(w http.ResponseWriter, r *http.Request) {
	if !h.pricesEnabled(w) {
		return
	}
	if c, ok := h.prices.(price.CacheClearer); ok {
		if err := c.ClearCache(r.Context()); err != nil {
			h.logger.Errorf("%s: can't clear price cache", err)
			h.writeError(w, http.StatusInternalServerError, "can't clear price cache")
			return
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "price cache cleared"})
}
