// Package api exposes portfolios and ledgers over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/STTM-NSU/portfolio-tracker/internal/ledger"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/metrics"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
	"github.com/STTM-NSU/portfolio-tracker/internal/pnl"
	"github.com/STTM-NSU/portfolio-tracker/internal/price"
)

const _maxBodyBytes = 1 << 20

type TradeStore interface {
	List(ctx context.Context, userID string) ([]model.Trade, error)
	Get(ctx context.Context, userID, id string) (model.Trade, error)
	Add(ctx context.Context, userID string, t model.Trade) (model.Trade, error)
	Delete(ctx context.Context, userID, id string) error
}

type Handler struct {
	store   TradeStore
	engine  *pnl.Engine
	prices  price.Resolver
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewHandler builds the API. prices may be nil, then the price routes answer 503.
func NewHandler(store TradeStore, engine *pnl.Engine, prices price.Resolver, metrics *metrics.Metrics, logger logger.Logger) *Handler {
	return &Handler{
		store:   store,
		engine:  engine,
		prices:  prices,
		metrics: metrics,
		logger:  logger,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", h.portfolio)
			r.Get("/summary", h.summary)
			r.Get("/type/{instrumentType}", h.portfolioByType)
			r.Get("/market/{market}", h.portfolioByMarket)
		})
		r.Route("/trades", func(r chi.Router) {
			r.Get("/", h.listTrades)
			r.Post("/", h.addTrade)
			r.Get("/{tradeID}", h.getTrade)
			r.Delete("/{tradeID}", h.deleteTrade)
		})
	})

	r.Route("/api/prices", func(r chi.Router) {
		r.Post("/batch", h.batchPrices)
		r.Delete("/cache", h.clearPriceCache)
		r.Get("/{instrumentType}/{symbol}", h.getPrice)
	})

	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debugf("%s %s %d %s request_id=%s", r.Method, r.URL.Path, ww.Status(), time.Since(start), middleware.GetReqID(r.Context()))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		h.logger.Errorf("%s: can't encode response", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request, req pnl.Request) (*pnl.Result, bool) {
	userID := chi.URLParam(r, "userID")

	if v := r.URL.Query().Get("include_closed"); v != "" {
		includeClosed, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid include_closed: %s", v))
			return nil, false
		}
		req.IncludeClosed = includeClosed
	}

	trades, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.logger.Errorf("%s: can't list trades of user %s", err, userID)
		h.writeError(w, http.StatusInternalServerError, "can't load trades")
		return nil, false
	}
	req.Trades = trades

	res, err := h.engine.Compute(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false
		}
		h.logger.Errorf("%s: can't compute portfolio of user %s", err, userID)
		h.writeError(w, http.StatusInternalServerError, "can't compute portfolio")
		return nil, false
	}
	return res, true
}

// GET /api/users/{userID}/portfolio?include_closed=bool
func (h *Handler) portfolio(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r, pnl.Request{})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// GET /api/users/{userID}/portfolio/summary
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	res, ok := h.compute(w, r, pnl.Request{})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, res.Summary)
}

// GET /api/users/{userID}/portfolio/type/{instrumentType}
func (h *Handler) portfolioByType(w http.ResponseWriter, r *http.Request) {
	t, err := model.ParseInstrumentType(chi.URLParam(r, "instrumentType"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.compute(w, r, pnl.Request{InstrumentType: t})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// GET /api/users/{userID}/portfolio/market/{market}
func (h *Handler) portfolioByMarket(w http.ResponseWriter, r *http.Request) {
	m, err := model.ParseMarket(chi.URLParam(r, "market"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, ok := h.compute(w, r, pnl.Request{Market: m})
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

type tradesResponse struct {
	Trades []model.Trade `json:"trades"`
}

func (h *Handler) listTrades(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	trades, err := h.store.List(r.Context(), userID)
	if err != nil {
		h.logger.Errorf("%s: can't list trades of user %s", err, userID)
		h.writeError(w, http.StatusInternalServerError, "can't load trades")
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	h.writeJSON(w, http.StatusOK, tradesResponse{Trades: trades})
}

func (h *Handler) getTrade(w http.ResponseWriter, r *http.Request) {
	userID, id := chi.URLParam(r, "userID"), chi.URLParam(r, "tradeID")
	t, err := h.store.Get(r.Context(), userID, id)
	if err != nil {
		h.storeError(w, err, "can't load trade")
		return
	}
	h.writeJSON(w, http.StatusOK, t)
}

func (h *Handler) addTrade(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	body, err := io.ReadAll(io.LimitReader(r.Body, _maxBodyBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "can't read request body")
		return
	}
	var t model.Trade
	if err := sonic.ConfigStd.Unmarshal(body, &t); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid trade: "+err.Error())
		return
	}

	added, err := h.store.Add(r.Context(), userID, t)
	if err != nil {
		h.storeError(w, err, "can't store trade")
		return
	}
	h.writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) deleteTrade(w http.ResponseWriter, r *http.Request) {
	userID, id := chi.URLParam(r, "userID"), chi.URLParam(r, "tradeID")
	if err := h.store.Delete(r.Context(), userID, id); err != nil {
		h.storeError(w, err, "can't delete trade")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) storeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, model.ErrInvalidTrade):
		h.writeError(w, http.StatusBadRequest, strings.ReplaceAll(err.Error(), "\n", "; "))
	case errors.Is(err, ledger.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Errorf("%s: %s", err, msg)
		h.writeError(w, http.StatusInternalServerError, msg)
	}
}
