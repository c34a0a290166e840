// Package ledger stores users' trades. Trades are validated on the way in and
// never change once stored.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

var ErrNotFound = errors.New("trade not found")

const _schema = `
CREATE TABLE IF NOT EXISTS trades (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	instrument_type TEXT NOT NULL,
	symbol          TEXT NOT NULL,
	action          TEXT NOT NULL,
	quantity        DOUBLE PRECISION NOT NULL,
	price           DOUBLE PRECISION NOT NULL,
	fees            DOUBLE PRECISION NOT NULL DEFAULT 0,
	market          TEXT NOT NULL DEFAULT '',
	currency        TEXT NOT NULL DEFAULT '',
	leverage        DOUBLE PRECISION,
	unit            TEXT NOT NULL DEFAULT '',
	executed_at     TIMESTAMP NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS trades_user_executed_idx ON trades (user_id, executed_at);`

const (
	_columns     = "id, user_id, instrument_type, symbol, action, quantity, price, fees, market, currency, leverage, unit, executed_at, created_at"
	_queryTrades = "SELECT " + _columns + " FROM trades WHERE user_id = ? ORDER BY executed_at, created_at, id"
	_queryTrade  = "SELECT " + _columns + " FROM trades WHERE user_id = ? AND id = ?"
	_insertTrade = "INSERT INTO trades (" + _columns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_deleteTrade = "DELETE FROM trades WHERE user_id = ? AND id = ?"
)

type tradeRow struct {
	ID             string          `db:"id"`
	UserID         string          `db:"user_id"`
	InstrumentType string          `db:"instrument_type"`
	Symbol         string          `db:"symbol"`
	Action         string          `db:"action"`
	Quantity       float64         `db:"quantity"`
	Price          float64         `db:"price"`
	Fees           float64         `db:"fees"`
	Market         string          `db:"market"`
	Currency       string          `db:"currency"`
	Leverage       sql.NullFloat64 `db:"leverage"`
	Unit           string          `db:"unit"`
	ExecutedAt     time.Time       `db:"executed_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

func (r tradeRow) toModel() model.Trade {
	t := model.Trade{
		ID:             r.ID,
		UserID:         r.UserID,
		InstrumentType: model.InstrumentType(r.InstrumentType),
		Symbol:         r.Symbol,
		Action:         model.Action(r.Action),
		Quantity:       r.Quantity,
		Price:          r.Price,
		Fees:           r.Fees,
		Timestamp:      r.ExecutedAt.UTC(),
		Market:         model.Market(r.Market),
		Currency:       r.Currency,
		Unit:           model.Unit(r.Unit),
	}
	if r.Leverage.Valid {
		lev := r.Leverage.Float64
		t.Leverage = &lev
	}
	return t
}

type Store struct {
	db      *sqlx.DB
	allowed []string
	logger  logger.Logger
	now     func() time.Time
}

func NewStore(db *sqlx.DB, cfg config.LedgerConfig, logger logger.Logger) *Store {
	cfg.Setup()
	return &Store{
		db:      db,
		allowed: cfg.AllowedCurrencies,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, _schema); err != nil {
		return fmt.Errorf("%w: can't migrate trades", err)
	}
	return nil
}

// List returns the user's ledger in execution order.
func (s *Store) List(ctx context.Context, userID string) ([]model.Trade, error) {
	var rows []tradeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(_queryTrades), userID); err != nil {
		return nil, fmt.Errorf("%w: can't query trades", err)
	}

	trades := make([]model.Trade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, r.toModel())
	}
	return trades, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (model.Trade, error) {
	var row tradeRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(_queryTrade), userID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Trade{}, ErrNotFound
		}
		return model.Trade{}, fmt.Errorf("%w: can't query trade", err)
	}
	return row.toModel(), nil
}

// Add validates and stores a trade. The stored trade gets a new id.
func (s *Store) Add(ctx context.Context, userID string, t model.Trade) (model.Trade, error) {
	t, err := s.prepare(userID, t)
	if err != nil {
		return model.Trade{}, err
	}
	if err := s.insert(ctx, s.db, t, s.now().UTC()); err != nil {
		return model.Trade{}, err
	}
	s.logger.Debugf("trade %s added for user %s: %s %v %s", t.ID, userID, t.Action, t.Quantity, t.Symbol)
	return t, nil
}

// Import stores all trades in one transaction. Nothing is stored if any trade is invalid.
func (s *Store) Import(ctx context.Context, userID string, trades []model.Trade) ([]model.Trade, error) {
	prepared := make([]model.Trade, 0, len(trades))
	for i, t := range trades {
		p, err := s.prepare(userID, t)
		if err != nil {
			return nil, fmt.Errorf("trade #%d: %w", i+1, err)
		}
		prepared = append(prepared, p)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: can't begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	// created_at keeps file order for trades executed at the same time
	created := s.now().UTC()
	for i, t := range prepared {
		if err := s.insert(ctx, tx, t, created.Add(time.Duration(i)*time.Microsecond)); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: can't commit trades", err)
	}

	s.logger.Infof("imported %d trades for user %s", len(prepared), userID)
	return prepared, nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(_deleteTrade), userID, id)
	if err != nil {
		return fmt.Errorf("%w: can't delete trade", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: can't delete trade", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) prepare(userID string, t model.Trade) (model.Trade, error) {
	t = t.Normalize()
	t.ID = uuid.NewString()
	t.UserID = userID
	t.Timestamp = t.Timestamp.UTC()
	if err := t.Validate(s.allowed...); err != nil {
		return model.Trade{}, err
	}
	return t, nil
}

func (s *Store) insert(ctx context.Context, db sqlx.ExtContext, t model.Trade, createdAt time.Time) error {
	var leverage sql.NullFloat64
	if t.Leverage != nil {
		leverage = sql.NullFloat64{Float64: *t.Leverage, Valid: true}
	}
	if _, err := db.ExecContext(ctx, db.Rebind(_insertTrade),
		t.ID,
		t.UserID,
		t.InstrumentType,
		t.Symbol,
		t.Action,
		t.Quantity,
		t.Price,
		t.Fees,
		t.Market,
		t.Currency,
		leverage,
		t.Unit,
		t.Timestamp,
		createdAt,
	); err != nil {
		return fmt.Errorf("%w: can't insert trade", err)
	}
	return nil
}
