package price

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

const _storedSchema = `
CREATE TABLE IF NOT EXISTS asset_prices (
	instrument_type TEXT NOT NULL,
	market          TEXT NOT NULL DEFAULT '',
	symbol          TEXT NOT NULL,
	price           DOUBLE PRECISION NOT NULL,
	currency        TEXT NOT NULL,
	updated_at      TIMESTAMP NOT NULL,
	PRIMARY KEY (instrument_type, market, symbol)
);`

const (
	_queryStoredPrice  = "SELECT price, currency, updated_at FROM asset_prices WHERE instrument_type = ? AND market = ? AND symbol = ?"
	_upsertStoredPrice = `INSERT INTO asset_prices (instrument_type, market, symbol, price, currency, updated_at)
							VALUES (?, ?, ?, ?, ?, ?)
							ON CONFLICT (instrument_type, market, symbol)
							DO UPDATE SET
								price = EXCLUDED.price,
								currency = EXCLUDED.currency,
								updated_at = EXCLUDED.updated_at;`
)

type storedPrice struct {
	Price     float64   `db:"price"`
	Currency  string    `db:"currency"`
	UpdatedAt time.Time `db:"updated_at"`
}

// StoredSource serves manually entered prices, for assets no provider quotes.
type StoredSource struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewStoredSource(db *sqlx.DB) *StoredSource {
	return &StoredSource{db: db, now: time.Now}
}

func (s *StoredSource) Name() string {
	return config.SourceStored
}

func (s *StoredSource) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, _storedSchema); err != nil {
		return fmt.Errorf("%w: can't migrate asset prices", err)
	}
	return nil
}

func (s *StoredSource) Quote(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market) (model.Quote, error) {
	var p storedPrice
	err := s.db.GetContext(ctx, &p, s.db.Rebind(_queryStoredPrice), instrumentType, market, strings.ToUpper(symbol))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Quote{}, fmt.Errorf("%w: no stored price for %s", ErrNotFound, symbol)
		}
		return model.Quote{}, fmt.Errorf("%w: can't query stored price", err)
	}

	return model.Quote{
		Price:    p.Price,
		Currency: p.Currency,
		Source:   config.SourceStored,
	}, nil
}

func (s *StoredSource) Upsert(ctx context.Context, symbol string, instrumentType model.InstrumentType, market model.Market, q model.Quote) error {
	if !(q.Price > 0) {
		return fmt.Errorf("price must be positive, got %v", q.Price)
	}
	if q.Currency == "" {
		q.Currency = market.DefaultCurrency()
	}
	if q.Currency == "" {
		return fmt.Errorf("currency is required for %s", symbol)
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(_upsertStoredPrice),
		instrumentType,
		market,
		strings.ToUpper(symbol),
		q.Price,
		strings.ToUpper(q.Currency),
		s.now().UTC(),
	); err != nil {
		return fmt.Errorf("%w: can't upsert stored price", err)
	}
	return nil
}
