package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
)

// File is the YAML ledger format:
//
//	trades:
//	  - instrument_type: stock
//	    symbol: PTT
//	    market: SET
//	    action: buy
//	    quantity: 100
//	    price: 34.25
//	    fees: 10
//	    timestamp: 2025-01-15T10:00:00Z
type File struct {
	Trades []model.Trade `yaml:"trades"`
}

func LoadFile(path string, allowedCurrencies ...string) ([]model.Trade, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: can't open ledger file", err)
	}
	defer f.Close()

	return DecodeFile(f, allowedCurrencies...)
}

// DecodeFile reads and validates a ledger. Trades without an id are numbered
// by their position in the file.
func DecodeFile(r io.Reader, allowedCurrencies ...string) ([]model.Trade, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: can't decode ledger file", err)
	}

	trades := make([]model.Trade, 0, len(file.Trades))
	for i, t := range file.Trades {
		t = t.Normalize()
		if t.ID == "" {
			t.ID = strconv.Itoa(i + 1)
		}
		if err := t.Validate(allowedCurrencies...); err != nil {
			return nil, fmt.Errorf("trade #%d: %w", i+1, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}
