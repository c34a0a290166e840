package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"github.com/STTM-NSU/portfolio-tracker/internal/model"
	"github.com/STTM-NSU/portfolio-tracker/internal/price"
	"github.com/STTM-NSU/portfolio-tracker/internal/tools"
)

type setPriceCmd struct {
	app *App

	symbol         string
	instrumentType string
	market         string
	price          float64
	currency       string
}

func (*setPriceCmd) Name() string     { return "set-price" }
func (*setPriceCmd) Synopsis() string { return "store a manual price for an instrument" }
func (*setPriceCmd) Usage() string {
	return `portfolioctl set-price -symbol <symbol> -type <instrument type> [-market <market>] -price <price> [-currency <code>]

  Saves a price the stored source will return for the instrument. The
  currency defaults to the market's currency.
`
}

func (c *setPriceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "symbol", "", "instrument symbol")
	f.StringVar(&c.instrumentType, "type", "", "instrument type")
	f.StringVar(&c.market, "market", "", "market of the instrument")
	f.Float64Var(&c.price, "price", 0, "price per unit")
	f.StringVar(&c.currency, "currency", "", "price currency")
}

func (c *setPriceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.symbol == "" || c.price <= 0 {
		c.app.Logger.Errorf("-symbol and a positive -price are required")
		return subcommands.ExitUsageError
	}
	instrumentType, err := model.ParseInstrumentType(c.instrumentType)
	if err != nil {
		c.app.Logger.Errorf("%s", err)
		return subcommands.ExitUsageError
	}
	var market model.Market
	if c.market != "" {
		if market, err = model.ParseMarket(c.market); err != nil {
			c.app.Logger.Errorf("%s", err)
			return subcommands.ExitUsageError
		}
	}

	db, err := c.app.openDB()
	if err != nil {
		return c.app.failf("%s", err)
	}
	defer db.Close()

	stored := price.NewStoredSource(db)
	if err := stored.Migrate(ctx); err != nil {
		return c.app.failf("%s", err)
	}
	q := model.Quote{Price: c.price, Currency: c.currency}
	if err := stored.Upsert(ctx, c.symbol, instrumentType, market, q); err != nil {
		return c.app.failf("%s", err)
	}

	saved, err := stored.Quote(ctx, c.symbol, instrumentType, market)
	if err != nil {
		return c.app.failf("%s", err)
	}
	fmt.Fprintf(c.app.Out, "%s %s: %s\n", instrumentType, strings.ToUpper(c.symbol), tools.FormatMoney(saved.Price, saved.Currency))
	return subcommands.ExitSuccess
}
