package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/jmoiron/sqlx"

	"github.com/STTM-NSU/portfolio-tracker/internal/ledger"
	"github.com/STTM-NSU/portfolio-tracker/internal/model"
	"github.com/STTM-NSU/portfolio-tracker/internal/pnl"
	"github.com/STTM-NSU/portfolio-tracker/internal/price"
	"github.com/STTM-NSU/portfolio-tracker/internal/tools"
)

type reportCmd struct {
	app *App

	ledgerPath     string
	includeClosed  bool
	instrumentType string
	market         string
	offline        bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "compute positions and P&L of a ledger file" }
func (*reportCmd) Usage() string {
	return `portfolioctl report -l <ledger.yaml> [-closed] [-type <instrument type>] [-market <market>] [-offline]

  Prints every position of the ledger with its cost, value and P&L, then the totals.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerPath, "l", "ledger.yaml", "ledger file")
	f.BoolVar(&c.includeClosed, "closed", false, "include fully closed positions")
	f.StringVar(&c.instrumentType, "type", "", "only positions of this instrument type")
	f.StringVar(&c.market, "market", "", "only positions on this market")
	f.BoolVar(&c.offline, "offline", false, "value positions at cost, without price lookups")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req := pnl.Request{IncludeClosed: c.includeClosed}
	if c.instrumentType != "" && c.market != "" {
		c.app.Logger.Errorf("-type and -market can't be combined")
		return subcommands.ExitUsageError
	}
	if c.instrumentType != "" {
		t, err := model.ParseInstrumentType(c.instrumentType)
		if err != nil {
			c.app.Logger.Errorf("%s", err)
			return subcommands.ExitUsageError
		}
		req.InstrumentType = t
	}
	if c.market != "" {
		m, err := model.ParseMarket(c.market)
		if err != nil {
			c.app.Logger.Errorf("%s", err)
			return subcommands.ExitUsageError
		}
		req.Market = m
	}

	trades, err := ledger.LoadFile(c.ledgerPath, c.app.Config.Ledger.AllowedCurrencies...)
	if err != nil {
		return c.app.failf("%s: can't load ledger", err)
	}
	req.Trades = trades

	var resolver pnl.PriceResolver
	if !c.offline {
		r, closeFn, err := c.resolver(ctx)
		if err != nil {
			return c.app.failf("%s: can't set up price sources", err)
		}
		defer closeFn()
		resolver = r
	}

	res, err := pnl.NewEngine(resolver, c.app.Config.Engine, c.app.Logger, nil).Compute(ctx, req)
	if err != nil {
		return c.app.failf("%s: can't compute portfolio", err)
	}

	if err := Render(c.app.Out, res); err != nil {
		return c.app.failf("%s: can't print report", err)
	}
	return subcommands.ExitSuccess
}

func (c *reportCmd) resolver(ctx context.Context) (price.Resolver, func(), error) {
	var (
		db      *sqlx.DB
		closers []func()
	)
	closeAll := func() {
		for _, f := range slices.Backward(closers) {
			f()
		}
	}

	if c.app.Config.Prices.Stored.Enabled {
		var err error
		if db, err = c.app.openDB(); err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
	}

	investClient, stopInvest, err := c.app.openInvest(ctx)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	closers = append(closers, stopInvest)

	r, closeSources := price.NewResolver(c.app.Config.Prices, price.Deps{
		DB:     db,
		Invest: investClient,
		Logger: c.app.Logger,
	})
	closers = append(closers, closeSources)
	return r, closeAll, nil
}

// Render prints positions as a table followed by the summary.
func Render(w io.Writer, res *pnl.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tTYPE\tMARKET\tSIDE\tQTY\tAVG COST\tPRICE\tVALUE\tUNREALIZED\t%\tREALIZED\tSOURCE\t")
	for _, p := range res.Positions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			p.Symbol,
			p.InstrumentType,
			cmpOrDash(string(p.Market)),
			p.PositionType,
			tools.FormatQuantity(p.Quantity),
			tools.FormatMoney(p.AvgCost, p.Currency),
			tools.FormatMoney(p.CurrentPrice, p.Currency),
			tools.FormatMoney(p.CurrentValue, p.Currency),
			tools.FormatMoney(p.UnrealizedPnL, p.Currency),
			tools.FormatPercent(p.UnrealizedPnLPercent),
			tools.FormatMoney(p.RealizedPnL, p.Currency),
			cmpOrDash(p.PriceSource),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := res.Summary
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Assets:          %d\n", s.AssetsCount)
	fmt.Fprintf(w, "Invested:        %s\n", tools.FormatMoney(s.TotalInvested, ""))
	fmt.Fprintf(w, "Current value:   %s\n", tools.FormatMoney(s.TotalCurrentValue, ""))
	fmt.Fprintf(w, "Unrealized P&L:  %s (%s)\n", tools.FormatMoney(s.TotalUnrealizedPnL, ""), tools.FormatPercent(s.TotalUnrealizedPnLPercent))
	fmt.Fprintf(w, "Realized P&L:    %s\n", tools.FormatMoney(s.TotalRealizedPnL, ""))

	currencies := make([]string, 0, len(s.RealizedPnLBreakdown))
	for c := range s.RealizedPnLBreakdown {
		currencies = append(currencies, c)
	}
	slices.Sort(currencies)
	for _, c := range currencies {
		fmt.Fprintf(w, "  %-15s%s\n", c+":", tools.FormatMoney(s.RealizedPnLBreakdown[c], c))
	}
	return nil
}

func cmpOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
