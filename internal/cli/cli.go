// Package cli implements the portfolioctl subcommands.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/google/subcommands"
	"github.com/jmoiron/sqlx"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/database"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
)

// App is shared by all subcommands. DB settings come from the environment.
type App struct {
	Config config.Config
	Logger logger.Logger
	Out    io.Writer

	// OpenDB defaults to database.NewDB with settings from the environment.
	OpenDB func() (*sqlx.DB, error)
}

func Register(c *subcommands.Commander, app *App) {
	c.Register(&reportCmd{app: app}, "portfolio")
	c.Register(&importCmd{app: app}, "ledger")
	c.Register(&setPriceCmd{app: app}, "prices")
}

func (a *App) openDB() (*sqlx.DB, error) {
	if a.OpenDB != nil {
		return a.OpenDB()
	}
	return database.NewDB(database.NewConfigFromEnv().Setup())
}

// openInvest connects to t-invest when it is enabled. The returned func stops the client.
func (a *App) openInvest(ctx context.Context) (*investgo.Client, func(), error) {
	if !a.Config.Prices.TInvest.Enabled {
		return nil, func() {}, nil
	}

	investCfg, err := config.LoadInvestConfig(a.Config.Prices.TInvest)
	if err != nil {
		return nil, nil, err
	}
	client, err := investgo.NewClient(ctx, investCfg, a.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: can't connect to t-invest", err)
	}
	return client, func() {
		if err := client.Stop(); err != nil {
			a.Logger.Errorf("%s: can't stop t-invest client", err)
		}
	}, nil
}

func (a *App) failf(format string, args ...any) subcommands.ExitStatus {
	a.Logger.Errorf(format, args...)
	return subcommands.ExitFailure
}
