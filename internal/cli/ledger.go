package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/STTM-NSU/portfolio-tracker/internal/ledger"
)

type importCmd struct {
	app *App

	ledgerPath string
	userID     string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a ledger file into the trade store" }
func (*importCmd) Usage() string {
	return `portfolioctl import -l <ledger.yaml> -user <user id>

  Appends every trade of the file to the user's ledger. Nothing is written
  if any trade is invalid. Database settings are read from the environment.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerPath, "l", "ledger.yaml", "ledger file")
	f.StringVar(&c.userID, "user", "", "owner of the imported trades")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.userID == "" {
		c.app.Logger.Errorf("-user is required")
		return subcommands.ExitUsageError
	}

	trades, err := ledger.LoadFile(c.ledgerPath, c.app.Config.Ledger.AllowedCurrencies...)
	if err != nil {
		return c.app.failf("%s: can't load ledger", err)
	}

	db, err := c.app.openDB()
	if err != nil {
		return c.app.failf("%s", err)
	}
	defer db.Close()

	store := ledger.NewStore(db, c.app.Config.Ledger, c.app.Logger)
	if err := store.Migrate(ctx); err != nil {
		return c.app.failf("%s", err)
	}
	stored, err := store.Import(ctx, c.userID, trades)
	if err != nil {
		return c.app.failf("%s: can't import ledger", err)
	}

	fmt.Fprintf(c.app.Out, "imported %d trades for %s\n", len(stored), c.userID)
	return subcommands.ExitSuccess
}
