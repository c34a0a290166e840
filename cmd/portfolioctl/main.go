package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"

	"github.com/STTM-NSU/portfolio-tracker/internal/cli"
	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("PORTFOLIO_CONFIG"), "path to the yaml config, defaults are used when empty")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	app := &cli.App{Out: os.Stdout}
	cli.Register(subcommands.DefaultCommander, app)

	flag.Parse()

	_ = godotenv.Load()

	app.Config = config.Default()
	if *configPath != "" {
		var err error
		if app.Config, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("%s: can't load config", err)
		}
	}

	zapLogger, loggerSync, err := logger.NewFromConfig(app.Config.Log.Level, "console")
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()
	app.Logger = zapLogger

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	status := subcommands.Execute(ctx)
	loggerSync()
	os.Exit(int(status))
}
