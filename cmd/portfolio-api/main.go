package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/STTM-NSU/portfolio-tracker/internal/api"
	"github.com/STTM-NSU/portfolio-tracker/internal/config"
	"github.com/STTM-NSU/portfolio-tracker/internal/database"
	"github.com/STTM-NSU/portfolio-tracker/internal/ledger"
	"github.com/STTM-NSU/portfolio-tracker/internal/logger"
	"github.com/STTM-NSU/portfolio-tracker/internal/metrics"
	"github.com/STTM-NSU/portfolio-tracker/internal/pnl"
	"github.com/STTM-NSU/portfolio-tracker/internal/price"
	"github.com/STTM-NSU/portfolio-tracker/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("PORTFOLIO_CONFIG"), "path to the yaml config, defaults are used when empty")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("%s: can't load config", err)
		}
	}

	zapLogger, loggerSync, err := logger.NewFromConfig(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbConfig := database.NewConfigFromEnv().Setup()
	zapLogger.Debugf("trying to connect to %s db", dbConfig.Driver)
	db, err := database.NewDB(dbConfig)
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}
	defer db.Close()

	store := ledger.NewStore(db, cfg.Ledger, zapLogger)
	if err := store.Migrate(ctx); err != nil {
		zapLogger.Fatalf("%s: can't migrate ledger", err)
	}
	if cfg.Prices.Stored.Enabled {
		if err := price.NewStoredSource(db).Migrate(ctx); err != nil {
			zapLogger.Fatalf("%s: can't migrate stored prices", err)
		}
	}

	var investClient *investgo.Client
	if cfg.Prices.TInvest.Enabled {
		investCfg, err := config.LoadInvestConfig(cfg.Prices.TInvest)
		if err != nil {
			zapLogger.Fatalf("%s: can't load invest cfg", err)
		}
		investClient, err = investgo.NewClient(ctx, investCfg, zapLogger)
		if err != nil {
			zapLogger.Fatalf("%s: can't create invest client", err)
		}
		defer func() {
			if err := investClient.Stop(); err != nil {
				zapLogger.Errorf("%s: can't stop invest client", err)
			}
		}()
	}

	m := metrics.New()
	resolver, closeResolver := price.NewResolver(cfg.Prices, price.Deps{
		DB:      db,
		Invest:  investClient,
		Metrics: m,
		Logger:  zapLogger,
	})
	defer closeResolver()

	engine := pnl.NewEngine(resolver, cfg.Engine, zapLogger, m)
	handler := api.NewHandler(store, engine, resolver, m, zapLogger)

	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	if err := server.NewHTTPServer(ctx, cfg.Server, handler.Routes()).Run(ctx); err != nil {
		zapLogger.Errorf("%s: server stopped", err)
	}
}
