package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"section-store/internal/application"
	"section-store/internal/config"
	"section-store/internal/infrastructure/storage"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("cmd", "seed").Logger()
	if err := run(os.Args[1:], logger); err != nil {
		logger.Fatal().Err(err).Msg("Seeding failed")
	}
}

func run(args []string, logger zerolog.Logger) error {
	var (
		catalogPath string
		driver      string
		dryRun      bool
	)
	flagSet := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	flagSet.StringVar(&catalogPath, "catalog", "catalog.yaml", "path to the catalog YAML file")
	flagSet.StringVar(&driver, "driver", "", "store driver, overrides STORE_DRIVER (mongo or postgres)")
	flagSet.BoolVar(&dryRun, "dry-run", false, "validate the catalog without writing it")
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	file, err := os.Open(catalogPath)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer file.Close()

	sections, bundles, err := parseCatalog(file)
	if err != nil {
		return err
	}
	logger.Info().
		Str("catalog", catalogPath).
		Int("sections", len(sections)).
		Int("bundles", len(bundles)).
		Msg("Catalog parsed")
	if dryRun {
		return nil
	}

	storeCfg, err := config.LoadStore(logger)
	if err != nil {
		return err
	}
	if driver != "" {
		storeCfg.Driver = driver
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := storage.Open(ctx, *storeCfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog := application.NewCatalogService(store, application.SystemClock(), logger)
	return catalog.Seed(ctx, sections, bundles)
}
