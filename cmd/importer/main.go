package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/foxxcyber/pex/internal/config"
	"github.com/foxxcyber/pex/internal/database"
	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/logging"
	"github.com/foxxcyber/pex/internal/services"
)

func main() {
	// Command line flags
	localFile := flag.String("file", "", "CSV file to import (codigo,lote,produto,quantidade,validade,observacoes)")
	dryRun := flag.Bool("dry-run", false, "Validate rows without writing to storage")
	flag.Parse()

	if *localFile == "" {
		fmt.Fprintln(os.Stderr, "usage: importer -file estoque.csv [-dry-run]")
		os.Exit(2)
	}

	// Load .env
	godotenv.Load()

	cfg := config.Load()
	logger := logging.Init(cfg.IsDevelopment(), cfg.LogLevel)
	loc := cfg.Location()

	kv, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer kv.Close()

	store := inventory.NewStore(kv,
		inventory.WithClock(func() time.Time { return time.Now().In(loc) }),
		inventory.WithRejectPastExpiry(cfg.RejectPastExpiry),
		inventory.WithLogger(logger),
	)

	ctx := context.Background()
	if err := store.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load inventory")
	}

	file, err := os.Open(*localFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open import file")
	}
	defer file.Close()

	log.Info().Str("file", *localFile).Bool("dry_run", *dryRun).Msg("Starting import")

	summary, err := services.ImportCSV(ctx, store, file, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	for _, f := range summary.Failures {
		fmt.Printf("  line %d: %s\n", f.Line, f.Error)
	}

	verb := "Imported"
	if summary.DryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %d of %d rows (%d failed). Inventory now holds %d products.\n",
		verb, summary.Imported, summary.Rows, len(summary.Failures), store.Len())
}
