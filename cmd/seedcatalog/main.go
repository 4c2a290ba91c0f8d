// Command seedcatalog converts a product catalog workbook into a SQL seed
// file, or upserts it straight into the database with -apply.
// Usage: go run ./cmd/seedcatalog -in catalog.xlsx [-out db/seeds/products.sql] [-apply]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"frigo/internal/config"
	"frigo/internal/domain"
	"frigo/internal/logger"
	"frigo/internal/repository/postgres"
)

const batchSize = 500

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seedcatalog: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := ff.NewFlagSet("seedcatalog")
	in := fs.String('i', "in", "", "catalog workbook (.xlsx)")
	sheet := fs.StringLong("sheet", "", "sheet name (default: first sheet)")
	out := fs.String('o', "out", "db/seeds/products.sql", "SQL seed file to write")
	apply := fs.BoolLong("apply", "upsert products into the database instead of writing SQL")

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("SEEDCATALOG")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return err
	}
	if *in == "" {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		return errors.New("-in is required")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	products, skipped, err := readCatalog(*in, *sheet)
	if err != nil {
		return err
	}
	log.Info("seedcatalog: catalog read",
		zap.String("file", *in),
		zap.Int("products", len(products)),
		zap.Int("skipped", skipped))

	if *apply {
		db, err := postgres.NewDB(ctx, &cfg.DB)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer func() { _ = db.Close() }()

		n, err := postgres.NewCatalogRepo(db).UpsertProducts(ctx, products)
		if err != nil {
			return fmt.Errorf("upsert products: %w", err)
		}
		log.Info("seedcatalog: products upserted", zap.Int("count", n))
		return nil
	}

	if err := writeSeedFile(*out, products); err != nil {
		return err
	}
	log.Info("seedcatalog: seed file written",
		zap.String("path", *out),
		zap.Int("batches", (len(products)+batchSize-1)/batchSize))
	return nil
}

func writeSeedFile(path string, products []domain.Product) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { _ = f.Close() }()

	header := []string{
		"-- Product catalog seed data generated from xlsx.",
		fmt.Sprintf("-- %d products in batches of %d.", len(products), batchSize),
		"BEGIN;",
		"",
	}
	if _, err := f.WriteString(strings.Join(header, "\n") + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < len(products); i += batchSize {
		end := min(i+batchSize, len(products))
		if _, err := f.WriteString(insertBatch(products[i:end])); err != nil {
			return fmt.Errorf("write batch at offset %d: %w", i, err)
		}
	}

	if _, err := f.WriteString("\nCOMMIT;\n"); err != nil {
		return fmt.Errorf("write footer: %w", err)
	}
	return nil
}
