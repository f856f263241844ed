// Command seed-db loads the organization and product catalog into PostgreSQL.
// It is idempotent: existing rows are updated in place, so it can run on every
// deploy.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/verdantlabs/pos-register/internal/repository"
)

type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Barcode       string          `json:"barcode"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	StockQuantity int             `json:"stock_quantity"`
}

const (
	upsertOrgSQL = `
INSERT INTO organizations (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	upsertProductSQL = `
INSERT INTO products (id, organization_id, name, barcode, unit_price, stock_quantity)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    name           = EXCLUDED.name,
    barcode        = EXCLUDED.barcode,
    unit_price     = EXCLUDED.unit_price,
    stock_quantity = EXCLUDED.stock_quantity,
    updated_at     = now()`
)

func main() {
	var (
		databaseURL  string
		productsFile string
		orgID        string
		orgName      string
		workers      int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.json or .json.gz)")
	flag.StringVar(&orgID, "organization-id", "org-main", "organization to seed products into")
	flag.StringVar(&orgName, "organization-name", "Flora Verde LTDA", "organization display name")
	flag.IntVar(&workers, "workers", 4, "concurrent upsert workers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, orgID, orgName, workers); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, orgID, orgName string, workers int) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting organization", slog.String("id", orgID), slog.String("name", orgName))

	if _, err := pool.Exec(ctx, upsertOrgSQL, orgID, orgName); err != nil {
		return errors.Wrapf(err, "upsert organization %s", orgID)
	}

	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	if err := seedProducts(ctx, pool, orgID, products, workers); err != nil {
		return errors.Wrap(err, "seed products")
	}

	return nil
}

// loadProducts reads the catalog file. Files ending in .gz are transparently
// decompressed, which keeps large exported catalogs small in the repo.
func loadProducts(path string) ([]productJSON, error) {
	slog.Info("reading products file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	var products []productJSON
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	return products, nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, orgID string, products []productJSON, workers int) error {
	slog.Info("upserting products", slog.Int("count", len(products)), slog.Int("workers", workers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, p := range products {
		g.Go(func() error {
			if _, err := pool.Exec(ctx, upsertProductSQL,
				p.ID, orgID, p.Name, p.Barcode, p.UnitPrice, p.StockQuantity,
			); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}

			slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}

	return g.Wait()
}
