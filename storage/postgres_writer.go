package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"catalog-scraper/models"
	"catalog-scraper/utils"
)

const listingColumns = 14

// PostgresWriter mirrors the catalog into PostgreSQL for ad-hoc querying.
// Every Write replaces the table contents with the given catalog.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, &StorageError{Backend: "postgres", Err: fmt.Errorf("open: %w", err)}
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, &StorageError{Backend: "postgres", Err: err}
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, &StorageError{Backend: "postgres", Err: fmt.Errorf("migrate: %w", err)}
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS catalog_listings (
			id           TEXT        PRIMARY KEY,
			position     INTEGER     NOT NULL,
			title        TEXT        NOT NULL,
			price        TEXT        NOT NULL DEFAULT '',
			tag          TEXT        NOT NULL DEFAULT '',
			image        TEXT        NOT NULL DEFAULT '',
			brand        TEXT        NOT NULL DEFAULT '',
			body_type    TEXT        NOT NULL DEFAULT '',
			year         INTEGER,
			description  TEXT        NOT NULL DEFAULT '',
			engine_cc    INTEGER,
			transmission TEXT        NOT NULL DEFAULT '',
			condition    TEXT        NOT NULL DEFAULT '',
			seller_type  TEXT        NOT NULL DEFAULT '',
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_catalog_listings_brand     ON catalog_listings(brand);
		CREATE INDEX IF NOT EXISTS idx_catalog_listings_body_type ON catalog_listings(body_type);
		CREATE INDEX IF NOT EXISTS idx_catalog_listings_position  ON catalog_listings(position);
	`)
	return err
}

// Write replaces the mirrored catalog inside one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, listings []*models.Listing) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Backend: "postgres", Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM catalog_listings"); err != nil {
		return &StorageError{Backend: "postgres", Err: fmt.Errorf("clear: %w", err)}
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		query, args := insertBatch(listings[i:end], i)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return &StorageError{Backend: "postgres", Err: fmt.Errorf("insert batch at %d: %w", i, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Backend: "postgres", Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// insertBatch builds a multi-row upsert. offset is the catalog position of
// batch[0].
func insertBatch(batch []*models.Listing, offset int) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		placeholders := make([]string, listingColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.ID, offset+idx, l.Title, l.Price, l.Tag, l.Image, l.Brand, l.BodyType,
			nullableInt(l.Year), l.Description, nullableInt(l.EngineCc),
			l.Transmission, l.Condition, l.SellerType)
	}

	query := fmt.Sprintf(`
		INSERT INTO catalog_listings (id, position, title, price, tag, image, brand, body_type,
			year, description, engine_cc, transmission, condition, seller_type)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position, title = EXCLUDED.title, price = EXCLUDED.price,
			tag = EXCLUDED.tag, image = EXCLUDED.image, brand = EXCLUDED.brand,
			body_type = EXCLUDED.body_type, year = EXCLUDED.year,
			description = EXCLUDED.description, engine_cc = EXCLUDED.engine_cc,
			transmission = EXCLUDED.transmission, condition = EXCLUDED.condition,
			seller_type = EXCLUDED.seller_type, updated_at = NOW()
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

func nullableInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// Read retrieves the mirrored catalog in catalog order.
func (pw *PostgresWriter) Read(ctx context.Context) ([]*models.Listing, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT id, title, price, tag, image, brand, body_type, year, description,
			engine_cc, transmission, condition, seller_type
		FROM catalog_listings
		ORDER BY position
	`)
	if err != nil {
		return nil, &StorageError{Backend: "postgres", Err: fmt.Errorf("fetch all: %w", err)}
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var year, engine sql.NullInt64
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Price, &l.Tag, &l.Image, &l.Brand, &l.BodyType,
			&year, &l.Description, &engine, &l.Transmission, &l.Condition, &l.SellerType,
		); err != nil {
			return nil, &StorageError{Backend: "postgres", Err: fmt.Errorf("scan row: %w", err)}
		}
		if year.Valid {
			l.Year = models.IntPtr(int(year.Int64))
		}
		if engine.Valid {
			l.EngineCc = models.IntPtr(int(engine.Int64))
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
