package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

// Store is the sqlite-backed product catalogue.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

// Open creates (if needed) and opens the product database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite serializes anyway and this avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{conn: conn, now: func() time.Time { return time.Now().UTC() }}
	if err := s.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  brand TEXT NOT NULL DEFAULT '',
  img TEXT NOT NULL DEFAULT '',
  imageUrl TEXT NOT NULL DEFAULT '',
  image TEXT NOT NULL DEFAULT '',
  updatedAt TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);
`

	_, err := s.conn.Exec(schema)
	return err
}

const selectColumns = `id, name, category, brand, img, imageUrl, image, updatedAt`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.ProductRecord, error) {
	var p domain.ProductRecord
	var updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Primary, &p.AliasA, &p.AliasB, &updatedAt); err != nil {
		return domain.ProductRecord{}, err
	}
	if updatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			p.UpdatedAt = t
		}
	}
	return p, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ListProducts returns every product ordered by id.
func (s *Store) ListProducts(ctx context.Context) ([]domain.ProductRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+selectColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ProductRecord
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct returns one product or domain.ErrNotFound.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.ProductRecord, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProducts inserts or replaces products in one transaction and returns
// how many were written.
func (s *Store) UpsertProducts(ctx context.Context, products []domain.ProductRecord) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products (id, name, category, brand, img, imageUrl, image, updatedAt)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=excluded.name,
  category=excluded.category,
  brand=excluded.brand,
  img=excluded.img,
  imageUrl=excluded.imageUrl,
  image=excluded.image,
  updatedAt=excluded.updatedAt
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	written := 0
	for _, p := range products {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return 0, fmt.Errorf("%w: product %q has no id", domain.ErrInvalidRequest, p.Name)
		}
		updatedAt := p.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = s.now()
		}
		if _, err := stmt.ExecContext(ctx,
			id, p.Name, p.Category, p.Brand, p.Primary, p.AliasA, p.AliasB, formatTime(updatedAt),
		); err != nil {
			return 0, fmt.Errorf("upsert product %s: %w", id, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// ApplyEnrichment writes the changed fields of result, but only while the
// stored row still holds result.Current. A row that moved on yields
// domain.ErrConflict; a row that vanished yields domain.ErrNotFound.
func (s *Store) ApplyEnrichment(ctx context.Context, result domain.EnrichmentResult) error {
	cur := result.Current

	category, brand, images := cur.Category, cur.Brand, cur.ImageFields
	if result.Changed.Category {
		category = result.ProposedCategory
	}
	if result.Changed.Brand {
		brand = result.ProposedBrand
	}
	if result.Changed.Image {
		images = result.ProposedImageFields
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
UPDATE products
SET category = ?, brand = ?, img = ?, imageUrl = ?, image = ?, updatedAt = ?
WHERE id = ? AND name = ? AND category = ? AND brand = ? AND img = ? AND imageUrl = ? AND image = ?`,
		category, brand, images.Primary, images.AliasA, images.AliasB, formatTime(s.now()),
		result.ID, cur.Name, cur.Category, cur.Brand, cur.Primary, cur.AliasA, cur.AliasB,
	)
	if err != nil {
		return fmt.Errorf("apply enrichment to %s: %w", result.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, result.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, result.ID)
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", domain.ErrConflict, result.ID)
	}

	return tx.Commit()
}
