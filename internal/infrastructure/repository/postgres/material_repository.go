package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

// MaterialRepository is the read side of the document store for the
// indexing pipeline, plus the single write path used by the catalog
// importer.
type MaterialRepository struct {
	db *sql.DB
}

func NewMaterialRepository(db *sql.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *MaterialRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across indexer/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS materials (
	code TEXT PRIMARY KEY,
	name_en TEXT NOT NULL,
	name_th TEXT NOT NULL DEFAULT '',
	supplier TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	benefits TEXT NOT NULL DEFAULT '',
	in_stock BOOLEAN NOT NULL DEFAULT FALSE,
	stock_qty DOUBLE PRECISION NOT NULL DEFAULT 0,
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS formulas (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS formula_ingredients (
	formula_code TEXT NOT NULL REFERENCES formulas(code) ON DELETE CASCADE,
	material_code TEXT NOT NULL,
	percent DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (formula_code, material_code)
);
CREATE INDEX IF NOT EXISTS idx_materials_in_stock ON materials(in_stock);`

	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const materialColumns = `code, name_en, name_th, supplier, category, description, benefits, in_stock, stock_qty, price, updated_at`

func (r *MaterialRepository) ListMaterials(ctx context.Context, onlyInStock bool) ([]domain.Material, error) {
	query := `SELECT ` + materialColumns + ` FROM materials ORDER BY code`
	if onlyInStock {
		query = `SELECT ` + materialColumns + ` FROM materials WHERE in_stock ORDER BY code`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var out []domain.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return out, nil
}

func (r *MaterialRepository) GetMaterialByCode(ctx context.Context, code string) (*domain.Material, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE code = $1`, code)

	m, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrNotFound, "get material", err)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MaterialRepository) ListFormulas(ctx context.Context) ([]domain.Formula, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT code, name, description FROM formulas ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list formulas: %w", err)
	}
	defer rows.Close()

	var out []domain.Formula
	index := make(map[string]int)
	for rows.Next() {
		var f domain.Formula
		if err := rows.Scan(&f.Code, &f.Name, &f.Description); err != nil {
			return nil, fmt.Errorf("scan formula: %w", err)
		}
		index[f.Code] = len(out)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formulas: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	ingRows, err := r.db.QueryContext(ctx,
		`SELECT formula_code, material_code, percent FROM formula_ingredients ORDER BY formula_code, material_code`)
	if err != nil {
		return nil, fmt.Errorf("list formula ingredients: %w", err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var formulaCode string
		var ing domain.FormulaIngredient
		if err := ingRows.Scan(&formulaCode, &ing.MaterialCode, &ing.Percent); err != nil {
			return nil, fmt.Errorf("scan formula ingredient: %w", err)
		}
		if i, ok := index[formulaCode]; ok {
			out[i].Ingredients = append(out[i].Ingredients, ing)
		}
	}
	if err := ingRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formula ingredients: %w", err)
	}
	return out, nil
}

// UpsertMaterials writes imported catalog records; existing codes are
// overwritten. Returns the number of rows written.
func (r *MaterialRepository) UpsertMaterials(ctx context.Context, materials []domain.Material) (int, error) {
	if len(materials) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO materials (code, name_en, name_th, supplier, category, description, benefits, in_stock, stock_qty, price, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (code) DO UPDATE SET
	name_en = EXCLUDED.name_en,
	name_th = EXCLUDED.name_th,
	supplier = EXCLUDED.supplier,
	category = EXCLUDED.category,
	description = EXCLUDED.description,
	benefits = EXCLUDED.benefits,
	in_stock = EXCLUDED.in_stock,
	stock_qty = EXCLUDED.stock_qty,
	price = EXCLUDED.price,
	updated_at = now()`

	written := 0
	for _, m := range materials {
		if m.Code == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, query,
			m.Code, m.NameEN, m.NameTH, m.Supplier, m.Category,
			m.Description, m.Benefits, m.InStock, m.StockQty, m.Price,
		); err != nil {
			return 0, fmt.Errorf("upsert material %s: %w", m.Code, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert tx: %w", err)
	}
	return written, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (domain.Material, error) {
	var m domain.Material
	err := row.Scan(
		&m.Code, &m.NameEN, &m.NameTH, &m.Supplier, &m.Category,
		&m.Description, &m.Benefits, &m.InStock, &m.StockQty, &m.Price,
		&m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return m, err
	}
	if err != nil {
		return m, fmt.Errorf("scan material: %w", err)
	}
	return m, nil
}
