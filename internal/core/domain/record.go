package domain

import "time"

// Material is a raw-material record from the document store. Code is the
// business identifier (e.g. RM000001), distinct from any storage id.
type Material struct {
	Code        string    `json:"code"`
	NameEN      string    `json:"name_en"`
	NameTH      string    `json:"name_th,omitempty"`
	Supplier    string    `json:"supplier,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Benefits    string    `json:"benefits,omitempty"`
	InStock     bool      `json:"in_stock"`
	StockQty    float64   `json:"stock_qty,omitempty"`
	Price       float64   `json:"price,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type FormulaIngredient struct {
	MaterialCode string  `json:"material_code"`
	Percent      float64 `json:"percent"`
}

type Formula struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Ingredients []FormulaIngredient `json:"ingredients,omitempty"`
}

// Chunk is an embeddable sub-unit of a source record. ID is deterministic
// ({code}_{chunkType}) so re-indexing overwrites instead of duplicating.
type Chunk struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// IndexReport summarizes one indexing run. Skipped counts records that
// failed to embed or upsert; the run itself is best effort.
type IndexReport struct {
	Collection    string `json:"collection"`
	DocsProcessed int    `json:"docs_processed"`
	ChunksWritten int    `json:"chunks_written"`
	Skipped       int    `json:"skipped"`
	Batches       int    `json:"batches"`
}
