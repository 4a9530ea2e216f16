package domain

// Collection identifies a logical vector-store partition. The physical
// collection names are configuration; these tags are stable.
type Collection string

const (
	CollectionInStock  Collection = "in_stock"
	CollectionAllFDA   Collection = "all_fda"
	CollectionFormulas Collection = "formulas"
)

type SearchMode string

const (
	ModeStockOnly       SearchMode = "stock_only"
	ModeFDAOnly         SearchMode = "fda_only"
	ModeUnified         SearchMode = "unified"
	ModePrioritizeStock SearchMode = "prioritize_stock"
)

// CollectionOverride is an explicit caller instruction that bypasses
// keyword-based routing.
type CollectionOverride string

const (
	OverrideStock CollectionOverride = "stock"
	OverrideFDA   CollectionOverride = "fda"
	OverrideBoth  CollectionOverride = "both"
)

// RoutingDecision says which partitions to query and how to merge them.
// Collections is ordered and never empty; Mode and Collections are kept
// mutually consistent by the router.
type RoutingDecision struct {
	Collections []Collection `json:"collections"`
	Mode        SearchMode   `json:"search_mode"`
	Confidence  float64      `json:"confidence"`
	Reasoning   string       `json:"reasoning"`
}
