package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

// Header names accepted in the registry export, lowercased. The sheet's
// first row maps columns to material fields; unknown columns are ignored.
var headerAliases = map[string]string{
	"code":          "code",
	"material code": "code",
	"รหัส":          "code",
	"name":          "name_en",
	"name_en":       "name_en",
	"english name":  "name_en",
	"name_th":       "name_th",
	"thai name":     "name_th",
	"ชื่อไทย":       "name_th",
	"supplier":      "supplier",
	"ผู้ผลิต":       "supplier",
	"category":      "category",
	"description":   "description",
	"benefits":      "benefits",
	"in_stock":      "in_stock",
	"in stock":      "in_stock",
	"stock_qty":     "stock_qty",
	"qty":           "stock_qty",
	"price":         "price",
	"ราคา":          "price",
}

// ReadMaterials parses a registry spreadsheet (first sheet, header row
// first) into material records. Rows without a code are skipped.
func ReadMaterials(path string) ([]domain.Material, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheets[0])
	}

	columns := make(map[int]string)
	for i, header := range rows[0] {
		if field, ok := headerAliases[strings.ToLower(strings.TrimSpace(header))]; ok {
			columns[i] = field
		}
	}
	if !hasField(columns, "code") || !hasField(columns, "name_en") {
		return nil, fmt.Errorf("sheet %s is missing code/name columns", sheets[0])
	}

	materials := make([]domain.Material, 0, len(rows)-1)
	for _, row := range rows[1:] {
		m := materialFromRow(columns, row)
		if m.Code == "" {
			continue
		}
		materials = append(materials, m)
	}
	return materials, nil
}

func materialFromRow(columns map[int]string, row []string) domain.Material {
	var m domain.Material
	for i, cell := range row {
		field, ok := columns[i]
		if !ok {
			continue
		}
		cell = strings.TrimSpace(cell)
		switch field {
		case "code":
			m.Code = strings.ToUpper(cell)
		case "name_en":
			m.NameEN = cell
		case "name_th":
			m.NameTH = cell
		case "supplier":
			m.Supplier = cell
		case "category":
			m.Category = cell
		case "description":
			m.Description = cell
		case "benefits":
			m.Benefits = cell
		case "in_stock":
			m.InStock = parseBoolCell(cell)
		case "stock_qty":
			m.StockQty, _ = strconv.ParseFloat(cell, 64)
		case "price":
			m.Price, _ = strconv.ParseFloat(cell, 64)
		}
	}
	return m
}

func parseBoolCell(cell string) bool {
	switch strings.ToLower(cell) {
	case "1", "y", "yes", "true", "มี":
		return true
	default:
		return false
	}
}

func hasField(columns map[int]string, field string) bool {
	for _, f := range columns {
		if f == field {
			return true
		}
	}
	return false
}
