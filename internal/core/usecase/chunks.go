package usecase

import (
	"fmt"
	"strings"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

const (
	chunkTypeIdentity    = "identity"
	chunkTypeDescription = "description"
	chunkTypeComposition = "composition"
)

// materialChunks renders one material into its embeddable chunks. Field
// order is fixed so re-indexing unchanged records reproduces identical text
// and the embedding stays stable. Empty fields are omitted.
func materialChunks(m domain.Material, partition domain.Collection) []domain.Chunk {
	identity := joinFields(
		field("Code", m.Code),
		field("Name", m.NameEN),
		field("Thai name", m.NameTH),
		field("Supplier", m.Supplier),
		field("Category", m.Category),
	)

	meta := func(chunkType string) map[string]any {
		return map[string]any{
			"code":      m.Code,
			"partition": string(partition),
			"name_en":   m.NameEN,
			"name_th":   m.NameTH,
			"category":  m.Category,
			"in_stock":  m.InStock,
			"type":      chunkType,
		}
	}

	out := []domain.Chunk{{
		ID:       chunkID(m.Code, chunkTypeIdentity),
		Text:     identity,
		Metadata: meta(chunkTypeIdentity),
	}}

	descriptive := joinFields(
		field("Code", m.Code),
		field("Name", m.NameEN),
		field("Description", m.Description),
		field("Benefits", m.Benefits),
	)
	if m.Description != "" || m.Benefits != "" {
		out = append(out, domain.Chunk{
			ID:       chunkID(m.Code, chunkTypeDescription),
			Text:     descriptive,
			Metadata: meta(chunkTypeDescription),
		})
	}

	return out
}

func formulaChunks(f domain.Formula, partition domain.Collection) []domain.Chunk {
	meta := func(chunkType string) map[string]any {
		return map[string]any{
			"code":      f.Code,
			"partition": string(partition),
			"name_en":   f.Name,
			"type":      chunkType,
		}
	}

	out := []domain.Chunk{{
		ID: chunkID(f.Code, chunkTypeIdentity),
		Text: joinFields(
			field("Formula code", f.Code),
			field("Name", f.Name),
			field("Description", f.Description),
		),
		Metadata: meta(chunkTypeIdentity),
	}}

	if len(f.Ingredients) > 0 {
		parts := make([]string, 0, len(f.Ingredients))
		for _, ing := range f.Ingredients {
			parts = append(parts, fmt.Sprintf("%s %.2f%%", ing.MaterialCode, ing.Percent))
		}
		out = append(out, domain.Chunk{
			ID: chunkID(f.Code, chunkTypeComposition),
			Text: joinFields(
				field("Formula code", f.Code),
				field("Name", f.Name),
				field("Composition", strings.Join(parts, ", ")),
			),
			Metadata: meta(chunkTypeComposition),
		})
	}

	return out
}

func chunkID(code, chunkType string) string {
	return fmt.Sprintf("%s_%s", code, chunkType)
}

func field(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func joinFields(fields ...string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}
