// Package codegen assigns human-readable codes to records from their category
// and their store-assigned numeric id.
//
// A code is always derived after insert, since the id is part of it. Padding
// is a minimum width: ids wider than the pad keep every digit.
package codegen

import (
	"fmt"

	"github.com/gemerp/backend/internal/domain/shared"
)

// Kind identifies the record family a code is generated for
type Kind string

const (
	KindRough          Kind = "Rough"
	KindLots           Kind = "Lots"
	KindSortedLots     Kind = "Sorted Lots"
	KindCutAndPolished Kind = "Cut and Polished"
	KindBuying         Kind = "Buying"
	KindSelling        Kind = "Selling"
	KindBuyPayment     Kind = "B Payment"
	KindSellPayment    Kind = "S Payment"
	KindCutPolish      Kind = "CP"
	KindHeatTreatment  Kind = "HT"
	KindHeatGroup      Kind = "GHT"
	KindSortLotBatch   Kind = "SLT"
)

const (
	recordPad = 4
	batchPad  = 3
)

// format describes how an id is embedded: prefix + padded id + suffix
type format struct {
	prefix string
	suffix string
	pad    int
}

func item(prefix string) format       { return format{prefix: prefix, pad: recordPad} }
func itemSuffix(prefix string) format { return format{prefix: prefix, suffix: "CP", pad: recordPad} }

var itemFormats = map[Kind]map[string]format{
	KindRough: {
		"Blue Sapphire Natural":   item("BSN"),
		"Blue Sapphire Geuda":     item("BSG"),
		"Yellow Sapphire":         item("YSN"),
		"Pink Sapphire Natural":   item("PISN"),
		"Purple Sapphire Natural": item("PSN"),
		"Violet Sapphire":         item("VSN"),
		"Padparadscha Sapphire":   item("PDSN"),
		"Mix":                     item("MS"),
		"Fancy":                   item("FS"),
	},
	KindLots: {
		"Lots Buying":  item("SL"),
		"Lots Mines":   item("67L"),
		"Lots Selling": item("LSELL"),
	},
	KindSortedLots: {
		"Lots Blue":   item("BSL"),
		"Lots Geuda":  item("GSL"),
		"Lots Yellow": item("YSL"),
		"Lots Mix":    item("MSL"),
	},
	KindCutAndPolished: {
		"Blue Sapphire Natural":         itemSuffix("BSN"),
		"Blue Sapphire Heated":          item("BSHCP"),
		"Yellow Sapphire":               itemSuffix("YSN"),
		"Pink Sapphire Natural":         item("PISNCP"),
		"Pink Sapphire Treated":         item("PISHCP"),
		"Purple Sapphire Natural":       item("PSNCP"),
		"Violet Sapphire Natural":       itemSuffix("VSN"),
		"Blue Sapphire Treated Lots":    item("BSHLCP"),
		"Padparadscha Sapphire Natural": itemSuffix("PDSN"),
	},
}

var fixedFormats = map[Kind]format{
	KindBuying:        {prefix: "B", pad: recordPad},
	KindSelling:       {prefix: "S", pad: recordPad},
	KindBuyPayment:    {prefix: "BP", pad: recordPad},
	KindSellPayment:   {prefix: "SP", pad: recordPad},
	KindCutPolish:     {prefix: "CP", pad: batchPad},
	KindHeatTreatment: {prefix: "HT", pad: batchPad},
	KindHeatGroup:     {prefix: "GHT", pad: batchPad},
	KindSortLotBatch:  {prefix: "SLT", pad: batchPad},
}

// Generate returns the code for a record of the given kind and id.
// subtype is only consulted for item kinds.
// Unmapped combinations fail with a validation error instead of yielding an empty code.
func Generate(kind Kind, subtype string, id int64) (string, error) {
	if id <= 0 {
		return "", shared.NewValidationError("code generation requires a persisted id, got %d", id)
	}
	f, err := lookup(kind, subtype)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%0*d%s", f.prefix, f.pad, id, f.suffix), nil
}

// Supports reports whether a (kind, subtype) pair has a code format
func Supports(kind Kind, subtype string) bool {
	_, err := lookup(kind, subtype)
	return err == nil
}

// Subtypes lists the subtypes registered for an item kind
func Subtypes(kind Kind) []string {
	table, ok := itemFormats[kind]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	return out
}

func lookup(kind Kind, subtype string) (format, error) {
	if f, ok := fixedFormats[kind]; ok {
		return f, nil
	}
	table, ok := itemFormats[kind]
	if !ok {
		return format{}, shared.NewValidationError("no code format for record kind %q", kind)
	}
	f, ok := table[subtype]
	if !ok {
		return format{}, shared.NewValidationError("no code format for %s subtype %q", kind, subtype)
	}
	return f, nil
}
