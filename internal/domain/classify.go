package domain

import (
	"fmt"
	"strings"
)

// Category is one of the fixed topic partitions of the feed.
type Category string

const (
	CategoryPrimary    Category = "primary"
	CategoryUpdates    Category = "updates"
	CategorySocial     Category = "social"
	CategoryPromotions Category = "promotions"
	CategoryDebts      Category = "debts"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryPrimary,
	CategoryUpdates,
	CategorySocial,
	CategoryPromotions,
	CategoryDebts,
}

// categoryByType is built once and never mutated.
var categoryByType = func() map[string]Category {
	groups := map[Category][]string{
		CategoryPrimary:    {"sale", "inventory", "payment"},
		CategoryUpdates:    {"confirmation", "receipt", "billing", "update", "system", "stock"},
		CategorySocial:     {"agreement", "task", "mention", "comment", "user", "payment-social"},
		CategoryPromotions: {"promotion", "discount", "offer", "coupon"},
		CategoryDebts:      {"debt", "owed", "arrears"},
	}

	table := make(map[string]Category, 24)
	for category, types := range groups {
		for _, t := range types {
			table[t] = category
		}
	}
	return table
}()

// Classify maps a raw event type to its category. Unknown types are primary.
func Classify(typ string) Category {
	if c, ok := categoryByType[strings.ToLower(strings.TrimSpace(typ))]; ok {
		return c
	}
	return CategoryPrimary
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts an empty string (no filter) or a valid category name.
func ParseCategory(s string) (Category, error) {
	if s == "" || s == "all" {
		return "", nil
	}
	c := Category(strings.ToLower(s))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
