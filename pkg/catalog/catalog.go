// Package catalog provides the searchable catalogs behind the suggestion
// panel: the static category list, the service catalog and provider search.
package catalog

import (
	"strings"

	"nearby/models"
)

// Category is one browsable category. Popular categories are listed first
// in the empty-query panel.
type Category struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Popular bool   `json:"popular"`
}

// Ref returns the selection reference for c.
func (c Category) Ref() models.CategoryRef {
	return models.CategoryRef{ID: c.ID, Label: c.Label}
}

// Service is an entry of the service catalog.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Description     string `json:"description"`
	PriceInPaisa    int64  `json:"priceInPaisa"`
	DurationMinutes int    `json:"durationMinutes"`
}

// Salon is a provider returned by provider search.
type Salon struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
	Image   string  `json:"image"`
}

// DefaultCategories is the built-in category list.
var DefaultCategories = []Category{
	{ID: "hair", Label: "Hair", Popular: true},
	{ID: "nails", Label: "Nails", Popular: true},
	{ID: "skin", Label: "Skin Care", Popular: true},
	{ID: "makeup", Label: "Makeup", Popular: true},
	{ID: "spa", Label: "Spa & Massage", Popular: true},
	{ID: "barber", Label: "Barber", Popular: true},
	{ID: "waxing", Label: "Waxing"},
	{ID: "brows-lashes", Label: "Brows & Lashes"},
	{ID: "hair-removal", Label: "Hair Removal"},
	{ID: "bridal", Label: "Bridal"},
	{ID: "tattoo", Label: "Tattoo & Piercing"},
	{ID: "wellness", Label: "Wellness"},
}

// Categories is an ordered, ID-addressable category list.
type Categories struct {
	list []Category
	byID map[string]Category
}

func NewCategories(list []Category) *Categories {
	c := &Categories{list: list, byID: make(map[string]Category, len(list))}
	for _, cat := range list {
		c.byID[strings.ToLower(cat.ID)] = cat
	}
	return c
}

// All returns the categories in display order.
func (c *Categories) All() []Category {
	out := make([]Category, len(c.list))
	copy(out, c.list)
	return out
}

// Lookup finds a category by ID, case-insensitively.
func (c *Categories) Lookup(id string) (Category, bool) {
	cat, ok := c.byID[strings.ToLower(id)]
	return cat, ok
}

// Split partitions the list into popular and remaining categories,
// preserving order.
func (c *Categories) Split() (popular, rest []Category) {
	for _, cat := range c.list {
		if cat.Popular {
			popular = append(popular, cat)
		} else {
			rest = append(rest, cat)
		}
	}
	return popular, rest
}
