package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Item is one unit of work in a batch: the product identifier to search for
// and the listing values to register when the search succeeds.
type Item struct {
	Identifier string  `json:"id" csv:"id"`
	Price      float64 `json:"price" csv:"price"`
	Stock      int     `json:"stock" csv:"stock"`
}

// Validate checks the fields an item needs before it can be attempted.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Identifier) == "" {
		return fmt.Errorf("%w: item identifier is required", ErrValidation)
	}
	if math.IsNaN(i.Price) || math.IsInf(i.Price, 0) {
		return fmt.Errorf("%w: item price must be a finite number", ErrValidation)
	}
	if i.Price < 0 {
		return fmt.Errorf("%w: item price must not be negative, got %s", ErrValidation, i.PriceText())
	}
	if i.Stock < 0 {
		return fmt.Errorf("%w: item stock must not be negative, got %d", ErrValidation, i.Stock)
	}
	return nil
}

// PriceText renders the price the way it is typed into the listing form.
func (i Item) PriceText() string {
	return strconv.FormatFloat(i.Price, 'f', -1, 64)
}

// StockText renders the stock quantity the way it is typed into the listing form.
func (i Item) StockText() string {
	return strconv.Itoa(i.Stock)
}
