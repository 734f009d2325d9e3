// Package csvio reads item batches and writes result exports as CSV.
package csvio

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/aokihara/listing-engine/internal/domain"
)

// ReadItems parses a CSV document with an id,price,stock header into a
// validated item batch. Row errors name the offending line.
func ReadItems(r io.Reader) ([]domain.Item, error) {
	var items []domain.Item
	if err := gocsv.Unmarshal(r, &items); err != nil {
		return nil, fmt.Errorf("%w: invalid csv: %v", domain.ErrValidation, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: csv contains no items", domain.ErrValidation)
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			// The header occupies line 1.
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
	}

	return items, nil
}

// WriteResults renders outcome rows under an id,outcome,price,stock,message
// header.
func WriteResults(w io.Writer, outcomes []domain.Outcome) error {
	if outcomes == nil {
		outcomes = []domain.Outcome{}
	}

	if err := gocsv.Marshal(&outcomes, w); err != nil {
		return fmt.Errorf("failed to write results csv: %w", err)
	}

	return nil
}
