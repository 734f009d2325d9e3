package domain

import "fmt"

// OutcomeKind classifies how the attempt for a single item ended.
type OutcomeKind string

const (
	// OutcomeSuccess means the listing form was submitted and confirmed.
	OutcomeSuccess OutcomeKind = "Success"
	// OutcomeNotFound means the portal search returned no product page.
	OutcomeNotFound OutcomeKind = "NotFound"
	// OutcomeBrandRestricted means the product page carries a brand gate.
	OutcomeBrandRestricted OutcomeKind = "BrandRestricted"
	// OutcomeInvalidInput means the item failed validation before any portal work.
	OutcomeInvalidInput OutcomeKind = "InvalidInput"
	// OutcomeTimedOut means a portal step exceeded its deadline.
	OutcomeTimedOut OutcomeKind = "TimedOut"
	// OutcomeError means an unexpected portal or driver failure.
	OutcomeError OutcomeKind = "Error"
)

// String returns the string representation of the outcome kind.
func (k OutcomeKind) String() string {
	return string(k)
}

// IsValid reports whether the outcome kind is one of the known values.
func (k OutcomeKind) IsValid() bool {
	switch k {
	case OutcomeSuccess, OutcomeNotFound, OutcomeBrandRestricted,
		OutcomeInvalidInput, OutcomeTimedOut, OutcomeError:
		return true
	default:
		return false
	}
}

// ParseOutcomeKindFromString converts a string into an OutcomeKind.
func ParseOutcomeKindFromString(s string) (OutcomeKind, error) {
	kind := OutcomeKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: invalid outcome kind: %s", ErrValidation, s)
	}
	return kind, nil
}

// Outcome records the result of one attempted item. Price and Stock echo the
// input values so the aggregated result table is self-contained.
type Outcome struct {
	Identifier string      `json:"id" csv:"id"`
	Kind       OutcomeKind `json:"outcome" csv:"outcome"`
	Price      float64     `json:"price" csv:"price"`
	Stock      int         `json:"stock" csv:"stock"`
	Message    string      `json:"message,omitempty" csv:"message"`
}

// NewOutcome builds an outcome of the given kind for an item.
func NewOutcome(item Item, kind OutcomeKind) Outcome {
	return Outcome{
		Identifier: item.Identifier,
		Kind:       kind,
		Price:      item.Price,
		Stock:      item.Stock,
	}
}

// NewOutcomeWithMessage builds an outcome that carries a diagnostic message.
func NewOutcomeWithMessage(item Item, kind OutcomeKind, message string) Outcome {
	out := NewOutcome(item, kind)
	out.Message = message
	return out
}
