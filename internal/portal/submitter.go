package portal

import (
	"context"

	"go.uber.org/zap"

	"github.com/aokihara/listing-engine/internal/domain"
	"github.com/aokihara/listing-engine/internal/driver"
)

// Submitter fills and submits the registration sub-page for one item.
type Submitter struct {
	budgets Budgets
	logger  *zap.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(budgets Budgets, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{budgets: budgets.normalized(), logger: logger}
}

// Submit drives the registration form. The sub-page is closed on every exit
// path. OutcomeInvalidInput is returned, not raised, when the form rejects
// the values; an error return means the step itself failed.
func (s *Submitter) Submit(ctx context.Context, listing driver.Page, item domain.Item) (domain.OutcomeKind, error) {
	defer func() {
		if err := listing.Close(); err != nil {
			s.logger.Warn("closing registration sub-page failed", zap.Error(err))
		}
	}()

	log := s.logger.With(zap.String("identifier", item.Identifier))

	sku, err := find(ctx, listing, skuField, s.budgets)
	if err != nil {
		return "", err
	}
	if err := fill(ctx, sku, item.Identifier, s.budgets); err != nil {
		return "", err
	}

	shipping, err := find(ctx, listing, merchantFulfillment, s.budgets)
	if err != nil {
		return "", err
	}
	if err := click(ctx, shipping, s.budgets); err != nil {
		return "", err
	}

	stock, err := find(ctx, listing, stockField, s.budgets)
	if err != nil {
		return "", err
	}
	if err := fill(ctx, stock, item.StockText(), s.budgets); err != nil {
		return "", err
	}

	price, err := find(ctx, listing, priceField, s.budgets)
	if err != nil {
		return "", err
	}
	if err := fill(ctx, price, item.PriceText(), s.budgets); err != nil {
		return "", err
	}

	save, err := find(ctx, listing, saveButton, s.budgets)
	if err != nil {
		return "", err
	}
	if err := click(ctx, save, s.budgets); err != nil {
		return "", err
	}

	// The register control only renders when the form passed validation.
	confirmed, err := probe(ctx, listing, registerButton, s.budgets)
	if err != nil {
		return "", err
	}
	if !confirmed {
		log.Info("listing rejected by form validation")
		return domain.OutcomeInvalidInput, nil
	}

	register, err := find(ctx, listing, registerButton, s.budgets)
	if err != nil {
		return "", err
	}
	if err := click(ctx, register, s.budgets); err != nil {
		return "", err
	}
	if err := waitLoad(ctx, listing, s.budgets); err != nil {
		return "", err
	}

	log.Info("listing registered")
	return domain.OutcomeSuccess, nil
}
