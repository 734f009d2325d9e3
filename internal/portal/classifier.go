package portal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aokihara/listing-engine/internal/domain"
	"github.com/aokihara/listing-engine/internal/driver"
)

// Classifier searches for one item and decides which branch of the workflow
// applies to it.
type Classifier struct {
	baseURL string
	budgets Budgets
	logger  *zap.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(baseURL string, budgets Budgets, logger *zap.Logger) (*Classifier, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: portal base url is required", domain.ErrValidation)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Classifier{
		baseURL: baseURL,
		budgets: budgets.normalized(),
		logger:  logger,
	}, nil
}

// Classify runs the search protocol for one identifier. On OutcomeSuccess
// the returned page is the freshly opened registration sub-page and the
// caller owns closing it; for every other outcome the page is nil. The
// listing branches are returned, never raised: an error return means the
// step itself failed.
func (c *Classifier) Classify(ctx context.Context, page driver.Page, identifier string) (domain.OutcomeKind, driver.Page, error) {
	log := c.logger.With(zap.String("identifier", identifier))

	if err := navigate(ctx, page, joinURL(c.baseURL, searchPath), c.budgets); err != nil {
		return "", nil, err
	}

	box, err := find(ctx, page, searchBox, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if err := fill(ctx, box, identifier, c.budgets); err != nil {
		return "", nil, err
	}

	submit, err := find(ctx, page, searchButton, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if err := click(ctx, submit, c.budgets); err != nil {
		return "", nil, err
	}

	// Result rows and the empty banner both render inside the results
	// region, so wait for the region before deciding which one happened.
	if _, err := find(ctx, page, resultsRegion, c.budgets); err != nil {
		return "", nil, err
	}

	empty, err := probe(ctx, page, noResultsBanner, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if empty {
		log.Info("search returned no results")
		return domain.OutcomeNotFound, nil, nil
	}

	row, err := find(ctx, page, resultRow, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if err := click(ctx, row, c.budgets); err != nil {
		return "", nil, err
	}

	// The badge renders lazily. Absence within the probe budget is read as
	// not restricted.
	restricted, err := probe(ctx, page, brandBadge, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if restricted {
		log.Info("brand restriction present")
		return domain.OutcomeBrandRestricted, nil, nil
	}

	offer, err := find(ctx, page, offerOption, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if err := click(ctx, offer, c.budgets); err != nil {
		return "", nil, err
	}

	card, err := find(ctx, page, standardCard, c.budgets)
	if err != nil {
		return "", nil, err
	}
	if err := click(ctx, card, c.budgets); err != nil {
		return "", nil, err
	}

	trigger, err := find(ctx, page, listButton, c.budgets)
	if err != nil {
		return "", nil, err
	}

	popupCtx, cancel := context.WithTimeout(ctx, c.budgets.Step)
	defer cancel()

	sub, err := page.WaitPopup(popupCtx, func() error {
		return trigger.Click(popupCtx)
	})
	if err != nil {
		return "", nil, err
	}

	log.Info("registration sub-page opened")
	return domain.OutcomeSuccess, sub, nil
}
