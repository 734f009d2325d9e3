// Package portal encodes the seller-portal workflow: the sign-in protocol,
// the per-item search and classification logic, and the listing form
// submission. All page work goes through the driver interfaces so the
// protocol can be exercised against scripted fakes.
package portal

import (
	"context"
	"strings"
	"time"

	"github.com/aokihara/listing-engine/internal/driver"
)

const (
	// DefaultStepBudget bounds blocking waits: navigation and required
	// controls.
	DefaultStepBudget = 30 * time.Second
	// DefaultProbeBudget bounds presence probes for controls that may
	// legitimately be absent.
	DefaultProbeBudget = 3 * time.Second
)

// Budgets are the per-operation deadlines applied uniformly inside a run.
type Budgets struct {
	Step  time.Duration
	Probe time.Duration
}

func (b Budgets) normalized() Budgets {
	if b.Step <= 0 {
		b.Step = DefaultStepBudget
	}
	if b.Probe <= 0 {
		b.Probe = DefaultProbeBudget
	}
	return b
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func navigate(ctx context.Context, page driver.Page, url string, b Budgets) error {
	stepCtx, cancel := context.WithTimeout(ctx, b.Step)
	defer cancel()
	return page.Navigate(stepCtx, url)
}

func find(ctx context.Context, page driver.Page, sel driver.Selector, b Budgets) (driver.Element, error) {
	stepCtx, cancel := context.WithTimeout(ctx, b.Step)
	defer cancel()
	return page.Find(stepCtx, sel)
}

func click(ctx context.Context, el driver.Element, b Budgets) error {
	stepCtx, cancel := context.WithTimeout(ctx, b.Step)
	defer cancel()
	return el.Click(stepCtx)
}

func fill(ctx context.Context, el driver.Element, text string, b Budgets) error {
	stepCtx, cancel := context.WithTimeout(ctx, b.Step)
	defer cancel()
	return el.Fill(stepCtx, text)
}

func waitLoad(ctx context.Context, page driver.Page, b Budgets) error {
	stepCtx, cancel := context.WithTimeout(ctx, b.Step)
	defer cancel()
	return page.WaitLoad(stepCtx)
}

// probe reports whether the control shows up within the probe budget.
// Absence is an answer here, never an error.
func probe(ctx context.Context, page driver.Page, sel driver.Selector, b Budgets) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, b.Probe)
	defer cancel()
	return page.Has(probeCtx, sel)
}

// waitGone reports whether the control disappears within the probe budget.
func waitGone(ctx context.Context, page driver.Page, sel driver.Selector, b Budgets) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, b.Probe)
	defer cancel()
	return page.WaitGone(probeCtx, sel)
}
