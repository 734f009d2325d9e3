// Package rodriver implements the automation driver on top of go-rod with
// the stealth preset. Sessions run a local Chromium controlled over CDP.
package rodriver

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/aokihara/listing-engine/internal/driver"
)

const probePollInterval = 200 * time.Millisecond

// Opener launches Chromium sessions.
type Opener struct{}

// NewOpener creates an Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open launches a browser and connects to it. The returned session owns both
// the connection and the launched process.
func (o *Opener) Open(ctx context.Context, opts driver.Options) (driver.Session, error) {
	launch := launcher.New().Headless(opts.Headless).Leakless(true)

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, driver.NewError("launch", "", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		launch.Cleanup()
		return nil, classify(ctx, "connect", "", err)
	}

	return &session{launch: launch, browser: browser}, nil
}

type session struct {
	launch  *launcher.Launcher
	browser *rod.Browser
}

func (s *session) NewPage(ctx context.Context) (driver.Page, error) {
	p, err := stealth.Page(s.browser.Context(ctx))
	if err != nil {
		return nil, classify(ctx, "new_page", "", err)
	}
	return &page{page: p}, nil
}

func (s *session) Close() error {
	err := s.browser.Close()
	s.launch.Cleanup()
	return err
}

type page struct {
	page *rod.Page
}

func (p *page) Navigate(ctx context.Context, url string) error {
	bound := p.page.Context(ctx)
	if err := bound.Navigate(url); err != nil {
		return classify(ctx, "navigate", "", err)
	}
	if err := bound.WaitLoad(); err != nil {
		return classify(ctx, "wait_load", "", err)
	}
	return nil
}

func (p *page) WaitLoad(ctx context.Context) error {
	if err := p.page.Context(ctx).WaitLoad(); err != nil {
		return classify(ctx, "wait_load", "", err)
	}
	return nil
}

func (p *page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *page) Find(ctx context.Context, sel driver.Selector) (driver.Element, error) {
	bound := p.page.Context(ctx)

	var (
		el  *rod.Element
		err error
	)
	if sel.Text != "" {
		el, err = bound.ElementR(sel.CSS, textPattern(sel.Text))
	} else {
		el, err = bound.Element(sel.CSS)
	}
	if err != nil {
		return nil, classify(ctx, "find", sel.Name, err)
	}

	if err := el.Context(ctx).WaitVisible(); err != nil {
		return nil, classify(ctx, "wait_visible", sel.Name, err)
	}

	return &element{el: el, name: sel.Name}, nil
}

func (p *page) Has(ctx context.Context, sel driver.Selector) (bool, error) {
	for {
		found, err := p.hasNow(sel)
		if err != nil {
			return false, driver.NewError("probe", sel.Name, err)
		}
		if found {
			return true, nil
		}

		select {
		case <-ctx.Done():
			// Absence at the deadline is the probe's answer, not a failure.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return false, nil
			}
			return false, ctx.Err()
		case <-time.After(probePollInterval):
		}
	}
}

func (p *page) WaitGone(ctx context.Context, sel driver.Selector) (bool, error) {
	for {
		found, err := p.hasNow(sel)
		if err != nil {
			return false, driver.NewError("probe", sel.Name, err)
		}
		if !found {
			return true, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return false, nil
			}
			return false, ctx.Err()
		case <-time.After(probePollInterval):
		}
	}
}

func (p *page) hasNow(sel driver.Selector) (bool, error) {
	if sel.Text != "" {
		found, _, err := p.page.HasR(sel.CSS, textPattern(sel.Text))
		return found, err
	}
	found, _, err := p.page.Has(sel.CSS)
	return found, err
}

func (p *page) WaitPopup(ctx context.Context, trigger func() error) (driver.Page, error) {
	wait := p.page.Context(ctx).WaitOpen()

	if err := trigger(); err != nil {
		return nil, err
	}

	opened, err := wait()
	if err != nil {
		return nil, classify(ctx, "wait_popup", "", err)
	}
	if err := opened.Context(ctx).WaitLoad(); err != nil {
		return nil, classify(ctx, "wait_popup_load", "", err)
	}

	return &page{page: opened}, nil
}

func (p *page) Close() error {
	return p.page.Close()
}

type element struct {
	el   *rod.Element
	name string
}

func (e *element) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(ctx, "click", e.name, err)
	}
	return nil
}

func (e *element) Fill(ctx context.Context, text string) error {
	bound := e.el.Context(ctx)
	if err := bound.SelectAllText(); err != nil {
		return classify(ctx, "clear", e.name, err)
	}
	if err := bound.Input(text); err != nil {
		return classify(ctx, "fill", e.name, err)
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	text, err := e.el.Context(ctx).Text()
	if err != nil {
		return "", classify(ctx, "text", e.name, err)
	}
	return text, nil
}

// classify wraps a rod failure, marking deadline expiry as a timeout.
func classify(ctx context.Context, op, control string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return driver.NewTimeoutError(op, control, err)
	}
	return driver.NewError(op, control, err)
}

// textPattern builds a literal-text pattern for rod's regex matchers.
func textPattern(text string) string {
	return regexp.QuoteMeta(text)
}
