package portal

import (
	"context"

	"github.com/aokihara/listing-engine/internal/driver"
)

// fakePage scripts a browser tab per test. Unset hooks fall back to benign
// defaults so each test only scripts the controls it cares about.
type fakePage struct {
	navigateFn  func(ctx context.Context, url string) error
	waitLoadFn  func(ctx context.Context) error
	urlFn       func() string
	findFn      func(ctx context.Context, sel driver.Selector) (driver.Element, error)
	hasFn       func(ctx context.Context, sel driver.Selector) (bool, error)
	waitGoneFn  func(ctx context.Context, sel driver.Selector) (bool, error)
	waitPopupFn func(ctx context.Context, trigger func() error) (driver.Page, error)
	closeFn     func() error

	closeCalls int
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	if f.navigateFn != nil {
		return f.navigateFn(ctx, url)
	}
	return nil
}

func (f *fakePage) WaitLoad(ctx context.Context) error {
	if f.waitLoadFn != nil {
		return f.waitLoadFn(ctx)
	}
	return nil
}

func (f *fakePage) URL() string {
	if f.urlFn != nil {
		return f.urlFn()
	}
	return "https://portal.example.com/"
}

func (f *fakePage) Find(ctx context.Context, sel driver.Selector) (driver.Element, error) {
	if f.findFn != nil {
		return f.findFn(ctx, sel)
	}
	return &fakeElement{}, nil
}

func (f *fakePage) Has(ctx context.Context, sel driver.Selector) (bool, error) {
	if f.hasFn != nil {
		return f.hasFn(ctx, sel)
	}
	return false, nil
}

func (f *fakePage) WaitGone(ctx context.Context, sel driver.Selector) (bool, error) {
	if f.waitGoneFn != nil {
		return f.waitGoneFn(ctx, sel)
	}
	return true, nil
}

func (f *fakePage) WaitPopup(ctx context.Context, trigger func() error) (driver.Page, error) {
	if f.waitPopupFn != nil {
		return f.waitPopupFn(ctx, trigger)
	}
	if trigger != nil {
		if err := trigger(); err != nil {
			return nil, err
		}
	}
	return &fakePage{}, nil
}

func (f *fakePage) Close() error {
	f.closeCalls++
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeElement struct {
	clickFn func(ctx context.Context) error
	fillFn  func(ctx context.Context, text string) error
	textFn  func(ctx context.Context) (string, error)
}

func (f *fakeElement) Click(ctx context.Context) error {
	if f.clickFn != nil {
		return f.clickFn(ctx)
	}
	return nil
}

func (f *fakeElement) Fill(ctx context.Context, text string) error {
	if f.fillFn != nil {
		return f.fillFn(ctx, text)
	}
	return nil
}

func (f *fakeElement) Text(ctx context.Context) (string, error) {
	if f.textFn != nil {
		return f.textFn(ctx)
	}
	return "", nil
}

// fakeOTPGen hands out scripted codes in order, repeating the last one once
// the script runs out.
type fakeOTPGen struct {
	codes []string
	calls int
	err   error
}

func (f *fakeOTPGen) Generate(secret string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	if len(f.codes) == 0 {
		return "000000", nil
	}
	idx := f.calls - 1
	if idx >= len(f.codes) {
		idx = len(f.codes) - 1
	}
	return f.codes[idx], nil
}
