// Package driver defines the browser automation surface the workflow engine
// drives. Implementations live in subpackages; the engine itself only depends
// on these interfaces so tests can run against scripted fakes.
package driver

import "context"

// Options configure a browser session.
type Options struct {
	Headless bool
}

// Opener launches browser sessions.
type Opener interface {
	Open(ctx context.Context, opts Options) (Session, error)
}

// Session is one live browser with its own cookies and authenticated state.
// It is owned exclusively by a single run and must be closed when the run
// ends.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a browser tab. Every blocking operation takes a context; the
// deadline on that context is the step's timeout budget, and expiry surfaces
// as an error for which IsTimeout reports true.
type Page interface {
	// Navigate loads the URL and waits for the load to complete.
	Navigate(ctx context.Context, url string) error
	// WaitLoad waits for the current navigation to complete.
	WaitLoad(ctx context.Context) error
	// URL reports the page's current location.
	URL() string
	// Find locates the control and waits until it is visible.
	Find(ctx context.Context, sel Selector) (Element, error)
	// Has probes for the control within the context deadline and reports
	// presence without failing on absence.
	Has(ctx context.Context, sel Selector) (bool, error)
	// WaitGone waits for the control to disappear and reports whether it
	// did within the context deadline.
	WaitGone(ctx context.Context, sel Selector) (bool, error)
	// WaitPopup runs trigger and returns the page the portal opened as a
	// side effect of it.
	WaitPopup(ctx context.Context, trigger func() error) (Page, error)
	Close() error
}

// Element is a located control on a page.
type Element interface {
	Click(ctx context.Context) error
	// Fill clears the control and types text into it.
	Fill(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// Selector describes one control. Name is the logical control name and
// travels into errors so a failed lookup identifies what it was looking for;
// CSS is the structural locator; Text optionally narrows the CSS matches to
// elements containing that visible text.
type Selector struct {
	Name string
	CSS  string
	Text string
}

// ByCSS builds a structural selector.
func ByCSS(name, css string) Selector {
	return Selector{Name: name, CSS: css}
}

// ByText builds a selector that matches CSS candidates by visible text.
func ByText(name, css, text string) Selector {
	return Selector{Name: name, CSS: css, Text: text}
}
