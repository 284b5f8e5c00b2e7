// Package browser defines the rendering-agent session the harvester and
// extractor drive, with a go-rod implementation backed by headless Chrome
// and a static implementation that fetches plain HTML.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNavigation is returned when a page could not be loaded.
	ErrNavigation = errors.New("navigation failed")

	// ErrWaitTimeout is returned when a bounded wait expires before the
	// awaited element appears.
	ErrWaitTimeout = errors.New("wait timed out")

	// ErrNoPage is returned when a session is queried before any successful
	// navigation.
	ErrNoPage = errors.New("no page loaded")
)

// Element is one node of the currently rendered page.
type Element interface {
	// Text returns the rendered text of the element.
	Text() (string, error)

	// Attr returns the named attribute. For href and src the value is
	// resolved to an absolute URL. A missing attribute yields "".
	Attr(name string) (string, error)
}

// Session is a single page-rendering session. It is not safe for concurrent
// use; every call operates on whatever page was last navigated to.
type Session interface {
	// Navigate loads url, blocking until the page has loaded or the
	// session's page-load timeout expires.
	Navigate(ctx context.Context, url string) error

	// Elements returns every element matching the XPath expression, or an
	// empty slice if none match.
	Elements(ctx context.Context, xpath string) ([]Element, error)

	// WaitElement waits up to timeout for an element matching the XPath
	// expression and returns the first match, or ErrWaitTimeout.
	WaitElement(ctx context.Context, xpath string, timeout time.Duration) (Element, error)

	// ScrollToBottom scrolls the window to offset pixels above the bottom of
	// the document. An offset of zero scrolls to the very bottom.
	ScrollToBottom(ctx context.Context, offset int) error

	// ContentHeight returns the current scroll height of the document body.
	ContentHeight(ctx context.Context) (int, error)

	// Close releases the session.
	Close() error
}

// Opener acquires a new session.
type Opener func(ctx context.Context) (Session, error)
