package browser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// userAgent identifies static fetches.
const userAgent = "newsharvest/1.0 (+static session)"

// StaticSession is a Session over server-rendered HTML. Pages are fetched
// once per navigation and never grow, so scrolling has no effect and the
// content height stays constant until the next navigation.
type StaticSession struct {
	client *http.Client
	doc    *goquery.Document
	base   *url.URL
	height int
}

// NewStaticOpener returns an Opener for static sessions. A nil client gets
// a default client bounded by pageLoadTimeout.
func NewStaticOpener(client *http.Client, pageLoadTimeout time.Duration) Opener {
	return func(ctx context.Context) (Session, error) {
		return NewStaticSession(client, pageLoadTimeout), nil
	}
}

// NewStaticSession creates a static session.
func NewStaticSession(client *http.Client, pageLoadTimeout time.Duration) *StaticSession {
	if client == nil {
		client = &http.Client{Timeout: pageLoadTimeout}
	}
	return &StaticSession{client: client}
}

// Navigate implements Session.
func (s *StaticSession) Navigate(ctx context.Context, rawURL string) error {
	base, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL %q: %w", ErrNavigation, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", ErrNavigation, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: failed to fetch %s: %w", ErrNavigation, rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: HTTP %d %s", ErrNavigation, rawURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s: %w", ErrNavigation, rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to parse HTML: %w", ErrNavigation, err)
	}

	s.doc = doc
	s.base = resp.Request.URL
	if s.base == nil {
		s.base = base
	}
	s.height = len(body)
	return nil
}

// Elements implements Session.
func (s *StaticSession) Elements(ctx context.Context, xpath string) ([]Element, error) {
	if s.doc == nil {
		return nil, ErrNoPage
	}

	nodes, err := htmlquery.QueryAll(s.doc.Nodes[0], xpath)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", xpath, err)
	}

	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		out = append(out, staticElement{sel: goquery.NewDocumentFromNode(n).Selection, base: s.base})
	}
	return out, nil
}

// WaitElement implements Session. Static content cannot change, so the wait
// fails immediately when nothing matches.
func (s *StaticSession) WaitElement(ctx context.Context, xpath string, timeout time.Duration) (Element, error) {
	els, err := s.Elements(ctx, xpath)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrWaitTimeout, xpath)
	}
	return els[0], nil
}

// ScrollToBottom implements Session.
func (s *StaticSession) ScrollToBottom(ctx context.Context, offset int) error {
	if s.doc == nil {
		return ErrNoPage
	}
	return nil
}

// ContentHeight implements Session. It reports the size of the loaded
// document.
func (s *StaticSession) ContentHeight(ctx context.Context) (int, error) {
	if s.doc == nil {
		return 0, ErrNoPage
	}
	return s.height, nil
}

// Close implements Session.
func (s *StaticSession) Close() error {
	s.doc = nil
	s.client.CloseIdleConnections()
	return nil
}

type staticElement struct {
	sel  *goquery.Selection
	base *url.URL
}

// Text returns the element's text as a browser would render it.
func (e staticElement) Text() (string, error) {
	return renderedText(e.sel.Nodes), nil
}

func (e staticElement) Attr(name string) (string, error) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", nil
	}
	if name != "href" && name != "src" {
		return v, nil
	}

	ref, err := url.Parse(strings.TrimSpace(v))
	if err != nil {
		return v, nil
	}
	return e.base.ResolveReference(ref).String(), nil
}
