package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/pevans/newsharvest/browser"
)

type fakeElement struct {
	text  string
	attrs map[string]string
}

func (e fakeElement) Text() (string, error) { return e.text, nil }

func (e fakeElement) Attr(name string) (string, error) { return e.attrs[name], nil }

func anchor(href string) browser.Element {
	return fakeElement{attrs: map[string]string{"href": href}}
}

// fakeSession simulates an infinitely scrolling listing. Each height
// reading advances the page one step: pages[i] holds the links that appear
// at step i and heights[i] the height read at step i. Both clamp at their
// last entry.
type fakeSession struct {
	pages   [][]string
	heights []int
	heading bool
	navErr  error

	step      int
	navigated []string
	scrolls   []int
	closed    bool
}

func (s *fakeSession) Navigate(ctx context.Context, url string) error {
	if s.navErr != nil {
		return s.navErr
	}
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *fakeSession) Elements(ctx context.Context, xpath string) ([]browser.Element, error) {
	if !strings.HasPrefix(xpath, "//a[") {
		return nil, nil
	}
	var out []browser.Element
	for i := 0; i < len(s.pages) && i <= s.step; i++ {
		for _, href := range s.pages[i] {
			out = append(out, anchor(href))
		}
	}
	return out, nil
}

func (s *fakeSession) WaitElement(ctx context.Context, xpath string, timeout time.Duration) (browser.Element, error) {
	if s.heading {
		return fakeElement{text: "آخرین خبرها"}, nil
	}
	return nil, browser.ErrWaitTimeout
}

func (s *fakeSession) ScrollToBottom(ctx context.Context, offset int) error {
	s.scrolls = append(s.scrolls, offset)
	return nil
}

func (s *fakeSession) ContentHeight(ctx context.Context) (int, error) {
	i := min(s.step, len(s.heights)-1)
	s.step++
	return s.heights[i], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}
