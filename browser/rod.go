package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodConfig configures a Chrome session driven through go-rod.
type RodConfig struct {
	// ControlURL connects to an already running Chrome. When empty a local
	// Chrome is launched.
	ControlURL      string
	Headless        bool
	PageLoadTimeout time.Duration
}

// RodSession is a Session backed by a single Chrome tab.
type RodSession struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	config   RodConfig
	cancel   context.CancelFunc
}

// NewRodOpener returns an Opener that starts a RodSession with cfg.
func NewRodOpener(cfg RodConfig) Opener {
	return func(ctx context.Context) (Session, error) {
		return OpenRod(ctx, cfg)
	}
}

// OpenRod connects to (or launches) Chrome and opens one blank tab.
func OpenRod(ctx context.Context, cfg RodConfig) (*RodSession, error) {
	s := &RodSession{config: cfg}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		s.launcher = launcher.New().Headless(cfg.Headless)
		u, err := s.launcher.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch chrome: %w", err)
		}
		controlURL = u
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.browser = rod.New().ControlURL(controlURL).Context(ctx)
	if err := s.browser.Connect(); err != nil {
		s.cancel()
		s.killLauncher()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	return s, nil
}

// Navigate implements Session.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.config.PageLoadTimeout)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return s.navigationError(ctx, url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return s.navigationError(ctx, url, err)
	}
	return nil
}

// navigationError marks load failures as ErrNavigation. Cancellation of the
// caller's context is returned as is.
func (s *RodSession) navigationError(ctx context.Context, url string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s: %w", ErrNavigation, url, err)
}

// Elements implements Session.
func (s *RodSession) Elements(ctx context.Context, xpath string) ([]Element, error) {
	els, err := s.page.Context(ctx).ElementsX(xpath)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", xpath, err)
	}

	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, rodElement{el: el})
	}
	return out, nil
}

// WaitElement implements Session.
func (s *RodSession) WaitElement(ctx context.Context, xpath string, timeout time.Duration) (Element, error) {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.ElementX(xpath)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrWaitTimeout, xpath)
		}
		return nil, fmt.Errorf("failed to wait for %q: %w", xpath, err)
	}
	return rodElement{el: el}, nil
}

// ScrollToBottom implements Session.
func (s *RodSession) ScrollToBottom(ctx context.Context, offset int) error {
	_, err := s.page.Context(ctx).Eval(
		`(offset) => window.scrollTo(0, Math.max(0, document.body.scrollHeight - offset))`,
		offset,
	)
	if err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

// ContentHeight implements Session.
func (s *RodSession) ContentHeight(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("failed to read page height: %w", err)
	}
	return res.Value.Int(), nil
}

// Close implements Session. A Chrome this session launched is shut down
// and killed. A Chrome reached through ControlURL keeps running; only the
// session's tab is closed and the connection dropped.
func (s *RodSession) Close() error {
	var err error
	switch {
	case s.launcher != nil:
		if s.browser != nil {
			err = s.browser.Close()
		}
		s.killLauncher()
	case s.page != nil:
		err = s.page.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	return err
}

func (s *RodSession) killLauncher() {
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Text() (string, error) {
	return e.el.Text()
}

// Attr reads href and src as DOM properties, which the browser has already
// resolved to absolute URLs.
func (e rodElement) Attr(name string) (string, error) {
	switch name {
	case "href", "src":
		v, err := e.el.Property(name)
		if err != nil {
			return "", err
		}
		if v.Nil() {
			return "", nil
		}
		return v.Str(), nil
	}

	v, err := e.el.Attribute(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}
