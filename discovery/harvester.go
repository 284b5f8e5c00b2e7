package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pevans/newsharvest/browser"
	"github.com/pevans/newsharvest/config"
	"go.uber.org/zap"
)

// StallConfirmCycles is the number of extra scroll-and-pause cycles run
// after an unchanged height reading before the page is declared exhausted.
const StallConfirmCycles = 2

// latestNewsHeading locates the "latest news" block of a category page.
const latestNewsHeading = "//h3[contains(., 'آخرین خبرها')]"

// nonArticleSegment marks listing links that never point at articles.
const nonArticleSegment = "/video/"

var articleIDPattern = regexp.MustCompile(`/[0-9]{6,}/`)

// StopReason tells why a harvest ended.
type StopReason int

const (
	// TargetReached means the requested number of links was collected.
	TargetReached StopReason = iota
	// StalledConfirmed means the page stopped growing through the
	// confirmation cycles.
	StalledConfirmed
	// MaxScrollsExceeded means the scroll bound ran out first.
	MaxScrollsExceeded
)

func (r StopReason) String() string {
	switch r {
	case TargetReached:
		return "target_reached"
	case StalledConfirmed:
		return "stalled_confirmed"
	case MaxScrollsExceeded:
		return "max_scrolls_exceeded"
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// HarvestResult is the outcome of one category harvest.
type HarvestResult struct {
	Links   []string
	Reason  StopReason
	Scrolls int
}

// HarvesterConfig holds the pagination timings.
type HarvesterConfig struct {
	BaseURL      string
	ScrollPause  time.Duration
	ConfirmPause time.Duration
	// StallBackoff is how far above the bottom the first confirmation
	// cycle scrolls, so the page sees a fresh scroll to the bottom.
	StallBackoff int
	WaitTimeout  time.Duration
}

// NewHarvesterConfig extracts the harvester settings from cfg.
func NewHarvesterConfig(cfg *config.Config) HarvesterConfig {
	return HarvesterConfig{
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		ScrollPause:  cfg.ScrollPause,
		ConfirmPause: cfg.ConfirmPause,
		StallBackoff: cfg.StallBackoffPixels,
		WaitTimeout:  cfg.WaitTimeout,
	}
}

// Harvester collects article links from infinitely scrolling category pages.
type Harvester struct {
	session browser.Session
	config  HarvesterConfig
	log     *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHarvester creates a harvester driving session.
func NewHarvester(session browser.Session, cfg HarvesterConfig, log *zap.Logger) *Harvester {
	return &Harvester{
		session: session,
		config:  cfg,
		log:     log,
		sleep:   sleepContext,
	}
}

// scrollSession is the state of one category harvest. It lives only for
// the duration of Harvest.
type scrollSession struct {
	links      []string
	seen       map[string]bool
	lastHeight int
	stalls     int
}

func (s *scrollSession) add(link string) {
	if s.seen[link] {
		return
	}
	s.seen[link] = true
	s.links = append(s.links, link)
}

// Harvest loads the category listing and scrolls it until cat.Target unique
// article links are known, the page stops growing, or cat.MaxScrolls
// scrolls have been made. Links are returned in first-seen order.
func (h *Harvester) Harvest(ctx context.Context, cat config.Category) (*HarvestResult, error) {
	log := h.log.With(zap.String("category", cat.Key))
	prefix := h.config.BaseURL + cat.Path + "/"

	if err := h.session.Navigate(ctx, h.config.BaseURL+cat.Path); err != nil {
		return nil, fmt.Errorf("failed to open category %s: %w", cat.Key, err)
	}

	if _, err := h.session.WaitElement(ctx, latestNewsHeading, h.config.WaitTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("latest news heading not found, continuing anyway", zap.Error(err))
	}

	state := &scrollSession{seen: map[string]bool{}}
	result := &HarvestResult{Reason: MaxScrollsExceeded}

	for result.Scrolls < cat.MaxScrolls {
		if err := h.collect(ctx, state, prefix); err != nil {
			return nil, err
		}
		if len(state.links) >= cat.Target {
			result.Reason = TargetReached
			break
		}

		result.Scrolls++
		if err := h.scroll(ctx, 0, h.config.ScrollPause); err != nil {
			return nil, err
		}

		stalled, err := h.checkStall(ctx, state, log)
		if err != nil {
			return nil, err
		}
		if stalled {
			result.Reason = StalledConfirmed
			break
		}
	}

	result.Links = state.links
	if len(result.Links) > cat.Target {
		result.Links = result.Links[:cat.Target]
	}

	log.Info("harvest finished",
		zap.Stringer("reason", result.Reason),
		zap.Int("scrolls", result.Scrolls),
		zap.Int("links", len(result.Links)),
	)

	return result, nil
}

// collect adds every rendered article link under prefix to the state.
func (h *Harvester) collect(ctx context.Context, state *scrollSession, prefix string) error {
	xpath := fmt.Sprintf("//a[contains(@href, '%s') and not(contains(@href, '%s'))]", prefix, nonArticleSegment)

	anchors, err := h.session.Elements(ctx, xpath)
	if err != nil {
		return fmt.Errorf("failed to list anchors: %w", err)
	}

	for _, a := range anchors {
		href, err := a.Attr("href")
		if err != nil || href == "" {
			continue
		}
		if IsArticleLink(href, prefix) {
			state.add(href)
		}
	}
	return nil
}

// checkStall compares the page height with the previous reading. An
// unchanged height starts the confirmation cycles; the page counts as
// stalled only if the height is still unchanged after them.
func (h *Harvester) checkStall(ctx context.Context, state *scrollSession, log *zap.Logger) (bool, error) {
	height, err := h.session.ContentHeight(ctx)
	if err != nil {
		return false, err
	}
	if height != state.lastHeight {
		state.lastHeight = height
		return false, nil
	}

	state.stalls++
	for cycle := 0; cycle < StallConfirmCycles; cycle++ {
		offset := 0
		if cycle == 0 {
			offset = h.config.StallBackoff
		}
		if err := h.scroll(ctx, offset, h.config.ConfirmPause); err != nil {
			return false, err
		}
	}

	height, err = h.session.ContentHeight(ctx)
	if err != nil {
		return false, err
	}
	if height == state.lastHeight {
		return true, nil
	}

	log.Debug("page grew during stall confirmation",
		zap.Int("stalls", state.stalls),
		zap.Int("height", height),
	)
	state.lastHeight = height
	return false, nil
}

func (h *Harvester) scroll(ctx context.Context, offset int, pause time.Duration) error {
	if err := h.session.ScrollToBottom(ctx, offset); err != nil {
		return err
	}
	return h.sleep(ctx, pause)
}

// IsArticleLink reports whether href lives under prefix, is not a video
// page and carries a numeric article id of at least six digits.
func IsArticleLink(href, prefix string) bool {
	if !strings.HasPrefix(href, prefix) {
		return false
	}
	if strings.Contains(href, nonArticleSegment) {
		return false
	}
	return articleIDPattern.MatchString(href)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
