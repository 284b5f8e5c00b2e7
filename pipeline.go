// Package newsharvest harvests news articles from a category-organized site
// whose listings paginate by infinite scroll, and writes the accepted
// articles to CSV (and optionally SQLite).
package newsharvest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/newsharvest/browser"
	"github.com/pevans/newsharvest/config"
	"github.com/pevans/newsharvest/discovery"
	"github.com/pevans/newsharvest/newsfeed"
	"github.com/pevans/newsharvest/textnorm"
	"go.uber.org/zap"
)

// progressEvery is how many accepted items pass between progress logs.
const progressEvery = 10

// Pipeline runs a full harvest: every configured category is paginated,
// every discovered article extracted, and the accepted items persisted.
type Pipeline struct {
	config *config.Config
	open   browser.Opener
	log    *zap.Logger
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID       uuid.UUID
	Items       int
	PerCategory map[string]int
	Duration    time.Duration
}

// NewPipeline creates a pipeline that acquires its session through open.
func NewPipeline(cfg *config.Config, open browser.Opener, log *zap.Logger) *Pipeline {
	return &Pipeline{
		config: cfg,
		open:   open,
		log:    log,
	}
}

// SelectCategories returns the configured categories named by keys, in
// configuration order. No keys selects every category.
func SelectCategories(cfg *config.Config, keys []string) ([]config.Category, error) {
	if len(keys) == 0 {
		cats := make([]config.Category, 0, len(cfg.Categories))
		for _, cat := range cfg.Categories {
			cats = append(cats, cfg.Resolved(cat))
		}
		return cats, nil
	}

	wanted := map[string]bool{}
	for _, key := range keys {
		if _, ok := cfg.Category(key); !ok {
			return nil, fmt.Errorf("unknown category %q", key)
		}
		wanted[key] = true
	}

	var cats []config.Category
	for _, cat := range cfg.Categories {
		if wanted[cat.Key] {
			cats = append(cats, cfg.Resolved(cat))
		}
	}
	return cats, nil
}

// Run collects items for categories and then writes them out. Nothing is
// written unless every category completes.
func (p *Pipeline) Run(ctx context.Context, categories []config.Category) (*RunSummary, error) {
	start := time.Now()
	runID := uuid.New()
	log := p.log.With(zap.String("run_id", runID.String()))

	items, err := p.Collect(ctx, categories)
	if err != nil {
		return nil, err
	}

	if err := p.persist(ctx, runID, items); err != nil {
		return nil, err
	}

	summary := &RunSummary{
		RunID:       runID,
		Items:       len(items),
		PerCategory: map[string]int{},
		Duration:    time.Since(start),
	}
	for _, item := range items {
		summary.PerCategory[item.Category]++
	}

	log.Info("saved harvest",
		zap.Int("rows", len(items)),
		zap.String("csv", p.config.Output.CSV),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// Collect acquires one session, harvests and extracts each category in
// turn and releases the session on every exit path.
func (p *Pipeline) Collect(ctx context.Context, categories []config.Category) (items []newsfeed.NewsItem, err error) {
	session, err := p.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			p.log.Warn("failed to close browser session", zap.Error(cerr))
		}
	}()

	cleaner := &textnorm.Cleaner{
		Blocklist: p.config.Blocklist,
		MinLength: p.config.MinParagraphLength,
	}
	harvester := discovery.NewHarvester(session, discovery.NewHarvesterConfig(p.config), p.log)
	extractor := discovery.NewExtractor(session, discovery.NewExtractorConfig(p.config), cleaner, p.log)

	for _, cat := range categories {
		accepted, err := p.collectCategory(ctx, harvester, extractor, cat)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat.Key, err)
		}
		items = append(items, accepted...)
	}

	return items, nil
}

func (p *Pipeline) collectCategory(
	ctx context.Context,
	harvester *discovery.Harvester,
	extractor *discovery.Extractor,
	cat config.Category,
) ([]newsfeed.NewsItem, error) {
	log := p.log.With(zap.String("category", cat.Key))

	res, err := harvester.Harvest(ctx, cat)
	if err != nil {
		return nil, err
	}

	var accepted []newsfeed.NewsItem
	for _, link := range res.Links {
		item, err := extractor.Extract(ctx, link, cat.Key)
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}

		clean := item.Sanitized()
		if !clean.Retainable() {
			log.Debug("dropping item without title or text", zap.String("url", link))
			continue
		}

		accepted = append(accepted, clean)
		if len(accepted)%progressEvery == 0 {
			log.Info("progress",
				zap.Int("scraped", len(accepted)),
				zap.Int("target", cat.Target),
			)
		}
	}

	log.Info("category done",
		zap.Int("items", len(accepted)),
		zap.Int("links", len(res.Links)),
	)
	return accepted, nil
}

// persist writes the CSV file and, when configured, replaces the SQLite
// table.
func (p *Pipeline) persist(ctx context.Context, runID uuid.UUID, items []newsfeed.NewsItem) error {
	if err := newsfeed.WriteCSV(p.config.Output.CSV, items); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	if p.config.Output.SQLite == "" {
		return nil
	}

	store, err := newsfeed.NewNewsStore(p.config.Output.SQLite)
	if err != nil {
		return fmt.Errorf("failed to open news store: %w", err)
	}
	defer store.Close()

	if err := store.ReplaceAll(ctx, runID, items); err != nil {
		return fmt.Errorf("failed to store news: %w", err)
	}
	return nil
}
