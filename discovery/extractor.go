package discovery

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pevans/newsharvest/browser"
	"github.com/pevans/newsharvest/config"
	"github.com/pevans/newsharvest/newsfeed"
	"github.com/pevans/newsharvest/textnorm"
	"go.uber.org/zap"
)

// Article page locators, tuned to the harvested site's markup.
const (
	titleHeadingXPath = "//h1 | //h1/*[self::span or self::strong]/.."
	titleClassXPath   = "//*[contains(@class,'title')][1]"
	updatedXPath      = "//*[contains(., 'بروزرسانی') and (self::div or self::span or self::p)]"
	imageXPath        = "//img[not(ancestor::header)]"
	bodyXPath         = "//body"
	imagePathMarker   = "/images/"
)

// paragraphXPaths are tried in order; the first that matches anything wins.
var paragraphXPaths = []string{
	"//div[contains(@class,'content') or contains(@class,'article') or contains(@class,'post')][1]//p",
	"//article//p",
	"//div[contains(@id,'content')][1]//p",
}

// publishPattern matches "YYYY/MM/DD - HH:MM" in any decimal digits.
var publishPattern = regexp.MustCompile(`(\p{Nd}{4}/\p{Nd}{2}/\p{Nd}{2})\s*-\s*(\p{Nd}{2}:\p{Nd}{2})`)

// ExtractorConfig holds the article extraction settings.
type ExtractorConfig struct {
	WaitTimeout    time.Duration
	ImageScanLimit int
}

// NewExtractorConfig extracts the extractor settings from cfg.
func NewExtractorConfig(cfg *config.Config) ExtractorConfig {
	return ExtractorConfig{
		WaitTimeout:    cfg.WaitTimeout,
		ImageScanLimit: cfg.ImageScanLimit,
	}
}

// Extractor pulls structured fields out of article pages.
type Extractor struct {
	session browser.Session
	config  ExtractorConfig
	cleaner *textnorm.Cleaner
	log     *zap.Logger
}

// NewExtractor creates an extractor driving session.
func NewExtractor(session browser.Session, cfg ExtractorConfig, cleaner *textnorm.Cleaner, log *zap.Logger) *Extractor {
	return &Extractor{
		session: session,
		config:  cfg,
		cleaner: cleaner,
		log:     log,
	}
}

// Extract navigates to articleURL and extracts a NewsItem for category.
// A page that fails to load yields (nil, nil). Fields that cannot be located
// are left empty. Any other navigation error is returned.
func (e *Extractor) Extract(ctx context.Context, articleURL, category string) (*newsfeed.NewsItem, error) {
	log := e.log.With(zap.String("category", category), zap.String("url", articleURL))

	if err := e.session.Navigate(ctx, articleURL); err != nil {
		if errors.Is(err, browser.ErrNavigation) {
			log.Warn("navigation failed, skipping article", zap.Error(err))
			return nil, nil
		}
		return nil, err
	}

	title, _ := cascade[string](ctx, e.headingTitle, e.classTitle)
	published, _ := cascade[string](ctx, e.updatedTimestamp, e.pageTimestamp)
	image, _ := cascade[string](ctx, e.leadImage(articleURL))

	paragraphs, ok := cascade[[]string](ctx, e.paragraphStages()...)
	if !ok {
		log.Debug("no paragraphs located")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return &newsfeed.NewsItem{
		Category:        category,
		Title:           title,
		URL:             articleURL,
		ImageURL:        image,
		PublishDatetime: published,
		Text:            e.cleaner.Clean(paragraphs),
	}, nil
}

func (e *Extractor) headingTitle(ctx context.Context) (string, bool) {
	el, err := e.session.WaitElement(ctx, titleHeadingXPath, e.config.WaitTimeout)
	if err != nil {
		e.log.Debug("title heading not found", zap.Error(err))
		return "", false
	}
	return nonEmpty(textOf(el))
}

func (e *Extractor) classTitle(ctx context.Context) (string, bool) {
	el, ok := e.first(ctx, titleClassXPath)
	if !ok {
		return "", false
	}
	return nonEmpty(textOf(el))
}

func (e *Extractor) updatedTimestamp(ctx context.Context) (string, bool) {
	el, ok := e.first(ctx, updatedXPath)
	if !ok {
		return "", false
	}
	return matchTimestamp(textOf(el))
}

func (e *Extractor) pageTimestamp(ctx context.Context) (string, bool) {
	return matchTimestamp(e.pageText(ctx))
}

// leadImage returns a stage picking the first non-header image whose source
// lives under an /images/ path. Lazy-loaded sources are resolved against
// the article URL.
func (e *Extractor) leadImage(articleURL string) stage[string] {
	return func(ctx context.Context) (string, bool) {
		imgs, err := e.session.Elements(ctx, imageXPath)
		if err != nil {
			e.log.Debug("image lookup failed", zap.Error(err))
			return "", false
		}
		if len(imgs) > e.config.ImageScanLimit {
			imgs = imgs[:e.config.ImageScanLimit]
		}

		for _, img := range imgs {
			src, _ := img.Attr("src")
			if src == "" {
				src, _ = img.Attr("data-src")
				src = resolve(articleURL, src)
			}
			if src != "" && strings.Contains(src, imagePathMarker) {
				return src, true
			}
		}
		return "", false
	}
}

func (e *Extractor) paragraphStages() []stage[[]string] {
	stages := make([]stage[[]string], 0, len(paragraphXPaths)+1)
	for _, xpath := range paragraphXPaths {
		stages = append(stages, e.paragraphsAt(xpath))
	}
	return append(stages, e.bodyLines)
}

func (e *Extractor) paragraphsAt(xpath string) stage[[]string] {
	return func(ctx context.Context) ([]string, bool) {
		els, err := e.session.Elements(ctx, xpath)
		if err != nil || len(els) == 0 {
			return nil, false
		}

		paragraphs := make([]string, 0, len(els))
		for _, el := range els {
			paragraphs = append(paragraphs, textOf(el))
		}
		return paragraphs, true
	}
}

// bodyLines treats every non-blank line of the page text as a paragraph.
func (e *Extractor) bodyLines(ctx context.Context) ([]string, bool) {
	var lines []string
	for _, line := range strings.Split(e.pageText(ctx), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, len(lines) > 0
}

func (e *Extractor) pageText(ctx context.Context) string {
	el, ok := e.first(ctx, bodyXPath)
	if !ok {
		return ""
	}
	return textOf(el)
}

func (e *Extractor) first(ctx context.Context, xpath string) (browser.Element, bool) {
	els, err := e.session.Elements(ctx, xpath)
	if err != nil {
		e.log.Debug("element lookup failed", zap.String("xpath", xpath), zap.Error(err))
		return nil, false
	}
	if len(els) == 0 {
		return nil, false
	}
	return els[0], true
}

func textOf(el browser.Element) string {
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return text
}

func nonEmpty(s string) (string, bool) {
	s = textnorm.Normalize(s)
	return s, s != ""
}

// matchTimestamp finds the first "date - time" pair in s and formats it as
// "date time".
func matchTimestamp(s string) (string, bool) {
	m := publishPattern.FindStringSubmatch(textnorm.Normalize(s))
	if m == nil {
		return "", false
	}
	return m[1] + " " + m[2], true
}

func resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
