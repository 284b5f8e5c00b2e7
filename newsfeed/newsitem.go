// Package newsfeed holds the harvested NewsItem type and writes collections
// of items to CSV files and SQLite databases.
package newsfeed

import (
	"strings"

	"github.com/pevans/newsharvest/textnorm"
)

// NewsItem is one extracted article. Items are built once by the extractor
// and treated as values afterwards.
type NewsItem struct {
	Category        string `json:"category"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	ImageURL        string `json:"image_url"`
	PublishDatetime string `json:"publish_datetime"`
	Text            string `json:"text"`
}

// Sanitized returns a copy with title and each body line normalized and
// image and timestamp trimmed. Text keeps its newline-separated paragraphs.
func (n NewsItem) Sanitized() NewsItem {
	n.Title = textnorm.Normalize(n.Title)
	n.Text = textnorm.NormalizeLines(n.Text)
	n.ImageURL = strings.TrimSpace(n.ImageURL)
	n.PublishDatetime = strings.TrimSpace(n.PublishDatetime)
	return n
}

// Retainable reports whether the item may be persisted: both title and body
// text must be non-empty.
func (n NewsItem) Retainable() bool {
	return n.Title != "" && n.Text != ""
}
