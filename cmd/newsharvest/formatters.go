package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pevans/newsharvest/config"
	"github.com/pevans/newsharvest/newsfeed"
)

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// printCategories prints the resolved categories as a table.
func printCategories(w io.Writer, cfg *config.Config, cats []config.Category) {
	fmt.Fprintf(w, "%-10s %-8s %-12s %s\n", "KEY", "TARGET", "MAX SCROLLS", "URL")
	for _, cat := range cats {
		fmt.Fprintf(w, "%-10s %-8d %-12d %s\n", cat.Key, cat.Target, cat.MaxScrolls, cfg.URL(cat))
	}
}

// printItemsTable prints items in human-readable table format
func printItemsTable(w io.Writer, items []newsfeed.StoredItem, total int) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items to display.")
		return
	}

	fmt.Fprintf(w, "Showing %d of %d items\n\n", len(items), total)

	for _, item := range items {
		fmt.Fprintf(w, "[%s] %s\n", item.Category, truncate(item.Title, 70))

		published := item.PublishDatetime
		if published == "" {
			published = "unknown"
		}
		fmt.Fprintf(w, "   Published: %s\n", published)

		if item.Text != "" {
			firstLine, _, _ := strings.Cut(item.Text, "\n")
			fmt.Fprintf(w, "   %s\n", truncate(firstLine, 150))
		}
		fmt.Fprintf(w, "   URL: %s\n", item.URL)
		if item.ImageURL != "" {
			fmt.Fprintf(w, "   Image: %s\n", item.ImageURL)
		}
		fmt.Fprintln(w)
	}
}

// printItemsJSON prints items in JSON format
func printItemsJSON(w io.Writer, items []newsfeed.StoredItem, total int) error {
	news := make([]newsfeed.NewsItem, 0, len(items))
	for _, item := range items {
		news = append(news, item.NewsItem)
	}

	output := map[string]any{
		"items": news,
		"total": total,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	fmt.Fprintln(w, string(data))
	return nil
}

// printItemsCompact prints one line per item
func printItemsCompact(w io.Writer, items []newsfeed.StoredItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items to display.")
		return
	}

	for _, item := range items {
		fmt.Fprintf(w, "%-10s %s  %s\n", item.Category, truncate(item.Title, 60), item.URL)
	}
}
