package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pevans/newsharvest/browser"
	"github.com/pevans/newsharvest/config"
	"github.com/pevans/newsharvest/newsfeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedItems() []newsfeed.StoredItem {
	runID := uuid.New()
	return []newsfeed.StoredItem{
		{
			NewsItem: newsfeed.NewsItem{
				Category:        "sport",
				Title:           "گل دیدنی",
				URL:             "https://akharinkhabar.ir/sport/1000001/goal",
				ImageURL:        "https://akharinkhabar.ir/images/goal.jpg",
				PublishDatetime: "1403/06/10 21:05",
				Text:            "خط اول\nخط دوم",
			},
			RunID:    runID,
			Position: 1,
		},
		{
			NewsItem: newsfeed.NewsItem{
				Category: "world",
				Title:    "World story",
				URL:      "https://akharinkhabar.ir/world/2000001/story",
				Text:     "Story body.",
			},
			RunID:    runID,
			Position: 2,
		},
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("NEWSHARVEST_TEST_VALUE", "set")
	assert.Equal(t, "set", getEnv("NEWSHARVEST_TEST_VALUE", "default"))
	assert.Equal(t, "default", getEnv("NEWSHARVEST_TEST_UNSET", "default"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "آخری...", truncate("آخرین خبرها", 7), "counts runes, not bytes")
}

func TestPrintCategories(t *testing.T) {
	cfg := config.Default()
	cats := []config.Category{cfg.Resolved(cfg.Categories[0])}

	var buf bytes.Buffer
	printCategories(&buf, cfg, cats)

	out := buf.String()
	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "sport")
	assert.Contains(t, out, "https://akharinkhabar.ir/sport")
	assert.Contains(t, out, "200")
	assert.Contains(t, out, "1000")
}

func TestPrintItemsTable(t *testing.T) {
	var buf bytes.Buffer
	printItemsTable(&buf, storedItems(), 5)

	out := buf.String()
	assert.Contains(t, out, "Showing 2 of 5 items")
	assert.Contains(t, out, "[sport] گل دیدنی")
	assert.Contains(t, out, "Published: 1403/06/10 21:05")
	assert.Contains(t, out, "Published: unknown")
	assert.Contains(t, out, "خط اول")
	assert.NotContains(t, out, "خط دوم", "only the first line of text is shown")
	assert.Contains(t, out, "Image: https://akharinkhabar.ir/images/goal.jpg")
}

func TestPrintItems_Empty(t *testing.T) {
	var buf bytes.Buffer
	printItemsTable(&buf, nil, 0)
	assert.Equal(t, "No items to display.\n", buf.String())

	buf.Reset()
	printItemsCompact(&buf, nil)
	assert.Equal(t, "No items to display.\n", buf.String())
}

func TestPrintItemsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printItemsJSON(&buf, storedItems(), 2))

	out := buf.String()
	assert.Contains(t, out, `"total": 2`)
	assert.Contains(t, out, `"category": "sport"`)
	assert.NotContains(t, out, "RunID")
}

func TestPrintItemsCompact(t *testing.T) {
	var buf bytes.Buffer
	printItemsCompact(&buf, storedItems())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[1]), "world")
	assert.Contains(t, string(lines[1]), "https://akharinkhabar.ir/world/2000001/story")
}

func TestOpener_Static(t *testing.T) {
	cfg := config.Default()
	cfg.Browser.Mode = config.ModeStatic

	session, err := opener(cfg)(context.Background())
	require.NoError(t, err)
	defer session.Close()

	_, ok := session.(*browser.StaticSession)
	assert.True(t, ok)
}

func TestItemsCommand_ReadsStore(t *testing.T) {
	dbPath := t.TempDir() + "/news.db"
	store, err := newsfeed.NewNewsStore(dbPath)
	require.NoError(t, err)

	items := storedItems()
	news := []newsfeed.NewsItem{items[0].NewsItem, items[1].NewsItem}
	require.NoError(t, store.ReplaceAll(context.Background(), uuid.New(), news))
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	cmd := itemsCommand()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--sqlite", dbPath, "--category", "world", "--format", "compact"})
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "World story")
	assert.NotContains(t, out, "گل دیدنی")
}

func TestItemsCommand_UnknownFormat(t *testing.T) {
	dbPath := t.TempDir() + "/news.db"

	cmd := itemsCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--sqlite", dbPath, "--format", "xml"})
	cmd.SetContext(context.Background())

	err := cmd.Execute()
	assert.ErrorContains(t, err, "unknown format")
}
