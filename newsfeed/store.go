package newsfeed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// NewsStore keeps the latest harvest in a SQLite table.
type NewsStore struct {
	db *sql.DB
}

// StoredItem is a NewsItem read back from the store together with the run
// that wrote it.
type StoredItem struct {
	NewsItem
	RunID    uuid.UUID
	Position int
}

// NewNewsStore opens (or creates) the SQLite database at dbPath.
func NewNewsStore(dbPath string) (*NewsStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &NewsStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the news table if it doesn't exist.
func (s *NewsStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS news (
		position INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		image_url TEXT NOT NULL,
		publish_datetime TEXT NOT NULL,
		text TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS news_category ON news (category);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *NewsStore) Close() error {
	return s.db.Close()
}

// ReplaceAll replaces the table content with items in a single transaction,
// tagging every row with runID.
func (s *NewsStore) ReplaceAll(ctx context.Context, runID uuid.UUID, items []NewsItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM news"); err != nil {
		return fmt.Errorf("failed to clear news: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO news (
			position, run_id, category, title, url,
			image_url, publish_datetime, text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, item := range items {
		_, err := stmt.ExecContext(ctx,
			i,
			runID.String(),
			item.Category,
			item.Title,
			item.URL,
			item.ImageURL,
			item.PublishDatetime,
			item.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s: %w", item.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// List returns stored items in insertion order. An empty category returns
// every item.
func (s *NewsStore) List(ctx context.Context, category string) ([]StoredItem, error) {
	query := `
		SELECT position, run_id, category, title, url,
		       image_url, publish_datetime, text
		FROM news
	`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY position"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	var items []StoredItem
	for rows.Next() {
		var item StoredItem
		var runID string
		err := rows.Scan(
			&item.Position, &runID, &item.Category, &item.Title, &item.URL,
			&item.ImageURL, &item.PublishDatetime, &item.Text,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news row: %w", err)
		}

		item.RunID, err = uuid.Parse(runID)
		if err != nil {
			return nil, fmt.Errorf("invalid run_id %q: %w", runID, err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
