package newsfeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Header is the fixed column order of the CSV output.
var Header = []string{"category", "title", "url", "image_url", "publish_datetime", "text"}

// utf8BOM lets spreadsheet tools detect UTF-8 and render right-to-left
// script correctly.
const utf8BOM = "\ufeff"

// EncodeCSV writes items as CSV to w: a byte-order mark, the header row, then
// one row per item in order. Rows end with CRLF.
func EncodeCSV(w io.Writer, items []NewsItem) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write byte-order mark: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, item := range items {
		record := []string{
			item.Category,
			item.Title,
			item.URL,
			item.ImageURL,
			item.PublishDatetime,
			item.Text,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", item.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// WriteCSV writes items to path, creating parent directories and replacing
// any existing file. The file is written to a temporary sibling first and
// renamed into place.
func WriteCSV(path string, items []NewsItem) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeCSV(tmp, items); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
