package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"catalog-scraper/models"
)

var rawHeader = []string{
	"page", "page_url", "title", "price_text", "tag", "brand", "year", "image",
	"condition", "transmission", "engine_cc", "seller_type", "description", "scraped_at",
}

// CSVWriter dumps raw (pre-cleaning) listings to a CSV file so extraction
// heuristics can be inspected after a run.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rawHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends one row per raw listing.
func (c *CSVWriter) WriteRaw(listings []*models.RawListing) error {
	for _, l := range listings {
		row := []string{
			strconv.Itoa(l.Page),
			l.PageURL,
			l.Title,
			l.PriceText,
			l.Tag,
			l.Brand,
			optionalInt(l.Year),
			l.Image,
			l.Condition,
			l.Transmission,
			optionalInt(l.EngineCc),
			l.SellerType,
			l.Description,
			l.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func optionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
