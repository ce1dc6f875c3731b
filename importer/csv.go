package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"catalog-scraper/models"
	"catalog-scraper/storage"
	"catalog-scraper/utils"
)

// RequiredFields must be non-empty in every imported row.
var RequiredFields = []string{"id", "title", "price", "brand", "image"}

// Model years outside this range are stored as null, like non-numeric ones.
const (
	minYear = 1900
	maxYear = 2099
)

// MissingFieldError reports the first required field found empty. Row is the
// 1-based index of the data row, not counting the header.
type MissingFieldError struct {
	Row   int
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("row %d missing required field: %s", e.Row, e.Field)
}

// ReadCSV parses a catalog CSV with a header row into listings. Rows are
// validated in order and the first missing required field aborts the read.
func ReadCSV(r io.Reader) ([]*models.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var listings []*models.Listing
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: parse: %w", err)
		}

		get := func(field string) string {
			i, ok := columns[field]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		for _, f := range RequiredFields {
			if get(f) == "" {
				return nil, &MissingFieldError{Row: row, Field: f}
			}
		}

		l := &models.Listing{
			ID:       get("id"),
			Title:    get("title"),
			Price:    get("price"),
			Tag:      get("tag"),
			Image:    get("image"),
			Brand:    get("brand"),
			BodyType: get("bodyType"),
		}
		if l.Tag == "" {
			l.Tag = models.TagAvailableInKenya
		}
		if n, err := strconv.Atoi(get("year")); err == nil && n >= minYear && n <= maxYear {
			l.Year = models.IntPtr(n)
		}
		listings = append(listings, l)
	}

	return listings, nil
}

// Importer merges a CSV file into the catalog.
type Importer struct {
	InputPath string
	Catalog   storage.Catalog
	Logger    *utils.Logger
}

// Result summarizes a completed import.
type Result struct {
	Rows  int
	Total int
}

// Run validates the whole input before touching the catalog; on any error
// the catalog is left as it was.
func (im *Importer) Run(ctx context.Context) (*Result, error) {
	f, err := os.Open(im.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}

	prior, err := im.Catalog.Read(ctx)
	if err != nil {
		return nil, err
	}

	merged := storage.Merge(prior, rows)
	if err := im.Catalog.Write(ctx, merged); err != nil {
		return nil, err
	}

	im.Logger.Info("[import] Merged %d row(s). Total: %d.", len(rows), len(merged))
	return &Result{Rows: len(rows), Total: len(merged)}, nil
}
