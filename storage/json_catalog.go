package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"catalog-scraper/models"
	"catalog-scraper/utils"
)

// JSONCatalog reads and rewrites the catalog document consumed by the site.
type JSONCatalog struct {
	path   string
	logger *utils.Logger
}

// NewJSONCatalog creates a catalog backed by the JSON file at path.
func NewJSONCatalog(path string, logger *utils.Logger) *JSONCatalog {
	return &JSONCatalog{path: path, logger: logger}
}

func (c *JSONCatalog) Path() string { return c.path }

// Read returns the persisted listings. A missing, unreadable, malformed or
// non-array document counts as an empty catalog; only the last three log a
// warning. Elements of a valid array are decoded one by one: an entry with
// mistyped fields is coerced, and only non-object elements are skipped.
func (c *JSONCatalog) Read(ctx context.Context) ([]*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("[catalog] Prior catalog read failed: %v", err)
		}
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		c.logger.Warn("[catalog] Prior catalog %s is not a listing array, starting empty: %v", c.path, err)
		return nil, nil
	}

	listings := make([]*models.Listing, 0, len(elements))
	for i, raw := range elements {
		var l *models.Listing
		if err := json.Unmarshal(raw, &l); err != nil {
			loose, looseErr := decodeLoose(raw)
			if looseErr != nil {
				c.logger.Warn("[catalog] Skipping prior entry %d in %s: %v", i, c.path, looseErr)
				continue
			}
			c.logger.Warn("[catalog] Prior entry %d in %s has mistyped fields, coerced: %v", i, c.path, err)
			l = loose
		}
		if l != nil {
			listings = append(listings, l)
		}
	}
	c.logger.Debug("[catalog] Loaded %d prior listings from %s", len(listings), c.path)
	return listings, nil
}

// decodeLoose reads one catalog entry written by another tool, where a
// price may be a bare number or a year a string. Text fields take any
// scalar; year and engineCc become null unless they hold an integer.
func decodeLoose(raw json.RawMessage) (*models.Listing, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}

	text := func(key string) string {
		switch v := m[key].(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		default:
			return ""
		}
	}
	integer := func(key string) *int {
		var s string
		switch v := m[key].(type) {
		case json.Number:
			s = v.String()
		case string:
			s = strings.TrimSpace(v)
		default:
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil
		}
		return models.IntPtr(n)
	}

	return &models.Listing{
		ID:           text("id"),
		Title:        text("title"),
		Price:        text("price"),
		Tag:          text("tag"),
		Image:        text("image"),
		Brand:        text("brand"),
		BodyType:     text("bodyType"),
		Year:         integer("year"),
		Description:  text("description"),
		EngineCc:     integer("engineCc"),
		Transmission: text("transmission"),
		Condition:    text("condition"),
		SellerType:   text("sellerType"),
	}, nil
}

// Write replaces the catalog wholesale. The document is written to a
// temporary file in the same directory and renamed over the target, so
// readers see either the old or the new catalog.
func (c *JSONCatalog) Write(ctx context.Context, listings []*models.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if listings == nil {
		listings = []*models.Listing{}
	}

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		return &StorageError{Backend: "json", Err: fmt.Errorf("encode catalog: %w", err)}
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Backend: "json", Err: fmt.Errorf("create output dir: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return &StorageError{Backend: "json", Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &StorageError{Backend: "json", Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		return &StorageError{Backend: "json", Err: fmt.Errorf("close temp file: %w", err)}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return &StorageError{Backend: "json", Err: fmt.Errorf("chmod temp file: %w", err)}
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return &StorageError{Backend: "json", Err: fmt.Errorf("replace %s: %w", c.path, err)}
	}

	c.logger.Debug("[catalog] Wrote %d listings to %s", len(listings), c.path)
	return nil
}

func (c *JSONCatalog) Close() error { return nil }
