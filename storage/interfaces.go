package storage

import (
	"context"
	"fmt"

	"catalog-scraper/models"
)

// ListingWriter is the interface any catalog backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
	Close() error
}

// CatalogReader loads a previously persisted catalog.
type CatalogReader interface {
	Read(ctx context.Context) ([]*models.Listing, error)
}

// Catalog is a store that can be read back and rewritten wholesale.
type Catalog interface {
	CatalogReader
	ListingWriter
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}

// StorageError wraps errors raised by a storage backend.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
