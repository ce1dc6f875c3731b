package models

import "time"

const (
	TagAvailableInKenya = "Available in Kenya"
	TagDirectImport     = "Direct Import"
)

// RawListing holds the fields pulled out of one candidate block before any
// price normalization, filtering or de-duplication.
type RawListing struct {
	Title        string
	PriceText    string
	Tag          string
	Image        string
	Brand        string
	Year         *int
	Description  string
	EngineCc     *int
	Transmission string
	Condition    string
	SellerType   string

	// BlockText is the flattened text of the candidate, kept for body type
	// classification and the raw CSV dump.
	BlockText string
	PageURL   string
	Page      int
	ScrapedAt time.Time
}

// Listing is one catalog entry as consumed by the front-end. Field order
// matches the persisted JSON document.
type Listing struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	Tag          string `json:"tag"`
	Image        string `json:"image"`
	Brand        string `json:"brand"`
	BodyType     string `json:"bodyType"`
	Year         *int   `json:"year"`
	Description  string `json:"description"`
	EngineCc     *int   `json:"engineCc"`
	Transmission string `json:"transmission"`
	Condition    string `json:"condition"`
	SellerType   string `json:"sellerType"`
}

// InsightReport holds summary statistics over a catalog.
type InsightReport struct {
	TotalListings  int
	PricedListings int
	AveragePrice   float64
	MinPrice       int64
	MaxPrice       int64
	MostExpensive  *Listing
	ByBrand        map[string]int
	ByBodyType     map[string]int
	ByTag          map[string]int
	ByCondition    map[string]int
}

// IntPtr returns a pointer to a copy of n.
func IntPtr(n int) *int {
	return &n
}
