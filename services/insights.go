package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"catalog-scraper/models"
	"catalog-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(listings []*models.Listing) *models.InsightReport {
	report := &models.InsightReport{
		ByBrand:     make(map[string]int),
		ByBodyType:  make(map[string]int),
		ByTag:       make(map[string]int),
		ByCondition: make(map[string]int),
	}

	if len(listings) == 0 {
		return report
	}

	report.TotalListings = len(listings)

	var total int64
	for _, l := range listings {
		report.ByBrand[orUnknown(l.Brand)]++
		report.ByBodyType[orUnknown(l.BodyType)]++
		report.ByTag[orUnknown(l.Tag)]++
		report.ByCondition[orUnknown(l.Condition)]++

		n, ok := NumericPrice(l.Price)
		if !ok {
			continue
		}
		if report.PricedListings == 0 || n < report.MinPrice {
			report.MinPrice = n
		}
		if report.PricedListings == 0 || n > report.MaxPrice {
			report.MaxPrice = n
			report.MostExpensive = l
		}
		report.PricedListings++
		total += n
	}

	if report.PricedListings > 0 {
		report.AveragePrice = round2(float64(total) / float64(report.PricedListings))
	}

	s.logger.Debug("[insights] %d listings, %d priced", report.TotalListings, report.PricedListings)
	return report
}

// Print writes the report to stdout.
func (s *InsightService) Print(r *models.InsightReport) {
	s.Write(os.Stdout, r)
}

func (s *InsightService) Write(w io.Writer, r *models.InsightReport) {
	overview := table.NewWriter()
	overview.SetTitle("Catalog Insights")
	overview.AppendRow(table.Row{"Total listings", r.TotalListings})
	overview.AppendRow(table.Row{"Listings with a price", r.PricedListings})
	if r.PricedListings > 0 {
		overview.AppendRow(table.Row{"Average price", fmt.Sprintf("KES %.0f", r.AveragePrice)})
		overview.AppendRow(table.Row{"Minimum price", formatKES(r.MinPrice)})
		overview.AppendRow(table.Row{"Maximum price", formatKES(r.MaxPrice)})
	}
	if r.MostExpensive != nil {
		overview.AppendRow(table.Row{"Most expensive", truncate(r.MostExpensive.Title, 50)})
	}
	overview.SetStyle(table.StyleRounded)
	fmt.Fprintln(w, overview.Render())

	for _, group := range []struct {
		title  string
		counts map[string]int
	}{
		{"By brand", r.ByBrand},
		{"By body type", r.ByBodyType},
		{"By tag", r.ByTag},
		{"By condition", r.ByCondition},
	} {
		if len(group.counts) == 0 {
			continue
		}
		t := table.NewWriter()
		t.SetTitle(group.title)
		t.AppendHeader(table.Row{"Value", "Listings"})
		for _, kc := range sortCounts(group.counts) {
			t.AppendRow(table.Row{kc.key, kc.count})
		}
		t.SetStyle(table.StyleRounded)
		fmt.Fprintln(w, t.Render())
	}
}

type keyCount struct {
	key   string
	count int
}

// sortCounts orders by count descending, then key ascending.
func sortCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, c := range m {
		out = append(out, keyCount{k, c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func formatKES(n int64) string {
	return currencyPrefix + pricePrinter.Sprintf("%d", n)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(unknown)"
	}
	return s
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
