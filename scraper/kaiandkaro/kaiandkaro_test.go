package kaiandkaro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"catalog-scraper/config"
	"catalog-scraper/models"
	"catalog-scraper/scraper/provider"
	"catalog-scraper/storage"
	"catalog-scraper/utils"
)

const baseURL = "https://example.com/vehicles?type=car"

func card(title, condition, price string) string {
	return fmt.Sprintf(`<div class="card">
<img src="/media/%s.jpg">
<h3>%s</h3>
<p>%s</p>
<p>%s</p>
</div>
`, strings.ReplaceAll(title, " ", "-"), title, condition, price)
}

func page(cards ...string) string {
	html := "<html><body>"
	for _, c := range cards {
		html += c
	}
	return html + "</body></html>"
}

// fakeProvider serves canned pages keyed by URL.
type fakeProvider struct {
	pages    map[string]string
	fail     map[string]error
	rendered []string
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) RenderPage(_ context.Context, pageURL string) (*provider.Page, error) {
	f.rendered = append(f.rendered, pageURL)
	if err := f.fail[pageURL]; err != nil {
		return nil, &provider.FetchError{URL: pageURL, Err: err}
	}
	html, ok := f.pages[pageURL]
	if !ok {
		return nil, &provider.FetchError{URL: pageURL, Err: errors.New("not found")}
	}
	return &provider.Page{URL: pageURL, HTML: html}, nil
}

func twoPages() *fakeProvider {
	return &fakeProvider{pages: map[string]string{
		baseURL: page(
			card("Toyota Harrier 2018", "Foreign Used", "KES 2,500,000"),
			card("Mazda Demio 2015", "Kenyan Used", "KES 850,000"),
		),
		"https://example.com/vehicles?page=2&type=car": page(
			card("Toyota Harrier 2018", "Foreign Used", "KES 2,600,000"),
			card("Toyota Axio 2016", "Kenyan Used", "KES 1,300,000"),
			card("Toyota Vitz 2012", "Kenyan Used", "KES 99,999"),
		),
	}}
}

type fixture struct {
	cfg     *config.Config
	catalog *storage.JSONCatalog
	logger  *utils.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		SourceURL:     baseURL,
		OutputPath:    filepath.Join(dir, "public", "vehicles.json"),
		PagesToScrape: 2,
		SnapshotDir:   filepath.Join(dir, "tmp"),
		MaxCandidates: config.DefaultMaxCandidates,
	}
	logger := utils.NewWriterLogger(io.Discard)
	return &fixture{cfg: cfg, catalog: storage.NewJSONCatalog(cfg.OutputPath, logger), logger: logger}
}

func (f *fixture) runner(p provider.PageProvider) *Runner {
	return &Runner{Scraper: New(f.cfg, p, f.logger), Catalog: f.catalog}
}

func ids(ls []*models.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base string
		n    int
		want string
	}{
		{"https://example.com/vehicles", 1, "https://example.com/vehicles"},
		{"https://example.com/vehicles", 3, "https://example.com/vehicles?page=3"},
		{"https://example.com/vehicles?page=4", 1, "https://example.com/vehicles"},
		{"https://example.com/vehicles?page=4&type=car", 2, "https://example.com/vehicles?page=2&type=car"},
	}

	for _, tt := range tests {
		got, err := PageURL(tt.base, tt.n)
		if err != nil {
			t.Fatalf("PageURL(%q, %d): %v", tt.base, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("PageURL(%q, %d) = %q; want %q", tt.base, tt.n, got, tt.want)
		}
	}
}

func TestRunReplacesCatalog(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.catalog.Write(context.Background(), []*models.Listing{{ID: "old", Title: "Old"}}))

	p := twoPages()
	res, err := f.runner(p).Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Appended)
	require.Equal(t, 3, res.Scraped)

	require.Equal(t, []string{baseURL, "https://example.com/vehicles?page=2&type=car"}, p.rendered)

	got, err := f.catalog.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"toyota-harrier-2018", "mazda-demio-2015", "toyota-axio-2016"}, ids(got))
	require.Equal(t, "KES 2,500,000", got[0].Price, "first page wins within a run")
	require.Equal(t, "https://example.com/media/Toyota-Harrier-2018.jpg", got[0].Image)
	require.Equal(t, "SUV", got[0].BodyType)
	require.Equal(t, models.TagAvailableInKenya, got[1].Tag)
}

func TestRunAppendMergesPrior(t *testing.T) {
	f := newFixture(t)
	f.cfg.Append = true
	prior := []*models.Listing{
		{ID: "toyota-axio-2016", Title: "Toyota Axio 2016", Price: "KES 1,000,000"},
		{ID: "honda-fit-2014", Title: "Honda Fit 2014", Price: "KES 700,000"},
	}
	require.NoError(t, f.catalog.Write(context.Background(), prior))

	res, err := f.runner(twoPages()).Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Appended)

	want := []string{"toyota-axio-2016", "honda-fit-2014", "toyota-harrier-2018", "mazda-demio-2015"}
	if diff := cmp.Diff(want, ids(res.Listings)); diff != "" {
		t.Errorf("merged ids (-want +got):\n%s", diff)
	}
	require.Equal(t, "KES 1,300,000", res.Listings[0].Price, "fresh listing overrides prior in place")

	got, err := f.catalog.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, ids(got))
}

func TestRunAppendWithoutPrior(t *testing.T) {
	f := newFixture(t)
	f.cfg.Append = true

	res, err := f.runner(twoPages()).Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Appended)
	require.Len(t, res.Listings, 3)
}

func TestRunProviderFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	p := twoPages()
	p.fail = map[string]error{"https://example.com/vehicles?page=2&type=car": context.DeadlineExceeded}

	_, err := f.runner(p).Run(context.Background())
	require.Error(t, err)

	var fe *provider.FetchError
	require.True(t, errors.As(err, &fe))
	require.True(t, errors.Is(err, context.DeadlineExceeded))

	_, statErr := os.Stat(f.cfg.OutputPath)
	require.True(t, os.IsNotExist(statErr), "catalog must not be written")
}

func TestScrapeSnapshots(t *testing.T) {
	f := newFixture(t)
	f.cfg.Snapshot = true

	_, err := New(f.cfg, twoPages(), f.logger).Scrape(context.Background())
	require.NoError(t, err)

	for n := 1; n <= 2; n++ {
		data, err := os.ReadFile(filepath.Join(f.cfg.SnapshotDir, fmt.Sprintf("vehicles-page-%d.html", n)))
		require.NoError(t, err)
		require.Contains(t, string(data), "Toyota Harrier 2018")
	}
}

func TestScrapeSnapshotFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.cfg.Snapshot = true
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	f.cfg.SnapshotDir = filepath.Join(blocker, "tmp")

	got, err := New(f.cfg, twoPages(), f.logger).Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
}

type recordingRaw struct {
	rows []*models.RawListing
}

func (r *recordingRaw) WriteRaw(ls []*models.RawListing) error {
	r.rows = append(r.rows, ls...)
	return nil
}

func (r *recordingRaw) Close() error { return nil }

type recordingMirror struct {
	written []*models.Listing
}

func (m *recordingMirror) Write(_ context.Context, ls []*models.Listing) error {
	m.written = ls
	return nil
}

func (m *recordingMirror) Close() error { return nil }

func TestRunRawDumpAndMirror(t *testing.T) {
	f := newFixture(t)
	raw := &recordingRaw{}
	mirror := &recordingMirror{}

	r := &Runner{
		Scraper: New(f.cfg, twoPages(), f.logger).WithRawWriter(raw),
		Catalog: f.catalog,
		Mirror:  mirror,
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// Raw rows are recorded before de-duplication and the price floor.
	require.Len(t, raw.rows, 5)
	require.Equal(t, 2, raw.rows[4].Page)
	require.Equal(t, "KES 99,999", raw.rows[4].PriceText)

	if diff := cmp.Diff(res.Listings, mirror.written); diff != "" {
		t.Errorf("mirror (-want +got):\n%s", diff)
	}
}
