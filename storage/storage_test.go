package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"catalog-scraper/models"
	"catalog-scraper/utils"
)

func listing(id, title string) *models.Listing {
	return &models.Listing{ID: id, Title: title, Price: "KES 1,000,000", Tag: models.TagAvailableInKenya}
}

func ids(ls []*models.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestMergeAppendKeepsPrior(t *testing.T) {
	prior := []*models.Listing{listing("a", "X")}
	fresh := []*models.Listing{listing("b", "Y")}

	got := Merge(prior, fresh)
	if diff := cmp.Diff([]string{"a", "b"}, ids(got)); diff != "" {
		t.Errorf("ids (-want +got):\n%s", diff)
	}
}

func TestMergeOverridesInPlace(t *testing.T) {
	prior := []*models.Listing{listing("a", "old A"), listing("b", "old B"), listing("c", "old C")}
	fresh := []*models.Listing{listing("d", "new D"), listing("b", "new B")}

	got := Merge(prior, fresh)
	want := []*models.Listing{listing("a", "old A"), listing("b", "new B"), listing("c", "old C"), listing("d", "new D")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIdempotent(t *testing.T) {
	run := []*models.Listing{listing("a", "A"), listing("b", "B"), listing("c", "C")}
	if diff := cmp.Diff(run, Merge(run, run)); diff != "" {
		t.Errorf("Merge(x, x) != x (-want +got):\n%s", diff)
	}
}

func TestMergeEmpty(t *testing.T) {
	if got := Merge(nil, nil); len(got) != 0 {
		t.Errorf("expected empty merge, got %v", ids(got))
	}
}

func newCatalog(t *testing.T, name string) (*JSONCatalog, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	return NewJSONCatalog(filepath.Join(t.TempDir(), name), utils.NewWriterLogger(&logs)), &logs
}

func TestJSONCatalogMissingFile(t *testing.T) {
	c, logs := newCatalog(t, "vehicles.json")

	got, err := c.Read(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
	require.Empty(t, logs.String(), "missing file should not warn")
}

func TestJSONCatalogCorruptFile(t *testing.T) {
	for _, body := range []string{"{not json", `{"id":"a"}`, `"text"`} {
		c, logs := newCatalog(t, "vehicles.json")
		require.NoError(t, os.WriteFile(c.Path(), []byte(body), 0o644))

		got, err := c.Read(context.Background())
		require.NoError(t, err)
		require.Empty(t, got, "body %q", body)
		require.Contains(t, logs.String(), "WARN")
	}
}

func TestJSONCatalogRoundTrip(t *testing.T) {
	c, _ := newCatalog(t, filepath.Join("public", "vehicles.json"))
	in := []*models.Listing{
		{
			ID: "toyota-harrier-2018", Title: "Toyota Harrier 2018", Price: "KES 2,500,000",
			Tag: models.TagAvailableInKenya, Brand: "Toyota", BodyType: "SUV",
			Year: models.IntPtr(2018), Condition: "Foreign Used", EngineCc: models.IntPtr(2000),
		},
		listing("b", "B"),
	}

	require.NoError(t, c.Write(context.Background(), in))

	got, err := c.Read(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(c.Path()), ".*.tmp"))
	require.NoError(t, err)
	require.Empty(t, matches, "temp files left behind")
}

func TestJSONCatalogDocumentShape(t *testing.T) {
	c, _ := newCatalog(t, "vehicles.json")
	require.NoError(t, c.Write(context.Background(), []*models.Listing{listing("b", "B")}))

	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)

	text := string(data)
	require.True(t, strings.HasPrefix(text, "[\n  {\n    \"id\": \"b\","), "pretty-printed with two spaces:\n%s", text)
	require.Contains(t, text, `"year": null`)
	require.Contains(t, text, `"engineCc": null`)
	require.Contains(t, text, `"bodyType": ""`)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Len(t, generic[0], 13)
}

func TestJSONCatalogWritesEmptyArray(t *testing.T) {
	c, _ := newCatalog(t, "vehicles.json")
	require.NoError(t, c.Write(context.Background(), nil))

	data, err := os.ReadFile(c.Path())
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestJSONCatalogSkipsNullEntries(t *testing.T) {
	c, _ := newCatalog(t, "vehicles.json")
	require.NoError(t, os.WriteFile(c.Path(), []byte(`[null, {"id":"a","title":"A"}]`), 0o644))

	got, err := c.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(got))
}

func TestJSONCatalogKeepsMistypedEntries(t *testing.T) {
	c, logs := newCatalog(t, "vehicles.json")
	body := `[
  {"id": "a", "title": "A", "price": "KES 1,000,000", "year": 2015},
  {"id": "b", "title": "B", "price": 2500000, "year": "2018", "engineCc": "n/a"},
  42
]`
	require.NoError(t, os.WriteFile(c.Path(), []byte(body), 0o644))

	got, err := c.Read(context.Background())
	require.NoError(t, err)

	want := []*models.Listing{
		{ID: "a", Title: "A", Price: "KES 1,000,000", Year: models.IntPtr(2015)},
		{ID: "b", Title: "B", Price: "2500000", Year: models.IntPtr(2018)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read (-want +got):\n%s", diff)
	}
	require.Contains(t, logs.String(), "coerced")
	require.Contains(t, logs.String(), "Skipping prior entry 2")
}

func TestJSONCatalogCancelled(t *testing.T) {
	c, _ := newCatalog(t, "vehicles.json")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Write(ctx, nil)
	require.True(t, errors.Is(err, context.Canceled))
	_, statErr := os.Stat(c.Path())
	require.True(t, os.IsNotExist(statErr), "nothing should be written")
}

func TestCSVWriterRaw(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "raw.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	require.NoError(t, w.WriteRaw([]*models.RawListing{{
		Page: 2, PageURL: "https://example.com/v?page=2", Title: "Toyota Axio",
		PriceText: "KES 1,300,000", Year: models.IntPtr(2016), ScrapedAt: at,
	}}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, rawHeader, records[0])
	require.Equal(t, "2", records[1][0])
	require.Equal(t, "2016", records[1][6])
	require.Equal(t, "", records[1][10], "missing engine size stays blank")
	require.Equal(t, "2026-10-19T08:00:00Z", records[1][13])
}

func TestInsertBatchPlaceholders(t *testing.T) {
	query, args := insertBatch([]*models.Listing{listing("a", "A"), listing("b", "B")}, 50)

	require.Len(t, args, 2*listingColumns)
	require.Contains(t, query, "$1,$2,")
	require.Contains(t, query, "$28)")
	require.Equal(t, 50, args[1])
	require.Equal(t, 51, args[listingColumns+1])
}

func TestCatalogBackends(t *testing.T) {
	// Both backends can serve the report command as a catalog source.
	var backends []Catalog
	backends = append(backends, (*JSONCatalog)(nil), (*PostgresWriter)(nil))
	require.Len(t, backends, 2)
}

func TestPostgresMirror(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	pw, err := NewPostgresWriter(dsn, &utils.RetryConfig{MaxAttempts: 1})
	require.NoError(t, err)
	defer pw.Close()

	in := []*models.Listing{listing("a", "A"), {ID: "b", Title: "B", Year: models.IntPtr(2015)}}
	require.NoError(t, pw.Write(context.Background(), in))

	got, err := pw.Read(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("mirror (-want +got):\n%s", diff)
	}
}
