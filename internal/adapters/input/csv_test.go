// internal/adapters/input/csv_test.go
package input

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"originx/internal/core/domain"
	"originx/internal/platform/errors"
	"originx/internal/platform/logx"
	"originx/internal/testutil"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "origins.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestCSVSource_Load(t *testing.T) {
	source := NewCSVSource(writeDataset(t, testutil.FixtureCSV), logx.NewNop())

	records, skipped, err := source.Load(context.Background())

	testutil.AssertNoError(t, err, "load")
	testutil.AssertEqual(t, len(records), 3, "all rows loaded")
	testutil.AssertEqual(t, skipped, 0, "nothing skipped")

	want := domain.OriginRecord{
		Origin:     "https://example.com",
		Popularity: 1000,
		Date:       "2026-08-01",
		Country:    "US",
	}
	testutil.AssertDeepEqual(t, records[0], want, "first record")
}

func TestCSVSource_Load_SkipsMalformed(t *testing.T) {
	source := NewCSVSource(writeDataset(t, testutil.FixtureCSVMalformed), logx.NewNop())

	records, skipped, err := source.Load(context.Background())

	testutil.AssertNoError(t, err, "load survives bad rows")
	testutil.AssertEqual(t, len(records), 2, "valid rows loaded")
	testutil.AssertEqual(t, skipped, 2, "empty origin and bad popularity skipped")
	testutil.AssertEqual(t, records[0].Origin, "https://example.com", "first valid row")
	testutil.AssertEqual(t, records[1].Origin, "https://final.example.net", "second valid row")
	testutil.AssertEqual(t, records[1].Popularity, uint64(77), "popularity parsed")
}

func TestCSVSource_Load_HeaderOrder(t *testing.T) {
	dataset := "Country,Origin,Popularity,Date\n" +
		"FR,https://free.fr,850,2026-08-01\n"
	source := NewCSVSource(writeDataset(t, dataset), logx.NewNop())

	records, _, err := source.Load(context.Background())

	testutil.AssertNoError(t, err, "load")
	want := domain.OriginRecord{
		Origin:     "https://free.fr",
		Popularity: 850,
		Date:       "2026-08-01",
		Country:    "FR",
	}
	testutil.AssertDeepEqual(t, records[0], want, "columns mapped by name, not position")
}

func TestCSVSource_Load_ShortRowTolerated(t *testing.T) {
	dataset := "origin,popularity,date,country\n" +
		"https://example.com,42\n"
	source := NewCSVSource(writeDataset(t, dataset), logx.NewNop())

	records, skipped, err := source.Load(context.Background())

	testutil.AssertNoError(t, err, "load")
	testutil.AssertEqual(t, skipped, 0, "short row is usable")
	testutil.AssertEqual(t, records[0].Date, "", "missing date stays empty")
	testutil.AssertEqual(t, records[0].Country, "", "missing country stays empty")
}

func TestCSVSource_Load_MissingColumns(t *testing.T) {
	dataset := "origin,rank,date,country\n" +
		"https://example.com,1000,2026-08-01,US\n"
	source := NewCSVSource(writeDataset(t, dataset), logx.NewNop())

	_, _, err := source.Load(context.Background())

	testutil.AssertError(t, err, "bad header fails")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrMissingColumns), "tagged as missing columns")
}

func TestCSVSource_Load_MissingFile(t *testing.T) {
	source := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), logx.NewNop())

	_, _, err := source.Load(context.Background())

	testutil.AssertError(t, err, "missing file fails")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrInputOpenFailed), "tagged as open failure")
}

func TestCSVSource_Load_EmptyDataset(t *testing.T) {
	source := NewCSVSource(writeDataset(t, "origin,popularity,date,country\n"), logx.NewNop())

	_, _, err := source.Load(context.Background())

	testutil.AssertError(t, err, "header-only dataset fails")
	testutil.AssertTrue(t, errors.Is(err, domain.ErrNoInputRecords), "tagged as empty input")
}

func TestCSVSource_Load_Canceled(t *testing.T) {
	source := NewCSVSource(writeDataset(t, testutil.FixtureCSV), logx.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := source.Load(ctx)

	testutil.AssertError(t, err, "canceled load fails")
	testutil.AssertTrue(t, errors.Is(err, context.Canceled), "context error surfaces")
}
