// internal/adapters/output/stream_test.go
package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"originx/internal/core/domain"
	"originx/internal/testutil"
)

func sampleRecord() *domain.EnrichedRecord {
	return &domain.EnrichedRecord{
		Origin: domain.OriginRecord{
			Origin:     "https://example.com",
			Popularity: 1000,
			Date:       "2026-08-01",
			Country:    "US",
		},
		Hostname: "example.com",
		Domain:   "example.com",
		IPs:      []string{"192.0.2.1"},
	}
}

func TestStreamWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, false)

	failed := domain.NewEnrichedRecord(domain.OriginRecord{Origin: "://bad"})
	failed.Failure = domain.Failf(domain.FailureInvalidURL, "missing scheme")

	testutil.AssertNoError(t, w.Write(sampleRecord()), "write success record")
	testutil.AssertNoError(t, w.Write(failed), "write failed record")
	testutil.AssertNoError(t, w.Close(), "close")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	testutil.AssertEqual(t, len(lines), 2, "one line per record")

	var first map[string]any
	testutil.AssertNoError(t, json.Unmarshal([]byte(lines[0]), &first), "first line is json")
	testutil.AssertEqual(t, first["hostname"], "example.com", "hostname present")
	_, hasTLS := first["tls"]
	testutil.AssertFalse(t, hasTLS, "absent tls omitted")
	_, hasError := first["error"]
	testutil.AssertFalse(t, hasError, "no error on success")

	var second map[string]any
	testutil.AssertNoError(t, json.Unmarshal([]byte(lines[1]), &second), "second line is json")
	errObj, ok := second["error"].(map[string]any)
	testutil.AssertTrue(t, ok, "error object present")
	testutil.AssertEqual(t, errObj["kind"], "invalid_url", "failure kind serialized")
	_, hasIP := second["ip"]
	testutil.AssertFalse(t, hasIP, "failed record has no ip field")
}

func TestStreamWriter_FlushPerRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, false)

	testutil.AssertNoError(t, w.Write(sampleRecord()), "write")

	// Visible antes de Close: el sink no acumula resultados.
	testutil.AssertTrue(t, buf.Len() > 0, "record flushed immediately")
	testutil.AssertNoError(t, w.Close(), "close")
}

func TestStreamWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf, true)

	testutil.AssertNoError(t, w.Write(sampleRecord()), "write")
	testutil.AssertNoError(t, w.Close(), "close")

	testutil.AssertContains(t, buf.String(), "\n  \"origin\"", "indented output")
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.ndjson")

	w, err := Open(path, false)
	testutil.AssertNoError(t, err, "open")
	testutil.AssertNoError(t, w.Write(sampleRecord()), "write")
	testutil.AssertNoError(t, w.Close(), "close")

	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err, "read back")

	var rec map[string]any
	testutil.AssertNoError(t, json.Unmarshal(bytes.TrimSpace(data), &rec), "file holds one json object")
	testutil.AssertEqual(t, rec["hostname"], "example.com", "record round-trips")
}

func TestOpen_Stdout(t *testing.T) {
	w, err := Open("", false)

	testutil.AssertNoError(t, err, "empty path means stdout")
	testutil.AssertNil(t, w.file, "stdout is not owned")
	testutil.AssertNoError(t, w.Close(), "close only flushes")
}
