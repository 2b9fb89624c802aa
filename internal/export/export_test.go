package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []database.CaseRecord {
	return []database.CaseRecord{
		{
			PDFID:       "12_3_2024",
			SerialNo:    "1",
			CaseDetails: "CRL.A. 12/2024, State v. A",
			JudgeName:   "HON'BLE JUSTICE A",
			OrderDate:   "01-08-2025",
			PDFFile:     "12_3_2024.pdf",
			ScrapeDate:  "2025-08-14 09:30:00",
		},
		{
			PDFID:      "13_1_2024",
			SerialNo:   "2",
			ScrapeDate: "2025-08-14 09:30:00",
		},
	}
}

func TestCSVExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "CSVs")
	e := NewCSVExporter(dir)
	e.now = func() time.Time { return time.Date(2025, 8, 14, 9, 30, 5, 0, time.UTC) }

	path, err := e.Export(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scraped_data_20250814_093005.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "CRL.A. 12/2024, State v. A", rows[1][2])
	assert.Equal(t, "2025-08-14 09:30:00", rows[2][6])
}

func TestCSVExportEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "CSVs")

	path, err := NewCSVExporter(dir).Export(nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoDirExists(t, dir)
}

func TestRenderRecords(t *testing.T) {
	var buf bytes.Buffer
	RenderRecords(&buf, sampleRecords())

	out := buf.String()
	assert.Contains(t, out, "PDF ID")
	assert.Contains(t, out, "12_3_2024")
	assert.Contains(t, out, "HON'BLE JUSTICE A")
}
