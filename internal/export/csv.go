// Package export writes scrape results to CSV files and terminal tables.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/database"
)

// FileLayout is the timestamp embedded in export file names
const FileLayout = "20060102_150405"

var csvHeader = []string{
	"pdf_id",
	"serial_no",
	"case_details",
	"judge_name",
	"order_date",
	"pdf_file",
	"scrape_date",
}

// CSVExporter writes one file per run into a directory
type CSVExporter struct {
	dir string
	now func() time.Time
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir, now: time.Now}
}

// Export writes records to scraped_data_<timestamp>.csv and returns the path.
// Nothing is written for an empty batch and the path is empty.
func (e *CSVExporter) Export(records []database.CaseRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("scraped_data_%s.csv", e.now().Format(FileLayout)))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return "", err
	}

	for _, rec := range records {
		row := []string{
			rec.PDFID,
			rec.SerialNo,
			rec.CaseDetails,
			rec.JudgeName,
			rec.OrderDate,
			rec.PDFFile,
			rec.ScrapeDate,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
