package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var unsafeFileChars = strings.NewReplacer("/", "-", "\\", "-", ":", "-")

// PDFFileName is the name a judgment is stored under in the PDF directory
func PDFFileName(pdfID string) string {
	return unsafeFileChars.Replace(pdfID) + ".pdf"
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	return nil
}

// claimDownload moves the finished file of one click to <pdf_id>.pdf in dir
// and returns the new name.
func claimDownload(src, dir, pdfID string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadUnconfirmed, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrDownloadUnconfirmed, filepath.Base(src))
	}

	name := PDFFileName(pdfID)
	if err := os.Rename(src, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	return name, nil
}
