package scraper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFFileName(t *testing.T) {
	assert.Equal(t, "301_1_2025.pdf", PDFFileName("301_1_2025"))
	assert.Equal(t, "12-3-2024.pdf", PDFFileName("12/3/2024"))
}

func TestClaimDownloadRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "6f1c2a4e-guid")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4"), 0644))

	name, err := claimDownload(src, dir, "301_1_2025")
	require.NoError(t, err)
	assert.Equal(t, "301_1_2025.pdf", name)
	assert.FileExists(t, filepath.Join(dir, name))
	assert.NoFileExists(t, src)
}

func TestClaimDownloadRejectsMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	_, err := claimDownload(filepath.Join(dir, "absent"), dir, "1_1_2025")
	assert.ErrorIs(t, err, ErrDownloadUnconfirmed)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = claimDownload(empty, dir, "1_1_2025")
	assert.ErrorIs(t, err, ErrDownloadUnconfirmed)
	assert.NoFileExists(t, filepath.Join(dir, "1_1_2025.pdf"))
}

func TestEnsureDirCreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "PDFs", "nested")
	require.NoError(t, ensureDir(dir))
	assert.DirExists(t, dir)
}
