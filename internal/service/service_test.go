package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/internal/scraper/scrapertest"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cfg   *config.Config
	store *database.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		PDFDir:       filepath.Join(dir, "PDFs"),
		CSVDir:       filepath.Join(dir, "CSVs"),
		CaptchaPath:  filepath.Join(dir, "captcha.png"),
		LookbackDays: 10,
		SessionTTL:   time.Minute,
		MaxSessions:  4,
	}

	db, err := database.Initialize(filepath.Join(dir, "logs", "data.db"))
	require.NoError(t, err)
	store := database.NewStore(db, logger.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	return &fixture{cfg: cfg, store: store}
}

func (f *fixture) service(launcher scraper.Launcher) *Service {
	opts := scraper.DefaultCollectorOptions()
	opts.TableWait = 50 * time.Millisecond
	opts.DownloadWait = 200 * time.Millisecond
	opts.PageTurnWait = 50 * time.Millisecond
	opts.PollInterval = 5 * time.Millisecond

	collector := scraper.NewCollector(opts, logger.NewNop())
	return NewWithCollector(f.cfg, launcher, f.store, collector, logger.NewNop())
}

func (f *fixture) portal() *scrapertest.Portal {
	return scrapertest.NewPortal(f.cfg.PDFDir,
		[]scrapertest.Row{
			scrapertest.NewRow("1", "101", "1", "2025"),
			scrapertest.NewRow("2", "102", "1", "2025"),
		},
		[]scrapertest.Row{
			scrapertest.NewRow("3", "103", "2", "2025"),
		},
	)
}

var toDate = time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC)

func TestStartSubmitAndRerun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := scrapertest.NewSession(f.portal(), "x7k2p")
	second := scrapertest.NewSession(f.portal(), "q9w3e")
	svc := f.service(scrapertest.NewLauncher(first, second))

	started, err := svc.Start(ctx, toDate, scraper.OptionYes)
	require.NoError(t, err)
	assert.Equal(t, "04/08/2025", started.FromDate)
	assert.Equal(t, "14/08/2025", started.ToDate)
	assert.FileExists(t, started.CaptchaPath)

	require.Len(t, first.Filters(), 1)
	assert.Equal(t, scraper.OptionYes, first.Filters()[0].Option)

	report, err := svc.Submit(ctx, started.ID, "x7k2p")
	require.NoError(t, err)
	assert.Equal(t, 3, report.NewCount)
	assert.Len(t, report.Records, 3)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, scraper.EndExhausted, report.End)
	assert.FileExists(t, report.ExportPath)
	assert.True(t, first.Closed())
	assert.NoFileExists(t, started.CaptchaPath)

	// Overlapping window on the next run finds nothing new
	started, err = svc.Start(ctx, toDate, scraper.OptionYes)
	require.NoError(t, err)

	report, err = svc.Submit(ctx, started.ID, "q9w3e")
	require.NoError(t, err)
	assert.Zero(t, report.NewCount)
	assert.Empty(t, report.Records)
	assert.Equal(t, 3, report.AlreadySeen)
	assert.Empty(t, report.ExportPath)
	assert.Empty(t, second.Portal.Clicks())

	records, total, err := svc.Records(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, records, 3)
}

func TestSubmitRejectedCaptchaKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := scrapertest.NewSession(f.portal(), "right")
	svc := f.service(scrapertest.NewLauncher(session))

	started, err := svc.Start(ctx, toDate, scraper.OptionAll)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, started.ID, "wrong")
	assert.ErrorIs(t, err, scraper.ErrCaptchaRejected)
	assert.False(t, session.Closed())
	assert.FileExists(t, started.CaptchaPath)

	report, err := svc.Submit(ctx, started.ID, "right")
	require.NoError(t, err)
	assert.Equal(t, 3, report.NewCount)
}

func TestSubmitPartialPassIsStored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	portal := f.portal()
	portal.MissingTableOnPage = 2
	svc := f.service(scrapertest.NewLauncher(scrapertest.NewSession(portal, "ok")))

	started, err := svc.Start(ctx, toDate, scraper.OptionYes)
	require.NoError(t, err)

	report, err := svc.Submit(ctx, started.ID, "ok")
	assert.ErrorIs(t, err, scraper.ErrTableNotFound)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.NewCount)
	assert.NotEmpty(t, report.Error)

	seen, err := f.store.LoadSeenIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, seen.Len())
}

func TestSubmitCancelledPassIsStored(t *testing.T) {
	f := newFixture(t)
	portal := f.portal()
	svc := f.service(scrapertest.NewLauncher(scrapertest.NewSession(portal, "ok")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	portal.OnPageTurn = func(int) { cancel() }

	started, err := svc.Start(ctx, toDate, scraper.OptionYes)
	require.NoError(t, err)

	report, err := svc.Submit(ctx, started.ID, "ok")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, scraper.EndCancelled, report.End)
	assert.Equal(t, 2, report.NewCount)
	assert.Empty(t, report.InsertErrors)
	assert.Equal(t, []string{"101_1_2025", "102_1_2025"}, portal.Clicks())

	seen, err := f.store.LoadSeenIDs(context.Background())
	require.NoError(t, err)
	assert.True(t, seen.Has("101_1_2025"))
	assert.True(t, seen.Has("102_1_2025"))
	assert.False(t, seen.Has("103_2_2025"))
}

func TestRefreshAndClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := scrapertest.NewSession(f.portal(), "ok")
	svc := f.service(scrapertest.NewLauncher(session))

	started, err := svc.Start(ctx, toDate, scraper.OptionNo)
	require.NoError(t, err)

	require.NoError(t, svc.RefreshCaptcha(ctx, started.ID))
	assert.Equal(t, 1, session.Refreshes())

	path, err := svc.CaptchaPath(started.ID)
	require.NoError(t, err)
	assert.Equal(t, started.CaptchaPath, path)
	assert.Equal(t, 1, svc.Stats().Size)

	require.NoError(t, svc.Close(started.ID))
	assert.True(t, session.Closed())

	_, err = svc.Submit(ctx, started.ID, "ok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Close(started.ID), ErrSessionNotFound)
	assert.ErrorIs(t, svc.RefreshCaptcha(ctx, started.ID), ErrSessionNotFound)
}

func TestStartLauncherFailure(t *testing.T) {
	f := newFixture(t)
	launcher := scrapertest.NewLauncher()

	_, err := f.service(launcher).Start(context.Background(), toDate, scraper.OptionYes)
	assert.Error(t, err)
}

func TestShutdownClosesSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := scrapertest.NewSession(f.portal(), "a")
	b := scrapertest.NewSession(f.portal(), "b")
	svc := f.service(scrapertest.NewLauncher(a, b))

	_, err := svc.Start(ctx, toDate, scraper.OptionYes)
	require.NoError(t, err)
	_, err = svc.Start(ctx, toDate, scraper.OptionYes)
	require.NoError(t, err)

	svc.Shutdown()
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}
