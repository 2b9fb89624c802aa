// Package service runs the staged scrape flow: open a session and show the
// CAPTCHA, then submit it, collect new judgments, store and export them.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/cache"
	"github.com/GmS-001/Law-Verdict/internal/config"
	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/internal/export"
	"github.com/GmS-001/Law-Verdict/internal/scraper"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
	"github.com/google/uuid"
)

// ErrSessionNotFound means the id is unknown or the session expired
var ErrSessionNotFound = errors.New("scrape session not found")

// saveTimeout bounds storing a pass once collection has stopped
const saveTimeout = time.Minute

// Started describes a session waiting for its CAPTCHA answer
type Started struct {
	ID          string         `json:"id"`
	FromDate    string         `json:"from_date"`
	ToDate      string         `json:"to_date"`
	Option      scraper.Option `json:"option"`
	CaptchaPath string         `json:"-"`
}

// RunReport is the outcome of a submitted scrape
type RunReport struct {
	ID           string                `json:"id"`
	FromDate     string                `json:"from_date"`
	ToDate       string                `json:"to_date"`
	Option       scraper.Option        `json:"option"`
	NewCount     int                   `json:"new_count"`
	Records      []database.CaseRecord `json:"records"`
	Pages        int                   `json:"pages"`
	AlreadySeen  int                   `json:"already_seen"`
	Skipped      int                   `json:"skipped"`
	End          scraper.Termination   `json:"end"`
	ExportPath   string                `json:"export_path,omitempty"`
	InsertErrors []string              `json:"insert_errors,omitempty"`
	Error        string                `json:"error,omitempty"`
}

// Store is the part of the database the runner needs
type Store interface {
	LoadSeenIDs(ctx context.Context) (database.SeenSet, error)
	SaveNewRecords(ctx context.Context, records []database.CaseRecord) database.SaveResult
	ListRecords(ctx context.Context, page, limit int) ([]database.CaseRecord, int64, error)
}

// Service owns live sessions and runs scrape passes on them
type Service struct {
	cfg       *config.Config
	launcher  scraper.Launcher
	store     Store
	collector *scraper.Collector
	exporter  *export.CSVExporter
	sessions  cache.Cache
	logger    *logger.Logger
}

// New wires a service from configuration
func New(cfg *config.Config, launcher scraper.Launcher, store Store, logger *logger.Logger) *Service {
	opts := scraper.DefaultCollectorOptions()
	opts.TableWait = cfg.TableWaitTimeout
	opts.DownloadWait = cfg.DownloadWaitTimeout
	opts.MaxPages = cfg.MaxPages

	return NewWithCollector(cfg, launcher, store, scraper.NewCollector(opts, logger), logger)
}

// NewWithCollector is New with a caller-tuned collector
func NewWithCollector(cfg *config.Config, launcher scraper.Launcher, store Store, collector *scraper.Collector, logger *logger.Logger) *Service {
	return &Service{
		cfg:       cfg,
		launcher:  launcher,
		store:     store,
		collector: collector,
		exporter:  export.NewCSVExporter(cfg.CSVDir),
		sessions:  cache.NewCache(cfg.MaxSessions, cfg.SessionTTL, logger),
		logger:    logger,
	}
}

// Start opens a browser session, fills the search form and saves the
// CAPTCHA image for the operator.
func (s *Service) Start(ctx context.Context, to time.Time, option scraper.Option) (*Started, error) {
	filters := scraper.NewFilters(to, s.cfg.LookbackDays, option)
	id := uuid.New().String()
	log := s.logger.With("session_id", id)

	session, err := s.launcher.Open(ctx, s.cfg.PDFDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}

	if err := session.ConfigureFilters(ctx, filters); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to configure search: %w", err)
	}

	entry := &cache.Entry{
		ID:          id,
		Session:     session,
		Filters:     filters,
		CaptchaPath: s.captchaPath(id),
		CreatedAt:   time.Now(),
	}
	if err := session.CaptureCaptcha(ctx, entry.CaptchaPath); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to capture captcha: %w", err)
	}

	if err := s.sessions.Set(entry); err != nil {
		_ = session.Close()
		_ = os.Remove(entry.CaptchaPath)
		return nil, err
	}

	log.Info("Scrape session started",
		"from_date", filters.FromString(),
		"to_date", filters.ToString(),
		"option", option,
	)

	return &Started{
		ID:          id,
		FromDate:    filters.FromString(),
		ToDate:      filters.ToString(),
		Option:      option,
		CaptchaPath: entry.CaptchaPath,
	}, nil
}

// CaptchaPath returns the image file of a waiting session
func (s *Service) CaptchaPath(id string) (string, error) {
	entry, ok := s.sessions.Get(id)
	if !ok {
		return "", ErrSessionNotFound
	}
	return entry.CaptchaPath, nil
}

// RefreshCaptcha fetches a new challenge and overwrites the image file
func (s *Service) RefreshCaptcha(ctx context.Context, id string) error {
	entry, ok := s.sessions.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	entry.Lock()
	defer entry.Unlock()
	s.sessions.Touch(id)

	if err := entry.Session.RefreshCaptcha(ctx); err != nil {
		return err
	}
	return entry.Session.CaptureCaptcha(ctx, entry.CaptchaPath)
}

// Submit answers the CAPTCHA and runs the pass. A rejected answer keeps the
// session open with a fresh image. Otherwise the session is closed and the
// report returned, together with the pass error when it ended abnormally.
func (s *Service) Submit(ctx context.Context, id, captcha string) (*RunReport, error) {
	entry, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.sessions.Pin(id)
	entry.Lock()
	defer entry.Unlock()

	log := s.logger.With("session_id", id)

	seen, err := s.store.LoadSeenIDs(ctx)
	if err != nil {
		s.sessions.Touch(id)
		return nil, err
	}

	if err := entry.Session.SubmitCaptcha(ctx, captcha); err != nil {
		s.sessions.Touch(id)
		if errors.Is(err, scraper.ErrCaptchaRejected) {
			log.Warn("Captcha rejected, capturing a new one", "error", err)
			if capErr := entry.Session.CaptureCaptcha(ctx, entry.CaptchaPath); capErr != nil {
				log.Warn("Failed to capture new captcha", "error", capErr)
			}
		}
		return nil, err
	}

	report, passErr := s.run(ctx, entry, seen, log)

	s.sessions.Delete(id)
	_ = os.Remove(entry.CaptchaPath)

	return report, passErr
}

func (s *Service) run(ctx context.Context, entry *cache.Entry, seen database.SeenSet, log *logger.Logger) (*RunReport, error) {
	report := &RunReport{
		ID:       entry.ID,
		FromDate: entry.Filters.FromString(),
		ToDate:   entry.Filters.ToString(),
		Option:   entry.Filters.Option,
		Records:  []database.CaseRecord{},
	}

	pass, passErr := s.collector.Collect(ctx, entry.Session.Page(), s.cfg.PDFDir, seen)
	report.Pages = pass.Pages
	report.AlreadySeen = pass.Duplicates
	report.Skipped = len(pass.Skipped)
	report.End = pass.End
	if passErr != nil {
		report.Error = passErr.Error()
		log.Error("Scrape pass ended abnormally", "error", passErr, "collected", len(pass.Records))
	}

	// Rows gathered before a failure or cancellation are still stored
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	saved := s.store.SaveNewRecords(saveCtx, pass.Records)
	report.NewCount = saved.Inserted
	if saved.Saved != nil {
		report.Records = saved.Saved
	}
	for _, e := range saved.Errors {
		report.InsertErrors = append(report.InsertErrors, e.Error())
	}

	path, err := s.exporter.Export(report.Records)
	if err != nil {
		log.Error("Failed to export CSV", "error", err)
	}
	report.ExportPath = path

	if report.NewCount == 0 {
		log.Info("No new data found", "pages", report.Pages, "end", report.End)
	} else {
		log.Info("Scraping complete",
			"new_rows", report.NewCount,
			"pages", report.Pages,
			"export", report.ExportPath,
		)
	}
	return report, passErr
}

// Close abandons a session and quits its tab
func (s *Service) Close(id string) error {
	entry, ok := s.sessions.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	s.sessions.Delete(id)
	_ = os.Remove(entry.CaptchaPath)
	s.logger.Info("Scrape session closed", "session_id", id)
	return nil
}

// Records lists stored judgments
func (s *Service) Records(ctx context.Context, page, limit int) ([]database.CaseRecord, int64, error) {
	return s.store.ListRecords(ctx, page, limit)
}

// Stats reports the live session registry
func (s *Service) Stats() cache.CacheStats {
	return s.sessions.Stats()
}

// Shutdown closes every live session
func (s *Service) Shutdown() {
	s.sessions.Clear()
}

// captchaPath gives each session its own image next to the configured path
func (s *Service) captchaPath(id string) string {
	base := s.cfg.CaptchaPath
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".png"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_" + id[:8] + ext
}
