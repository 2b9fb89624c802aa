package scrapertest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/GmS-001/Law-Verdict/internal/scraper"
)

// CaptchaPNG is a tiny valid PNG used as the fake challenge image
var CaptchaPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Session is a scraper.Session over a fake Portal
type Session struct {
	Portal *Portal
	Answer string

	mu        sync.Mutex
	filters   []scraper.Filters
	refreshes int
	closed    bool
}

// NewSession returns a session whose CAPTCHA answer is answer
func NewSession(portal *Portal, answer string) *Session {
	return &Session{Portal: portal, Answer: answer}
}

func (s *Session) ConfigureFilters(ctx context.Context, f scraper.Filters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("session closed")
	}
	s.filters = append(s.filters, f)
	return nil
}

func (s *Session) CaptureCaptcha(ctx context.Context, path string) error {
	return os.WriteFile(path, CaptchaPNG, 0644)
}

func (s *Session) RefreshCaptcha(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	return nil
}

func (s *Session) SubmitCaptcha(ctx context.Context, text string) error {
	if text != s.Answer {
		return fmt.Errorf("%w: %q", scraper.ErrCaptchaRejected, text)
	}
	s.Portal.Reset()
	return nil
}

func (s *Session) Page() scraper.Page {
	return s.Portal
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Filters returns every filter set configured so far
func (s *Session) Filters() []scraper.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scraper.Filters(nil), s.filters...)
}

// Refreshes counts CAPTCHA refreshes
func (s *Session) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Launcher hands out prepared sessions in order
type Launcher struct {
	mu       sync.Mutex
	sessions []*Session
	Dirs     []string
	Err      error
}

// NewLauncher returns a launcher that serves the given sessions
func NewLauncher(sessions ...*Session) *Launcher {
	return &Launcher{sessions: sessions}
}

func (l *Launcher) Open(ctx context.Context, downloadDir string) (scraper.Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.sessions) == 0 {
		return nil, errors.New("no fake sessions left")
	}
	s := l.sessions[0]
	l.sessions = l.sessions[1:]
	l.Dirs = append(l.Dirs, downloadDir)
	if s.Portal != nil && s.Portal.DownloadDir == "" {
		s.Portal.DownloadDir = downloadDir
	}
	return s, nil
}
