package scraper

import "context"

// Session is one operator's live portal tab. Filters and CAPTCHA submission
// are separate steps so each can be retried on its own.
type Session interface {
	ConfigureFilters(ctx context.Context, f Filters) error
	CaptureCaptcha(ctx context.Context, path string) error
	RefreshCaptcha(ctx context.Context) error
	SubmitCaptcha(ctx context.Context, text string) error
	Page() Page
	Close() error
}

// Launcher opens sessions that download into downloadDir
type Launcher interface {
	Open(ctx context.Context, downloadDir string) (Session, error)
}
