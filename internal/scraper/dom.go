package scraper

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrElementNotFound is returned when a selector matches nothing
	ErrElementNotFound = errors.New("element not found")
	// ErrTableNotFound means the results table never appeared on a page
	ErrTableNotFound = errors.New("results table not found")
	// ErrMissingDownloadControl marks a row without a document control
	ErrMissingDownloadControl = errors.New("row has no download control")
	// ErrDownloadUnconfirmed means the click produced no finished file in time
	ErrDownloadUnconfirmed = errors.New("download not confirmed")
	// ErrDownloadTrigger means the download control could not be activated
	ErrDownloadTrigger = errors.New("download control not clickable")
	// ErrCaptchaRejected is reported when the portal refuses the CAPTCHA text
	ErrCaptchaRejected = errors.New("captcha rejected")
)

// Page is the live browser tab the collector drives
type Page interface {
	// WaitElement blocks until selector matches or timeout elapses
	WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// Find returns the first match without waiting
	Find(selector string) (Element, error)
	// Download clicks control and waits for the file that click started.
	// It returns the path of the finished file.
	Download(ctx context.Context, control Element, timeout time.Duration) (string, error)
}

// Element is a DOM node inside a Page
type Element interface {
	Text() (string, error)
	// Attribute returns the value and whether the attribute is present
	Attribute(name string) (string, bool, error)
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	Click() error
}
