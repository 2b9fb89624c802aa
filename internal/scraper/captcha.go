package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Phrases the portal uses when it refuses the challenge text
var rejectionPhrases = []string{"captcha", "invalid", "incorrect", "wrong"}

// CaptureCaptcha writes the current challenge image to path, replacing any
// previous capture.
func (s *PortalSession) CaptureCaptcha(ctx context.Context, path string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	img, err := s.page.Context(waitCtx).Element(s.sel.Form.CaptchaImage)
	if err != nil {
		return fmt.Errorf("captcha image not found: %w", err)
	}

	data, err := captchaImage(img)
	if err != nil {
		return fmt.Errorf("failed to get captcha image: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create captcha directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save captcha: %w", err)
	}

	s.logger.Info("Captcha captured", "path", path, "bytes", len(data))
	return nil
}

// captchaImage decodes an inline data URI, otherwise screenshots the element
// so the text matches what the portal session expects.
func captchaImage(img *rod.Element) ([]byte, error) {
	src, err := img.Attribute("src")
	if err == nil && src != nil && strings.HasPrefix(*src, "data:image") {
		if _, payload, ok := strings.Cut(*src, ","); ok {
			if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
				return data, nil
			}
		}
	}

	shot, err := img.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to screenshot captcha: %w", err)
	}
	return shot, nil
}

// RefreshCaptcha asks the portal for a new challenge
func (s *PortalSession) RefreshCaptcha(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	btn, err := s.page.Context(waitCtx).Element(s.sel.Form.CaptchaRefresh)
	if err != nil {
		return fmt.Errorf("captcha refresh control not found: %w", err)
	}
	if err := btn.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to refresh captcha: %w", err)
	}
	if err := s.page.Context(waitCtx).WaitIdle(2 * time.Second); err != nil {
		s.logger.Debug("Page not idle after captcha refresh", "error", err)
	}

	s.logger.Info("Captcha refreshed")
	return nil
}

// SubmitCaptcha types the operator's answer and runs the search. It returns
// ErrCaptchaRejected when the portal shows an error instead of results.
func (s *PortalSession) SubmitCaptcha(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty answer", ErrCaptchaRejected)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	page := s.page.Context(waitCtx)

	input, err := page.Element(s.sel.Form.CaptchaInput)
	if err != nil {
		return fmt.Errorf("captcha input not found: %w", err)
	}
	if err := input.SelectAllText(); err != nil {
		s.logger.Debug("Could not select existing captcha text", "error", err)
	}
	if err := input.Input(text); err != nil {
		return fmt.Errorf("failed to enter captcha: %w", err)
	}

	submit, err := page.Element(s.sel.Form.Submit)
	if err != nil {
		return fmt.Errorf("submit button not found: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to submit search: %w", err)
	}
	s.logger.Debug("Search submitted", "length", len(text))

	return awaitSearchOutcome(ctx, s.Page(), s.sel, s.timeout, 250*time.Millisecond)
}

// awaitSearchOutcome polls until results, an empty-result marker or an error
// message appears. When none shows up in time it returns nil and leaves the
// verdict to the collector's table wait.
func awaitSearchOutcome(ctx context.Context, page Page, sel Selectors, timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if msg, ok := rejection(page, sel.Form.ErrorMessage); ok {
			return fmt.Errorf("%w: %s", ErrCaptchaRejected, msg)
		}
		if _, err := page.Find(sel.Table.Table); err == nil {
			return nil
		}
		if sel.Table.NoResults != "" {
			if _, err := page.Find(sel.Table.NoResults); err == nil {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

func rejection(page Page, selector string) (string, bool) {
	el, err := page.Find(selector)
	if err != nil {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)
	for _, phrase := range rejectionPhrases {
		if strings.Contains(lower, phrase) {
			return text, true
		}
	}
	return "", false
}
