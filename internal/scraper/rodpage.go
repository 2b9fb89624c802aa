package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// rodPage adapts a rod tab to Page. Downloads of the tab are saved under
// their GUID in downloadDir.
type rodPage struct {
	page        *rod.Page
	downloadDir string
}

// NewRodPage wraps a rod page for the collector
func NewRodPage(page *rod.Page, downloadDir string) Page {
	return &rodPage{page: page, downloadDir: downloadDir}
}

func (p *rodPage) WaitElement(ctx context.Context, selector string, timeout time.Duration) (Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := p.page.Context(waitCtx).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	// Detach from the wait deadline so later calls on the element still work
	return &rodElement{el: el.Context(ctx)}, nil
}

func (p *rodPage) Find(selector string) (Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &rodElement{el: els.First()}, nil
}

// Download subscribes to the tab's download events before clicking, so the
// file is matched to this click by its GUID.
func (p *rodPage) Download(ctx context.Context, control Element, timeout time.Duration) (string, error) {
	el, ok := control.(*rodElement)
	if !ok {
		return "", fmt.Errorf("%w: %T is not a browser element", ErrDownloadTrigger, control)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		begin    *proto.PageDownloadWillBegin
		finished bool
	)
	wait := p.page.Context(waitCtx).EachEvent(func(e *proto.PageDownloadWillBegin) {
		if begin == nil {
			begin = e
		}
	}, func(e *proto.PageDownloadProgress) bool {
		if begin == nil || e.GUID != begin.GUID {
			return false
		}
		switch e.State {
		case proto.PageDownloadProgressStateCompleted:
			finished = true
			return true
		case proto.PageDownloadProgressStateCanceled:
			return true
		}
		return false
	})

	if err := el.Click(); err != nil {
		cancel()
		wait()
		return "", fmt.Errorf("%w: %v", ErrDownloadTrigger, err)
	}
	wait()

	switch {
	case finished:
		return filepath.Join(p.downloadDir, begin.GUID), nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case begin == nil:
		return "", fmt.Errorf("%w: no download started within %s", ErrDownloadUnconfirmed, timeout)
	default:
		return "", fmt.Errorf("%w: %s did not finish within %s", ErrDownloadUnconfirmed, begin.SuggestedFilename, timeout)
	}
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attribute(name string) (string, bool, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *rodElement) Find(selector string) (Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return &rodElement{el: els.First()}, nil
}

func (e *rodElement) FindAll(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (e *rodElement) Click() error {
	if err := e.el.ScrollIntoView(); err != nil {
		return err
	}
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}
