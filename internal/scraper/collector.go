package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/GmS-001/Law-Verdict/pkg/logger"
)

// Termination says why a pass stopped
type Termination string

const (
	EndExhausted    Termination = "pagination_exhausted"
	EndNoResults    Termination = "no_results"
	EndTableMissing Termination = "table_missing"
	EndStalled      Termination = "page_did_not_change"
	EndMaxPages     Termination = "max_pages"
	EndFatal        Termination = "fatal_row"
	EndCancelled    Termination = "cancelled"
)

// CollectorOptions tunes waits and limits of a pass
type CollectorOptions struct {
	Selectors    TableSelectors
	TableWait    time.Duration
	DownloadWait time.Duration
	PageTurnWait time.Duration
	PollInterval time.Duration
	MaxPages     int // 0 means no limit
}

// DefaultCollectorOptions returns production waits
func DefaultCollectorOptions() CollectorOptions {
	return CollectorOptions{
		Selectors:    DefaultSelectors().Table,
		TableWait:    15 * time.Second,
		DownloadWait: 20 * time.Second,
		PageTurnWait: 10 * time.Second,
		PollInterval: 250 * time.Millisecond,
	}
}

// PassResult is everything one pass produced. Records are the new rows in
// visit order.
type PassResult struct {
	Records    []database.CaseRecord
	Pages      int
	Duplicates int
	Skipped    []RowResult
	End        Termination
}

// Collector walks the result table of an authenticated session
type Collector struct {
	opts   CollectorOptions
	logger *logger.Logger
	parser rowParser
}

// NewCollector creates a collector
func NewCollector(opts CollectorOptions, logger *logger.Logger) *Collector {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	return &Collector{
		opts:   opts,
		logger: logger,
		parser: rowParser{sel: opts.Selectors},
	}
}

// Collect visits every page and returns rows whose pdf_id is not in seen.
// seen is updated as rows are accepted. The result is never nil, and holds
// the rows gathered so far even when an error is returned.
func (c *Collector) Collect(ctx context.Context, page Page, pdfDir string, seen database.SeenSet) (*PassResult, error) {
	result := &PassResult{Records: []database.CaseRecord{}}
	if seen == nil {
		seen = database.NewSeenSet()
	}

	if err := ensureDir(pdfDir); err != nil {
		return result, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return result, c.cancelled(result, err)
		}

		table, err := page.WaitElement(ctx, c.opts.Selectors.Table, c.opts.TableWait)
		if err != nil {
			if ctx.Err() != nil {
				return result, c.cancelled(result, ctx.Err())
			}
			return result, c.tableMissing(page, result, err)
		}
		result.Pages++

		rows, err := table.FindAll(c.opts.Selectors.Rows)
		if err != nil {
			result.End = EndTableMissing
			return result, fmt.Errorf("%w: page %d rows unreadable: %v", ErrTableNotFound, result.Pages, err)
		}

		c.logger.Debug("Processing result page", "page", result.Pages, "rows", len(rows))

		for i, row := range rows {
			res := c.visitRow(ctx, page, row, pdfDir, seen)

			switch res.Status {
			case RowOK:
				result.Records = append(result.Records, res.Record)
			case RowSkipped:
				if res.Reason == ReasonAlreadySeen {
					result.Duplicates++
					continue
				}
				result.Skipped = append(result.Skipped, res)
				c.logger.Warn("Row skipped",
					"page", result.Pages,
					"row", i+1,
					"pdf_id", res.Record.PDFID,
					"reason", res.Reason,
					"error", res.Err,
				)
			case RowFatal:
				if ctx.Err() != nil {
					return result, c.cancelled(result, ctx.Err())
				}
				result.End = EndFatal
				c.logger.Error("Row failed, stopping pass", "page", result.Pages, "row", i+1, "error", res.Err)
				return result, fmt.Errorf("page %d row %d: %w", result.Pages, i+1, res.Err)
			}
		}

		c.logger.Info("Result page done",
			"page", result.Pages,
			"new_rows", len(result.Records),
			"duplicates", result.Duplicates,
		)

		if c.opts.MaxPages > 0 && result.Pages >= c.opts.MaxPages {
			result.End = EndMaxPages
			return result, nil
		}

		marker, _ := c.pageMarker(page)
		if !c.nextPage(ctx, page) {
			if ctx.Err() != nil {
				return result, c.cancelled(result, ctx.Err())
			}
			result.End = EndExhausted
			return result, nil
		}

		if !c.waitPageTurn(ctx, page, marker) {
			if ctx.Err() != nil {
				return result, c.cancelled(result, ctx.Err())
			}
			c.logger.Warn("Pager did not move after next, stopping", "page", result.Pages)
			result.End = EndStalled
			return result, nil
		}
	}
}

func (c *Collector) visitRow(ctx context.Context, page Page, row Element, pdfDir string, seen database.SeenSet) RowResult {
	rec, control, skipped := c.parser.parse(row)
	if skipped != nil {
		return *skipped
	}

	if seen.Has(rec.PDFID) {
		return skippedRow(rec, ReasonAlreadySeen, nil)
	}
	// Claim the id before downloading so repeats later in the pass are ignored
	seen.Add(rec.PDFID)

	path, err := page.Download(ctx, control, c.opts.DownloadWait)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return fatalRow(rec, ctx.Err())
		case errors.Is(err, ErrDownloadTrigger):
			return skippedRow(rec, ReasonDownloadFailed, err)
		}
		return skippedRow(rec, ReasonDownloadUnconfirmed, err)
	}

	name, err := claimDownload(path, pdfDir, rec.PDFID)
	if err != nil {
		return skippedRow(rec, ReasonDownloadUnconfirmed, err)
	}
	rec.PDFFile = name

	c.logger.Debug("Downloaded judgment", "pdf_id", rec.PDFID, "file", name)
	return okRow(rec)
}

// cancelled ends the pass when the caller gave up, keeping what was collected
func (c *Collector) cancelled(result *PassResult, err error) error {
	result.End = EndCancelled
	c.logger.Warn("Scrape pass cancelled", "pages", result.Pages, "rows_so_far", len(result.Records))
	return err
}

// tableMissing decides between "no results" and a page failure
func (c *Collector) tableMissing(page Page, result *PassResult, waitErr error) error {
	if result.Pages == 0 && c.opts.Selectors.NoResults != "" {
		if _, err := page.Find(c.opts.Selectors.NoResults); err == nil {
			c.logger.Info("Portal reported no results")
			result.End = EndNoResults
			return nil
		}
	}

	result.End = EndTableMissing
	c.logger.Error("Results table did not appear",
		"page", result.Pages+1,
		"rows_so_far", len(result.Records),
		"error", waitErr,
	)
	return fmt.Errorf("%w on page %d: %v", ErrTableNotFound, result.Pages+1, waitErr)
}

// nextPage clicks the pagination control when it is actionable
func (c *Collector) nextPage(ctx context.Context, page Page) bool {
	if ctx.Err() != nil {
		return false
	}

	next, err := page.Find(c.opts.Selectors.Next)
	if err != nil {
		c.logger.Debug("No next control, pagination finished")
		return false
	}

	if disabled(next) {
		c.logger.Debug("Next control disabled, pagination finished")
		return false
	}

	if err := next.Click(); err != nil {
		c.logger.Warn("Next control not clickable", "error", err)
		return false
	}
	return true
}

// waitPageTurn polls until the page marker differs from previous
func (c *Collector) waitPageTurn(ctx context.Context, page Page, previous string) bool {
	deadline := time.Now().Add(c.opts.PageTurnWait)
	for {
		current, ok := c.pageMarker(page)
		if !ok || current != previous {
			// A table being re-rendered is covered by the next WaitElement
			return true
		}

		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.opts.PollInterval):
		}
	}
}

// pageMarker identifies the visible page by the pager's info text, or by the
// text of every row when the portal shows no pager info. ok is false while
// the table is absent.
func (c *Collector) pageMarker(page Page) (string, bool) {
	if c.opts.Selectors.PageInfo != "" {
		if info, err := page.Find(c.opts.Selectors.PageInfo); err == nil {
			if text, err := info.Text(); err == nil && strings.TrimSpace(text) != "" {
				return "info:" + strings.TrimSpace(text), true
			}
		}
	}

	table, err := page.Find(c.opts.Selectors.Table)
	if err != nil {
		return "", false
	}
	rows, err := table.FindAll(c.opts.Selectors.Rows)
	if err != nil {
		return "", false
	}
	texts := make([]string, 0, len(rows))
	for _, row := range rows {
		text, _ := row.Text()
		texts = append(texts, strings.TrimSpace(text))
	}
	return "rows:" + strings.Join(texts, "\n"), true
}

func disabled(el Element) bool {
	if _, ok, _ := el.Attribute("disabled"); ok {
		return true
	}
	if v, ok, _ := el.Attribute("aria-disabled"); ok && v == "true" {
		return true
	}
	if class, ok, _ := el.Attribute("class"); ok {
		for _, c := range strings.Fields(class) {
			if c == "disabled" {
				return true
			}
		}
	}
	return false
}
