// Package scrapertest provides an in-memory portal for exercising the
// collector and the scrape service without a browser.
package scrapertest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GmS-001/Law-Verdict/internal/scraper"
)

// Row is one result row of the fake portal
type Row struct {
	SerialNo    string
	CaseDetails string
	JudgeName   string
	OrderDate   string

	CaseNumber  string
	OrderNumber string
	Year        string

	NoControl    bool // row has no download control
	NoDownload   bool // clicking produces no file
	ClickFails   bool // the control cannot be clicked
	LateDownload bool // the file only lands after the next click
}

// NewRow returns a complete row for the given identifier parts
func NewRow(serial, caseNumber, orderNumber, year string) Row {
	return Row{
		SerialNo:    serial,
		CaseDetails: "CASE " + caseNumber + "/" + year,
		JudgeName:   "HON'BLE JUSTICE " + orderNumber,
		OrderDate:   "01-08-" + year,
		CaseNumber:  caseNumber,
		OrderNumber: orderNumber,
		Year:        year,
	}
}

// PDFID is the identifier the collector should compose for this row
func (r Row) PDFID() string {
	return scraper.ComposePDFID(r.CaseNumber, r.OrderNumber, r.Year)
}

// Portal is a fake result table spread over pages. It implements scraper.Page.
type Portal struct {
	Pages       [][]Row
	DownloadDir string

	// NoResults shows the portal's empty-result marker when there is no table
	NoResults bool
	// MissingTableOnPage makes the table never appear on that 1-based page
	MissingTableOnPage int
	// DisabledNext keeps a disabled next control on the last page
	DisabledNext bool
	// StuckNext leaves the table unchanged when next is clicked
	StuckNext bool
	// NoPageInfo hides the pager info text
	NoPageInfo bool
	// OnPageTurn runs after each click on the next control
	OnPageTurn func(turn int)

	sel     scraper.TableSelectors
	mu      sync.Mutex
	current int
	clicks  []string
	turns   int
	seq     int
	late    []string
}

// NewPortal creates a portal with the default selectors
func NewPortal(downloadDir string, pages ...[]Row) *Portal {
	return &Portal{
		Pages:       pages,
		DownloadDir: downloadDir,
		sel:         scraper.DefaultSelectors().Table,
	}
}

// Clicks returns the pdf_ids whose download control was activated
func (p *Portal) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// PageTurns counts clicks on the next control
func (p *Portal) PageTurns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.turns
}

// Reset returns to the first page and forgets clicks
func (p *Portal) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = 0
	p.clicks = nil
	p.turns = 0
	p.late = nil
}

func (p *Portal) WaitElement(ctx context.Context, selector string, timeout time.Duration) (scraper.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", scraper.ErrElementNotFound, selector, err)
	}
	return p.Find(selector)
}

func (p *Portal) Find(selector string) (scraper.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch selector {
	case p.sel.Table:
		if p.tableVisible() {
			return &table{portal: p, page: p.current}, nil
		}
	case p.sel.Next:
		last := p.current >= len(p.Pages)-1
		if !last || p.DisabledNext {
			return &next{portal: p, disabled: last}, nil
		}
	case p.sel.PageInfo:
		if p.tableVisible() && !p.NoPageInfo {
			return &text{value: fmt.Sprintf("Showing page %d of %d", p.current+1, len(p.Pages))}, nil
		}
	case p.sel.NoResults:
		if p.NoResults && len(p.Pages) == 0 {
			return &text{value: "No records found"}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
}

func (p *Portal) tableVisible() bool {
	if len(p.Pages) == 0 || p.current >= len(p.Pages) {
		return false
	}
	return p.MissingTableOnPage != p.current+1
}

// Download clicks control and returns the file that click produced. Files
// are written under opaque names, the way the browser saves them.
func (p *Portal) Download(ctx context.Context, control scraper.Element, timeout time.Duration) (string, error) {
	c, ok := control.(*downloadControl)
	if !ok {
		return "", fmt.Errorf("%w: %T is not a download control", scraper.ErrDownloadTrigger, control)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := p.download(c.data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scraper.ErrDownloadTrigger, err)
	}
	if path == "" {
		return "", fmt.Errorf("%w: no download started within %s", scraper.ErrDownloadUnconfirmed, timeout)
	}
	return path, nil
}

func (p *Portal) download(r Row) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clicks = append(p.clicks, r.PDFID())
	if r.ClickFails {
		return "", errors.New("element is covered by another element")
	}

	// files of earlier late rows land now
	for _, id := range p.late {
		if _, err := p.writeFile(id); err != nil {
			return "", err
		}
	}
	p.late = nil

	switch {
	case r.NoDownload:
		return "", nil
	case r.LateDownload:
		p.late = append(p.late, r.PDFID())
		return "", nil
	}
	return p.writeFile(r.PDFID())
}

func (p *Portal) writeFile(pdfID string) (string, error) {
	p.seq++
	path := filepath.Join(p.DownloadDir, fmt.Sprintf("download-%04d", p.seq))
	return path, os.WriteFile(path, FileContent(pdfID), 0644)
}

// FileContent is what the portal serves for a judgment
func FileContent(pdfID string) []byte {
	return []byte("%PDF-1.4 " + pdfID)
}

type table struct {
	portal *Portal
	page   int
}

func (t *table) Text() (string, error) { return "", nil }

func (t *table) Attribute(string) (string, bool, error) { return "", false, nil }

func (t *table) Find(selector string) (scraper.Element, error) {
	rows, _ := t.FindAll(selector)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
	}
	return rows[0], nil
}

func (t *table) FindAll(selector string) ([]scraper.Element, error) {
	if selector != t.portal.sel.Rows {
		return nil, nil
	}
	out := []scraper.Element{}
	for _, r := range t.portal.Pages[t.page] {
		out = append(out, &row{portal: t.portal, data: r})
	}
	return out, nil
}

func (t *table) Click() error { return nil }

type row struct {
	portal *Portal
	data   Row
}

func (r *row) Text() (string, error) {
	d := r.data
	return strings.Join([]string{d.SerialNo, d.CaseDetails, d.JudgeName, d.OrderDate}, "\t"), nil
}

func (r *row) Attribute(string) (string, bool, error) { return "", false, nil }

func (r *row) Find(selector string) (scraper.Element, error) {
	if selector == r.portal.sel.DownloadControl && !r.data.NoControl {
		return &downloadControl{portal: r.portal, data: r.data}, nil
	}
	return nil, fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
}

func (r *row) FindAll(selector string) ([]scraper.Element, error) {
	if selector != r.portal.sel.Cells {
		return nil, nil
	}
	d := r.data
	return []scraper.Element{
		&text{value: d.SerialNo},
		&text{value: " " + d.CaseDetails + " "},
		&text{value: d.JudgeName},
		&text{value: d.OrderDate},
		&text{value: "Download"},
	}, nil
}

func (r *row) Click() error { return nil }

type downloadControl struct {
	portal *Portal
	data   Row
}

func (c *downloadControl) Text() (string, error) { return "PDF", nil }

func (c *downloadControl) Attribute(name string) (string, bool, error) {
	sel := c.portal.sel
	switch name {
	case sel.CaseNumberAttr:
		return c.data.CaseNumber, c.data.CaseNumber != "", nil
	case sel.OrderNumberAttr:
		return c.data.OrderNumber, c.data.OrderNumber != "", nil
	case sel.YearAttr:
		return c.data.Year, c.data.Year != "", nil
	}
	return "", false, nil
}

func (c *downloadControl) Find(selector string) (scraper.Element, error) {
	return nil, fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
}

func (c *downloadControl) FindAll(string) ([]scraper.Element, error) { return nil, nil }

func (c *downloadControl) Click() error {
	_, err := c.portal.download(c.data)
	return err
}

type next struct {
	portal   *Portal
	disabled bool
}

func (n *next) Text() (string, error) { return "Next", nil }

func (n *next) Attribute(name string) (string, bool, error) {
	if name == "class" {
		if n.disabled {
			return "paginate_button next disabled", true, nil
		}
		return "paginate_button next", true, nil
	}
	return "", false, nil
}

func (n *next) Find(selector string) (scraper.Element, error) {
	return nil, fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
}

func (n *next) FindAll(string) ([]scraper.Element, error) { return nil, nil }

func (n *next) Click() error {
	p := n.portal
	p.mu.Lock()
	p.turns++
	if !p.StuckNext && p.current < len(p.Pages)-1 {
		p.current++
	}
	turn, hook := p.turns, p.OnPageTurn
	p.mu.Unlock()

	if hook != nil {
		hook(turn)
	}
	return nil
}

type text struct {
	value string
}

func (t *text) Text() (string, error) { return t.value, nil }

func (t *text) Attribute(string) (string, bool, error) { return "", false, nil }

func (t *text) Find(selector string) (scraper.Element, error) {
	return nil, fmt.Errorf("%w: %s", scraper.ErrElementNotFound, selector)
}

func (t *text) FindAll(string) ([]scraper.Element, error) { return nil, nil }

func (t *text) Click() error { return nil }
