package scraper

import (
	"fmt"
	"strings"

	"github.com/GmS-001/Law-Verdict/internal/database"
)

// RowStatus tags the outcome of visiting one result row
type RowStatus int

const (
	RowOK RowStatus = iota
	RowSkipped
	RowFatal
)

func (s RowStatus) String() string {
	switch s {
	case RowOK:
		return "ok"
	case RowSkipped:
		return "skipped"
	case RowFatal:
		return "fatal"
	}
	return fmt.Sprintf("RowStatus(%d)", int(s))
}

// Skip reasons
const (
	ReasonAlreadySeen          = "already seen"
	ReasonMissingControl       = "missing download control"
	ReasonIncompleteIdentifier = "incomplete identifier"
	ReasonUnreadableRow        = "unreadable row"
	ReasonDownloadUnconfirmed  = "download not confirmed"
	ReasonDownloadFailed       = "download control failed"
)

// RowResult is the tagged outcome of one row
type RowResult struct {
	Status RowStatus
	Record database.CaseRecord
	Reason string
	Err    error
}

func okRow(rec database.CaseRecord) RowResult {
	return RowResult{Status: RowOK, Record: rec}
}

func skippedRow(rec database.CaseRecord, reason string, err error) RowResult {
	return RowResult{Status: RowSkipped, Record: rec, Reason: reason, Err: err}
}

func fatalRow(rec database.CaseRecord, err error) RowResult {
	return RowResult{Status: RowFatal, Record: rec, Err: err}
}

// ComposePDFID builds the dedup key from the control's identifying attributes
func ComposePDFID(caseNumber, orderNumber, year string) string {
	return strings.Join([]string{caseNumber, orderNumber, year}, "_")
}

// rowParser reads display cells and the download control of a row
type rowParser struct {
	sel TableSelectors
}

// parse fills the display fields and pdf_id. The returned control is nil
// when the row has to be skipped.
func (p rowParser) parse(row Element) (database.CaseRecord, Element, *RowResult) {
	var rec database.CaseRecord

	cells, err := row.FindAll(p.sel.Cells)
	if err != nil {
		res := skippedRow(rec, ReasonUnreadableRow, err)
		return rec, nil, &res
	}
	if len(cells) < minCells {
		res := skippedRow(rec, ReasonUnreadableRow, fmt.Errorf("expected %d cells, found %d", minCells, len(cells)))
		return rec, nil, &res
	}

	fields := []*string{
		colSerialNo:    &rec.SerialNo,
		colCaseDetails: &rec.CaseDetails,
		colJudgeName:   &rec.JudgeName,
		colOrderDate:   &rec.OrderDate,
	}
	for i, field := range fields {
		text, err := cells[i].Text()
		if err != nil {
			res := skippedRow(rec, ReasonUnreadableRow, err)
			return rec, nil, &res
		}
		*field = strings.TrimSpace(text)
	}

	control, err := row.Find(p.sel.DownloadControl)
	if err != nil {
		res := skippedRow(rec, ReasonMissingControl, fmt.Errorf("%w: %v", ErrMissingDownloadControl, err))
		return rec, nil, &res
	}

	parts := make([]string, 0, 3)
	for _, attr := range []string{p.sel.CaseNumberAttr, p.sel.OrderNumberAttr, p.sel.YearAttr} {
		value, ok, err := control.Attribute(attr)
		if err != nil || !ok || strings.TrimSpace(value) == "" {
			res := skippedRow(rec, ReasonIncompleteIdentifier, fmt.Errorf("attribute %s missing: %v", attr, err))
			return rec, nil, &res
		}
		parts = append(parts, strings.TrimSpace(value))
	}
	rec.PDFID = ComposePDFID(parts[0], parts[1], parts[2])

	return rec, control, nil
}
