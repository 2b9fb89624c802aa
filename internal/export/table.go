package export

import (
	"io"

	"github.com/GmS-001/Law-Verdict/internal/database"
	"github.com/jedib0t/go-pretty/v6/table"
)

// NewTable returns a rounded table writer mirrored to w
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// RenderRecords prints records as a table
func RenderRecords(w io.Writer, records []database.CaseRecord) {
	t := NewTable(w)
	t.AppendHeader(table.Row{"#", "PDF ID", "Case Details", "Judge", "Order Date", "File"})

	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.SerialNo,
			rec.PDFID,
			rec.CaseDetails,
			rec.JudgeName,
			rec.OrderDate,
			rec.PDFFile,
		})
	}

	t.AppendFooter(table.Row{"", "Total", len(records)})
	t.Render()
}
