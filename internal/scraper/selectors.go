package scraper

// Column positions of the display fields in a result row
const (
	colSerialNo = iota
	colCaseDetails
	colJudgeName
	colOrderDate
	minCells
)

// TableSelectors locate the paginated result table
type TableSelectors struct {
	Table           string
	Rows            string
	Cells           string
	DownloadControl string
	CaseNumberAttr  string
	OrderNumberAttr string
	YearAttr        string
	Next            string
	PageInfo        string // pager text that changes on every page turn
	NoResults       string
}

// FormSelectors locate the search form and CAPTCHA widgets
type FormSelectors struct {
	FromDate        string
	ToDate          string
	ReportableRadio string // formatted with the option value
	CaptchaImage    string
	CaptchaInput    string
	CaptchaRefresh  string
	Submit          string
	ErrorMessage    string
}

// Selectors groups every selector used against the portal
type Selectors struct {
	Table TableSelectors
	Form  FormSelectors
}

// DefaultSelectors matches the judgment search portal layout
func DefaultSelectors() Selectors {
	return Selectors{
		Table: TableSelectors{
			Table:           "table#example_pdf",
			Rows:            "tbody tr",
			Cells:           "td",
			DownloadControl: "[data-case-no]",
			CaseNumberAttr:  "data-case-no",
			OrderNumberAttr: "data-order-no",
			YearAttr:        "data-year",
			Next:            "#example_pdf_next",
			PageInfo:        "#example_pdf_info",
			NoResults:       ".dataTables_empty, #no_records",
		},
		Form: FormSelectors{
			FromDate:        "#from_date",
			ToDate:          "#to_date",
			ReportableRadio: "input[name='reportable'][value='%s']",
			CaptchaImage:    "#captcha_image",
			CaptchaInput:    "#captcha",
			CaptchaRefresh:  "#captcha_image_audio_refresh, a[onclick*='refresh']",
			Submit:          "#main_search",
			ErrorMessage:    ".alert-danger, #errorMsg, span.error",
		},
	}
}
