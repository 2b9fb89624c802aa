package database

// ScrapeDateLayout is how scrape_date is rendered in the store and in exports
const ScrapeDateLayout = "2006-01-02 15:04:05"

// CaseRecord is one judgment row discovered on the portal's result table
type CaseRecord struct {
	PDFID       string `json:"pdf_id" gorm:"column:pdf_id;primaryKey;not null"`
	SerialNo    string `json:"serial_no" gorm:"column:serial_no"`
	CaseDetails string `json:"case_details" gorm:"column:case_details"`
	JudgeName   string `json:"judge_name" gorm:"column:judge_name"`
	OrderDate   string `json:"order_date" gorm:"column:order_date"`
	PDFFile     string `json:"pdf_file" gorm:"column:pdf_file"`
	ScrapeDate  string `json:"scrape_date" gorm:"column:scrape_date"`
}

func (CaseRecord) TableName() string {
	return "scraped_pdfs"
}

// Validate reports fields a record cannot be stored without
func (r CaseRecord) Validate() error {
	if r.PDFID == "" {
		return errMissingField("pdf_id")
	}
	return nil
}

// SeenSet holds every pdf_id already captured. It is owned by a single scrape pass.
type SeenSet map[string]struct{}

func NewSeenSet(ids ...string) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s SeenSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s SeenSet) Add(id string) {
	s[id] = struct{}{}
}

func (s SeenSet) Len() int {
	return len(s)
}
