package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// PortalDateLayout is the dd/mm/yyyy format the search form expects
const PortalDateLayout = "02/01/2006"

// Option is the "reportable judgment" filter
type Option string

const (
	OptionYes Option = "Yes"
	OptionNo  Option = "No"
	OptionAll Option = "All"
)

// ParseOption accepts Yes, No or All in any case. Empty means Yes, the
// form's preselected choice.
func ParseOption(s string) (Option, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "":
		return OptionYes, nil
	case "no", "n":
		return OptionNo, nil
	case "all":
		return OptionAll, nil
	}
	return "", fmt.Errorf("invalid reportable option %q (want Yes, No or All)", s)
}

// Filters are the search form values of one scrape
type Filters struct {
	From   time.Time
	To     time.Time
	Option Option
}

// NewFilters builds a window that ends on to and starts lookbackDays earlier
func NewFilters(to time.Time, lookbackDays int, option Option) Filters {
	return Filters{
		From:   to.AddDate(0, 0, -lookbackDays),
		To:     to,
		Option: option,
	}
}

func (f Filters) FromString() string {
	return f.From.Format(PortalDateLayout)
}

func (f Filters) ToString() string {
	return f.To.Format(PortalDateLayout)
}

var (
	spaceRun = regexp.MustCompile(`\s+`)
	dayNames = regexp.MustCompile(`(?i)(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s*`)
)

// ParseDate parses the date formats operators and Indian court portals use
func ParseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	dateStr = spaceRun.ReplaceAllString(dateStr, " ")

	formats := []string{
		"02/01/2006",
		"02-01-2006",
		"02.01.2006",
		"2006-01-02",
		"02-Jan-2006",
		"02 Jan 2006",
		"02 January 2006",
		"Jan 02, 2006",
		"January 02, 2006",
	}

	for _, candidate := range []string{dateStr, dayNames.ReplaceAllString(dateStr, "")} {
		for _, format := range formats {
			if date, err := time.Parse(format, candidate); err == nil {
				return date, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
