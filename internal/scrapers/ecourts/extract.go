package ecourts

import (
	"casestatus-backend/internal/components/assert"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/lib/htmlutil"
	"casestatus-backend/lib/textutil"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_extractor_order_row   = "extractor.order-row"
	report_extractor_order_date  = "extractor.order-date"
	report_extractor_order_links = "extractor.order-links"
)

// MaxDocumentLinks is the number of most recent document links kept per case.
const MaxDocumentLinks = 3

// ErrNotFound is returned when the portal reports that no case matches the query.
// It is an expected outcome, not a fault.
var ErrNotFound = errors.New("no case found")

// ExtractionError means the result page does not have the structure the
// extractor expects, usually because the portal's layout has changed.
type ExtractionError struct {
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

var errLabelNotFound = errors.New("label not found")

// Extractor parses the result page rendered after a search.
type Extractor struct {
	sel Selectors
	tel telemetry.API
}

func NewExtractor(sel Selectors, tel telemetry.API) Extractor {
	assert.NotNil(tel)
	assert.NotEmpty(sel.NotFoundMarkers, "not found markers")
	return Extractor{
		sel: sel,
		tel: telemetry.NewScopedAPI("ecourts", tel),
	}
}

// IsNotFound reports whether the page contains one of the portal's "no record"
// messages.
func (e Extractor) IsNotFound(html string) bool {
	for _, marker := range e.sel.NotFoundMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}

// Extract returns the case details on the result page, pageUrl is used to
// resolve relative document links.
func (e Extractor) Extract(html, pageUrl string) (CaseResult, error) {
	if e.IsNotFound(html) {
		return CaseResult{}, ErrNotFound
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CaseResult{}, &ExtractionError{Field: "document", Err: err}
	}

	var base *url.URL
	if pageUrl != "" {
		base, err = url.Parse(pageUrl)
		if err != nil {
			return CaseResult{}, &ExtractionError{Field: "page url", Err: err}
		}
	}

	labels := []string{
		e.sel.PetitionerLabel,
		e.sel.RespondentLabel,
		e.sel.FilingDateLabel,
		e.sel.NextHearingLabel,
	}
	values := make([]string, len(labels))
	for i, label := range labels {
		value, err := labeledValue(doc, label)
		if err != nil {
			return CaseResult{}, &ExtractionError{Field: label, Err: err}
		}
		values[i] = value
	}

	links := e.documentLinks(doc, base)
	e.tel.ReportCount(report_extractor_order_links, int64(len(links)))

	return CaseResult{
		PartiesNames:    fmt.Sprintf("Petitioner: %s, Respondent: %s", values[0], values[1]),
		FilingDate:      values[2],
		NextHearingDate: values[3],
		DocumentLinks:   TopDocumentLinks(links, MaxDocumentLinks),
	}, nil
}

// labeledValue finds the first cell whose own text contains label and returns
// the text of the cell that follows it.
func labeledValue(doc *goquery.Document, label string) (string, error) {
	var labelCell *goquery.Selection
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if textutil.ContainsLabel(htmlutil.OwnText(td.Nodes[0]), label) {
			labelCell = td
			return false
		}
		return true
	})
	if labelCell == nil {
		return "", errLabelNotFound
	}

	valueCell := labelCell.NextAllFiltered("td").First()
	if valueCell.Length() == 0 {
		return "", fmt.Errorf("no value cell after label")
	}
	return htmlutil.SelectionText(valueCell), nil
}

func (e Extractor) documentLinks(doc *goquery.Document, base *url.URL) []DocumentLink {
	links := []DocumentLink{}
	doc.Find(e.sel.OrderRows).Each(func(i int, row *goquery.Selection) {
		anchors := htmlutil.GetAnchors(base, row.Find(e.sel.OrderLink).First())
		if len(anchors) == 0 {
			e.tel.ReportDebug("order row without document link", i)
			return
		}
		href := anchors[0].Href
		if href == "" {
			e.tel.ReportWarning(report_extractor_order_row, fmt.Errorf("empty document link"), i)
			return
		}

		date := htmlutil.SelectionText(row.Find(e.sel.OrderDate).First())
		if date == "" {
			e.tel.ReportWarning(report_extractor_order_date, fmt.Errorf("order date missing"), href)
			date = UnknownDate
		}
		links = append(links, DocumentLink{Date: date, Url: href})
	})
	return links
}

var orderDateRegex = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)

// ParseOrderDate parses text as a DD-MM-YYYY date, surrounding whitespace is
// ignored. Anything else in the cell makes the date unparsable.
func ParseOrderDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if !orderDateRegex.MatchString(text) {
		return time.Time{}, false
	}
	parsed, err := time.Parse("02-01-2006", text)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// TopDocumentLinks returns at most limit links, most recent first. Links
// without a parsable date are ranked after every dated link, links with equal
// dates keep their page order.
func TopDocumentLinks(links []DocumentLink, limit int) []DocumentLink {
	type ranked struct {
		link DocumentLink
		date time.Time
	}

	rankedLinks := make([]ranked, len(links))
	for i, link := range links {
		date, _ := ParseOrderDate(link.Date)
		rankedLinks[i] = ranked{link: link, date: date}
	}
	slices.SortStableFunc(rankedLinks, func(a, b ranked) int {
		return b.date.Compare(a.date)
	})

	out := []DocumentLink{}
	for _, r := range rankedLinks {
		if len(out) >= limit {
			break
		}
		out = append(out, r.link)
	}
	return out
}
