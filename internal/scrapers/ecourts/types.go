package ecourts

import (
	"casestatus-backend/lib/textutil"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CaseTypes are the case types offered by the portal's case type dropdown.
var CaseTypes = []string{
	"CIVIL APPEAL",
	"CRIMINAL APPEAL",
	"CIVIL MISC. APPLICATION",
	"CRIMINAL MISC. APPLICATION",
	"SUIT",
	"EXECUTION PETITION",
}

// CaseQuery identifies a case on the portal, all fields are required.
type CaseQuery struct {
	CaseType   string `json:"caseType"`
	CaseNumber string `json:"caseNumber"`
	FilingYear string `json:"filingYear"`
}

// Normalize trims the surrounding whitespace of every field.
func (q CaseQuery) Normalize() CaseQuery {
	return CaseQuery{
		CaseType:   strings.TrimSpace(q.CaseType),
		CaseNumber: strings.TrimSpace(q.CaseNumber),
		FilingYear: strings.TrimSpace(q.FilingYear),
	}
}

var ErrMissingFields = errors.New("missing required fields")

// UnknownCaseTypeError is returned by Validate when the case type is not one
// of CaseTypes.
type UnknownCaseTypeError struct {
	CaseType   string
	Suggestion string
}

func (e *UnknownCaseTypeError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("unknown case type %q", e.CaseType)
	}
	return fmt.Sprintf("unknown case type %q, did you mean %q", e.CaseType, e.Suggestion)
}

// suggestions below this similarity are more confusing than helpful
const minSuggestionSimilarity = 0.8

// Validate checks that every field is present and that the case type is known.
func (q CaseQuery) Validate() error {
	if q.CaseType == "" || q.CaseNumber == "" || q.FilingYear == "" {
		return ErrMissingFields
	}
	if slices.Contains(CaseTypes, q.CaseType) {
		return nil
	}
	suggestion, similarity := textutil.ClosestMatch(q.CaseType, CaseTypes)
	if similarity < minSuggestionSimilarity {
		suggestion = ""
	}
	return &UnknownCaseTypeError{CaseType: q.CaseType, Suggestion: suggestion}
}

// UnknownDate is the date given to a document link whose row has no order date.
const UnknownDate = "Unknown Date"

type DocumentLink struct {
	Date string `json:"date"`
	Url  string `json:"url"`
}

type CaseResult struct {
	PartiesNames    string         `json:"parties_names"`
	FilingDate      string         `json:"filing_date"`
	NextHearingDate string         `json:"next_hearing_date"`
	DocumentLinks   []DocumentLink `json:"pdf_links"`
}

// RenderedPage is the result page as the browser rendered it after the search
// was submitted.
type RenderedPage struct {
	Url  string
	Html string
}
