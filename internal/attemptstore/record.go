package attemptstore

import (
	"casestatus-backend/internal/db"
	"casestatus-backend/internal/scrapers/ecourts"
	"fmt"
	"time"
)

// Record is the outcome of one attempt. A successful record carries a result
// and no error message, a failed record carries an error message and no result.
type Record struct {
	ID              int64               `json:"id"`
	Timestamp       time.Time           `json:"timestamp"`
	Query           ecourts.CaseQuery   `json:"query"`
	Status          db.Status           `json:"status"`
	ErrorMessage    string              `json:"error_message,omitempty"`
	Result          *ecourts.CaseResult `json:"result,omitempty"`
	RawResponseHtml string              `json:"raw_response_html,omitempty"`
}

func Succeeded(timestamp time.Time, query ecourts.CaseQuery, result ecourts.CaseResult, rawHtml string) Record {
	if result.DocumentLinks == nil {
		result.DocumentLinks = []ecourts.DocumentLink{}
	}
	return Record{
		Timestamp:       timestamp,
		Query:           query,
		Status:          db.STATUS_SUCCESS,
		Result:          &result,
		RawResponseHtml: rawHtml,
	}
}

func Failed(timestamp time.Time, query ecourts.CaseQuery, message, rawHtml string) Record {
	return Record{
		Timestamp:       timestamp,
		Query:           query,
		Status:          db.STATUS_FAILED,
		ErrorMessage:    message,
		RawResponseHtml: rawHtml,
	}
}

// Validate checks the status invariant.
func (r Record) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("record has no timestamp")
	}
	switch r.Status {
	case db.STATUS_SUCCESS:
		if r.Result == nil {
			return fmt.Errorf("successful record has no result")
		}
		if r.ErrorMessage != "" {
			return fmt.Errorf("successful record has an error message")
		}
	case db.STATUS_FAILED:
		if r.Result != nil {
			return fmt.Errorf("failed record has a result")
		}
		if r.ErrorMessage == "" {
			return fmt.Errorf("failed record has no error message")
		}
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}
