package db

import (
	"database/sql"
)

type Query struct {
	ID              int64
	Timestamp       string
	CaseType        string
	CaseNumber      string
	FilingYear      string
	Status          string
	ErrorMessage    sql.NullString
	PartiesNames    sql.NullString
	FilingDate      sql.NullString
	NextHearingDate sql.NullString
	PdfLinks        sql.NullString
	RawResponseHtml string
}
