package attemptstore

import (
	"casestatus-backend/internal/components/assert"
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/db"
	"casestatus-backend/internal/scrapers/ecourts"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	report_store_decode_timestamp = "store.decode-timestamp"
	report_store_decode_links     = "store.decode-links"
)

// Store is the append-only log of attempts. Rows are never updated or deleted,
// so concurrent writers only ever contend on inserts.
type Store struct {
	qry *db.Queries
	tel telemetry.API
}

func NewStore(database *sql.DB, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(tel)
	return Store{
		qry: db.New(database),
		tel: telemetry.NewScopedAPI("attemptstore", tel),
	}
}

func nullString(value string, valid bool) sql.NullString {
	return sql.NullString{String: value, Valid: valid}
}

// Append writes the record and returns its assigned id.
func (s Store) Append(ctx context.Context, record Record) (int64, error) {
	err := record.Validate()
	if err != nil {
		return 0, fmt.Errorf("invalid record: %w", err)
	}

	params := db.CreateQueryParams{
		Timestamp:       chrono.Timestamp(record.Timestamp),
		CaseType:        record.Query.CaseType,
		CaseNumber:      record.Query.CaseNumber,
		FilingYear:      record.Query.FilingYear,
		Status:          string(record.Status),
		RawResponseHtml: record.RawResponseHtml,
	}
	if record.Status == db.STATUS_FAILED {
		params.ErrorMessage = nullString(record.ErrorMessage, true)
	}
	if record.Result != nil {
		links, err := json.Marshal(record.Result.DocumentLinks)
		if err != nil {
			return 0, fmt.Errorf("encode document links: %w", err)
		}
		params.PartiesNames = nullString(record.Result.PartiesNames, true)
		params.FilingDate = nullString(record.Result.FilingDate, true)
		params.NextHearingDate = nullString(record.Result.NextHearingDate, true)
		params.PdfLinks = nullString(string(links), true)
	}

	id, err := s.qry.CreateQuery(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

func (s Store) decode(row db.Query) Record {
	timestamp, err := time.Parse(chrono.TimestampLayout, row.Timestamp)
	if err != nil {
		s.tel.ReportWarning(report_store_decode_timestamp, err, row.ID)
	}

	record := Record{
		ID:        row.ID,
		Timestamp: timestamp,
		Query: ecourts.CaseQuery{
			CaseType:   row.CaseType,
			CaseNumber: row.CaseNumber,
			FilingYear: row.FilingYear,
		},
		Status:          db.Status(row.Status),
		ErrorMessage:    row.ErrorMessage.String,
		RawResponseHtml: row.RawResponseHtml,
	}
	if record.Status != db.STATUS_SUCCESS {
		return record
	}

	links := []ecourts.DocumentLink{}
	if row.PdfLinks.Valid && row.PdfLinks.String != "" {
		err = json.Unmarshal([]byte(row.PdfLinks.String), &links)
		if err != nil {
			s.tel.ReportWarning(report_store_decode_links, err, row.ID)
			links = []ecourts.DocumentLink{}
		}
	}
	record.Result = &ecourts.CaseResult{
		PartiesNames:    row.PartiesNames.String,
		FilingDate:      row.FilingDate.String,
		NextHearingDate: row.NextHearingDate.String,
		DocumentLinks:   links,
	}
	return record
}

// Recent returns the latest n records, newest first.
func (s Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		return []Record{}, nil
	}
	rows, err := s.qry.GetRecentQueries(ctx, int64(n))
	if err != nil {
		return nil, fmt.Errorf("recent attempts: %w", err)
	}
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = s.decode(row)
	}
	return records, nil
}

// LatestSuccess returns the newest successful record of a case, it returns
// false if the case has never been fetched successfully.
func (s Store) LatestSuccess(ctx context.Context, query ecourts.CaseQuery) (Record, bool, error) {
	row, err := s.qry.GetLatestSuccess(ctx, db.GetLatestSuccessParams{
		CaseType:   query.CaseType,
		CaseNumber: query.CaseNumber,
		FilingYear: query.FilingYear,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("latest success: %w", err)
	}
	return s.decode(row), true, nil
}

func (s Store) Count(ctx context.Context) (int64, error) {
	count, err := s.qry.CountQueries(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}
