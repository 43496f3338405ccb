// Kept in the layout sqlc generates from query.sql. It is maintained by hand,
// TestQueriesMatchSource keeps it in sync with query.sql.

package db

import (
	"context"
	"database/sql"
)

const countQueries = `-- name: CountQueries :one
select count(*) from queries
`

func (q *Queries) CountQueries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countQueries)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createQuery = `-- name: CreateQuery :one
insert into queries (
    timestamp, case_type, case_number, filing_year, status, error_message,
    parties_names, filing_date, next_hearing_date, pdf_links, raw_response_html
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreateQueryParams struct {
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

func (q *Queries) CreateQuery(ctx context.Context, arg CreateQueryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createQuery,
		arg.Timestamp,
		arg.CaseType,
		arg.CaseNumber,
		arg.FilingYear,
		arg.Status,
		arg.ErrorMessage,
		arg.PartiesNames,
		arg.FilingDate,
		arg.NextHearingDate,
		arg.PdfLinks,
		arg.RawResponseHtml,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getLatestSuccess = `-- name: GetLatestSuccess :one
select id, timestamp, case_type, case_number, filing_year, status, error_message, parties_names, filing_date, next_hearing_date, pdf_links, raw_response_html from queries
where case_type = ? and case_number = ? and filing_year = ? and status = 'SUCCESS'
order by timestamp desc, id desc
limit 1
`

type GetLatestSuccessParams struct {
	CaseType   string
	CaseNumber string
	FilingYear string
}

func (q *Queries) GetLatestSuccess(ctx context.Context, arg GetLatestSuccessParams) (Query, error) {
	row := q.db.QueryRowContext(ctx, getLatestSuccess, arg.CaseType, arg.CaseNumber, arg.FilingYear)
	var i Query
	err := row.Scan(
		&i.ID,
		&i.Timestamp,
		&i.CaseType,
		&i.CaseNumber,
		&i.FilingYear,
		&i.Status,
		&i.ErrorMessage,
		&i.PartiesNames,
		&i.FilingDate,
		&i.NextHearingDate,
		&i.PdfLinks,
		&i.RawResponseHtml,
	)
	return i, err
}

const getRecentQueries = `-- name: GetRecentQueries :many
select id, timestamp, case_type, case_number, filing_year, status, error_message, parties_names, filing_date, next_hearing_date, pdf_links, raw_response_html from queries
order by timestamp desc, id desc
limit ?
`

func (q *Queries) GetRecentQueries(ctx context.Context, limit int64) ([]Query, error) {
	rows, err := q.db.QueryContext(ctx, getRecentQueries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Query
	for rows.Next() {
		var i Query
		if err := rows.Scan(
			&i.ID,
			&i.Timestamp,
			&i.CaseType,
			&i.CaseNumber,
			&i.FilingYear,
			&i.Status,
			&i.ErrorMessage,
			&i.PartiesNames,
			&i.FilingDate,
			&i.NextHearingDate,
			&i.PdfLinks,
			&i.RawResponseHtml,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
