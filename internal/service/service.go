package service

import (
	"casestatus-backend/internal/attemptstore"
	"casestatus-backend/internal/components/assert"
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/pipeline"
	"casestatus-backend/internal/scrapers/ecourts"
	"context"
)

const (
	report_service_history = "service.history"
	report_service_write   = "service.write"
)

// the portal's year dropdown only goes back this far
const filingYearCount = 20

// Fetcher runs attempts, it is implemented by pipeline.Orchestrator.
//
// note: fault injection point
type Fetcher interface {
	Fetch(ctx context.Context, query ecourts.CaseQuery) pipeline.Outcome
}

// History reads back persisted attempts, it is implemented by attemptstore.Store.
type History interface {
	Recent(ctx context.Context, n int) ([]attemptstore.Record, error)
}

type HistoryRequest struct {
	Limit      int  `json:"limit"`
	IncludeRaw bool `json:"include_raw"`
}

type HistoryResponse struct {
	Records []attemptstore.Record `json:"records"`
}

type OptionsRequest struct{}

type OptionsResponse struct {
	CaseTypes   []string `json:"case_types"`
	FilingYears []int    `json:"filing_years"`
}

// Service implements casestatus.v1.CaseStatusService
type Service struct {
	fetcher      Fetcher
	history      History
	clock        chrono.API
	historyLimit int
	tel          telemetry.API
}

type serviceConfig struct {
	historyLimit int
	tel          telemetry.API
}

type ServiceOption func(cfg *serviceConfig)

// WithHistoryLimit sets the number of records returned by History when the
// request does not ask for a specific number.
func WithHistoryLimit(limit int) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.historyLimit = limit
	}
}

func WithCustomTelemetryAPI(tel telemetry.API) ServiceOption {
	return func(cfg *serviceConfig) {
		cfg.tel = tel
	}
}

func NewService(fetcher Fetcher, history History, clock chrono.API, options ...ServiceOption) Service {
	assert.NotNil(fetcher)
	assert.NotNil(history)
	assert.NotNil(clock)

	cfg := serviceConfig{
		historyLimit: 10,
		tel:          telemetry.SlogAPI{},
	}
	for _, opt := range options {
		opt(&cfg)
	}
	assert.Positive(cfg.historyLimit, "history limit")

	return Service{
		fetcher:      fetcher,
		history:      history,
		clock:        clock,
		historyLimit: cfg.historyLimit,
		tel:          telemetry.NewScopedAPI("service", cfg.tel),
	}
}

// FetchCase runs one attempt, failures are reported in the outcome rather than
// as an error.
func (s Service) FetchCase(ctx context.Context, query ecourts.CaseQuery) pipeline.Outcome {
	return s.fetcher.Fetch(ctx, query)
}

// History returns the latest attempts, newest first. Raw response html is
// left out unless asked for since it dwarfs everything else.
func (s Service) History(ctx context.Context, req HistoryRequest) (HistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}

	records, err := s.history.Recent(ctx, limit)
	if err != nil {
		s.tel.ReportBroken(report_service_history, err)
		return HistoryResponse{}, err
	}
	if !req.IncludeRaw {
		for i := range records {
			records[i].RawResponseHtml = ""
		}
	}
	return HistoryResponse{Records: records}, nil
}

// Options returns the values offered by the search form's dropdowns.
func (s Service) Options(ctx context.Context) OptionsResponse {
	return OptionsResponse{
		CaseTypes:   ecourts.CaseTypes,
		FilingYears: chrono.FilingYears(s.clock, filingYearCount),
	}
}
