package service

import (
	"casestatus-backend/internal/scrapers/ecourts"
	"casestatus-backend/lib/util/serviceutil"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
)

// RegisterRoutes mounts the plain form and json endpoints used by the
// dashboard page next to the connect service.
func RegisterRoutes(mux *http.ServeMux, s Service, accessToken string) {
	mux.Handle("POST /fetch_case", serviceutil.RequireAccessToken(accessToken, http.HandlerFunc(s.handleFetchCase)))
	mux.Handle("GET /history", serviceutil.RequireAccessToken(accessToken, http.HandlerFunc(s.handleHistory)))
	mux.Handle("GET /options", serviceutil.RequireAccessToken(accessToken, http.HandlerFunc(s.handleOptions)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func (s Service) writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		s.tel.ReportWarning(report_service_write, fmt.Errorf("write response: %w", err))
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func decodeCaseQuery(r *http.Request) (ecourts.CaseQuery, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var query ecourts.CaseQuery
		err := json.NewDecoder(r.Body).Decode(&query)
		return query, err
	}

	err := r.ParseForm()
	if err != nil {
		return ecourts.CaseQuery{}, err
	}
	return ecourts.CaseQuery{
		CaseType:   r.PostForm.Get("caseType"),
		CaseNumber: r.PostForm.Get("caseNumber"),
		FilingYear: r.PostForm.Get("filingYear"),
	}, nil
}

func (s Service) handleFetchCase(w http.ResponseWriter, r *http.Request) {
	query, err := decodeCaseQuery(r)
	if err != nil {
		s.tel.ReportDebug("malformed fetch request", err)
		s.writeJson(w, http.StatusBadRequest, errorBody{Message: fmt.Sprintf("Malformed request: %s.", err)})
		return
	}
	s.writeJson(w, http.StatusOK, s.FetchCase(r.Context(), query))
}

func (s Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	req := HistoryRequest{}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			s.writeJson(w, http.StatusBadRequest, errorBody{Message: "limit must be an integer."})
			return
		}
		req.Limit = parsed
	}
	req.IncludeRaw = r.URL.Query().Get("raw") == "1"

	res, err := s.History(r.Context(), req)
	if err != nil {
		s.writeJson(w, http.StatusInternalServerError, errorBody{Message: "Could not read history."})
		return
	}
	s.writeJson(w, http.StatusOK, res)
}

func (s Service) handleOptions(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, s.Options(r.Context()))
}
