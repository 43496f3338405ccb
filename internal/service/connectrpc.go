package service

import (
	"casestatus-backend/internal/pipeline"
	"casestatus-backend/internal/scrapers/ecourts"
	"casestatus-backend/lib/util/serviceutil"
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	ServiceName = "casestatus.v1.CaseStatusService"

	FetchCaseProcedure  = "/" + ServiceName + "/FetchCase"
	HistoryProcedure    = "/" + ServiceName + "/History"
	GetOptionsProcedure = "/" + ServiceName + "/GetOptions"
)

func (s Service) fetchCaseRpc(ctx context.Context, req *connect.Request[ecourts.CaseQuery]) (*connect.Response[pipeline.Outcome], error) {
	outcome := s.FetchCase(ctx, *req.Msg)
	return connect.NewResponse(&outcome), nil
}

func (s Service) historyRpc(ctx context.Context, req *connect.Request[HistoryRequest]) (*connect.Response[HistoryResponse], error) {
	res, err := s.History(ctx, *req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&res), nil
}

func (s Service) getOptionsRpc(ctx context.Context, req *connect.Request[OptionsRequest]) (*connect.Response[OptionsResponse], error) {
	res := s.Options(ctx)
	return connect.NewResponse(&res), nil
}

// NewHandler returns the path and handler of the connect service, the
// interceptors given are applied to every procedure.
func NewHandler(s Service, interceptors ...connect.Interceptor) (string, http.Handler) {
	opts := []connect.HandlerOption{
		connect.WithCodec(serviceutil.JSONCodec{}),
		connect.WithInterceptors(interceptors...),
	}

	mux := http.NewServeMux()
	mux.Handle(FetchCaseProcedure, connect.NewUnaryHandler(FetchCaseProcedure, s.fetchCaseRpc, opts...))
	mux.Handle(HistoryProcedure, connect.NewUnaryHandler(HistoryProcedure, s.historyRpc, opts...))
	mux.Handle(GetOptionsProcedure, connect.NewUnaryHandler(GetOptionsProcedure, s.getOptionsRpc, opts...))
	return "/" + ServiceName + "/", mux
}
