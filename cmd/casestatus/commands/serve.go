package commands

import (
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/service"
	"casestatus-backend/lib/util/serviceutil"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the case status api over http.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app := openApp()
		defer app.Close()

		err := app.instrument(ctx)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		telemetry.InstrumentPerfStats(ctx, app.tel)

		if app.config.Server.ProbeCron != "" {
			cron := chrono.NewStandardCron(app.clock, app.tel)
			defer cron.Stop()

			err := cron.Cron(app.config.Server.ProbeCron, func() {
				ctx, cancel := context.WithTimeout(ctx, time.Minute)
				defer cancel()
				result, err := app.fetcher.Probe(ctx, app.config.Portal.Url)
				if err != nil || !result.Reachable() {
					return
				}
				app.tel.ReportDebug("portal reachable", result.Status, result.Elapsed)
			})
			if err != nil {
				return fmt.Errorf("schedule portal probe: %w", err)
			}
		}

		svc := service.NewService(
			app.orchestrator,
			app.store,
			app.clock,
			service.WithHistoryLimit(app.config.HistoryLimit),
			service.WithCustomTelemetryAPI(app.tel),
		)

		mux := http.NewServeMux()
		service.RegisterRoutes(mux, svc, app.config.Server.AccessToken)
		mux.Handle(service.NewHandler(
			svc,
			serviceutil.NewConnectOtelInterceptor(),
			serviceutil.VerifyAccessTokenInterceptor(app.config.Server.AccessToken),
		))

		return serviceutil.StartHttpServer(ctx, app.config.Server.Port, mux)
	},
}
