package commands

import (
	"casestatus-backend/internal/attemptstore"
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/db"
	"casestatus-backend/internal/documents"
	"casestatus-backend/internal/pipeline"
	"casestatus-backend/internal/scrapers/ecourts"
	"casestatus-backend/lib/configutil"
	configlibsql "casestatus-backend/lib/configutil/libsql"
	"casestatus-backend/lib/util/serviceutil"
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

type PortalConfig struct {
	Url string `json:"url"`
	// Headless defaults to true, set it to false to watch the browser.
	Headless       *bool             `json:"headless"`
	Browser        string            `json:"browser"`
	ExecutablePath string            `json:"executable_path"`
	Selectors      ecourts.Selectors `json:"selectors"`

	NavigationTimeoutMs    int `json:"navigation_timeout_ms"`
	ActionTimeoutMs        int `json:"action_timeout_ms"`
	OptionalClickTimeoutMs int `json:"optional_click_timeout_ms"`
}

type DocumentsConfig struct {
	Dir               string  `json:"dir"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	CacheSize         int     `json:"cache_size"`
	CacheTtlSeconds   int     `json:"cache_ttl_seconds"`
	MaxSizeMb         int     `json:"max_size_mb"`
}

type ServerConfig struct {
	Port        int    `json:"port"`
	AccessToken string `json:"access_token"`
	// ProbeCron schedules a reachability check of the portal, empty disables it.
	ProbeCron string `json:"probe_cron"`
}

type Config struct {
	Portal       PortalConfig        `json:"portal"`
	Database     configlibsql.Struct `json:"database"`
	Documents    DocumentsConfig     `json:"documents"`
	Server       ServerConfig        `json:"server"`
	Telemetry    telemetry.Config    `json:"telemetry"`
	HistoryLimit int                 `json:"history_limit"`
}

func defaultConfig() Config {
	headless := true
	return Config{
		Portal: PortalConfig{
			Url:                    "https://districts.ecourts.gov.in/faridabad",
			Headless:               &headless,
			Browser:                "chromium",
			Selectors:              ecourts.DefaultSelectors(),
			NavigationTimeoutMs:    30_000,
			ActionTimeoutMs:        10_000,
			OptionalClickTimeoutMs: 3_000,
		},
		Database: configlibsql.Struct{
			File: "<dev_state>/court_queries.db",
		},
		Documents: DocumentsConfig{
			Dir:               "documents",
			RequestsPerSecond: 2,
			CacheSize:         64,
			CacheTtlSeconds:   15 * 60,
			MaxSizeMb:         25,
		},
		Server: ServerConfig{
			Port:      8000,
			ProbeCron: "@every 15m",
		},
		HistoryLimit: 10,
	}
}

// loadConfig reads the config file if there is one and fills every unset
// field with its default.
func loadConfig() Config {
	config, err := configutil.ReadConfig[Config](*configPath)
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	config, err = configutil.WithDefaults(config, defaultConfig())
	if err != nil {
		serviceutil.Fatal("apply config defaults", err)
	}
	return config
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// app holds everything a command needs to run attempts.
type app struct {
	config       Config
	database     *sql.DB
	store        attemptstore.Store
	orchestrator pipeline.Orchestrator
	fetcher      documents.Fetcher
	clock        chrono.API
	tel          telemetry.API
	otel         telemetry.Telemetry
}

const report_app_close = "app.close"

func openApp() *app {
	config := loadConfig()
	tel := telemetry.SlogAPI{}

	clock, err := chrono.NewStandardImpl()
	if err != nil {
		serviceutil.Fatal("load portal timezone", err)
	}

	database, err := config.Database.OpenDB(db.Schema)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	store := attemptstore.NewStore(database, tel)

	browser := ecourts.NewPlaywrightBrowser(ecourts.PlaywrightOptions{
		Browser:           config.Portal.Browser,
		Headless:          *config.Portal.Headless,
		ExecutablePath:    config.Portal.ExecutablePath,
		NavigationTimeout: millis(config.Portal.NavigationTimeoutMs),
		ActionTimeout:     millis(config.Portal.ActionTimeoutMs),
	}, tel)

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Browser: browser,
		Driver: ecourts.NewDriver(ecourts.DriverOptions{
			PortalUrl:            config.Portal.Url,
			Selectors:            config.Portal.Selectors,
			OptionalClickTimeout: millis(config.Portal.OptionalClickTimeoutMs),
		}, tel),
		Extractor: ecourts.NewExtractor(config.Portal.Selectors, tel),
		Log:       store,
		Clock:     clock,
	}, tel)

	fetcher := documents.NewFetcher(documents.Options{
		RequestsPerSecond: config.Documents.RequestsPerSecond,
		CacheSize:         config.Documents.CacheSize,
		CacheTTL:          time.Duration(config.Documents.CacheTtlSeconds) * time.Second,
		MaxSize:           int64(config.Documents.MaxSizeMb) << 20,
		Timeout:           millis(config.Portal.NavigationTimeoutMs),
	}, tel)

	return &app{
		config:       config,
		database:     database,
		store:        store,
		orchestrator: orchestrator,
		fetcher:      fetcher,
		clock:        clock,
		tel:          tel,
	}
}

// instrument exports traces and metrics to the endpoints in the telemetry
// section, the portal and browser in use are attached to every signal.
func (a *app) instrument(ctx context.Context) error {
	otel, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: "casestatus",
		Attributes: map[string]string{
			"casestatus.portal.url": a.config.Portal.Url,
			"casestatus.browser":    a.config.Portal.Browser,
		},
		Config: a.config.Telemetry,
	}, a.tel)
	if err != nil {
		return err
	}
	a.otel = otel
	return nil
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.otel.Shutdown(ctx)
	if err != nil {
		a.tel.ReportWarning(report_app_close, fmt.Errorf("flush telemetry: %w", err))
	}
	a.database.Close()
}
