package pipeline

import (
	"casestatus-backend/internal/attemptstore"
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/db"
	"casestatus-backend/internal/scrapers/ecourts"
	"casestatus-backend/internal/scrapers/ecourts/ecourtstest"
	configlibsql "casestatus-backend/lib/configutil/libsql"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const portalUrl = "https://court.example/case-status"

var civilAppeal = ecourts.CaseQuery{
	CaseType:   "CIVIL APPEAL",
	CaseNumber: "123",
	FilingYear: "2023",
}

type fixture struct {
	browser *ecourtstest.Browser
	page    *ecourtstest.Page
	store   attemptstore.Store
	tel     *telemetry.RecorderAPI
}

func (f fixture) orchestrator(log AttemptLog) Orchestrator {
	sel := ecourts.DefaultSelectors()
	return NewOrchestrator(Options{
		Browser:   f.browser,
		Driver:    ecourts.NewDriver(ecourts.DriverOptions{PortalUrl: portalUrl, Selectors: sel}, f.tel),
		Extractor: ecourts.NewExtractor(sel, f.tel),
		Log:       log,
		Clock: &chrono.FixedImpl{
			Current: time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
			Step:    time.Second,
		},
	}, f.tel)
}

func (f fixture) count(t testing.TB) int64 {
	count, err := f.store.Count(context.Background())
	require.NoError(t, err)
	return count
}

func setup(t testing.TB, html string) fixture {
	database, err := configlibsql.Struct{File: ":memory:"}.OpenDB(db.Schema)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	tel := telemetry.NewRecorderAPI()
	page := &ecourtstest.Page{
		PageUrl: portalUrl + "/result",
		Html:    html,
		Texts:   map[string]string{"#captcha": "7 + 5 ="},
		Errors:  map[string]error{},
	}
	return fixture{
		browser: &ecourtstest.Browser{Page: page},
		page:    page,
		store:   attemptstore.NewStore(database, tel),
		tel:     tel,
	}
}

var foundPage = ecourtstest.ResultPage(
	"Ramesh Kumar",
	"State of Haryana",
	"10-02-2023",
	"22-11-2024",
	[2]string{"15-01-2023", "/orders/first.pdf"},
	[2]string{"01-03-2024", "/orders/second.pdf"},
)

func TestFetchSuccess(t *testing.T) {
	f := setup(t, foundPage)

	outcome := f.orchestrator(f.store).Fetch(context.Background(), civilAppeal)
	require.True(t, outcome.Success, outcome.Message)
	require.Equal(t, KIND_NONE, outcome.Kind)
	require.Empty(t, outcome.Message)
	require.NotZero(t, outcome.RecordID)

	filled, ok := f.page.Filled("#captcha_code")
	require.True(t, ok)
	require.Equal(t, "12", filled)

	expected := &ecourts.CaseResult{
		PartiesNames:    "Petitioner: Ramesh Kumar, Respondent: State of Haryana",
		FilingDate:      "10-02-2023",
		NextHearingDate: "22-11-2024",
		DocumentLinks: []ecourts.DocumentLink{
			{Date: "01-03-2024", Url: "https://court.example/orders/second.pdf"},
			{Date: "15-01-2023", Url: "https://court.example/orders/first.pdf"},
		},
	}
	if diff := cmp.Diff(expected, outcome.Data); diff != "" {
		t.Fatal("unexpected result (-want +got)\n", diff)
	}

	records, err := f.store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, outcome.RecordID, records[0].ID)
	require.Equal(t, db.STATUS_SUCCESS, records[0].Status)
	require.Empty(t, records[0].ErrorMessage)
	require.Equal(t, foundPage, records[0].RawResponseHtml)
	if diff := cmp.Diff(expected, records[0].Result); diff != "" {
		t.Fatal("unexpected persisted result (-want +got)\n", diff)
	}

	require.Equal(t, 1, f.browser.Opened())
	require.Equal(t, 1, f.browser.Closed())
}

func TestFetchNotFound(t *testing.T) {
	f := setup(t, ecourtstest.NotFoundPage)

	outcome := f.orchestrator(f.store).Fetch(context.Background(), civilAppeal)
	require.False(t, outcome.Success)
	require.Equal(t, KIND_NOT_FOUND, outcome.Kind)
	require.Equal(t, STATE_EXTRACTING, outcome.FailedIn)
	require.Equal(t, "No case found for the given details.", outcome.Message)
	require.Nil(t, outcome.Data)

	records, err := f.store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, db.STATUS_FAILED, records[0].Status)
	require.Equal(t, "No case found for the given details.", records[0].ErrorMessage)
	require.Nil(t, records[0].Result)
	require.Equal(t, ecourtstest.NotFoundPage, records[0].RawResponseHtml)

	require.Equal(t, 1, f.browser.Closed())
}

func TestFetchValidation(t *testing.T) {
	cases := []struct {
		name    string
		query   ecourts.CaseQuery
		message string
	}{
		{
			name:    "missing case type",
			query:   ecourts.CaseQuery{CaseNumber: "123", FilingYear: "2023"},
			message: "All fields are required.",
		},
		{
			name:    "missing case number",
			query:   ecourts.CaseQuery{CaseType: "SUIT", CaseNumber: "   ", FilingYear: "2023"},
			message: "All fields are required.",
		},
		{
			name:    "missing filing year",
			query:   ecourts.CaseQuery{CaseType: "SUIT", CaseNumber: "1"},
			message: "All fields are required.",
		},
		{
			name:    "unknown case type",
			query:   ecourts.CaseQuery{CaseType: "CIVIL APEAL", CaseNumber: "1", FilingYear: "2023"},
			message: `Unknown case type "CIVIL APEAL", did you mean "CIVIL APPEAL"?`,
		},
		{
			name:    "unknown case type without suggestion",
			query:   ecourts.CaseQuery{CaseType: "ZZZ", CaseNumber: "1", FilingYear: "2023"},
			message: `Unknown case type "ZZZ".`,
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			f := setup(t, foundPage)

			outcome := f.orchestrator(f.store).Fetch(context.Background(), testCase.query)
			require.False(t, outcome.Success)
			require.Equal(t, KIND_VALIDATION, outcome.Kind)
			require.Equal(t, testCase.message, outcome.Message)
			require.Zero(t, outcome.RecordID)

			require.Zero(t, f.browser.Opened())
			require.Empty(t, f.page.Actions())
			require.EqualValues(t, 0, f.count(t))
		})
	}
}

func TestFetchFailureKinds(t *testing.T) {
	cases := []struct {
		name     string
		html     string
		mutate   func(page *ecourtstest.Page)
		kind     Kind
		failedIn State
		message  string
	}{
		{
			name: "unreachable portal",
			html: foundPage,
			mutate: func(page *ecourtstest.Page) {
				page.GotoErr = errors.New("net::ERR_CONNECTION_REFUSED")
			},
			kind:     KIND_NAVIGATION,
			failedIn: STATE_NAVIGATING,
			message:  "Could not reach court site: goto https://court.example/case-status: net::ERR_CONNECTION_REFUSED.",
		},
		{
			name: "case number field missing",
			html: foundPage,
			mutate: func(page *ecourtstest.Page) {
				page.Errors["#case_no"] = errors.New("element not found")
			},
			kind:     KIND_FORM_FIELD,
			failedIn: STATE_FORM_FILLING,
			message:  "Could not fill the case search form: fill case number: element not found. Site layout might have changed.",
		},
		{
			name: "unparsable captcha",
			html: foundPage,
			mutate: func(page *ecourtstest.Page) {
				page.Texts["#captcha"] = "abc"
			},
			kind:     KIND_CAPTCHA,
			failedIn: STATE_CAPTCHA_SOLVING,
			message:  `CAPTCHA parsing failed: unparsable captcha "abc": no arithmetic expression found. Please manually inspect the CAPTCHA.`,
		},
		{
			name: "submit never settles",
			html: foundPage,
			mutate: func(page *ecourtstest.Page) {
				page.WaitErr = map[ecourts.LoadState]error{
					ecourts.LOAD_NETWORK_IDLE: errors.New("timeout exceeded"),
				}
			},
			kind:     KIND_SUBMISSION,
			failedIn: STATE_SUBMITTING,
			message:  "Could not submit the case search: wait for network idle: timeout exceeded.",
		},
		{
			name:     "changed layout",
			html:     `<html><body><p>Welcome</p></body></html>`,
			mutate:   func(page *ecourtstest.Page) {},
			kind:     KIND_EXTRACTION,
			failedIn: STATE_EXTRACTING,
			message:  "Error parsing results: Petitioner Name: label not found. Site layout might have changed.",
		},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			f := setup(t, testCase.html)
			testCase.mutate(f.page)

			outcome := f.orchestrator(f.store).Fetch(context.Background(), civilAppeal)
			require.False(t, outcome.Success)
			require.Equal(t, testCase.kind, outcome.Kind)
			require.Equal(t, testCase.failedIn, outcome.FailedIn)
			require.Equal(t, testCase.message, outcome.Message)

			records, err := f.store.Recent(context.Background(), 10)
			require.NoError(t, err)
			require.Len(t, records, 1)
			require.Equal(t, db.STATUS_FAILED, records[0].Status)
			require.Equal(t, testCase.message, records[0].ErrorMessage)

			require.Equal(t, 1, f.browser.Opened())
			require.Equal(t, 1, f.browser.Closed())
		})
	}
}

func TestFetchBrowserUnavailable(t *testing.T) {
	f := setup(t, foundPage)
	f.browser.OpenErr = errors.New("executable doesn't exist")

	outcome := f.orchestrator(f.store).Fetch(context.Background(), civilAppeal)
	require.Equal(t, KIND_UNEXPECTED, outcome.Kind)
	require.Equal(t, STATE_INIT, outcome.FailedIn)
	require.Equal(
		t,
		"An unexpected error occurred: open browser: executable doesn't exist. Could not reach court site or internal error.",
		outcome.Message,
	)
	require.EqualValues(t, 1, f.count(t))
	require.Len(t, f.tel.Find(telemetry.REPORT_BROKEN, report_pipeline_attempt), 1)
}

func TestEveryAttemptAddsOneRow(t *testing.T) {
	f := setup(t, ecourtstest.NotFoundPage)
	orchestrator := f.orchestrator(f.store)

	var ids []int64
	for i := 1; i <= 3; i++ {
		outcome := orchestrator.Fetch(context.Background(), civilAppeal)
		require.Equal(t, KIND_NOT_FOUND, outcome.Kind)
		require.EqualValues(t, i, f.count(t))
		ids = append(ids, outcome.RecordID)
	}
	require.Len(t, ids, 3)
	require.NotEqual(t, ids[0], ids[1])
	require.NotEqual(t, ids[1], ids[2])

	f.page.Html = foundPage
	outcome := orchestrator.Fetch(context.Background(), civilAppeal)
	require.True(t, outcome.Success)
	require.EqualValues(t, 4, f.count(t))
	require.Equal(t, 4, f.browser.Closed())
}

func TestFetchPersistsCancelledAttempt(t *testing.T) {
	f := setup(t, foundPage)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := f.orchestrator(f.store).Fetch(ctx, civilAppeal)
	require.False(t, outcome.Success)
	require.Equal(t, KIND_UNEXPECTED, outcome.Kind)
	require.EqualValues(t, 1, f.count(t))
	require.Zero(t, f.browser.Opened())
}

type panickingBrowser struct {
	closed int
}

type panickingSession struct {
	browser *panickingBrowser
}

type panickingPage struct {
	ecourtstest.Page
}

func (p *panickingPage) Goto(url string) error {
	panic("driver crashed")
}

func (b *panickingBrowser) Open(ctx context.Context) (ecourts.Session, error) {
	return panickingSession{browser: b}, nil
}

func (s panickingSession) Page() ecourts.Page {
	return &panickingPage{}
}

func (s panickingSession) Close() error {
	s.browser.closed++
	return nil
}

func TestFetchRecoversFromPanic(t *testing.T) {
	f := setup(t, foundPage)
	browser := &panickingBrowser{}

	orchestrator := f.orchestrator(f.store)
	orchestrator.browser = browser

	outcome := orchestrator.Fetch(context.Background(), civilAppeal)
	require.Equal(t, KIND_UNEXPECTED, outcome.Kind)
	require.Equal(t, STATE_NAVIGATING, outcome.FailedIn)
	require.Contains(t, outcome.Message, "panic: driver crashed")
	require.Equal(t, 1, browser.closed)
	require.EqualValues(t, 1, f.count(t))
	require.Len(t, f.tel.Find(telemetry.REPORT_BROKEN, report_pipeline_panic), 1)
}

type failingLog struct{}

func (failingLog) Append(ctx context.Context, record attemptstore.Record) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestFetchReportsPersistFailure(t *testing.T) {
	f := setup(t, foundPage)

	outcome := f.orchestrator(failingLog{}).Fetch(context.Background(), civilAppeal)
	require.True(t, outcome.Success)
	require.Zero(t, outcome.RecordID)
	require.Len(t, f.tel.Find(telemetry.REPORT_BROKEN, report_pipeline_persist), 1)
}

func TestClassify(t *testing.T) {
	require.Equal(t, KIND_NOT_FOUND, classify(ecourts.ErrNotFound))
	require.Equal(t, KIND_EXTRACTION, classify(&ecourts.ExtractionError{Field: "x", Err: errors.New("y")}))
	require.Equal(t, KIND_NAVIGATION, classify(&ecourts.StepError{Step: ecourts.STEP_NAVIGATE, Err: errors.New("x")}))
	require.Equal(t, KIND_FORM_FIELD, classify(&ecourts.StepError{Step: ecourts.STEP_FILL_FORM, Err: errors.New("x")}))
	require.Equal(t, KIND_CAPTCHA, classify(&ecourts.StepError{Step: ecourts.STEP_SOLVE_CAPTCHA, Err: errors.New("x")}))
	require.Equal(t, KIND_SUBMISSION, classify(&ecourts.StepError{Step: ecourts.STEP_SUBMIT, Err: errors.New("x")}))
	require.Equal(t, KIND_UNEXPECTED, classify(errors.New("boom")))
}
