package pipeline

import (
	"casestatus-backend/internal/attemptstore"
	"casestatus-backend/internal/components/assert"
	"casestatus-backend/internal/components/chrono"
	"casestatus-backend/internal/components/telemetry"
	"casestatus-backend/internal/db"
	"casestatus-backend/internal/scrapers/ecourts"
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("casestatus/pipeline")
var meter = otel.Meter("casestatus/pipeline")

var attemptCounter, _ = meter.Int64Counter(
	"casestatus.attempts",
	metric.WithDescription("Number of finished case status attempts."),
)
var attemptDuration, _ = meter.Float64Histogram(
	"casestatus.attempt.duration",
	metric.WithDescription("Duration of case status attempts."),
	metric.WithUnit("s"),
)

const (
	report_pipeline_persist       = "pipeline.persist"
	report_pipeline_panic         = "pipeline.panic"
	report_pipeline_close_session = "pipeline.close-session"
	report_pipeline_attempt       = "pipeline.attempt"
)

// persisting is given its own deadline so that a cancelled request still
// leaves a record behind.
const persistTimeout = 10 * time.Second

// AttemptLog is where finished attempts are appended.
type AttemptLog interface {
	Append(ctx context.Context, record attemptstore.Record) (int64, error)
}

type Options struct {
	Browser   ecourts.Browser
	Driver    ecourts.Driver
	Extractor ecourts.Extractor
	Log       AttemptLog
	Clock     chrono.API
}

// Orchestrator runs attempts from request to persisted record.
type Orchestrator struct {
	browser   ecourts.Browser
	driver    ecourts.Driver
	extractor ecourts.Extractor
	log       AttemptLog
	clock     chrono.API
	tel       telemetry.API
}

func NewOrchestrator(opts Options, tel telemetry.API) Orchestrator {
	assert.NotNil(opts.Browser)
	assert.NotNil(opts.Log)
	assert.NotNil(opts.Clock)
	assert.NotNil(tel)

	return Orchestrator{
		browser:   opts.Browser,
		driver:    opts.Driver,
		extractor: opts.Extractor,
		log:       opts.Log,
		clock:     opts.Clock,
		tel:       telemetry.NewScopedAPI("pipeline", tel),
	}
}

type attempt struct {
	id      string
	query   ecourts.CaseQuery
	started time.Time

	ctx       context.Context
	state     State
	stateSpan trace.Span
	rawHtml   string

	tel telemetry.API
}

func (a *attempt) transition(next State) {
	if a.stateSpan != nil {
		a.stateSpan.End()
		a.stateSpan = nil
	}
	a.tel.ReportDebug("transition", "attempt", a.id, "from", a.state.String(), "to", next.String())
	a.state = next
	if !next.Terminal() {
		_, a.stateSpan = tracer.Start(a.ctx, next.String())
	}
}

func (a *attempt) fail(kind Kind, err error) Outcome {
	failedIn := a.state
	if a.stateSpan != nil {
		a.stateSpan.RecordError(err)
		a.stateSpan.SetStatus(codes.Error, kind.String())
	}
	a.transition(STATE_FAILED)
	return Outcome{
		Message:   Message(kind, err),
		Kind:      kind,
		FailedIn:  failedIn,
		AttemptID: a.id,
	}
}

func (a *attempt) succeed(result ecourts.CaseResult) Outcome {
	a.transition(STATE_SUCCEEDED)
	return Outcome{
		Success:   true,
		Data:      &result,
		AttemptID: a.id,
	}
}

func newAttemptId() string {
	id, err := random.String(8)
	if err != nil {
		return fmt.Sprint(time.Now().UnixNano())
	}
	return id
}

// Fetch runs one attempt for query. It never returns an error, every failure is
// described by the returned outcome. Every attempt that passes validation is
// persisted exactly once.
func (o Orchestrator) Fetch(ctx context.Context, query ecourts.CaseQuery) Outcome {
	query = query.Normalize()
	err := query.Validate()
	if err != nil {
		return Outcome{
			Message:  Message(KIND_VALIDATION, err),
			Kind:     KIND_VALIDATION,
			FailedIn: STATE_INIT,
		}
	}

	ctx, span := tracer.Start(ctx, "Fetch", trace.WithAttributes(
		attribute.String("case_type", query.CaseType),
		attribute.String("case_number", query.CaseNumber),
		attribute.String("filing_year", query.FilingYear),
	))
	defer span.End()

	a := &attempt{
		id:      newAttemptId(),
		query:   query,
		started: o.clock.Now(),
		ctx:     ctx,
		state:   STATE_INIT,
		tel:     o.tel,
	}
	span.SetAttributes(attribute.String("attempt_id", a.id))

	outcome := o.run(ctx, a)
	o.persist(ctx, a, &outcome)

	elapsed := o.clock.Now().Sub(a.started)
	status := db.STATUS_SUCCESS
	if !outcome.Success {
		status = db.STATUS_FAILED
		span.SetStatus(codes.Error, outcome.Kind.String())
	}
	attrs := metric.WithAttributes(
		attribute.String("status", string(status)),
		attribute.String("kind", outcome.Kind.String()),
	)
	attemptCounter.Add(ctx, 1, attrs)
	attemptDuration.Record(ctx, elapsed.Seconds(), attrs)

	if outcome.Kind == KIND_UNEXPECTED {
		o.tel.ReportBroken(report_pipeline_attempt, outcome.Message, "attempt", a.id)
	} else {
		o.tel.ReportDebug(
			"attempt finished",
			"attempt", a.id,
			"status", string(status),
			"kind", outcome.Kind.String(),
			"elapsed", elapsed,
		)
	}
	return outcome
}

func (o Orchestrator) run(ctx context.Context, a *attempt) (outcome Outcome) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic: %v", r)
		o.tel.ReportBroken(report_pipeline_panic, err, "attempt", a.id, "stack", string(debug.Stack()))
		outcome = a.fail(KIND_UNEXPECTED, err)
	}()

	session, err := o.browser.Open(ctx)
	if err != nil {
		return a.fail(KIND_UNEXPECTED, fmt.Errorf("open browser: %w", err))
	}
	defer func() {
		err := session.Close()
		if err != nil {
			o.tel.ReportWarning(report_pipeline_close_session, err, "attempt", a.id)
		}
	}()

	rendered, err := o.driver.Execute(ctx, session.Page(), a.query, func(step ecourts.Step) {
		a.transition(stateOfStep(step))
	})
	if err != nil {
		return a.fail(classify(err), err)
	}
	a.rawHtml = rendered.Html

	a.transition(STATE_EXTRACTING)
	result, err := o.extractor.Extract(rendered.Html, rendered.Url)
	if err != nil {
		return a.fail(classify(err), err)
	}
	return a.succeed(result)
}

func (o Orchestrator) persist(ctx context.Context, a *attempt, outcome *Outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	timestamp := o.clock.Now()
	var record attemptstore.Record
	if outcome.Success {
		record = attemptstore.Succeeded(timestamp, a.query, *outcome.Data, a.rawHtml)
	} else {
		record = attemptstore.Failed(timestamp, a.query, outcome.Message, a.rawHtml)
	}

	id, err := o.log.Append(ctx, record)
	if err != nil {
		o.tel.ReportBroken(report_pipeline_persist, err, "attempt", a.id)
		return
	}
	outcome.RecordID = id
}
