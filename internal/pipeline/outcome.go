package pipeline

import (
	"casestatus-backend/internal/captcha"
	"casestatus-backend/internal/scrapers/ecourts"
	"errors"
	"fmt"
)

// State is a stage of an attempt, SUCCEEDED and FAILED are terminal.
type State int

const (
	STATE_INIT State = iota
	STATE_NAVIGATING
	STATE_FORM_FILLING
	STATE_CAPTCHA_SOLVING
	STATE_SUBMITTING
	STATE_EXTRACTING
	STATE_SUCCEEDED
	STATE_FAILED
)

func (s State) String() string {
	switch s {
	case STATE_INIT:
		return "INIT"
	case STATE_NAVIGATING:
		return "NAVIGATING"
	case STATE_FORM_FILLING:
		return "FORM_FILLING"
	case STATE_CAPTCHA_SOLVING:
		return "CAPTCHA_SOLVING"
	case STATE_SUBMITTING:
		return "SUBMITTING"
	case STATE_EXTRACTING:
		return "EXTRACTING"
	case STATE_SUCCEEDED:
		return "SUCCEEDED"
	case STATE_FAILED:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) Terminal() bool {
	return s == STATE_SUCCEEDED || s == STATE_FAILED
}

func stateOfStep(step ecourts.Step) State {
	switch step {
	case ecourts.STEP_NAVIGATE:
		return STATE_NAVIGATING
	case ecourts.STEP_FILL_FORM:
		return STATE_FORM_FILLING
	case ecourts.STEP_SOLVE_CAPTCHA:
		return STATE_CAPTCHA_SOLVING
	case ecourts.STEP_SUBMIT:
		return STATE_SUBMITTING
	}
	panic(fmt.Sprintf("unknown driver step %d", int(step)))
}

// Kind classifies why an attempt failed.
type Kind int

const (
	KIND_NONE Kind = iota
	KIND_VALIDATION
	KIND_NAVIGATION
	KIND_FORM_FIELD
	KIND_CAPTCHA
	KIND_SUBMISSION
	KIND_NOT_FOUND
	KIND_EXTRACTION
	KIND_UNEXPECTED
)

func (k Kind) String() string {
	switch k {
	case KIND_NONE:
		return "none"
	case KIND_VALIDATION:
		return "validation"
	case KIND_NAVIGATION:
		return "navigation"
	case KIND_FORM_FIELD:
		return "form-field"
	case KIND_CAPTCHA:
		return "captcha"
	case KIND_SUBMISSION:
		return "submission"
	case KIND_NOT_FOUND:
		return "not-found"
	case KIND_EXTRACTION:
		return "extraction"
	case KIND_UNEXPECTED:
		return "unexpected"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const NotFoundMessage = "No case found for the given details."

// classify maps an error returned by the driver or the extractor to its kind.
func classify(err error) Kind {
	if errors.Is(err, ecourts.ErrNotFound) {
		return KIND_NOT_FOUND
	}
	var extractionErr *ecourts.ExtractionError
	if errors.As(err, &extractionErr) {
		return KIND_EXTRACTION
	}
	var unparsable *captcha.UnparsableError
	if errors.As(err, &unparsable) {
		return KIND_CAPTCHA
	}
	var stepErr *ecourts.StepError
	if errors.As(err, &stepErr) {
		switch stepErr.Step {
		case ecourts.STEP_NAVIGATE:
			return KIND_NAVIGATION
		case ecourts.STEP_FILL_FORM:
			return KIND_FORM_FIELD
		case ecourts.STEP_SOLVE_CAPTCHA:
			return KIND_CAPTCHA
		case ecourts.STEP_SUBMIT:
			return KIND_SUBMISSION
		}
	}
	return KIND_UNEXPECTED
}

// cause strips the step prefix from driver errors, the kind already says
// which step failed.
func cause(err error) string {
	var stepErr *ecourts.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Err.Error()
	}
	return err.Error()
}

// Message is the caller facing description of a failure. Messages tell apart
// a missing case, a changed site and an unreachable site since each needs a
// different action from the user.
func Message(kind Kind, err error) string {
	switch kind {
	case KIND_NONE:
		return ""
	case KIND_VALIDATION:
		return validationMessage(err)
	case KIND_NOT_FOUND:
		return NotFoundMessage
	case KIND_CAPTCHA:
		return fmt.Sprintf("CAPTCHA parsing failed: %s. Please manually inspect the CAPTCHA.", cause(err))
	case KIND_EXTRACTION:
		return fmt.Sprintf("Error parsing results: %s. Site layout might have changed.", cause(err))
	case KIND_NAVIGATION:
		return fmt.Sprintf("Could not reach court site: %s.", cause(err))
	case KIND_FORM_FIELD:
		return fmt.Sprintf("Could not fill the case search form: %s. Site layout might have changed.", cause(err))
	case KIND_SUBMISSION:
		return fmt.Sprintf("Could not submit the case search: %s.", cause(err))
	}
	return fmt.Sprintf("An unexpected error occurred: %s. Could not reach court site or internal error.", cause(err))
}

func validationMessage(err error) string {
	if errors.Is(err, ecourts.ErrMissingFields) {
		return "All fields are required."
	}
	var unknown *ecourts.UnknownCaseTypeError
	if errors.As(err, &unknown) {
		if unknown.Suggestion == "" {
			return fmt.Sprintf("Unknown case type %q.", unknown.CaseType)
		}
		return fmt.Sprintf("Unknown case type %q, did you mean %q?", unknown.CaseType, unknown.Suggestion)
	}
	return fmt.Sprintf("Invalid request: %s.", err)
}

// Outcome is what a caller gets back from an attempt, it never carries a raw
// error.
type Outcome struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    *ecourts.CaseResult `json:"data,omitempty"`

	Kind Kind `json:"kind"`
	// FailedIn is the state the attempt was in when it failed.
	FailedIn State `json:"-"`
	// RecordID is the id of the persisted record, zero if nothing was persisted.
	RecordID  int64  `json:"record_id,omitempty"`
	AttemptID string `json:"attempt_id,omitempty"`
}
