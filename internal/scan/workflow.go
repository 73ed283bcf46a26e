package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/lwshanbd/fuel-tracker/internal/extraction"
	"github.com/lwshanbd/fuel-tracker/internal/scanning"
)

// State is the position of a scan attempt in its lifecycle
type State int

const (
	StateIdle State = iota
	StateImageAcquired
	StateExtracting
	StateInterpreting
	StateComplete
	StateFailed
)

// String returns the state name for logs and diagnostics
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateImageAcquired:
		return "image_acquired"
	case StateExtracting:
		return "extracting"
	case StateInterpreting:
		return "interpreting"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConfigured means no provider credential exists, so a scan cannot
	// start. Surfaced before the extractor or any network call is touched.
	ErrNotConfigured = errors.New("no LLM provider is configured; add an API key before scanning")

	// ErrNoImage means Run was called before an image was supplied
	ErrNoImage = errors.New("no image supplied")

	// ErrAttemptSpent means the attempt already finished; a new scan needs a
	// new attempt.
	ErrAttemptSpent = errors.New("scan attempt already finished")
)

// Interpreter is the subset of the parsing orchestrator the workflow needs
type Interpreter interface {
	ParseFuelReceipt(ctx context.Context, extractedText string) (*scanning.ParseOutcome, error)
	HasAnyCredential() bool
}

// MilestoneSink receives advisory diagnostic messages as the attempt
// progresses. It must never influence control flow.
type MilestoneSink func(message string)

// Attempt drives one scan from image to prefill data. An attempt is
// single-use: Complete is terminal, and Failed can only be left by discarding
// the image and starting over from Idle. Attempts are not safe for concurrent
// use; each scan owns its own.
type Attempt struct {
	id          string
	extractor   extraction.TextExtractor
	interpreter Interpreter
	sink        MilestoneSink

	state       State
	image       []byte
	contentType string
	milestones  []string
}

// NewAttempt creates a scan attempt with the given collaborators. The sink
// may be nil.
func NewAttempt(extractor extraction.TextExtractor, interpreter Interpreter, sink MilestoneSink) *Attempt {
	a := &Attempt{
		id:          uuid.NewString(),
		extractor:   extractor,
		interpreter: interpreter,
		sink:        sink,
		state:       StateIdle,
	}
	a.record(fmt.Sprintf("scan attempt %s created", a.id))
	return a
}

// ID returns the attempt's correlation ID
func (a *Attempt) ID() string {
	return a.id
}

// State returns the attempt's current state
func (a *Attempt) State() State {
	return a.state
}

// Milestones returns a copy of the diagnostic log accumulated so far
func (a *Attempt) Milestones() []string {
	out := make([]string, len(a.milestones))
	copy(out, a.milestones)
	return out
}

// record appends a milestone and forwards it to the sink
func (a *Attempt) record(message string) {
	a.milestones = append(a.milestones, message)
	if a.sink != nil {
		a.sink(message)
	}
}

// ProvideImage supplies the captured or selected receipt image. Only the
// presence of image bytes is validated here; decoding happens during
// extraction.
func (a *Attempt) ProvideImage(data []byte, contentType string) error {
	if a.state != StateIdle {
		return fmt.Errorf("cannot accept image in state %s", a.state)
	}
	if len(data) == 0 {
		return ErrNoImage
	}

	a.image = data
	a.contentType = contentType
	a.state = StateImageAcquired

	if w, h, err := extraction.Dimensions(data); err == nil {
		a.record(fmt.Sprintf("image acquired: %dx%d pixels, %d bytes", w, h, len(data)))
	} else {
		a.record(fmt.Sprintf("image acquired: %d bytes", len(data)))
	}
	return nil
}

// Discard clears the captured image and returns the attempt to Idle so the
// user can retry with a fresh capture.
func (a *Attempt) Discard() {
	a.image = nil
	a.contentType = ""
	a.state = StateIdle
	a.record("image discarded")
}

// Run executes the scan: extract text from the image, interpret it through
// the configured provider, and narrow the outcome to prefill data. Both the
// extraction and the provider call honor ctx, so cancelling abandons the
// in-flight work with no side effects. Any failure is terminal for this
// attempt.
func (a *Attempt) Run(ctx context.Context) (*scanning.PrefillData, error) {
	switch a.state {
	case StateImageAcquired:
	case StateComplete, StateFailed:
		return nil, ErrAttemptSpent
	default:
		return nil, ErrNoImage
	}

	// Fail fast when no provider is configured, before any extraction work.
	if !a.interpreter.HasAnyCredential() {
		a.fail(ErrNotConfigured)
		return nil, ErrNotConfigured
	}

	a.state = StateExtracting
	text, err := a.extractor.ExtractText(ctx, a.image, a.contentType)
	if err != nil {
		err = fmt.Errorf("extracting text: %w", err)
		a.fail(err)
		return nil, err
	}
	a.record(fmt.Sprintf("extracted %d characters of text", len(text)))

	a.state = StateInterpreting
	outcome, err := a.interpreter.ParseFuelReceipt(ctx, text)
	if err != nil {
		err = fmt.Errorf("interpreting receipt: %w", err)
		a.fail(err)
		return nil, err
	}
	if !outcome.Fields.Valid() {
		err = fmt.Errorf("interpreting receipt: %w", &scanning.ParseError{Reason: "response contained neither gallons nor total cost"})
		a.fail(err)
		return nil, err
	}
	a.record(fmt.Sprintf("%s used %d input / %d output tokens",
		outcome.Usage.Provider, outcome.Usage.InputTokens, outcome.Usage.OutputTokens))
	a.record(fmt.Sprintf("parsed fields: gallons=%s pricePerGallon=%s totalCost=%s",
		fmtField(outcome.Fields.Gallons), fmtField(outcome.Fields.PricePerGallon), fmtField(outcome.Fields.TotalCost)))

	a.state = StateComplete
	return outcome.Prefill(), nil
}

// fail moves the attempt into the absorbing failed state
func (a *Attempt) fail(err error) {
	a.state = StateFailed
	a.record(fmt.Sprintf("scan failed: %s", err))
	slog.Error("Scan attempt failed", "attempt", a.id, "error", err)
}

// fmtField renders an optional numeric field for the diagnostic log
func fmtField(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
