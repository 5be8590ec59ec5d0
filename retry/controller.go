package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/uiflow/internal/metrics"
	"github.com/BaSui01/uiflow/schema"
	"github.com/BaSui01/uiflow/validate"
)

// Status of a retry run. Transitions:
// generating -> validating -> (success | retrying -> generating ...) | error.
type Status string

const (
	StatusGenerating Status = "generating"
	StatusValidating Status = "validating"
	StatusRetrying   Status = "retrying"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// GenerateFunc produces raw model output for a prompt. The caller supplies
// it; it wraps whatever provider transport is configured.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

// ProgressEvent reports one attempt transition. Events are purely
// observational: consumers must not feed them back into control flow.
// ErrorsFixed and ErrorsRemaining always equal the lengths of their
// corresponding slices.
type ProgressEvent struct {
	Status          Status                `json:"status"`
	Attempt         int                   `json:"attempt"`
	TotalAttempts   int                   `json:"totalAttempts"`
	ErrorsFixed     int                   `json:"errorsFixed"`
	ErrorsRemaining int                   `json:"errorsRemaining"`
	FixedErrors     []validate.ChainError `json:"fixedErrors"`
	RemainingErrors []validate.ChainError `json:"remainingErrors"`
	RunID           string                `json:"runId"`
}

// Options configures one retry run.
type Options struct {
	// MaxRetries bounds the number of attempts (including the first).
	MaxRetries int
	// Timeout bounds each individual attempt's generate call.
	Timeout time.Duration
	// OnProgress, when set, receives one event per attempt transition.
	OnProgress func(ProgressEvent)
	// IncludePreviousOutput embeds the previous raw output in retry prompts.
	IncludePreviousOutput bool
	// Backoff, when set, delays between attempts. Nil means no delay.
	Backoff *Backoff
}

// Result is the outcome of a retry run. On success Schema is non-nil; on
// exhaustion Errors carries the last attempt's unresolved errors and
// FixRates the trend across attempts, so callers can render
// "N of M errors fixed, giving up".
type Result struct {
	Schema   *schema.UISchema      `json:"schema,omitempty"`
	Raw      string                `json:"raw,omitempty"`
	Attempts int                   `json:"attempts"`
	Errors   []validate.ChainError `json:"errors,omitempty"`
	Warnings []validate.ChainError `json:"warnings,omitempty"`
	FixRates []float64             `json:"fixRates"`
}

// Controller drives the generate -> validate -> re-prompt loop. A single
// Controller may serve concurrent runs; all per-run state lives on the
// stack of ExecuteWithRetry.
type Controller struct {
	chain     *validate.Chain
	logger    *zap.Logger
	collector *metrics.Collector
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(collector *metrics.Collector) ControllerOption {
	return func(c *Controller) { c.collector = collector }
}

// NewController creates a retry controller over a validation chain.
func NewController(chain *validate.Chain, opts ...ControllerOption) *Controller {
	c := &Controller{
		chain:  chain,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecuteWithRetry runs up to MaxRetries attempts of generate -> extract ->
// validate, re-prompting with the unresolved errors after each failed
// attempt. A generate error or timeout consumes one attempt rather than
// aborting the run. The returned error is non-nil only when the run ends
// without a valid schema.
func (c *Controller) ExecuteWithRetry(ctx context.Context, generate GenerateFunc, prompt string, opts Options) (*Result, error) {
	if generate == nil {
		return nil, fmt.Errorf("generate function cannot be nil")
	}
	maxAttempts := opts.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	runID := uuid.NewString()
	logger := c.logger.With(zap.String("run_id", runID))

	result := &Result{}
	var prevErrors []validate.ChainError
	var prevOutput string
	currentPrompt := prompt

	emit := func(status Status, attempt int, d Diff) {
		if opts.OnProgress == nil {
			return
		}
		remaining := d.Unresolved()
		opts.OnProgress(ProgressEvent{
			Status:          status,
			Attempt:         attempt,
			TotalAttempts:   maxAttempts,
			ErrorsFixed:     len(d.Fixed),
			ErrorsRemaining: len(remaining),
			FixedErrors:     d.Fixed,
			RemainingErrors: remaining,
			RunID:           runID,
		})
	}

	var lastDiff Diff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if delay := opts.Backoff.Delay(attempt - 1); delay > 0 {
				select {
				case <-ctx.Done():
					return result, ctx.Err()
				case <-time.After(delay):
				}
			}
		}

		result.Attempts = attempt
		emit(StatusGenerating, attempt, lastDiff)
		c.countAttempt()

		output, genErr := c.generateOnce(ctx, generate, currentPrompt, opts.Timeout)

		emit(StatusValidating, attempt, lastDiff)

		var chainResult *validate.ChainResult
		var extracted *schema.UISchema
		switch {
		case genErr != nil:
			// Transport and timeout failures fold into the same error-list
			// shape the chain produces, so one representation drives both
			// the diff and the retry prompt.
			chainResult = &validate.ChainResult{Errors: []validate.ChainError{{
				Layer:      validate.LayerJSONSyntax,
				Severity:   validate.SeverityError,
				Path:       "",
				Message:    fmt.Sprintf("Generation failed: %v", genErr),
				Suggestion: "The request itself failed; the same prompt will be retried",
			}}}
		default:
			extracted, chainResult = c.validateOutput(output)
		}
		c.countErrors(chainResult)

		diff := CompareErrors(prevErrors, chainResult.Errors)
		lastDiff = diff
		fixRate := CalculateFixRate(prevErrors, chainResult.Errors)
		result.FixRates = append(result.FixRates, fixRate)
		c.observeFixRate(fixRate)

		if chainResult.Valid && extracted != nil {
			result.Schema = extracted
			result.Raw = output
			result.Warnings = chainResult.Warnings
			result.Errors = nil
			c.observeCompliance(extracted)
			logger.Info("generation succeeded",
				zap.Int("attempt", attempt),
				zap.Int("warnings", len(chainResult.Warnings)),
			)
			emit(StatusSuccess, attempt, diff)
			c.countRun("success")
			return result, nil
		}

		result.Errors = diff.Unresolved()
		result.Warnings = chainResult.Warnings
		logger.Debug("attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("errors_fixed", len(diff.Fixed)),
			zap.Int("errors_remaining", len(result.Errors)),
			zap.Float64("fix_rate", fixRate),
		)

		if attempt == maxAttempts {
			break
		}

		emit(StatusRetrying, attempt, diff)
		prevErrors = chainResult.Errors
		if opts.IncludePreviousOutput {
			prevOutput = output
		}
		currentPrompt = BuildRetryPrompt(prompt, result.Errors, prevOutput)
	}

	logger.Warn("retries exhausted",
		zap.Int("attempts", result.Attempts),
		zap.Int("errors_remaining", len(result.Errors)),
	)
	emit(StatusError, result.Attempts, lastDiff)
	c.countRun("error")
	return result, fmt.Errorf("validation failed after %d attempts: %d errors remaining", result.Attempts, len(result.Errors))
}

// generateOnce bounds a single generate call by the per-attempt timeout.
func (c *Controller) generateOnce(ctx context.Context, generate GenerateFunc, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return generate(ctx, prompt)
}

// validateOutput extracts a schema from raw output and runs the full chain.
// An extraction miss becomes a synthetic single error so it flows through
// the retry loop exactly like a validation failure.
func (c *Controller) validateOutput(output string) (*schema.UISchema, *validate.ChainResult) {
	extracted := schema.ExtractUISchema(output)
	if extracted != nil {
		return extracted, c.chain.RunSchema(extracted)
	}

	if probe := schema.ExtractJSON(output); probe.Success {
		// JSON was found, it just does not look like a UI schema.
		return nil, &validate.ChainResult{Errors: []validate.ChainError{{
			Layer:      validate.LayerSchemaStructure,
			Severity:   validate.SeverityError,
			Path:       "root",
			Message:    "No UI schema found in output",
			Suggestion: `Respond with a JSON object containing a "root" component with "id" and "type" fields`,
		}}}
	}
	return nil, &validate.ChainResult{Errors: []validate.ChainError{{
		Layer:      validate.LayerJSONSyntax,
		Severity:   validate.SeverityError,
		Path:       "",
		Message:    "No JSON found in output",
		Suggestion: "Respond with a single JSON object, optionally inside a ```json code fence",
	}}}
}

func (c *Controller) countAttempt() {
	if c.collector != nil {
		c.collector.CountAttempt()
	}
}

func (c *Controller) countErrors(r *validate.ChainResult) {
	if c.collector == nil {
		return
	}
	for _, e := range r.Errors {
		c.collector.CountValidationError(string(e.Layer))
	}
}

func (c *Controller) observeCompliance(s *schema.UISchema) {
	if c.collector != nil {
		c.collector.ObserveComplianceScore(c.chain.Compliance(s).ComplianceScore)
	}
}

func (c *Controller) observeFixRate(rate float64) {
	if c.collector != nil {
		c.collector.ObserveFixRate(rate)
	}
}

func (c *Controller) countRun(outcome string) {
	if c.collector != nil {
		c.collector.CountRun(outcome)
	}
}
