// Package extractor drives structured lease extraction against the
// completion collaborator: prompt assembly, pacing, retry with backoff, and
// the schema gate on the returned candidate.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/donexus/lease-extract/internal/config"
	"github.com/donexus/lease-extract/internal/model"
	"github.com/donexus/lease-extract/internal/resilience"
	"github.com/donexus/lease-extract/internal/schema"
	"github.com/donexus/lease-extract/pkg/anthropic"
)

// Orchestrator turns raw document text into a validated Record. A single
// Orchestrator serves any number of concurrent Extract calls; backoff waits
// are per call and never block other callers.
type Orchestrator struct {
	client  anthropic.Client
	model   string
	temp    float64
	tokens  int64
	retry   resilience.RetryConfig
	timeout time.Duration
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates an Orchestrator from the anthropic and extraction config
// sections. Zero config values fall back to the compiled-in defaults.
func New(client anthropic.Client, ai config.AnthropicConfig, ex config.ExtractConfig) *Orchestrator {
	retry := resilience.DefaultRetryConfig()
	if ex.MaxAttempts > 0 {
		retry.MaxAttempts = ex.MaxAttempts
	}
	if ex.BaseBackoffSecs > 0 {
		retry.BaseBackoff = time.Duration(ex.BaseBackoffSecs) * time.Second
	}
	retry.ShouldRetry = isRetryable
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract lease")

	tokens := ai.MaxTokens
	if tokens <= 0 {
		tokens = 4096
	}

	var limiter *rate.Limiter
	if ex.RatePerSec > 0 {
		burst := ex.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(ex.RatePerSec), burst)
	}

	return &Orchestrator{
		client:  client,
		model:   ai.Model,
		temp:    ai.Temperature,
		tokens:  tokens,
		retry:   retry,
		timeout: time.Duration(ex.TimeoutSecs) * time.Second,
		limiter: limiter,
		now:     time.Now,
	}
}

// Extract runs one extraction cycle: call the collaborator with retry, parse
// the JSON candidate, stamp extraction metadata, and pass it through the
// schema gate. Schema violations are terminal and surface unchanged;
// transient call failures and unparseable replies are retried until the
// attempt budget is spent, then wrapped in an ExhaustedError.
func (o *Orchestrator) Extract(ctx context.Context, text string) (*model.Record, error) {
	start := o.now()
	zap.L().Info("extractor: starting extraction",
		zap.Int("text_chars", len(text)),
		zap.String("model", o.model),
	)

	callCtx := ctx
	var cancel context.CancelFunc
	if o.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	rec, err := resilience.DoVal(callCtx, o.retry, func(ctx context.Context) (*model.Record, error) {
		return o.attempt(ctx, text)
	})
	if err != nil {
		return nil, o.classify(ctx, err)
	}

	zap.L().Info("extractor: extraction complete",
		zap.String("model", rec.AIModelUsed),
		zap.Int("tenants", len(rec.Tenants)),
		zap.Duration("elapsed", o.now().Sub(start)),
	)
	return rec, nil
}

// attempt makes one paced collaborator call and gates the result.
func (o *Orchestrator) attempt(ctx context.Context, text string) (*model.Record, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	temp := o.temp
	resp, err := o.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       o.model,
		MaxTokens:   o.tokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages:    []anthropic.Message{{Role: "user", Content: fmt.Sprintf(userPromptFmt, text)}},
		Temperature: &temp,
	})
	if err != nil {
		// API-level failures are presumed transient; the retry budget
		// bounds how long we presume.
		return nil, resilience.NewTransientError(err, 0)
	}
	resp.Usage.LogCost(o.model, "extract")

	candidate, err := parseCandidate(resp.Text())
	if err != nil {
		return nil, err
	}

	// Stamp extraction metadata before the gate so it lands on the Record.
	candidate["ai_model_used"] = o.model
	candidate["extraction_timestamp"] = o.now().UTC().Format(time.RFC3339)

	rec, err := schema.Validate(candidate)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// classify maps the terminal error out of a failed extraction cycle.
func (o *Orchestrator) classify(ctx context.Context, err error) error {
	// Caller-initiated cancellation surfaces as-is; no partial results.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var ve *schema.ValidationError
	if errors.As(err, &ve) {
		return ve
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: o.timeout, Err: err}
	}

	if isRetryable(err) {
		return &ExhaustedError{Attempts: o.retry.MaxAttempts, Err: err}
	}
	return err
}

// isRetryable matches the two retryable kinds: transient call failures and
// unparseable replies. Everything else (schema violations, cancellation) is
// terminal.
func isRetryable(err error) bool {
	var mre *MalformedResponseError
	return resilience.IsTransient(err) || errors.As(err, &mre)
}

// parseCandidate strips markdown fences around the reply and unmarshals the
// single JSON object the prompt demands.
func parseCandidate(text string) (map[string]any, error) {
	cleaned := cleanJSON(text)

	var candidate map[string]any
	if err := json.Unmarshal([]byte(cleaned), &candidate); err != nil {
		zap.L().Warn("extractor: response is not a JSON object",
			zap.Int("response_chars", len(text)),
			zap.Error(err),
		)
		return nil, &MalformedResponseError{Err: err}
	}
	return candidate, nil
}

// cleanJSON strips markdown code fences and any prose around the outermost
// JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
