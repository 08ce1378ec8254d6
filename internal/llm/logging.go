package llm

import (
	"context"
	"time"

	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/store"
)

// LoggingProvider records every request's outcome and token usage.
type LoggingProvider struct {
	inner    Provider
	provider string
	recorder store.LLMRequestLog
	log      *logger.Logger
	now      func() time.Time
}

// WithLogging wraps p. Recording failures are logged, never returned.
func WithLogging(p Provider, provider string, recorder store.LLMRequestLog, log *logger.Logger) Provider {
	return &LoggingProvider{inner: p, provider: provider, recorder: recorder, log: log, now: time.Now}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := l.now()
	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:  l.provider,
		Model:     l.inner.ModelID(),
		Purpose:   PurposeFrom(ctx),
		LatencyMs: l.now().Sub(start).Milliseconds(),
		Success:   err == nil,
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Debug("llm request failed", "provider", l.provider, "purpose", data.Purpose, "error", err)
	}

	if l.recorder != nil {
		// The request context may already be done; recording still goes through.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if recErr := l.recorder.AppendLLMRequest(recCtx, data); recErr != nil {
			l.log.Warn("failed to record llm request", "error", recErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}
