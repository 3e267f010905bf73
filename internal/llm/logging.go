package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/store"
)

// EventRecorder persists LLM request events. *store.Store implements it.
type EventRecorder interface {
	AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error
}

// RecordingProvider records every request, successful or not.
type RecordingProvider struct {
	inner    Provider
	provider string
	rec      EventRecorder
	log      *slog.Logger
}

// WithRecording wraps p so that each Generate call is recorded on rec.
func WithRecording(p Provider, providerName string, rec EventRecorder) Provider {
	return &RecordingProvider{
		inner:    p,
		provider: providerName,
		rec:      rec,
		log:      logging.New("llm"),
	}
}

func (r *RecordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    r.provider,
		Model:       r.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: describeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	r.log.Debug("llm request", "purpose", data.Purpose, "model", data.Model,
		"latency_ms", data.LatencyMs, "ok", data.Success)

	// Recording is best effort; the caller still gets the response.
	if recErr := r.rec.AppendLLMRequest(context.WithoutCancel(ctx), data); recErr != nil {
		r.log.Warn("failed to record LLM request", "error", recErr)
	}
	return resp, err
}

func (r *RecordingProvider) ModelID() string {
	return r.inner.ModelID()
}

// describeRequest renders a request for the event log.
func describeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
