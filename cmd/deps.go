package cmd

import (
	"context"

	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/explain"
	"github.com/abhisek/proofcheck/internal/llm"
	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/metrics"
	"github.com/abhisek/proofcheck/internal/rules"
	"github.com/abhisek/proofcheck/internal/store"
	"github.com/abhisek/proofcheck/internal/textmodel"
)

// newEngine wires the rule matcher and the model adapter. Without a
// bundle directory the engine still runs; model decisions degrade to
// unknown.
func newEngine(rec *metrics.Recorder) *engine.Engine {
	var loader textmodel.Loader
	if cfg.Model.BundleDir != "" {
		loader = textmodel.DirLoader(cfg.Model.BundleDir)
	}
	adapter := textmodel.NewAdapter(loader, textmodel.WithDecisionBoundary(cfg.Model.DecisionBoundary))
	return engine.New(rules.New(cfg.Rules), adapter, cfg.Engine, engine.WithMetrics(rec))
}

// newExplainer returns nil when explanations are off or no provider can
// be configured. LLM requests are recorded on st when it is non-nil.
func newExplainer(ctx context.Context, enabled bool, st *store.Store) *explain.Explainer {
	if !enabled {
		return nil
	}
	log := logging.New("cmd")

	llmCfg, ok := llm.Discover(cfg.LLM)
	if !ok {
		log.Warn("explanations disabled: no LLM provider configured")
		return nil
	}
	var rec llm.EventRecorder
	if st != nil {
		rec = st
	}
	provider, err := llm.NewProvider(ctx, llmCfg, rec)
	if err != nil {
		log.Warn("explanations disabled", "error", err)
		return nil
	}
	return explain.New(provider, cfg.Explain)
}
