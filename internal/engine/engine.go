package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/metrics"
	"github.com/abhisek/proofcheck/internal/proof"
)

// Engine coordinates the lexical rules and the statistical classifier.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	matcher    Matcher
	classifier Classifier
	cfg        Config
	metrics    *metrics.Recorder
	log        *slog.Logger

	warnOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches a metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = r }
}

// New creates an engine. A nil matcher disables the rule stage; a nil
// classifier behaves as a permanently unavailable model.
func New(matcher Matcher, classifier Classifier, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		matcher:    matcher,
		classifier: classifier,
		cfg:        cfg,
		log:        logging.New("engine"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Decide produces the verdict for text. Rules are consulted only when
// allowRules is set and the trimmed text has fewer than WordGate words;
// otherwise, or when no rule applies, the classifier decides.
// Empty text is refused with proof.ErrEmptyInput.
func (e *Engine) Decide(ctx context.Context, text string, allowRules bool) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Decision{}, proof.ErrEmptyInput
	}

	// Phase 1: rules, for short inputs only.
	if allowRules && e.matcher != nil && proof.WordCount(trimmed) < e.cfg.WordGate {
		if op, ok := e.matcher.Match(trimmed); ok {
			d := Decision{
				Kind: KindRule,
				Result: proof.Result{
					Verdict:    op.Verdict,
					Confidence: op.Confidence,
					Source:     proof.SourceRuleBased,
				},
				Rule:      op.Rule,
				Indicator: op.Indicator,
			}
			e.observe(d)
			return d, nil
		}
	}

	// Phase 2: classifier.
	d := e.classify(trimmed)
	e.observe(d)
	return d, nil
}

// DecideProof runs Decide on p.Text and stamps the result with p.ID.
func (e *Engine) DecideProof(ctx context.Context, p proof.Proof, allowRules bool) (Decision, error) {
	d, err := e.Decide(ctx, p.Text, allowRules)
	if err != nil {
		return d, err
	}
	d.Result.ProofID = p.ID
	return d, nil
}

// Available reports whether the classifier stage can produce verdicts.
func (e *Engine) Available() bool {
	return e.classifier != nil && e.classifier.Available()
}

func (e *Engine) classify(text string) Decision {
	if e.classifier == nil {
		return e.unavailable(errors.New("no classifier configured"))
	}
	if !e.classifier.Available() {
		return e.unavailable(fmt.Errorf("%w: %v", proof.ErrModelUnavailable, e.classifier.Err()))
	}
	v, conf, err := e.classifier.Classify(text)
	if err != nil {
		return e.unavailable(err)
	}
	return Decision{
		Kind: KindModel,
		Result: proof.Result{
			Verdict:    v,
			Confidence: conf,
			Source:     proof.SourceModel,
		},
	}
}

func (e *Engine) unavailable(cause error) Decision {
	if !errors.Is(cause, proof.ErrModelUnavailable) {
		cause = fmt.Errorf("%w: %v", proof.ErrModelUnavailable, cause)
	}
	e.warnOnce.Do(func() {
		e.log.Warn("classifier unavailable, model-path decisions degrade to unknown", "cause", cause)
	})
	e.metrics.ModelUnavailable()
	return Decision{
		Kind: KindUnavailable,
		Result: proof.Result{
			Verdict:    proof.Unknown,
			Confidence: 0,
			Source:     proof.SourceModel,
		},
		Degraded: true,
		Cause:    cause,
	}
}

func (e *Engine) observe(d Decision) {
	e.metrics.ObserveDecision(d.Result.Source.String(), d.Result.Verdict.String(), d.Result.Confidence)
}
