// Package batch applies the decision engine across a collection of proofs.
package batch

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/metrics"
	"github.com/abhisek/proofcheck/internal/proof"
)

// DefaultWorkers bounds the evaluation pool.
const DefaultWorkers = 4

// Decider is the per-proof decision stage.
type Decider interface {
	DecideProof(ctx context.Context, p proof.Proof, allowRules bool) (engine.Decision, error)
}

// Item is the outcome for one non-empty proof.
type Item struct {
	Index    int // position in the input sequence
	Proof    proof.Proof
	Decision engine.Decision
}

// Result is shorthand for the item's verification result.
func (it Item) Result() proof.Result { return it.Decision.Result }

// Report is the ordered outcome of a batch evaluation.
type Report struct {
	Items   []Item
	Summary Summary

	// Degraded is set when any decision fell back to unknown because the
	// model was unavailable; DegradedCause holds the first cause seen.
	Degraded      bool
	DegradedCause error

	// Cancelled is set when the context ended before every proof was
	// decided; Items then holds whatever was decided, still in order.
	Cancelled bool
}

// Evaluator runs batches through a Decider.
type Evaluator struct {
	decider Decider
	workers int
	metrics *metrics.Recorder
	log     *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers sets the pool size. Values below 1 mean sequential.
func WithWorkers(n int) Option {
	return func(e *Evaluator) { e.workers = max(n, 1) }
}

// WithMetrics attaches a metrics recorder for skipped records.
func WithMetrics(r *metrics.Recorder) Option {
	return func(e *Evaluator) { e.metrics = r }
}

// New creates an evaluator.
func New(d Decider, opts ...Option) *Evaluator {
	e := &Evaluator{
		decider: d,
		workers: DefaultWorkers,
		log:     logging.New("batch"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Stream lazily decides each non-empty proof in input order. Proofs with
// empty text are skipped without being yielded. Iteration stops when ctx
// is done. Each range over the returned sequence reads proofs afresh.
func (e *Evaluator) Stream(ctx context.Context, proofs iter.Seq[proof.Proof], allowRules bool) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		i := -1
		for p := range proofs {
			i++
			if ctx.Err() != nil {
				return
			}
			if p.IsEmpty() {
				e.metrics.Skipped("empty", 1)
				continue
			}
			d, err := e.decider.DecideProof(ctx, p, allowRules)
			if err != nil {
				if errors.Is(err, proof.ErrEmptyInput) {
					continue
				}
				return
			}
			if !yield(Item{Index: i, Proof: p, Decision: d}) {
				return
			}
		}
	}
}

// Evaluate decides every proof on a bounded worker pool and reassembles
// the results in input order. If ctx ends early the partial report is
// returned together with ctx's error.
func (e *Evaluator) Evaluate(ctx context.Context, proofs []proof.Proof, allowRules bool) (*Report, error) {
	slots := make([]*Item, len(proofs))
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, p := range proofs {
		if gctx.Err() != nil {
			break
		}
		if p.IsEmpty() {
			skipped++
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			d, err := e.decider.DecideProof(gctx, p, allowRules)
			if err != nil {
				if errors.Is(err, proof.ErrEmptyInput) {
					return nil
				}
				return err
			}
			slots[i] = &Item{Index: i, Proof: p, Decision: d}
			return nil
		})
	}
	runErr := g.Wait()

	report := &Report{Items: make([]Item, 0, len(proofs)-skipped)}
	for _, it := range slots {
		if it == nil {
			continue
		}
		report.Items = append(report.Items, *it)
		if it.Decision.Degraded && !report.Degraded {
			report.Degraded = true
			report.DegradedCause = it.Decision.Cause
		}
	}
	report.Summary = Summarize(report.Items)
	report.Summary.Skipped = skipped
	e.metrics.Skipped("empty", skipped)

	err := ctx.Err()
	if err == nil && runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = runErr
	}
	if err != nil {
		report.Cancelled = ctx.Err() != nil
		e.log.Warn("batch stopped early", "decided", len(report.Items), "total", len(proofs), "error", err)
		return report, err
	}

	e.log.Debug("batch complete", "decided", len(report.Items), "skipped", skipped)
	return report, nil
}
