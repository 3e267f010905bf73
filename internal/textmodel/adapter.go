package textmodel

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/proof"
)

// DefaultDecisionBoundary is the p_valid value a proof must exceed to be
// judged valid. A tie resolves to invalid.
const DefaultDecisionBoundary = 0.5

// Adapter wraps a lazily loaded bundle behind a classify contract.
// The bundle is loaded at most once; a failed load leaves the adapter
// unavailable for its lifetime.
type Adapter struct {
	loader   Loader
	boundary float64
	log      *slog.Logger

	once   sync.Once
	bundle *Bundle
	err    error
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDecisionBoundary overrides the p_valid boundary.
func WithDecisionBoundary(b float64) Option {
	return func(a *Adapter) { a.boundary = b }
}

// NewAdapter creates an adapter. Nothing is loaded until first use.
func NewAdapter(loader Loader, opts ...Option) *Adapter {
	a := &Adapter{
		loader:   loader,
		boundary: DefaultDecisionBoundary,
		log:      logging.New("textmodel"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Adapter) load() {
	a.once.Do(func() {
		if a.loader == nil {
			a.err = fmt.Errorf("no model loader configured")
			return
		}
		b, err := a.loader.Load()
		if err == nil {
			err = b.Validate()
		}
		if err != nil {
			a.err = err
			a.log.Debug("model bundle load failed", "error", err)
			return
		}
		a.bundle = b
		a.log.Debug("model bundle loaded", "features", b.Vectorizer.Dim())
	})
}

// Available reports whether the bundle loaded. The first call triggers
// the load.
func (a *Adapter) Available() bool {
	a.load()
	return a.bundle != nil
}

// Err returns the recorded load failure, or nil.
func (a *Adapter) Err() error {
	a.load()
	return a.err
}

// Probabilities returns (p_invalid, p_valid) for text.
func (a *Adapter) Probabilities(text string) (float64, float64, error) {
	if !a.Available() {
		return 0, 0, fmt.Errorf("%w: %v", proof.ErrModelUnavailable, a.err)
	}
	pInvalid, pValid, err := a.bundle.Probabilities(text)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: inference: %v", proof.ErrModelUnavailable, err)
	}
	return pInvalid, pValid, nil
}

// Classify returns the verdict and the probability mass on the winning
// class. Errors wrap proof.ErrModelUnavailable.
func (a *Adapter) Classify(text string) (proof.Verdict, float64, error) {
	pInvalid, pValid, err := a.Probabilities(text)
	if err != nil {
		return proof.Unknown, 0, err
	}
	v, conf := decide(pInvalid, pValid, a.boundary)
	return v, conf, nil
}

func decide(pInvalid, pValid, boundary float64) (proof.Verdict, float64) {
	if pValid > boundary {
		return proof.Valid, max(pInvalid, pValid)
	}
	return proof.Invalid, max(pInvalid, pValid)
}
