package textmodel

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/abhisek/proofcheck/internal/logging"
)

// LogisticRegression is a binary linear classifier. The positive class
// is "valid".
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// FitOptions controls logistic regression training.
type FitOptions struct {
	// C is the inverse L2 regularisation strength.
	C float64
	// MaxIter caps LBFGS major iterations; 0 means no cap.
	MaxIter int
	// Tolerance is the gradient norm at which the fit is converged.
	Tolerance float64
}

// DefaultFitOptions mirrors a C=1.0 fit capped at 1000 iterations.
func DefaultFitOptions() FitOptions {
	return FitOptions{C: 1.0, MaxIter: 1000, Tolerance: 1e-6}
}

// FitLogistic trains a classifier on xs with labels ys (true = valid) by
// minimising the mean log-loss plus an L2 penalty of ||w||^2 / (2*C*n)
// with LBFGS. The bias is not penalised.
func FitLogistic(ctx context.Context, xs []SparseVector, ys []bool, dim int, opts FitOptions) (*LogisticRegression, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("fit classifier: no samples")
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("fit classifier: %d samples but %d labels", len(xs), len(ys))
	}
	if opts.C <= 0 {
		return nil, fmt.Errorf("fit classifier: C must be positive, got %g", opts.C)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	obj := &logLoss{xs: xs, ys: ys, dim: dim, lambda: 1 / (opts.C * float64(len(xs)))}
	problem := optimize.Problem{
		Func: func(p []float64) float64 { return obj.eval(p, nil) },
		Grad: func(grad, p []float64) { obj.eval(p, grad) },
	}
	settings := &optimize.Settings{
		MajorIterations:   opts.MaxIter,
		GradientThreshold: opts.Tolerance,
		Recorder:          ctxRecorder{ctx},
	}

	res, err := optimize.Minimize(problem, make([]float64, dim+1), settings, &optimize.LBFGS{})
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if res == nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	if err != nil {
		// Line-search stalls near the optimum still leave a usable point.
		logging.New("textmodel").Debug("optimizer stopped early", "status", res.Status, "error", err)
	}

	m := &LogisticRegression{
		Weights: append([]float64(nil), res.X[:dim]...),
		Bias:    res.X[dim],
	}
	return m, nil
}

// logLoss is the regularised objective over parameters laid out as
// weights followed by the bias.
type logLoss struct {
	xs     []SparseVector
	ys     []bool
	dim    int
	lambda float64
}

// eval returns the objective at p and, when grad is non-nil, writes its
// gradient.
func (l *logLoss) eval(p, grad []float64) float64 {
	w, b := p[:l.dim], p[l.dim]
	n := float64(len(l.xs))

	var loss, reg float64
	for _, wi := range w {
		reg += wi * wi
	}
	if grad != nil {
		for i := range l.dim {
			grad[i] = l.lambda * w[i]
		}
		grad[l.dim] = 0
	}

	for i, x := range l.xs {
		z := b
		for k, idx := range x.Indices {
			z += w[idx] * x.Values[k]
		}
		y := 0.0
		if l.ys[i] {
			y = 1
		}
		loss += softplus(z) - y*z
		if grad == nil {
			continue
		}
		diff := (sigmoid(z) - y) / n
		for k, idx := range x.Indices {
			grad[idx] += diff * x.Values[k]
		}
		grad[l.dim] += diff
	}
	return loss/n + l.lambda*reg/2
}

// ctxRecorder stops the optimizer once ctx is done.
type ctxRecorder struct {
	ctx context.Context
}

func (ctxRecorder) Init() error { return nil }

func (r ctxRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// PredictProba returns (p_invalid, p_valid) for x. The two sum to 1.
func (m *LogisticRegression) PredictProba(x SparseVector) (float64, float64, error) {
	for _, idx := range x.Indices {
		if idx < 0 || idx >= len(m.Weights) {
			return 0, 0, fmt.Errorf("feature index %d outside classifier width %d", idx, len(m.Weights))
		}
	}
	pValid := sigmoid(m.score(x))
	return 1 - pValid, pValid, nil
}

func (m *LogisticRegression) score(x SparseVector) float64 {
	z := m.Bias
	for k, idx := range x.Indices {
		z += m.Weights[idx] * x.Values[k]
	}
	return z
}

// softplus is log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
