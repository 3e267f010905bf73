package textmodel

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fillers = []string{"apple", "river", "stone", "cloud", "maple", "tiger", "piano", "ocean", "forest", "candle"}

func syntheticExamples() []Example {
	var out []Example
	for _, w := range fillers {
		for _, v := range []string{"one", "two"} {
			out = append(out,
				Example{Text: fmt.Sprintf("assume %s %s holds then hence the claim follows", w, v), Valid: true},
				Example{Text: fmt.Sprintf("obviously %s %s works trust me nothing else matters", w, v), Valid: false},
			)
		}
	}
	return out
}

func TestFitLogistic_Separable(t *testing.T) {
	docs := []string{"good proof", "good argument", "bad proof", "bad argument"}
	labels := []bool{true, true, false, false}

	v, err := FitVectorizer(docs, 0)
	require.NoError(t, err)
	xs := make([]SparseVector, len(docs))
	for i, d := range docs {
		xs[i] = v.Transform(d)
	}

	m, err := FitLogistic(context.Background(), xs, labels, v.Dim(), DefaultFitOptions())
	require.NoError(t, err)

	for i, x := range xs {
		_, pValid, err := m.PredictProba(x)
		require.NoError(t, err)
		assert.Equal(t, labels[i], pValid > 0.5, "doc %q", docs[i])
	}
}

func TestLogLoss_GradientMatchesFiniteDifference(t *testing.T) {
	obj := &logLoss{
		xs: []SparseVector{
			{Indices: []int{0, 2}, Values: []float64{0.6, 0.8}},
			{Indices: []int{1}, Values: []float64{1}},
			{Indices: []int{0, 1}, Values: []float64{0.5, 0.5}},
		},
		ys:     []bool{true, false, true},
		dim:    3,
		lambda: 0.3,
	}
	p := []float64{0.2, -0.4, 0.7, 0.1}
	grad := make([]float64, len(p))
	obj.eval(p, grad)

	const h = 1e-6
	for i := range p {
		up := append([]float64(nil), p...)
		down := append([]float64(nil), p...)
		up[i] += h
		down[i] -= h
		want := (obj.eval(up, nil) - obj.eval(down, nil)) / (2 * h)
		assert.InDelta(t, want, grad[i], 1e-6, "component %d", i)
	}
}

func TestFitLogistic_Converges(t *testing.T) {
	examples := syntheticExamples()
	docs := make([]string, len(examples))
	labels := make([]bool, len(examples))
	for i, e := range examples {
		docs[i], labels[i] = e.Text, e.Valid
	}
	v, err := FitVectorizer(docs, 0)
	require.NoError(t, err)
	xs := make([]SparseVector, len(docs))
	for i, d := range docs {
		xs[i] = v.Transform(d)
	}

	opts := DefaultFitOptions()
	m, err := FitLogistic(context.Background(), xs, labels, v.Dim(), opts)
	require.NoError(t, err)

	obj := &logLoss{xs: xs, ys: labels, dim: v.Dim(), lambda: 1 / (opts.C * float64(len(xs)))}
	p := append(append([]float64(nil), m.Weights...), m.Bias)
	grad := make([]float64, len(p))
	obj.eval(p, grad)
	var norm float64
	for _, g := range grad {
		norm = math.Max(norm, math.Abs(g))
	}
	assert.Less(t, norm, 1e-4, "gradient at the fitted point")
}

func TestFitLogistic_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := FitLogistic(ctx, nil, nil, 1, DefaultFitOptions())
	assert.Error(t, err)

	_, err = FitLogistic(ctx, []SparseVector{{}}, []bool{true, false}, 1, DefaultFitOptions())
	assert.Error(t, err)

	opts := DefaultFitOptions()
	opts.C = 0
	_, err = FitLogistic(ctx, []SparseVector{{}}, []bool{true}, 1, opts)
	assert.Error(t, err)
}

func TestFitLogistic_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FitLogistic(ctx, []SparseVector{{}}, []bool{true}, 1, DefaultFitOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrain_HoldOutAccuracy(t *testing.T) {
	examples := syntheticExamples()
	bundle, report, err := Train(context.Background(), examples, DefaultTrainOptions())
	require.NoError(t, err)

	assert.Equal(t, 8, report.TestSize)
	assert.Equal(t, 32, report.TrainSize)
	require.NotNil(t, report.Accuracy)
	assert.GreaterOrEqual(t, *report.Accuracy, 0.75)
	require.NoError(t, bundle.Validate())

	a := NewAdapter(Static(bundle))
	v, conf, err := a.Classify("assume piano three holds then hence the claim follows")
	require.NoError(t, err)
	assert.Equal(t, "valid", v.String())
	assert.Greater(t, conf, 0.5)
}

func TestTrain_Deterministic(t *testing.T) {
	examples := syntheticExamples()
	b1, r1, err := Train(context.Background(), examples, DefaultTrainOptions())
	require.NoError(t, err)
	b2, r2, err := Train(context.Background(), examples, DefaultTrainOptions())
	require.NoError(t, err)

	assert.Equal(t, r1.Correct, r2.Correct)
	assert.Equal(t, b1.Vectorizer.Vocabulary, b2.Vectorizer.Vocabulary)
	assert.Equal(t, b1.Classifier.Weights, b2.Classifier.Weights)
}

func TestTrain_NoHoldOut(t *testing.T) {
	opts := DefaultTrainOptions()
	opts.TestSplit = 0
	_, report, err := Train(context.Background(), syntheticExamples(), opts)
	require.NoError(t, err)
	assert.Zero(t, report.TestSize)
	assert.Nil(t, report.Accuracy)
}

func TestTrain_Errors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Train(ctx, []Example{{Text: "only one", Valid: true}}, DefaultTrainOptions())
	assert.Error(t, err)

	oneClass := []Example{
		{Text: "assume alpha", Valid: true},
		{Text: "assume beta", Valid: true},
		{Text: "assume gamma", Valid: true},
	}
	_, _, err = Train(ctx, oneClass, DefaultTrainOptions())
	assert.ErrorContains(t, err, "both classes")

	opts := DefaultTrainOptions()
	opts.TestSplit = 1
	_, _, err = Train(ctx, syntheticExamples(), opts)
	assert.Error(t, err)
}
