package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/metrics"
	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClassifier is a scripted statistical stage.
type fakeClassifier struct {
	mu        sync.Mutex
	available bool
	loadErr   error
	verdict   proof.Verdict
	conf      float64
	classErr  error
	calls     int
}

func (f *fakeClassifier) Available() bool { return f.available }
func (f *fakeClassifier) Err() error      { return f.loadErr }

func (f *fakeClassifier) Classify(string) (proof.Verdict, float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.classErr != nil {
		return proof.Unknown, 0, f.classErr
	}
	return f.verdict, f.conf, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func validModel() *fakeClassifier {
	return &fakeClassifier{available: true, verdict: proof.Valid, conf: 0.73}
}

func downModel() *fakeClassifier {
	return &fakeClassifier{loadErr: errors.New("open vectorizer.json: no such file")}
}

func newEngine(c Classifier) *Engine {
	return New(rules.New(rules.DefaultConfig()), c, DefaultConfig())
}

// longProof is 200 words with no indicator phrase.
var longProof = strings.TrimSpace(strings.Repeat("squared numbers stay positive ", 50))

func TestDecide_ScenarioA_ValidRule(t *testing.T) {
	model := validModel()
	e := newEngine(model)

	d, err := e.Decide(context.Background(), "Assume x>0, therefore x+1>0, hence proved.", true)
	require.NoError(t, err)
	assert.Equal(t, KindRule, d.Kind)
	assert.Equal(t, proof.Valid, d.Result.Verdict)
	assert.Equal(t, 0.85, d.Result.Confidence)
	assert.Equal(t, proof.SourceRuleBased, d.Result.Source)
	assert.Equal(t, "valid-indicator", d.Rule)
	assert.Equal(t, "assume", d.Indicator)
	assert.Zero(t, model.callCount())
}

func TestDecide_ScenarioB_InvalidRule(t *testing.T) {
	e := newEngine(validModel())

	d, err := e.Decide(context.Background(), "This is true because I feel it is right, random guess.", true)
	require.NoError(t, err)
	assert.Equal(t, KindRule, d.Kind)
	assert.Equal(t, proof.Invalid, d.Result.Verdict)
	assert.Equal(t, 0.95, d.Result.Confidence)
	assert.Equal(t, proof.SourceRuleBased, d.Result.Source)
	assert.Equal(t, "random", d.Indicator)
}

func TestDecide_ScenarioC_LongProofModelDown(t *testing.T) {
	require.Equal(t, 200, proof.WordCount(longProof))
	e := newEngine(downModel())

	d, err := e.Decide(context.Background(), longProof, true)
	require.NoError(t, err)
	assert.Equal(t, KindUnavailable, d.Kind)
	assert.Equal(t, proof.Unknown, d.Result.Verdict)
	assert.Zero(t, d.Result.Confidence)
	assert.Equal(t, proof.SourceModel, d.Result.Source)
	assert.True(t, d.Degraded)
	assert.ErrorIs(t, d.Cause, proof.ErrModelUnavailable)
	assert.False(t, e.Available())
}

func TestDecide_ShortTextWithoutIndicatorsFallsThrough(t *testing.T) {
	texts := []string{
		"x squared is never negative",
		"squares of reals are nonnegative",
		"1 + 1 = 2",
	}
	for _, text := range texts {
		model := validModel()
		e := newEngine(model)

		d, err := e.Decide(context.Background(), text, true)
		require.NoError(t, err, text)
		assert.Equal(t, KindModel, d.Kind, text)
		assert.Equal(t, proof.SourceModel, d.Result.Source, text)
		assert.Equal(t, 0.73, d.Result.Confidence, text)
		assert.Equal(t, 1, model.callCount(), text)
	}
}

func TestDecide_RulesDisabled(t *testing.T) {
	model := validModel()
	e := newEngine(model)

	d, err := e.Decide(context.Background(), "2=1 hence done", false)
	require.NoError(t, err)
	assert.Equal(t, KindModel, d.Kind)
	assert.Equal(t, proof.Valid, d.Result.Verdict)
	assert.Equal(t, 1, model.callCount())
}

func TestDecide_WordGate(t *testing.T) {
	words := func(n int) string {
		return "hence" + strings.Repeat(" step", n-1)
	}
	tests := []struct {
		words int
		want  Kind
	}{
		{1, KindRule},
		{19, KindRule},
		{20, KindModel},
		{45, KindModel},
	}
	for _, tt := range tests {
		e := newEngine(validModel())
		d, err := e.Decide(context.Background(), words(tt.words), true)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.Kind, "%d words", tt.words)
	}
}

func TestDecide_ConfigurableWordGate(t *testing.T) {
	e := New(rules.New(rules.DefaultConfig()), validModel(), Config{WordGate: 3})
	d, err := e.Decide(context.Background(), "hence x holds", true)
	require.NoError(t, err)
	assert.Equal(t, KindModel, d.Kind, "three words is not below a gate of three")
}

func TestDecide_EmptyInput(t *testing.T) {
	model := validModel()
	e := newEngine(model)
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := e.Decide(context.Background(), text, true)
		assert.ErrorIs(t, err, proof.ErrEmptyInput)
	}
	assert.Zero(t, model.callCount())
}

func TestDecide_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(validModel()).Decide(ctx, "hence", true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecide_InferenceFailureDegrades(t *testing.T) {
	model := &fakeClassifier{available: true, classErr: errors.New("feature index out of range")}
	e := newEngine(model)

	d, err := e.Decide(context.Background(), longProof, false)
	require.NoError(t, err)
	assert.Equal(t, KindUnavailable, d.Kind)
	assert.True(t, d.Degraded)
	assert.ErrorIs(t, d.Cause, proof.ErrModelUnavailable)
}

func TestDecide_RulesStillWorkWhenModelDown(t *testing.T) {
	e := newEngine(downModel())
	d, err := e.Decide(context.Background(), "trust me, it works", true)
	require.NoError(t, err)
	assert.Equal(t, KindRule, d.Kind)
	assert.False(t, d.Degraded)
}

func TestDecide_NilClassifier(t *testing.T) {
	e := New(nil, nil, DefaultConfig())
	d, err := e.Decide(context.Background(), "hence", true)
	require.NoError(t, err)
	assert.Equal(t, KindUnavailable, d.Kind)
	assert.ErrorIs(t, d.Cause, proof.ErrModelUnavailable)
}

func TestDecideProof_StampsID(t *testing.T) {
	e := newEngine(validModel())
	d, err := e.DecideProof(context.Background(), proof.Proof{ID: "p-7", Text: "thus x"}, true)
	require.NoError(t, err)
	assert.Equal(t, "p-7", d.Result.ProofID)
}

func TestDecide_WarnsOnce(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	logging.Init(slog.LevelInfo, "text", &buf)

	e := newEngine(downModel())
	for range 3 {
		_, err := e.Decide(context.Background(), longProof, true)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "classifier unavailable"))
}

func TestDecide_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	e := New(rules.New(rules.DefaultConfig()), downModel(), DefaultConfig(), WithMetrics(rec))

	_, _ = e.Decide(context.Background(), "hence done", true)
	_, _ = e.Decide(context.Background(), longProof, true)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "proofcheck_decisions_total")
	assert.Contains(t, names, "proofcheck_model_unavailable_total")

	n, err := testutil.GatherAndCount(reg, "proofcheck_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one rule/valid and one model/unknown series")
}
