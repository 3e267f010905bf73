package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDecider returns a model decision whose confidence is looked up
// by proof ID, optionally sleeping to scramble completion order.
type scriptedDecider struct {
	conf     map[string]float64
	verdict  map[string]proof.Verdict
	jitter   bool
	calls    atomic.Int32
	onDecide func(p proof.Proof)
}

func (s *scriptedDecider) DecideProof(ctx context.Context, p proof.Proof, _ bool) (engine.Decision, error) {
	s.calls.Add(1)
	if s.onDecide != nil {
		s.onDecide(p)
	}
	if s.jitter {
		time.Sleep(time.Duration(rand.IntN(3)) * time.Millisecond)
	}
	v, ok := s.verdict[p.ID]
	if !ok {
		v = proof.Valid
	}
	return engine.Decision{
		Kind: engine.KindModel,
		Result: proof.Result{
			ProofID:    p.ID,
			Verdict:    v,
			Confidence: s.conf[p.ID],
			Source:     proof.SourceModel,
		},
	}, nil
}

func TestEvaluate_ScenarioD_EmptyTextSkipped(t *testing.T) {
	d := &scriptedDecider{conf: map[string]float64{"p1": 0.6, "p3": 0.8}}
	ev := New(d)

	proofs := []proof.Proof{
		{ID: "p1", Text: "first proof"},
		{ID: "p2", Text: "   "},
		{ID: "p3", Text: "third proof"},
	}
	report, err := ev.Evaluate(context.Background(), proofs, false)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Skipped)
	require.Len(t, report.Items, 2)
	assert.Equal(t, "p1", report.Items[0].Result().ProofID)
	assert.Equal(t, "p3", report.Items[1].Result().ProofID)
	assert.Equal(t, 2, report.Items[1].Index)
	require.NotNil(t, report.Summary.AverageConfidence)
	assert.InDelta(t, 0.7, *report.Summary.AverageConfidence, 1e-12)
	assert.Equal(t, int32(2), d.calls.Load())
}

func TestEvaluate_PreservesOrder(t *testing.T) {
	const n = 200
	d := &scriptedDecider{conf: map[string]float64{}, jitter: true}
	proofs := make([]proof.Proof, n)
	for i := range proofs {
		id := fmt.Sprintf("p%03d", i)
		proofs[i] = proof.Proof{ID: id, Text: "proof " + id}
		d.conf[id] = float64(i) / n
	}

	report, err := New(d, WithWorkers(8)).Evaluate(context.Background(), proofs, false)
	require.NoError(t, err)
	require.Len(t, report.Items, n)
	for i, it := range report.Items {
		assert.Equal(t, proofs[i].ID, it.Result().ProofID)
		assert.Equal(t, i, it.Index)
	}
}

func TestEvaluate_AllSkippedIsNoData(t *testing.T) {
	report, err := New(&scriptedDecider{}).Evaluate(context.Background(), []proof.Proof{
		{ID: "a", Text: ""},
		{ID: "b", Text: "\t"},
	}, false)
	require.NoError(t, err)
	assert.Zero(t, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Skipped)
	assert.Nil(t, report.Summary.AverageConfidence)
	assert.False(t, report.Summary.HasData())
}

func TestEvaluate_EmptyInput(t *testing.T) {
	report, err := New(&scriptedDecider{}).Evaluate(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, report.Items)
	assert.Nil(t, report.Summary.AverageConfidence)
}

func TestEvaluate_CancelReturnsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &scriptedDecider{
		conf: map[string]float64{},
		onDecide: func(p proof.Proof) {
			if p.ID == "p2" {
				cancel()
			}
		},
	}
	proofs := make([]proof.Proof, 10)
	for i := range proofs {
		proofs[i] = proof.Proof{ID: fmt.Sprintf("p%d", i), Text: "some proof"}
	}

	report, err := New(d, WithWorkers(1)).Evaluate(ctx, proofs, false)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.True(t, report.Cancelled)

	ids := make([]string, 0, len(report.Items))
	for _, it := range report.Items {
		ids = append(ids, it.Result().ProofID)
	}
	assert.Equal(t, []string{"p0", "p1", "p2"}, ids)
	assert.Equal(t, 3, report.Summary.Total)
}

func TestEvaluate_Accuracy(t *testing.T) {
	d := &scriptedDecider{
		conf:    map[string]float64{"a": 0.9, "b": 0.9, "c": 0.9, "d": 0.9},
		verdict: map[string]proof.Verdict{"a": proof.Valid, "b": proof.Invalid, "c": proof.Invalid, "d": proof.Valid},
	}
	proofs := []proof.Proof{
		{ID: "a", Text: "x", Expected: proof.Valid},
		{ID: "b", Text: "x", Expected: proof.Valid},
		{ID: "c", Text: "x", Expected: proof.Invalid},
		{ID: "d", Text: "x"},
	}
	report, err := New(d).Evaluate(context.Background(), proofs, false)
	require.NoError(t, err)

	s := report.Summary
	assert.Equal(t, 2, s.ValidCount)
	assert.Equal(t, 2, s.InvalidCount)
	assert.Equal(t, 3, s.Labeled)
	assert.Equal(t, 2, s.Correct)
	require.NotNil(t, s.Accuracy)
	assert.InDelta(t, 2.0/3.0, *s.Accuracy, 1e-12)
}

func TestEvaluate_DegradedSurfaced(t *testing.T) {
	eng := engine.New(rules.New(rules.DefaultConfig()), nil, engine.DefaultConfig())
	proofs := []proof.Proof{
		{ID: "short", Text: "hence x"},
		{ID: "plain", Text: "squared numbers stay positive"},
	}

	report, err := New(eng).Evaluate(context.Background(), proofs, true)
	require.NoError(t, err)
	require.Len(t, report.Items, 2)

	assert.Equal(t, engine.KindRule, report.Items[0].Decision.Kind)
	assert.Equal(t, engine.KindUnavailable, report.Items[1].Decision.Kind)
	assert.True(t, report.Degraded)
	assert.ErrorIs(t, report.DegradedCause, proof.ErrModelUnavailable)
	assert.Equal(t, 1, report.Summary.UnknownCount)
	require.NotNil(t, report.Summary.AverageConfidence)
	assert.InDelta(t, 0.85/2, *report.Summary.AverageConfidence, 1e-12)
}

func TestStream_LazyAndOrdered(t *testing.T) {
	d := &scriptedDecider{conf: map[string]float64{}}
	proofs := []proof.Proof{
		{ID: "a", Text: "one"},
		{ID: "b", Text: ""},
		{ID: "c", Text: "three"},
		{ID: "d", Text: "four"},
	}
	ev := New(d)

	var ids []string
	for it := range ev.Stream(context.Background(), slices.Values(proofs), false) {
		ids = append(ids, it.Result().ProofID)
		if len(ids) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "c"}, ids)
	assert.Equal(t, int32(2), d.calls.Load(), "proofs after the break must not be decided")

	// The sequence is restartable.
	var all []string
	for it := range ev.Stream(context.Background(), slices.Values(proofs), false) {
		all = append(all, it.Result().ProofID)
	}
	assert.Equal(t, []string{"a", "c", "d"}, all)
}

func TestStream_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := 0
	for range New(&scriptedDecider{}).Stream(ctx, slices.Values([]proof.Proof{{ID: "a", Text: "x"}}), false) {
		n++
	}
	assert.Zero(t, n)
}

func TestSummarize_MeanOfAllConfidences(t *testing.T) {
	items := []Item{
		{Decision: engine.Decision{Result: proof.Result{Verdict: proof.Valid, Confidence: 0.85}}},
		{Decision: engine.Decision{Result: proof.Result{Verdict: proof.Invalid, Confidence: 0.95}}},
		{Decision: engine.Decision{Result: proof.Result{Verdict: proof.Invalid, Confidence: 0.6}}},
	}
	s := Summarize(items)
	require.NotNil(t, s.AverageConfidence)
	assert.InDelta(t, (0.85+0.95+0.6)/3, *s.AverageConfidence, 1e-12)
	assert.Equal(t, 3, s.Total)
	assert.Nil(t, s.Accuracy)
}
