package textmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	got := tokenize("Let x be 2, so x+1=3.")
	assert.Equal(t, []string{"let", "be", "so"}, got)
}

func TestAnalyze_Bigrams(t *testing.T) {
	got := analyze("a quick Brown fox", 2)
	assert.Equal(t, []string{"quick", "brown", "fox", "quick brown", "brown fox"}, got)
}

func TestFitVectorizer_SmoothIDF(t *testing.T) {
	v, err := FitVectorizer([]string{"alpha beta", "alpha gamma"}, 0)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"alpha":       0,
		"alpha beta":  1,
		"alpha gamma": 2,
		"beta":        3,
		"gamma":       4,
	}, v.Vocabulary)
	assert.InDelta(t, 1.0, v.IDF[0], 1e-12)
	assert.InDelta(t, math.Log(3.0/2.0)+1, v.IDF[3], 1e-12)
}

func TestFitVectorizer_MaxFeaturesKeepsMostFrequent(t *testing.T) {
	v, err := FitVectorizer([]string{"alpha beta", "alpha gamma"}, 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"alpha": 0}, v.Vocabulary)
	assert.Equal(t, 1, v.Dim())
}

func TestFitVectorizer_Errors(t *testing.T) {
	_, err := FitVectorizer(nil, 10)
	assert.Error(t, err)

	_, err = FitVectorizer([]string{"x y z"}, 10)
	assert.Error(t, err, "single-character tokens yield no vocabulary")
}

func TestTransform_L2Normalised(t *testing.T) {
	v, err := FitVectorizer([]string{"alpha beta", "alpha gamma", "beta delta"}, 0)
	require.NoError(t, err)

	x := v.Transform("alpha beta beta")
	require.NotZero(t, x.Len())

	var norm float64
	for i, val := range x.Values {
		norm += val * val
		if i > 0 {
			assert.Greater(t, x.Indices[i], x.Indices[i-1], "indices must be increasing")
		}
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestTransform_UnknownTerms(t *testing.T) {
	v, err := FitVectorizer([]string{"alpha beta"}, 0)
	require.NoError(t, err)
	assert.Zero(t, v.Transform("omega psi").Len())
}

func TestPredictProba_SumsToOne(t *testing.T) {
	m := &LogisticRegression{Weights: []float64{2.5, -1.0, 0.3}, Bias: -0.2}
	xs := []SparseVector{
		{},
		{Indices: []int{0}, Values: []float64{1}},
		{Indices: []int{1, 2}, Values: []float64{0.6, 0.8}},
		{Indices: []int{0, 1, 2}, Values: []float64{0.57, 0.57, 0.57}},
	}
	for _, x := range xs {
		pInvalid, pValid, err := m.PredictProba(x)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, pInvalid+pValid, 1e-6)
		assert.True(t, pValid >= 0 && pValid <= 1)
	}
}

func TestPredictProba_WidthMismatch(t *testing.T) {
	m := &LogisticRegression{Weights: []float64{1}}
	_, _, err := m.PredictProba(SparseVector{Indices: []int{3}, Values: []float64{1}})
	assert.Error(t, err)
}

func TestSigmoid_Extremes(t *testing.T) {
	assert.InDelta(t, 1.0, sigmoid(800), 1e-12)
	assert.InDelta(t, 0.0, sigmoid(-800), 1e-12)
	assert.Equal(t, 0.5, sigmoid(0))
}
