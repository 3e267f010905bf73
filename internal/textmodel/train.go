package textmodel

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/abhisek/proofcheck/internal/logging"
)

// Example is a labelled training text.
type Example struct {
	Text  string
	Valid bool
}

// TrainOptions configures an offline training run.
type TrainOptions struct {
	MaxFeatures int
	TestSplit   float64 // fraction held out for evaluation, in [0, 1)
	Seed        uint64
	Fit         FitOptions
}

// DefaultTrainOptions returns an 80/20 split with seed 42 and a
// 5000-term vocabulary.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MaxFeatures: DefaultMaxFeatures,
		TestSplit:   0.2,
		Seed:        42,
		Fit:         DefaultFitOptions(),
	}
}

// TrainReport summarises a training run.
type TrainReport struct {
	TrainSize int
	TestSize  int
	Features  int
	Correct   int
	Accuracy  *float64 // nil when nothing was held out
}

// Train shuffles examples with the configured seed, holds out the test
// split, fits a bundle on the rest and scores it on the held-out part.
func Train(ctx context.Context, examples []Example, opts TrainOptions) (*Bundle, *TrainReport, error) {
	log := logging.New("train")

	if len(examples) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 labelled examples, got %d", len(examples))
	}
	if opts.TestSplit < 0 || opts.TestSplit >= 1 {
		return nil, nil, fmt.Errorf("test split must be in [0, 1), got %g", opts.TestSplit)
	}

	shuffled := append([]Example(nil), examples...)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(float64(len(shuffled)) * opts.TestSplit)
	test, train := shuffled[:nTest], shuffled[nTest:]

	var valid, invalid int
	for _, ex := range train {
		if ex.Valid {
			valid++
		} else {
			invalid++
		}
	}
	if valid == 0 || invalid == 0 {
		return nil, nil, fmt.Errorf("training split needs both classes (valid=%d, invalid=%d)", valid, invalid)
	}

	docs := make([]string, len(train))
	labels := make([]bool, len(train))
	for i, ex := range train {
		docs[i] = ex.Text
		labels[i] = ex.Valid
	}

	vec, err := FitVectorizer(docs, opts.MaxFeatures)
	if err != nil {
		return nil, nil, err
	}
	xs := make([]SparseVector, len(docs))
	for i, d := range docs {
		xs[i] = vec.Transform(d)
	}
	log.Info("fitting classifier", "samples", len(xs), "features", vec.Dim(), "max_iter", opts.Fit.MaxIter)

	clf, err := FitLogistic(ctx, xs, labels, vec.Dim(), opts.Fit)
	if err != nil {
		return nil, nil, err
	}

	bundle := &Bundle{Vectorizer: vec, Classifier: clf}
	report := &TrainReport{
		TrainSize: len(train),
		TestSize:  len(test),
		Features:  vec.Dim(),
	}
	if len(test) > 0 {
		for _, ex := range test {
			_, pValid, err := bundle.Probabilities(ex.Text)
			if err != nil {
				return nil, nil, err
			}
			if (pValid > DefaultDecisionBoundary) == ex.Valid {
				report.Correct++
			}
		}
		acc := float64(report.Correct) / float64(len(test))
		report.Accuracy = &acc
	}
	return bundle, report, nil
}
