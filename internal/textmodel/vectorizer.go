package textmodel

import (
	"fmt"
	"math"
	"sort"
)

// DefaultMaxFeatures caps the vocabulary size at training time.
const DefaultMaxFeatures = 5000

// SparseVector is a feature vector holding only non-zero entries.
// Indices are strictly increasing.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of non-zero entries.
func (v SparseVector) Len() int { return len(v.Indices) }

// Vectorizer maps text to L2-normalised TF-IDF vectors over a fixed
// vocabulary of unigrams and bigrams.
type Vectorizer struct {
	NgramMax   int            `json:"ngram_max"`
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

// FitVectorizer learns the vocabulary and idf weights from docs.
// The vocabulary keeps the maxFeatures terms with the highest corpus
// frequency (ties broken alphabetically); term indices follow
// alphabetical order. Idf is smoothed: ln((1+n)/(1+df)) + 1.
func FitVectorizer(docs []string, maxFeatures int) (*Vectorizer, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("fit vectorizer: no documents")
	}
	const ngramMax = 2

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range analyze(doc, ngramMax) {
			termFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}
	if len(termFreq) == 0 {
		return nil, fmt.Errorf("fit vectorizer: empty vocabulary")
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		NgramMax:   ngramMax,
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return v, nil
}

// Dim returns the width of the feature space.
func (v *Vectorizer) Dim() int { return len(v.IDF) }

// Transform converts text to its TF-IDF vector. Terms outside the
// vocabulary are ignored; text with no known terms yields an empty vector.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range analyze(text, v.NgramMax) {
		if idx, ok := v.Vocabulary[term]; ok && idx < len(v.IDF) {
			counts[idx]++
		}
	}

	out := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		out.Indices = append(out.Indices, idx)
	}
	sort.Ints(out.Indices)

	var norm float64
	for _, idx := range out.Indices {
		w := counts[idx] * v.IDF[idx]
		out.Values = append(out.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out.Values {
			out.Values[i] /= norm
		}
	}
	return out
}

func (v *Vectorizer) validate() error {
	if len(v.IDF) == 0 {
		return fmt.Errorf("vectorizer has an empty vocabulary")
	}
	if len(v.Vocabulary) != len(v.IDF) {
		return fmt.Errorf("vectorizer vocabulary size %d does not match idf size %d", len(v.Vocabulary), len(v.IDF))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return fmt.Errorf("vectorizer term %q has out-of-range index %d", term, idx)
		}
	}
	return nil
}
