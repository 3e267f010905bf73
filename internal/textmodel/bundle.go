package textmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Bundle artifact file names inside a bundle directory.
const (
	VectorizerFile = "vectorizer.json"
	ClassifierFile = "classifier.json"
)

// Bundle is the trained (vectorizer, classifier) pair. It is read-only
// once loaded.
type Bundle struct {
	Vectorizer *Vectorizer
	Classifier *LogisticRegression
}

// Validate checks that the two halves of the bundle agree on the
// feature space width.
func (b *Bundle) Validate() error {
	if b == nil || b.Vectorizer == nil || b.Classifier == nil {
		return errors.New("incomplete model bundle")
	}
	if err := b.Vectorizer.validate(); err != nil {
		return err
	}
	if got, want := len(b.Classifier.Weights), b.Vectorizer.Dim(); got != want {
		return fmt.Errorf("classifier width %d does not match vocabulary size %d", got, want)
	}
	return nil
}

// Probabilities returns (p_invalid, p_valid) for text.
func (b *Bundle) Probabilities(text string) (float64, float64, error) {
	return b.Classifier.PredictProba(b.Vectorizer.Transform(text))
}

type classifierFile struct {
	LogisticRegression
	TrainedAt time.Time `json:"trained_at"`
}

// Save writes the bundle into dir, creating it if needed.
func (b *Bundle) Save(dir string) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("save bundle: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bundle dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, VectorizerFile), b.Vectorizer); err != nil {
		return err
	}
	cf := classifierFile{LogisticRegression: *b.Classifier, TrainedAt: time.Now().UTC()}
	return writeJSON(filepath.Join(dir, ClassifierFile), cf)
}

// LoadBundle reads and validates a bundle directory.
func LoadBundle(dir string) (*Bundle, error) {
	var vec Vectorizer
	if err := readJSON(filepath.Join(dir, VectorizerFile), &vec); err != nil {
		return nil, err
	}
	var cf classifierFile
	if err := readJSON(filepath.Join(dir, ClassifierFile), &cf); err != nil {
		return nil, err
	}
	b := &Bundle{Vectorizer: &vec, Classifier: &cf.LogisticRegression}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", dir, err)
	}
	return b, nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Loader produces a bundle. It is called at most once per Adapter.
type Loader interface {
	Load() (*Bundle, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func() (*Bundle, error)

func (f LoaderFunc) Load() (*Bundle, error) { return f() }

// DirLoader loads a bundle from a directory on disk.
type DirLoader string

func (d DirLoader) Load() (*Bundle, error) {
	if d == "" {
		return nil, errors.New("no model bundle directory configured")
	}
	return LoadBundle(string(d))
}

// Static returns a Loader that always yields b.
func Static(b *Bundle) Loader {
	return LoaderFunc(func() (*Bundle, error) {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return b, nil
	})
}
