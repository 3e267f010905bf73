// Package explain asks an LLM for a short rationale of a verdict. The
// explanation is attached to output only and never changes the verdict.
package explain

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"text/template"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/proofcheck/internal/batch"
	"github.com/abhisek/proofcheck/internal/llm"
	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/proof"
)

// Config controls explanation requests.
type Config struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=1"`
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:    time.Hour,
		MaxTokens:   256,
		Temperature: 0.2,
		Concurrency: 2,
	}
}

// Explanation is the model's rationale for a verdict.
type Explanation struct {
	Explanation   string `json:"explanation"`
	SuspectedFlaw Flaw   `json:"suspected_flaw"`
}

// Explainer generates and caches explanations.
type Explainer struct {
	provider llm.Provider
	cfg      Config
	cache    *gocache.Cache
	log      *slog.Logger
}

// New creates an Explainer. A non-positive CacheTTL disables expiry.
func New(provider llm.Provider, cfg Config) *Explainer {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Explainer{
		provider: provider,
		cfg:      cfg,
		cache:    gocache.New(ttl, 10*time.Minute),
		log:      logging.New("explain"),
	}
}

// Explain returns the rationale for r. Identical text with the same
// verdict and source is served from cache.
func (e *Explainer) Explain(ctx context.Context, p proof.Proof, r proof.Result) (*Explanation, error) {
	key := cacheKey(p.Text, r)
	if v, ok := e.cache.Get(key); ok {
		return v.(*Explanation), nil
	}

	msg, err := buildMessage(p, r)
	if err != nil {
		return nil, fmt.Errorf("build explanation prompt: %w", err)
	}
	resp, err := e.provider.Generate(llm.WithPurpose(ctx, "explain"), llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserPrompt(msg),
		Schema:      Schema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM explanation failed: %w", err)
	}

	var out Explanation
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse explanation: %w", err)
	}
	e.cache.SetDefault(key, &out)
	return &out, nil
}

// Text returns a one-line explanation, or "" when the request fails.
// Failures are logged and otherwise ignored.
func (e *Explainer) Text(ctx context.Context, p proof.Proof, r proof.Result) string {
	if r.Verdict == proof.Unknown {
		return ""
	}
	ex, err := e.Explain(ctx, p, r)
	if err != nil {
		e.log.Warn("explanation unavailable", "proof_id", p.ID, "error", err)
		return ""
	}
	if ex.SuspectedFlaw == "" || ex.SuspectedFlaw == FlawNone {
		return ex.Explanation
	}
	return fmt.Sprintf("%s [%s]", ex.Explanation, ex.SuspectedFlaw)
}

// Items explains every decided item, keyed by item index for
// export.FromItems. Unknown verdicts and failed requests are absent.
func (e *Explainer) Items(ctx context.Context, items []batch.Item) map[int]string {
	var (
		mu  sync.Mutex
		out = make(map[int]string, len(items))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for _, it := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if s := e.Text(gctx, it.Proof, it.Result()); s != "" {
				mu.Lock()
				out[it.Index] = s
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// cacheKey covers every result field the prompt shows except the
// confidence, so a rule and a model verdict are explained separately.
func cacheKey(text string, r proof.Result) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:]) + ":" + r.Verdict.String() + ":" + r.Source.String()
}

const systemPrompt = `You review short mathematical proofs. A classifier has already decided whether the proof is valid. Explain the decision; do not overturn it.

Instructions:
- Write one or two plain sentences.
- Pick suspected_flaw from the listed categories; use "none" for a valid proof.
- Do not invent categories.`

var userTemplate = template.Must(template.New("explain").Parse(`{{with .Proof.TheoremName}}Theorem: {{.}}
{{end}}{{with .Proof.Domain}}Domain: {{.}}
{{end}}Proof:
{{.Proof.Text}}

Verdict: {{.Result.Verdict}} (confidence {{printf "%.2f" .Result.Confidence}}, decided by {{.Result.Source}})

Flaw categories:
{{range .Taxonomy}}- {{.Flaw}}: {{.Description}}
{{end}}`))

func buildMessage(p proof.Proof, r proof.Result) (string, error) {
	var buf bytes.Buffer
	err := userTemplate.Execute(&buf, map[string]any{
		"Proof":    p,
		"Result":   r,
		"Taxonomy": Taxonomy,
	})
	return buf.String(), err
}
