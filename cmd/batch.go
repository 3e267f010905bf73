package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abhisek/proofcheck/internal/batch"
	"github.com/abhisek/proofcheck/internal/dataset"
	"github.com/abhisek/proofcheck/internal/explain"
	"github.com/abhisek/proofcheck/internal/export"
	"github.com/abhisek/proofcheck/internal/logging"
	"github.com/abhisek/proofcheck/internal/metrics"
	"github.com/abhisek/proofcheck/internal/proof"
	"github.com/abhisek/proofcheck/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dataset>",
	Short: "Evaluate every proof in a CSV or JSONL dataset",
	Long: `Evaluate a dataset with columns proof_id, domain, theorem_name,
proof_text, is_correct (optional) and flaw_type (optional).

Rules are off by default in batch mode; pass --rules to enable them.
Results keep input order and can be written as CSV and JSON Lines.
With --stream, proofs are decided one at a time and each result is
printed as a JSON line as soon as it is known.
Each run is saved to the local database unless --no-store is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.IntP("workers", "w", 0, "Concurrent workers (default from config)")
	f.Bool("rules", false, "Consult lexical rules for short proofs")
	f.String("out-csv", "", "Write per-proof results as CSV")
	f.String("out-jsonl", "", "Write per-proof results as JSON Lines")
	f.String("metrics-file", "", "Write Prometheus metrics in text format")
	f.Bool("explain", false, "Attach LLM explanations to the results")
	f.Bool("no-store", false, "Do not save the run to the database")
	f.Bool("json", false, "Print the summary as JSON")
	f.Bool("stream", false, "Decide proofs one at a time and print each result as a JSON line; the summary goes to stderr")
}

func runBatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	flags := cmd.Flags()
	workers, _ := flags.GetInt("workers")
	if workers <= 0 {
		workers = cfg.Batch.Workers
	}
	allowRules := cfg.Batch.AllowRules
	if flags.Changed("rules") {
		allowRules, _ = flags.GetBool("rules")
	}
	outCSV, _ := flags.GetString("out-csv")
	outJSONL, _ := flags.GetString("out-jsonl")
	metricsFile, _ := flags.GetString("metrics-file")
	wantExplain, _ := flags.GetBool("explain")
	noStore, _ := flags.GetBool("no-store")
	asJSON, _ := flags.GetBool("json")
	stream, _ := flags.GetBool("stream")

	log := logging.New("batch")

	ds, err := dataset.Load(path)
	if err != nil {
		return err
	}
	for _, m := range ds.Malformed {
		log.Warn("skipping malformed record", "path", path, "error", m)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	rec.Skipped("malformed", len(ds.Malformed))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var st *store.Store
	if !noStore {
		st = runStore(log)
		if st != nil {
			defer st.Close()
		}
	}
	ex := newExplainer(ctx, wantExplain || cfg.Explain.Enabled, st)

	ev := batch.New(newEngine(rec), batch.WithWorkers(workers), batch.WithMetrics(rec))
	summaryOut := cmd.OutOrStdout()

	var (
		report       *batch.Report
		explanations map[int]string
		runErr       error
	)
	if stream {
		summaryOut = cmd.ErrOrStderr()
		report, explanations, runErr = streamBatch(ctx, cmd.OutOrStdout(), ev, ds.Proofs(), allowRules, ex)
	} else {
		report, runErr = ev.Evaluate(ctx, ds.Proofs(), allowRules)
		if ex != nil && runErr == nil {
			explanations = ex.Items(ctx, report.Items)
		}
	}
	if runErr != nil && !report.Cancelled {
		return runErr
	}
	report.Summary.Malformed = len(ds.Malformed)

	records := export.FromItems(report.Items, cfg.Batch.PreviewLength, explanations)
	if err := writeOutputs(outCSV, outJSONL, records); err != nil {
		return err
	}

	if st != nil {
		id, err := st.SaveRun(context.WithoutCancel(ctx), runFromReport(path, allowRules, report), runResults(records))
		if err != nil {
			log.Warn("failed to save run", "error", err)
		} else {
			log.Info("run saved", "id", id)
		}
	}

	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile, reg); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(summaryOut)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Summary); err != nil {
			return err
		}
	} else {
		printSummary(summaryOut, report)
	}

	if report.Cancelled {
		return fmt.Errorf("batch cancelled: %w", runErr)
	}
	return nil
}

// runStore opens the run database. A failure only costs the saved run,
// so it is logged and the batch carries on without one.
func runStore(log *slog.Logger) *store.Store {
	st, err := openStore()
	if err != nil {
		log.Warn("run will not be saved", "error", err)
		return nil
	}
	return st
}

// streamBatch decides proofs one at a time in input order and writes each
// record to w as a JSON line as soon as it is decided.
func streamBatch(ctx context.Context, w io.Writer, ev *batch.Evaluator, proofs []proof.Proof, allowRules bool, ex *explain.Explainer) (*batch.Report, map[int]string, error) {
	report := &batch.Report{}
	explanations := make(map[int]string)

	for it := range ev.Stream(ctx, slices.Values(proofs), allowRules) {
		if ex != nil {
			if text := ex.Text(ctx, it.Proof, it.Result()); text != "" {
				explanations[it.Index] = text
			}
		}
		if err := export.WriteJSONL(w, export.FromItems([]batch.Item{it}, cfg.Batch.PreviewLength, explanations)); err != nil {
			return report, explanations, fmt.Errorf("write result: %w", err)
		}
		report.Items = append(report.Items, it)
		if it.Decision.Degraded && !report.Degraded {
			report.Degraded = true
			report.DegradedCause = it.Decision.Cause
		}
	}

	report.Summary = batch.Summarize(report.Items)
	for _, p := range proofs {
		if p.IsEmpty() {
			report.Summary.Skipped++
		}
	}
	if err := ctx.Err(); err != nil {
		report.Cancelled = true
		return report, explanations, err
	}
	return report, explanations, nil
}

// writeOutputs writes records to the requested files. Each flag fixes
// its own encoding regardless of the file extension.
func writeOutputs(csvPath, jsonlPath string, records []export.Record) error {
	outputs := []struct {
		path   string
		format export.Format
	}{
		{csvPath, export.CSV},
		{jsonlPath, export.JSONL},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := export.WriteFile(out.path, out.format, records); err != nil {
			return err
		}
		logging.New("batch").Info("results written", "path", out.path, "format", out.format, "records", len(records))
	}
	return nil
}

func runFromReport(source string, allowRules bool, rep *batch.Report) store.Run {
	s := rep.Summary
	return store.Run{
		Source:        source,
		ModelDir:      cfg.Model.BundleDir,
		AllowRules:    allowRules,
		Total:         s.Total,
		Valid:         s.ValidCount,
		Invalid:       s.InvalidCount,
		Unknown:       s.UnknownCount,
		Skipped:       s.Skipped,
		Malformed:     s.Malformed,
		AvgConfidence: s.AverageConfidence,
		Accuracy:      s.Accuracy,
		Degraded:      rep.Degraded,
		Cancelled:     rep.Cancelled,
	}
}

func runResults(records []export.Record) []store.RunResult {
	out := make([]store.RunResult, len(records))
	for i, r := range records {
		out[i] = store.RunResult{
			Position:    i,
			ProofID:     r.ID,
			Verdict:     r.Verdict,
			Confidence:  r.Confidence,
			Source:      r.Source,
			Rule:        r.Rule,
			Expected:    r.Expected,
			FlawType:    r.FlawType,
			Location:    r.Location,
			Explanation: r.Explanation,
		}
	}
	return out
}
