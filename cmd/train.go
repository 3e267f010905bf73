package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/abhisek/proofcheck/internal/dataset"
	"github.com/abhisek/proofcheck/internal/textmodel"
	"github.com/abhisek/proofcheck/internal/ui/theme"
)

var errNoExamples = errors.New("dataset has no labelled proofs")

var trainCmd = &cobra.Command{
	Use:   "train <dataset>",
	Short: "Train the TF-IDF + logistic regression model bundle",
	Long: `Train a model bundle from a labelled dataset (is_correct column).

The data is shuffled with --seed, --test-split is held out for scoring,
and the bundle (vectorizer.json, classifier.json) is written to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrain,
}

func init() {
	d := textmodel.DefaultTrainOptions()
	f := trainCmd.Flags()
	f.StringP("out", "o", "", "Bundle output directory (default: model.bundle_dir)")
	f.Int("max-features", d.MaxFeatures, "Vocabulary size")
	f.Float64("test-split", d.TestSplit, "Fraction held out for evaluation")
	f.Uint64("seed", d.Seed, "Shuffle seed")
	f.Int("max-iter", d.Fit.MaxIter, "LBFGS iteration cap")
	f.Float64("c", d.Fit.C, "Inverse regularisation strength")
}

func runTrain(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	out, _ := f.GetString("out")
	if out == "" {
		out = cfg.Model.BundleDir
	}
	if out == "" {
		return errors.New("no output directory: pass --out or set model.bundle_dir")
	}

	opts := textmodel.DefaultTrainOptions()
	opts.MaxFeatures, _ = f.GetInt("max-features")
	opts.TestSplit, _ = f.GetFloat64("test-split")
	opts.Seed, _ = f.GetUint64("seed")
	opts.Fit.MaxIter, _ = f.GetInt("max-iter")
	opts.Fit.C, _ = f.GetFloat64("c")

	ds, err := dataset.Load(args[0])
	if err != nil {
		return err
	}
	examples := ds.Examples()
	if len(examples) == 0 {
		return errNoExamples
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	bundle, report, err := textmodel.Train(ctx, examples, opts)
	if err != nil {
		return err
	}
	if err := bundle.Save(out); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, theme.Title.Render("Model trained"))
	fmt.Fprintln(w, row("Bundle", out))
	fmt.Fprintln(w, row("Train / test", fmt.Sprintf("%d / %d", report.TrainSize, report.TestSize)))
	fmt.Fprintln(w, row("Features", fmt.Sprint(report.Features)))
	if report.Accuracy != nil {
		fmt.Fprintln(w, row("Accuracy", fmt.Sprintf("%.2f%% (%d/%d)", *report.Accuracy*100, report.Correct, report.TestSize)))
	} else {
		fmt.Fprintln(w, row("Accuracy", theme.Hint.Render("no test set")))
	}
	return nil
}
