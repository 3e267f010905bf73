package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/proofcheck/internal/app"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Check proofs interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		noRules, _ := cmd.Flags().GetBool("no-rules")
		wantExplain, _ := cmd.Flags().GetBool("explain")

		st, err := openStore()
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}

		opts := app.Options{
			Checker:    newEngine(nil),
			AllowRules: !noRules,
		}
		// Assign only a non-nil explainer so the interface stays nil.
		if ex := newExplainer(cmd.Context(), wantExplain || cfg.Explain.Enabled, st); ex != nil {
			opts.Explainer = ex
		}
		return app.Run(opts)
	},
}

func init() {
	tuiCmd.Flags().Bool("no-rules", false, "Start with lexical rules disabled")
	tuiCmd.Flags().Bool("explain", false, "Ask the configured LLM for explanations")
}
