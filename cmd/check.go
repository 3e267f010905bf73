package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/proofcheck/internal/proof"
)

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Check a single proof",
	Long: `Check one proof given as arguments, with --file, or on stdin.

Rules are consulted for short proofs unless --no-rules is set.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("file", "f", "", "Read the proof from a file")
	checkCmd.Flags().Bool("no-rules", false, "Skip the lexical rules and use the model only")
	checkCmd.Flags().Bool("explain", false, "Ask the configured LLM for an explanation")
	checkCmd.Flags().Bool("json", false, "Print the result as JSON")
}

type checkOutput struct {
	proof.Result
	Kind        string `json:"kind"`
	Rule        string `json:"rule,omitempty"`
	Indicator   string `json:"indicator,omitempty"`
	Degraded    bool   `json:"degraded,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := readProofText(cmd, args)
	if err != nil {
		return err
	}
	noRules, _ := cmd.Flags().GetBool("no-rules")
	wantExplain, _ := cmd.Flags().GetBool("explain")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	d, err := newEngine(nil).Decide(ctx, text, !noRules)
	if err != nil {
		return err
	}

	var explanation string
	if ex := newExplainer(ctx, wantExplain || cfg.Explain.Enabled, nil); ex != nil {
		explanation = ex.Text(ctx, proof.Proof{ID: "cli", Text: text}, d.Result)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(checkOutput{
			Result:      d.Result,
			Kind:        d.Kind.String(),
			Rule:        d.Rule,
			Indicator:   d.Indicator,
			Degraded:    d.Degraded,
			Explanation: explanation,
		})
	}
	printDecision(out, d, explanation)
	return nil
}

func readProofText(cmd *cobra.Command, args []string) (string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read proof: %w", err)
		}
		return string(b), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}
