package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/proofcheck/internal/llm"
	"github.com/abhisek/proofcheck/internal/store"
	"github.com/abhisek/proofcheck/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM explanation requests",
	Long: `Every explanation request sent to an LLM provider is recorded in the
local database together with token counts and latency. These commands
read that log back; they never call a provider.`,
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent explanation requests",
	RunE:  runLLMList,
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and response of one request",
	Args:  cobra.ExactArgs(1),
	RunE:  runLLMView,
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise token usage and estimated cost",
	RunE:  runLLMStats,
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show requests with this purpose (e.g. explain)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}

func runLLMList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	purpose, _ := cmd.Flags().GetString("purpose")

	s, err := mustOpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	events, err := s.QueryLLMEvents(cmd.Context(), store.LLMQuery{Limit: limit, Purpose: purpose})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintln(w, "No LLM requests recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-19s  %-9s  %-10s  %-26s  %6s  %6s  %6s\n",
		"ID", "Time", "Purpose", "Provider", "Model", "In", "Out", "Ms")
	fmt.Fprintln(w, strings.Repeat("─", 98))
	for _, e := range events {
		status := ""
		if !e.Success {
			status = "  " + theme.Invalid.Render("failed")
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-9s  %-10s  %-26s  %6d  %6d  %6d%s\n",
			e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose, e.Provider,
			truncate(e.Model, 26), e.InputTokens, e.OutputTokens, e.LatencyMs, status)
	}
	return nil
}

func runLLMView(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid request id %q", args[0])
	}

	s, err := mustOpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := s.GetLLMEvent(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("request %d not found", id)
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, row("ID", strconv.FormatInt(e.ID, 10)))
	fmt.Fprintln(w, row("Time", e.Timestamp.Local().Format(timeLayout)))
	fmt.Fprintln(w, row("Model", e.Provider+" / "+e.Model))
	fmt.Fprintln(w, row("Purpose", e.Purpose))
	fmt.Fprintln(w, row("Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens)))
	fmt.Fprintln(w, row("Latency", fmt.Sprintf("%dms", e.LatencyMs)))
	if e.ErrorMessage != "" {
		fmt.Fprintln(w, row("Error", theme.Invalid.Render(e.ErrorMessage)))
	}
	printBody(w, "Prompt", e.RequestBody)
	printBody(w, "Response", e.ResponseBody)
	return nil
}

func printBody(w io.Writer, title, body string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Title.Render(title))
	fmt.Fprintln(w, sectionRule)
	if body == "" {
		body = theme.Hint.Render("(not captured)")
	}
	fmt.Fprintln(w, body)
}

func runLLMStats(cmd *cobra.Command, args []string) error {
	s, err := mustOpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	byPurpose, err := s.LLMUsageByPurpose(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(byPurpose) == 0 {
		fmt.Fprintln(w, "No LLM usage recorded.")
		return nil
	}

	fmt.Fprintln(w, theme.Title.Render("Usage by purpose"))
	fmt.Fprintf(w, "%-14s  %6s  %10s  %10s  %8s\n", "Purpose", "Calls", "Input", "Output", "Avg ms")
	fmt.Fprintln(w, sectionRule+strings.Repeat("─", 6))
	for _, u := range byPurpose {
		fmt.Fprintf(w, "%-14s  %6d  %10d  %10d  %8d\n",
			u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
	}

	byModel, err := s.LLMUsageByModel(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	printCostTable(w, byModel)
	return nil
}

// printCostTable prices each model from the built-in table. Models without
// a price are listed but left out of the total.
func printCostTable(w io.Writer, usage []store.ModelUsage) {
	fmt.Fprintln(w, theme.Title.Render("Estimated cost (USD)"))
	fmt.Fprintf(w, "%-30s  %6s  %10s\n", "Model", "Calls", "Cost")
	fmt.Fprintln(w, sectionRule+strings.Repeat("─", 6))

	var total float64
	var unpriced []string
	for _, u := range usage {
		price := llm.LookupCost(u.Model)
		if price == nil {
			unpriced = append(unpriced, u.Model)
			fmt.Fprintf(w, "%-30s  %6d  %10s\n", truncate(u.Model, 30), u.Calls, "?")
			continue
		}
		c := price.Cost(u.InputTokens, u.OutputTokens)
		total += c
		fmt.Fprintf(w, "%-30s  %6d  %10s\n", truncate(u.Model, 30), u.Calls, formatCost(c))
	}

	label := "Total"
	if len(unpriced) > 0 {
		label = "Total (partial)"
	}
	fmt.Fprintf(w, "%-30s  %6s  %10s\n", label, "", formatCost(total))
	if len(unpriced) > 0 {
		fmt.Fprintln(w, theme.Hint.Render("No price for: "+strings.Join(unpriced, ", ")))
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
