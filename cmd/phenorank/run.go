package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phenorank/internal/analysis"
	"github.com/phenorank/internal/config"
	"github.com/phenorank/internal/domain"
)

var (
	runAnalysisFile string
	runVariantsFile string
	runOutputFile   string
	runTop          int
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prioritise the genes of an annotated variant file",
		Args:  cobra.NoArgs,
		RunE:  runAnalysis,
	}
	cmd.Flags().StringVarP(&runAnalysisFile, "analysis", "a", "", "Analysis YAML: hpo_ids, filters, filter_policy and priority")
	cmd.Flags().StringVarP(&runVariantsFile, "variants", "v", "", "Annotated variants as a JSON array (- for stdin)")
	cmd.Flags().StringVarP(&runOutputFile, "output", "o", "", "Write the JSON results here instead of stdout")
	cmd.Flags().IntVar(&runTop, "top", 10, "Number of ranked genes to summarise on stderr")
	_ = cmd.MarkFlagRequired("analysis")
	_ = cmd.MarkFlagRequired("variants")
	return cmd
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	analysisDef, err := config.LoadAnalysis(runAnalysisFile, a.cfg().Priority)
	if err != nil {
		return err
	}
	variants, err := readVariants(runVariantsFile)
	if err != nil {
		return err
	}

	runner, _, err := a.runner(ctx)
	if err != nil {
		return err
	}
	results, err := runner.Run(ctx, analysisDef, variants)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runOutputFile != "" {
		f, err := os.Create(runOutputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	printSummary(cmd.ErrOrStderr(), results, runTop)
	return nil
}

func readVariants(path string) ([]*domain.VariantEvaluation, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening variants: %w", err)
		}
		defer f.Close()
		r = f
	}

	var variants []*domain.VariantEvaluation
	if err := json.NewDecoder(r).Decode(&variants); err != nil {
		return nil, fmt.Errorf("parsing variants %s: %w", path, err)
	}
	return variants, nil
}

func printSummary(w io.Writer, results *analysis.Results, top int) {
	fmt.Fprintf(w, "Analysis complete in %s.\n", results.Duration)
	fmt.Fprintf(w, "  Genes:          %d\n", len(results.Genes))
	fmt.Fprintf(w, "  Passed filters: %d\n", len(results.PassedGenes()))
	fmt.Fprintf(w, "  Variants:       %d\n", len(results.Variants))
	if len(results.Unassigned) > 0 {
		fmt.Fprintf(w, "  Without gene:   %d\n", len(results.Unassigned))
	}

	for i, g := range results.PassedGenes() {
		if i >= top {
			break
		}
		line := fmt.Sprintf("  %2d. %-12s %.4f", i+1, g.Symbol(), g.PriorityScore())
		if best := g.PriorityResult().BestModel; best != nil {
			line += fmt.Sprintf("  %s (%s)", best.Model.ID, best.Model.Organism)
		}
		fmt.Fprintln(w, line)
	}
}
