package cli

import (
	"fmt"
	"runtime"

	"github.com/ppiankov/attrib/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchFlags  engineFlags
	concurrency int
	outputPath  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Attribute many responses from a file in parallel",
	Long: `Batch attributes multiple responses against one shared context:
- Read responses from the input file (one per line, or a JSON array of strings)
- Load and ingest the context once
- Attribute responses in parallel with a configurable worker count
- Write all results, in input order, as one JSON array

Example:
  attrib batch answers.txt -c kpi=docs/kpi.txt
  attrib batch answers.json --context-json context.json --concurrency 8 --output results.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd.Flags())
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON path (default: stdout)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	stderr := cmd.ErrOrStderr()

	if err := bindFlags(cmd.Flags(), map[string]string{"concurrency": "concurrency.workers"}); err != nil {
		return err
	}
	cfg, err := batchFlags.config(cmd)
	if err != nil {
		return err
	}

	responses, err := worker.ReadResponsesFromFile(file)
	if err != nil {
		return fmt.Errorf("read responses: %w", err)
	}

	ctx, cancel := signalContext(batchFlags.timeout)
	defer cancel()

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  attrib Batch Attribution\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Responses:    %d\n", len(responses))
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Threshold:    %.1f\n", cfg.Attribution.Threshold)
	fmt.Fprintf(stderr, "\n")

	s, err := newSession(ctx, cfg, batchFlags.sources, stderr)
	if err != nil {
		return err
	}
	defer s.engine.Shutdown()

	fmt.Fprintf(stderr, "✓ Loaded %d context entries (%d sentences, %s matching)\n", s.loaded, s.stored, s.engine.Strategy())

	processor := worker.NewBatchProcessor(s.engine, cfg.Concurrency.Workers)
	results := processor.ProcessResponses(ctx, responses)

	successCount := 0
	failureCount := 0
	references := 0
	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ response %d: %v\n", i+1, result.Error)
			continue
		}
		successCount++
		references += len(result.Attribution.References)
	}

	if outputPath != "" {
		if err := writeJSON(outputPath, results); err != nil {
			return err
		}
	} else if err := printJSON(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:       %d responses\n", len(results))
	fmt.Fprintf(stderr, "  Success:     %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:    %d\n", failureCount)
	fmt.Fprintf(stderr, "  References:  %d\n", references)
	if outputPath != "" {
		fmt.Fprintf(stderr, "  Output:      %s\n", outputPath)
	}
	fmt.Fprintf(stderr, "\n")

	// An unreachable backend fails every response the same way
	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d responses failed: %w", failureCount, results[0].Error)
	}

	return nil
}
