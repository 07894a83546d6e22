package corpuscmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/thesis-ner/internal/dataset"
	"github.com/lehigh-university-libraries/thesis-ner/internal/report"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool
	var showSpans bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect training examples with their entity spans highlighted",
		Long: `Inspect examples from a JSONL or Parquet file written by prepare.

Every span is shown inline as [text](LABEL), followed by a table of the
span offsets. Useful for checking that the alignment labels what it should.`,
		Example: `  # Inspect the first 5 examples interactively
  thesisner corpus inspect --dataset data/train.jsonl --limit 5 --interactive

  # Inspect all examples without the span tables
  thesisner corpus inspect --dataset data/train.parquet --limit 0 --spans=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}
			var input io.Reader
			if interactive {
				input = os.Stdin
			}
			return executeInspect(cmd.Context(), os.Stdout, input, datasetPath, limit, showSpans)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "data/train.jsonl", "Path to the training examples file")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of examples to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each example (press Enter to continue)")
	cmd.Flags().BoolVar(&showSpans, "spans", true, "Show a table of the spans of each example")

	return cmd
}

// executeInspect prints examples to w. A non-nil input pauses after each
// example until a line is read from it.
func executeInspect(ctx context.Context, w io.Writer, input io.Reader, datasetPath string, limit int, showSpans bool) error {
	examples, err := dataset.LoadExamples(datasetPath, limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d examples from %s\n", len(examples), datasetPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	var reader *bufio.Reader
	if input != nil {
		reader = bufio.NewReader(input)
	}

	for i, ex := range examples {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "EXAMPLE %d/%d\n", i+1, len(examples))
		fmt.Fprintf(w, "ID:    %s\n", ex.ID)
		fmt.Fprintf(w, "Spans: %d\n", len(ex.Spans))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintln(w, report.Highlight(ex))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		if showSpans && len(ex.Spans) > 0 {
			fmt.Fprintln(w, report.SpansTable(ex))
		}
		fmt.Fprintln(w)

		if reader == nil {
			continue
		}
		fmt.Fprint(w, "Press Enter to continue to next example (or Ctrl+C to quit)...")

		inputCh := make(chan struct{})
		go func() {
			_, _ = reader.ReadString('\n')
			close(inputCh)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		case <-inputCh:
			fmt.Fprintln(w)
		}
	}

	return nil
}
