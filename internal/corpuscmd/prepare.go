package corpuscmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/thesis-ner/internal/align"
	"github.com/lehigh-university-libraries/thesis-ner/internal/config"
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/dataset"
	"github.com/lehigh-university-libraries/thesis-ner/internal/report"
	"github.com/lehigh-university-libraries/thesis-ner/internal/training"
)

// NewPrepareCmd creates the prepare command
func NewPrepareCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var reportPath string
	var labels []string
	var minYear int
	var workers int

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Build NER training examples by aligning record metadata with cover page text",
		Long: `Prepare normalizes every record, keeps theses issued in or after the
minimum year whose document type is supported, and searches the cover page
text for the record's author and advisor names (and any other configured
label). Each match becomes an entity span; records without any match are
dropped.

The examples are written as JSON lines ({"id", "text", "entities"}) or as
Parquet, chosen by the output extension. A summary of the run is printed and
saved as YAML.`,
		Example: `  # Prepare with the default labels
  thesisner corpus prepare --input data/records.jsonl --output data/train.jsonl

  # Also label titles, restricted to recent theses
  thesisner corpus prepare --labels authors,advisors,title --min-year 2015`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("labels") {
				cfg.Labels = labels
			}
			if cmd.Flags().Changed("min-year") {
				cfg.MinYear = minYear
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			summary, err := executePrepare(cmd.Context(), cfg, inputPath, outputPath)
			if err != nil {
				return err
			}
			fmt.Print(summary.String())

			if reportPath == "" {
				reportPath = report.DefaultPath(filepath.Dir(outputPath), "prepare", time.Now())
			}
			if err := summary.Save(reportPath); err != nil {
				return err
			}
			absPath, _ := filepath.Abs(reportPath)
			fmt.Printf("\nRun summary saved to: %s\n", absPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "data/records.jsonl", "Records file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&outputPath, "output", "data/train.jsonl", "Training examples file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Run summary file (.yaml or .json, default <output dir>/reports/prepare-<time>.yaml)")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "Fields to label, in priority order (authors, advisors, title, subjects, abstract)")
	cmd.Flags().IntVar(&minYear, "min-year", corpus.DefaultMinYear, "Earliest issue year kept")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent workers (0 for one per CPU)")

	return cmd
}

func executePrepare(ctx context.Context, cfg *config.Config, inputPath, outputPath string) (*report.Summary, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, fmt.Errorf("records file not found: %s", inputPath)
	}

	started := time.Now()
	records, err := dataset.NewLoader(inputPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	slog.Info("Loaded records", "path", inputPath, "records", len(records))

	assembler, err := training.NewAssembler(align.NewAligner(align.NewWordTokenizer()), cfg.Labels)
	if err != nil {
		return nil, err
	}
	pipeline := training.NewPipeline(corpus.NewFilter(cfg.MinYear, cfg.DocumentTypes), assembler, cfg.Workers)

	examples, stats, err := pipeline.Run(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare examples: %w", err)
	}

	if err := dataset.WriteExamples(outputPath, examples); err != nil {
		return nil, fmt.Errorf("failed to write examples: %w", err)
	}

	summary := report.Summarize(report.RunConfig{
		Input:   inputPath,
		Output:  outputPath,
		Labels:  assembler.Fields(),
		MinYear: cfg.MinYear,
		Workers: cfg.Workers,
	}, stats, examples)
	summary.Duration = time.Since(started).Round(time.Millisecond).String()
	return summary, nil
}
