package corpuscmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/thesis-ner/internal/report"
)

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report SUMMARY",
		Short: "Print a saved prepare run summary",
		Example: `  thesisner corpus report data/reports/prepare-2024-05-06_07-08-09.yaml
  thesisner corpus report --format json data/reports/prepare-2024-05-06_07-08-09.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(os.Stdout, args[0], format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json or yaml)")

	return cmd
}

func executeReport(w io.Writer, summaryPath, format string) error {
	summary, err := report.Load(summaryPath)
	if err != nil {
		return err
	}

	switch format {
	case "text":
		fmt.Fprintf(w, "Run of %s", summary.Config.Timestamp)
		if summary.Duration != "" {
			fmt.Fprintf(w, " (%s)", summary.Duration)
		}
		fmt.Fprint(w, "\n\n")
		fmt.Fprint(w, summary.String())
		return nil
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
