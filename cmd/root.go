package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "thesisner",
		Short: "Distant-supervision NER training data from thesis cover pages",
		Long: `thesisner builds named-entity training data for university thesis cover pages.

Records are crawled from a DSpace repository, their cover pages converted to
text, and the known author and advisor names from each record's metadata are
located in that text to produce labeled entity spans.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	cmd.PersistentFlags().String("config", "", "Path to the YAML config file (default ./thesis-ner.yaml if present)")

	cmd.AddCommand(newCorpusCmd())

	return cmd
}
