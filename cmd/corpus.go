package cmd

import (
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpuscmd"
	"github.com/spf13/cobra"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Thesis corpus and training data tools",
		Long: `Tools for building the NER training corpus.

A typical run crawls a repository community, extracts cover page text and
metadata for every record, then aligns the metadata with the text to
prepare the training examples:

  thesisner corpus crawl <community-url>
  thesisner corpus extract
  thesisner corpus prepare
  thesisner corpus inspect`,
	}

	cmd.AddCommand(corpuscmd.NewCrawlCmd())
	cmd.AddCommand(corpuscmd.NewExtractCmd())
	cmd.AddCommand(corpuscmd.NewPrepareCmd())
	cmd.AddCommand(corpuscmd.NewInspectCmd())
	cmd.AddCommand(corpuscmd.NewReportCmd())

	return cmd
}
