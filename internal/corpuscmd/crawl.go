package corpuscmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/thesis-ner/internal/config"
	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/dataset"
	"github.com/lehigh-university-libraries/thesis-ner/internal/dspace"
)

// NewCrawlCmd creates the crawl command
func NewCrawlCmd() *cobra.Command {
	var indexPath string
	var filesRoot string
	var maxPages int

	cmd := &cobra.Command{
		Use:   "crawl COMMUNITY_URL...",
		Short: "Download thesis records, METS metadata and PDFs from a DSpace repository",
		Long: `Crawl one or more DSpace community listings.

Every record page is visited, its METS document and first bitstream are
downloaded into the files store and one line is appended to the index.
Records already present in the index are skipped, so an interrupted crawl
can simply be started again.`,
		Example: `  # Crawl a community into ./data
  thesisner corpus crawl https://repositorio.umsa.bo/xmlui/handle/123456789/42

  # Only follow the first two listing pages
  thesisner corpus crawl --max-pages 2 https://repositorio.umsa.bo/xmlui/handle/123456789/42`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-pages") {
				cfg.Crawl.MaxPages = maxPages
			}
			return executeCrawl(cmd.Context(), cfg.Crawl, args, indexPath, filesRoot)
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "data/index.jsonl", "Path to the JSONL index of crawled records")
	cmd.Flags().StringVar(&filesRoot, "files", "data/files", "Directory of the downloaded files store")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "Listing pages to follow per community (0 for all)")

	return cmd
}

func executeCrawl(ctx context.Context, cfg config.CrawlConfig, communityURLs []string, indexPath, filesRoot string) error {
	store, err := dspace.NewFileStore(filesRoot)
	if err != nil {
		return err
	}
	if err := store.Lock(); err != nil {
		return err
	}
	defer store.Unlock()

	crawler := dspace.NewCrawler(dspace.NewClient(cfg.Timeout(), cfg.Delay(), cfg.UserAgent), store, cfg.MaxPages)

	indexed, err := loadIndex(indexPath)
	if err != nil {
		return err
	}
	for _, rec := range indexed {
		crawler.Seen[rec.RecordURL] = true
	}
	slog.Info("Loaded index", "path", indexPath, "records", len(indexed))

	index, err := dataset.OpenJSONL(indexPath)
	if err != nil {
		return err
	}
	defer index.Close()

	var total dspace.Stats
	for _, communityURL := range communityURLs {
		slog.Info("Crawling community", "url", communityURL)
		stats, err := crawler.Crawl(ctx, communityURL, func(rec corpus.Record) error {
			return index.Write(rec)
		})
		total.Pages += stats.Pages
		total.Records += stats.Records
		total.Skipped += stats.Skipped
		total.Failures += stats.Failures
		if err != nil {
			return fmt.Errorf("failed to crawl %s: %w", communityURL, err)
		}
	}

	slog.Info("Crawl finished",
		"pages", total.Pages,
		"records", total.Records,
		"skipped", total.Skipped,
		"failures", total.Failures)
	fmt.Printf("Crawled %d new records (%d already indexed, %d failed) into %s\n",
		total.Records, total.Skipped, total.Failures, indexPath)
	return nil
}

// loadIndex returns the records of an existing index, or none when the index
// does not exist yet.
func loadIndex(path string) ([]corpus.Record, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	records, err := dataset.NewLoader(path).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	return records, nil
}
