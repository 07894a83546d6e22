// Package dspace acquires records and their files from a DSpace XMLUI
// repository: community listings lead to item pages, item pages to METS
// metadata, and METS to the item's first bitstream.
package dspace

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
	"github.com/lehigh-university-libraries/thesis-ner/internal/mets"
)

// Stats counts what a crawl did.
type Stats struct {
	Pages    int
	Records  int
	Skipped  int
	Failures int
}

// Crawler walks a community listing and downloads each record's files.
type Crawler struct {
	client   *Client
	store    *FileStore
	maxPages int

	// Seen holds record URLs that are already indexed; they are not fetched
	// again.
	Seen map[string]bool
}

// NewCrawler creates a crawler. maxPages <= 0 follows every listing page.
func NewCrawler(client *Client, store *FileStore, maxPages int) *Crawler {
	return &Crawler{
		client:   client,
		store:    store,
		maxPages: maxPages,
		Seen:     make(map[string]bool),
	}
}

// Crawl visits communityURL and every following listing page and calls emit
// for each record acquired. A record that fails is logged and skipped; only
// listing failures, emit errors and cancellation stop the crawl.
func (c *Crawler) Crawl(ctx context.Context, communityURL string, emit func(corpus.Record) error) (Stats, error) {
	var stats Stats

	next := communityURL
	for next != "" {
		if c.maxPages > 0 && stats.Pages >= c.maxPages {
			slog.Info("Reached listing page limit", "max_pages", c.maxPages)
			break
		}
		listing, err := c.listing(ctx, next)
		if err != nil {
			return stats, err
		}
		stats.Pages++
		slog.Info("Crawling listing page", "url", next, "records", len(listing.RecordURLs))

		for _, recordURL := range listing.RecordURLs {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if c.Seen[recordURL] {
				stats.Skipped++
				continue
			}

			rec, err := c.Record(ctx, communityURL, recordURL)
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				stats.Failures++
				slog.Warn("Failed to acquire record", "record", recordURL, "error", err)
				continue
			}
			if err := emit(rec); err != nil {
				return stats, fmt.Errorf("failed to save record %s: %w", recordURL, err)
			}
			c.Seen[recordURL] = true
			stats.Records++
		}

		next = listing.NextPage
	}

	return stats, nil
}

func (c *Crawler) listing(ctx context.Context, pageURL string) (Listing, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Listing{}, fmt.Errorf("invalid listing URL %q: %w", pageURL, err)
	}
	resp, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return Listing{}, err
	}
	defer resp.Body.Close()
	return ParseListing(u, resp.Body)
}

// Record acquires one item: its page, its METS document and the first file
// listed in the METS file section.
func (c *Crawler) Record(ctx context.Context, communityURL, recordURL string) (corpus.Record, error) {
	rec := corpus.Record{
		CommunityURL: communityURL,
		RecordURL:    recordURL,
	}

	u, err := url.Parse(recordURL)
	if err != nil {
		return rec, fmt.Errorf("invalid record URL %q: %w", recordURL, err)
	}
	resp, err := c.client.Get(ctx, recordURL)
	if err != nil {
		return rec, err
	}
	page, err := ParseRecordPage(u, resp.Body)
	resp.Body.Close()
	if err != nil {
		return rec, err
	}
	rec.MetadataURL = page.MetadataURL
	rec.Breadcrumb = page.Breadcrumb

	metadataRef, err := c.store.Download(ctx, c.client, page.MetadataURL)
	if err != nil {
		return rec, fmt.Errorf("failed to download metadata: %w", err)
	}

	meta, err := mets.ParseFile(c.store.path(metadataRef))
	if err != nil {
		slog.Warn("Metadata parsed partially", "record", recordURL, "error", err)
	}
	href := meta.FirstFileURL()
	if href == "" {
		return rec, fmt.Errorf("no file listed in metadata %s", page.MetadataURL)
	}
	metaURL, err := url.Parse(page.MetadataURL)
	if err != nil {
		return rec, fmt.Errorf("invalid metadata URL %q: %w", page.MetadataURL, err)
	}
	fileURL, ok := resolve(metaURL, href)
	if !ok {
		return rec, fmt.Errorf("invalid file location %q", href)
	}
	rec.FileURL = fileURL

	fileRef, err := c.store.Download(ctx, c.client, fileURL)
	if err != nil {
		return rec, fmt.Errorf("failed to download file: %w", err)
	}
	rec.Files = []corpus.FileRef{fileRef, metadataRef}

	return rec, nil
}
