package training

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/lehigh-university-libraries/thesis-ner/internal/corpus"
)

// Stats are the aggregate counts of one pipeline run. Loaded is split into
// MissingText, TooOld, UnsupportedType and Retained; Retained is split into
// Unaligned and Produced.
type Stats struct {
	Loaded          int            `json:"loaded" yaml:"loaded"`
	MissingText     int            `json:"missing_text" yaml:"missing_text"`
	TooOld          int            `json:"too_old" yaml:"too_old"`
	UnsupportedType int            `json:"unsupported_type" yaml:"unsupported_type"`
	Retained        int            `json:"retained" yaml:"retained"`
	Unaligned       int            `json:"unaligned" yaml:"unaligned"`
	Produced        int            `json:"produced" yaml:"produced"`
	SpansByLabel    map[string]int `json:"spans_by_label" yaml:"spans_by_label"`
}

// Yield is the share of retained records that produced an example.
func (s Stats) Yield() float64 {
	if s.Retained == 0 {
		return 0
	}
	return float64(s.Produced) / float64(s.Retained)
}

type outcome int

const (
	outcomeMissingText outcome = iota
	outcomeTooOld
	outcomeUnsupportedType
	outcomeUnaligned
	outcomeProduced
	outcomeSkipped
)

type result struct {
	outcome outcome
	example Example
}

// Pipeline runs normalization, filtering and assembly over a batch of
// records.
type Pipeline struct {
	filter    *corpus.Filter
	assembler *Assembler
	workers   int
}

// NewPipeline creates a pipeline. workers <= 0 uses one worker per CPU.
func NewPipeline(filter *corpus.Filter, assembler *Assembler, workers int) *Pipeline {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		filter:    filter,
		assembler: assembler,
		workers:   workers,
	}
}

// Run processes records concurrently and returns the examples in input
// order. A bad record never stops the batch. When ctx is cancelled no new
// records are started and the records not yet processed are left out of the
// stats; the context error is returned with what was produced so far.
func (p *Pipeline) Run(ctx context.Context, records []corpus.Record) ([]Example, Stats, error) {
	results := make([]result, len(records))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.workers)

	scheduled := 0
schedule:
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break schedule
		case semaphore <- struct{}{}:
		}
		scheduled++
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = p.process(records[idx])
		}(i)
	}
	wg.Wait()

	for i := scheduled; i < len(results); i++ {
		results[i].outcome = outcomeSkipped
	}

	examples, stats := collect(results)
	slog.Info("Pipeline finished",
		"loaded", stats.Loaded,
		"retained", stats.Retained,
		"produced", stats.Produced,
		"missing_text", stats.MissingText,
		"too_old", stats.TooOld,
		"unsupported_type", stats.UnsupportedType,
		"unaligned", stats.Unaligned)

	return examples, stats, ctx.Err()
}

func (p *Pipeline) process(rec corpus.Record) result {
	norm, ok := corpus.Normalize(rec)
	if !ok {
		slog.Warn("Skipping record without cover page text", "record", rec.ID(), "pdf", rec.PDFFile)
		return result{outcome: outcomeMissingText}
	}

	switch decision := p.filter.Check(norm); decision {
	case corpus.TooOld:
		slog.Debug("Excluding record", "record", norm.ID, "reason", decision, "year", norm.Year)
		return result{outcome: outcomeTooOld}
	case corpus.UnsupportedDocumentType:
		slog.Debug("Excluding record", "record", norm.ID, "reason", decision, "document_type", norm.DocumentType)
		return result{outcome: outcomeUnsupportedType}
	}

	example, ok := p.assembler.Assemble(norm)
	if !ok {
		slog.Debug("No entities aligned", "record", norm.ID)
		return result{outcome: outcomeUnaligned}
	}
	return result{outcome: outcomeProduced, example: example}
}

func collect(results []result) ([]Example, Stats) {
	stats := Stats{SpansByLabel: make(map[string]int)}
	examples := make([]Example, 0, len(results))

	for _, r := range results {
		if r.outcome == outcomeSkipped {
			continue
		}
		stats.Loaded++
		switch r.outcome {
		case outcomeMissingText:
			stats.MissingText++
		case outcomeTooOld:
			stats.TooOld++
		case outcomeUnsupportedType:
			stats.UnsupportedType++
		case outcomeUnaligned:
			stats.Retained++
			stats.Unaligned++
		case outcomeProduced:
			stats.Retained++
			stats.Produced++
			for _, s := range r.example.Spans {
				stats.SpansByLabel[s.Label]++
			}
			examples = append(examples, r.example)
		}
	}
	return examples, stats
}
