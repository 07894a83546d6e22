// Package report summarizes a training data run: counts, per-label
// statistics and example previews, saved as YAML or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/thesis-ner/internal/training"
)

// RunConfig records the settings of a run.
type RunConfig struct {
	Input     string   `json:"input" yaml:"input"`
	Output    string   `json:"output" yaml:"output"`
	Labels    []string `json:"labels" yaml:"labels"`
	MinYear   int      `json:"min_year" yaml:"min_year"`
	Workers   int      `json:"workers" yaml:"workers"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
}

// LabelStats describes the spans produced for one label.
type LabelStats struct {
	Label string `json:"label" yaml:"label"`
	Spans int    `json:"spans" yaml:"spans"`
	// Examples counts the examples holding at least one span of the label.
	Examples      int     `json:"examples" yaml:"examples"`
	AverageLength float64 `json:"average_length" yaml:"average_length"`
}

// Summary is the saved result of a run.
type Summary struct {
	Config   RunConfig      `json:"config" yaml:"config"`
	Stats    training.Stats `json:"stats" yaml:"stats"`
	Yield    float64        `json:"yield" yaml:"yield"`
	Labels   []LabelStats   `json:"labels" yaml:"labels"`
	Duration string         `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Summarize aggregates stats and examples. Labels are sorted by span count,
// then by name.
func Summarize(cfg RunConfig, stats training.Stats, examples []training.Example) *Summary {
	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format(time.RFC3339)
	}

	byLabel := make(map[string]*LabelStats)
	runes := make(map[string]int)
	for _, ex := range examples {
		seen := make(map[string]bool)
		for _, s := range ex.Spans {
			ls, ok := byLabel[s.Label]
			if !ok {
				ls = &LabelStats{Label: s.Label}
				byLabel[s.Label] = ls
			}
			ls.Spans++
			runes[s.Label] += s.End - s.Start
			if !seen[s.Label] {
				ls.Examples++
				seen[s.Label] = true
			}
		}
	}

	labels := make([]LabelStats, 0, len(byLabel))
	for label, ls := range byLabel {
		ls.AverageLength = float64(runes[label]) / float64(ls.Spans)
		labels = append(labels, *ls)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].Spans != labels[j].Spans {
			return labels[i].Spans > labels[j].Spans
		}
		return labels[i].Label < labels[j].Label
	})

	return &Summary{
		Config: cfg,
		Stats:  stats,
		Yield:  stats.Yield(),
		Labels: labels,
	}
}

// DefaultPath returns reports/<name>-<timestamp>.yaml under dir.
func DefaultPath(dir, name string, now time.Time) string {
	return filepath.Join(dir, "reports", fmt.Sprintf("%s-%s.yaml", name, now.Format("2006-01-02_15-04-05")))
}

// Save writes the summary as JSON when path ends in .json and as YAML
// otherwise.
func (s *Summary) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	var data []byte
	var err error
	if isJSON(path) {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Load reads a summary saved by Save.
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var s Summary
	if isJSON(path) {
		err = json.Unmarshal(data, &s)
	} else {
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &s, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// CountsTable renders the record counts.
func (s *Summary) CountsTable() string {
	tw := newTable("Stage", "Records")
	st := s.Stats
	rows := []struct {
		stage string
		count int
	}{
		{"Loaded", st.Loaded},
		{"Missing text", st.MissingText},
		{"Too old", st.TooOld},
		{"Unsupported type", st.UnsupportedType},
		{"Retained", st.Retained},
		{"Unaligned", st.Unaligned},
		{"Produced", st.Produced},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.stage, r.count})
	}
	tw.AppendFooter(table.Row{"Yield", fmt.Sprintf("%.1f%%", s.Yield*100)})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight}})
	return tw.Render()
}

// LabelsTable renders the per-label statistics.
func (s *Summary) LabelsTable() string {
	tw := newTable("Label", "Spans", "Examples", "Avg length")
	for _, ls := range s.Labels {
		tw.AppendRow(table.Row{ls.Label, ls.Spans, ls.Examples, fmt.Sprintf("%.1f", ls.AverageLength)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// String renders the whole summary for the terminal.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Input:  %s\n", s.Config.Input)
	if s.Config.Output != "" {
		fmt.Fprintf(&b, "Output: %s\n", s.Config.Output)
	}
	fmt.Fprintf(&b, "Labels: %s\n\n", strings.Join(s.Config.Labels, ", "))
	b.WriteString(s.CountsTable())
	if len(s.Labels) > 0 {
		b.WriteString("\n\n")
		b.WriteString(s.LabelsTable())
	}
	b.WriteString("\n")
	return b.String()
}

// Highlight marks every span of ex as [text](LABEL).
func Highlight(ex training.Example) string {
	runes := []rune(ex.Text)
	var b strings.Builder
	pos := 0
	for _, s := range ex.Spans {
		if s.Start < pos || s.End > len(runes) || s.Start >= s.End {
			continue
		}
		b.WriteString(string(runes[pos:s.Start]))
		fmt.Fprintf(&b, "[%s](%s)", string(runes[s.Start:s.End]), s.Label)
		pos = s.End
	}
	b.WriteString(string(runes[pos:]))
	return b.String()
}

// SpansTable lists the spans of ex with their text.
func SpansTable(ex training.Example) string {
	runes := []rune(ex.Text)
	tw := newTable("Start", "End", "Label", "Text")
	for _, s := range ex.Spans {
		value := ""
		if s.Start >= 0 && s.End <= len(runes) && s.Start < s.End {
			value = string(runes[s.Start:s.End])
		}
		tw.AppendRow(table.Row{s.Start, s.End, s.Label, truncate(value, 60)})
	}
	return tw.Render()
}

func newTable(headers ...string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	return tw
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
