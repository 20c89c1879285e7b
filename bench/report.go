package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/cespare/xxhash"
	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const histogramBins = 15

// Summary aggregates a bench run. Times are in microseconds.
type Summary struct {
	// SetHash identifies the test set, so summaries of different runs over
	// the same set can be compared.
	SetHash        string   `yaml:"set-hash"`
	Positions      int      `yaml:"positions"`
	Mismatches     int      `yaml:"mismatches"`
	Failed         []string `yaml:"failed,omitempty"`
	MeanMicros     float64  `yaml:"mean-microseconds"`
	StdevMicros    float64  `yaml:"stdev-microseconds"`
	CI95Micros     float64  `yaml:"ci95-microseconds"`
	MinMicros      float64  `yaml:"min-microseconds"`
	MaxMicros      float64  `yaml:"max-microseconds"`
	TotalNodes     uint64   `yaml:"total-nodes"`
	NodesPerSecond float64  `yaml:"nodes-per-second"`
	ElapsedSeconds float64  `yaml:"elapsed-seconds"`

	times []float64
}

func summarize(results []Result, elapsed time.Duration) *Summary {
	var t timing
	for _, r := range results {
		t.push(float64(r.Micros))
	}
	failed := lo.Filter(results, func(r Result, _ int) bool { return !r.OK })
	sum := &Summary{
		SetHash:    fingerprint(results),
		Positions:  len(results),
		Mismatches: len(failed),
		Failed: lo.Map(failed, func(r Result, _ int) string {
			return fmt.Sprintf("line %d: %s got %d want %d", r.Line, r.Moves, r.Score, r.Expected)
		}),
		MeanMicros:     t.mean,
		StdevMicros:    t.stdev(),
		CI95Micros:     t.confidence(95),
		MinMicros:      t.min,
		MaxMicros:      t.max,
		TotalNodes:     lo.SumBy(results, func(r Result) uint64 { return r.Nodes }),
		ElapsedSeconds: elapsed.Seconds(),
		times:          lo.Map(results, func(r Result, _ int) float64 { return float64(r.Micros) }),
	}
	if secs := elapsed.Seconds(); secs > 0 {
		sum.NodesPerSecond = float64(sum.TotalNodes) / secs
	}
	return sum
}

func fingerprint(results []Result) string {
	h := xxhash.New()
	for _, r := range results {
		fmt.Fprintf(h, "%s %d\n", r.Moves, r.Expected)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// WriteYAML writes the summary as a YAML document.
func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Histogram draws the distribution of solve times.
func (s *Summary) Histogram(w io.Writer) error {
	if len(s.times) == 0 {
		_, err := fmt.Fprintln(w, "no positions")
		return err
	}
	if s.MinMicros == s.MaxMicros {
		_, err := fmt.Fprintf(w, "all %d positions took %.0fµs\n", len(s.times), s.MinMicros)
		return err
	}
	hist := histogram.Hist(histogramBins, s.times)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}

// String is a one-paragraph report with grouped digits.
func (s *Summary) String() string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("positions: %d, mismatches: %d\nmean: %.1fµs ± %.1fµs (95%%), stdev: %.1fµs\nnodes: %d, nodes/sec: %.0f\n",
		s.Positions, s.Mismatches, s.MeanMicros, s.CI95Micros, s.StdevMicros,
		s.TotalNodes, s.NodesPerSecond)
}
