package blocks

import (
	"fmt"
	"math"
	"strconv"

	"github.com/farriolsartur/experiment/pipeline"
	"github.com/farriolsartur/experiment/report"
)

// Summary appends a min/max/mean table for the listed context keys.
type Summary struct {
	pipeline.Base
	Keys        []string `yaml:"keys"`
	Header      string   `yaml:"header"`
	Description string   `yaml:"description"`
}

func NewSummary(env *pipeline.Env) (pipeline.Block, error) {
	base, err := pipeline.NewBase(env)
	if err != nil {
		return nil, err
	}
	s := &Summary{Base: base, Header: "Summary", Description: "per-key statistics"}
	if err := env.Params.Decode(s); err != nil {
		return nil, err
	}
	if len(s.Keys) == 0 {
		return nil, s.Fail("keys must list at least one context key")
	}
	return s, nil
}

func (s *Summary) Run() error {
	rows := make([][]string, 0, len(s.Keys))
	for _, key := range s.Keys {
		vals, err := pipeline.Lookup[[]float64](s.Data, key)
		if err != nil {
			return fmt.Errorf("summarizing %s: %w", key, err)
		}
		lo, hi, mean := stats(vals)
		rows = append(rows, []string{key, strconv.Itoa(len(vals)), format(lo), format(hi), format(mean)})
	}
	s.Report.Append(report.Table(s.Header, s.Description,
		[]string{"key", "n", "min", "max", "mean"}, rows))
	return nil
}

func stats(vals []float64) (lo, hi, mean float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		sum += v
	}
	return lo, hi, sum / float64(len(vals))
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
