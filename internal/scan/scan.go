// Package scan slides a fixed-size window across a file and classifies each
// window independently against a reference index (spec §4.5).
package scan

import (
	"context"
	"math"

	"github.com/airbus-seclab/cpu-rec/internal/classify"
	"github.com/airbus-seclab/cpu-rec/internal/corpus"
	"github.com/airbus-seclab/cpu-rec/internal/ngram"
	"github.com/airbus-seclab/cpu-rec/internal/numeric"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
	"golang.org/x/sync/errgroup"
)

// Config tunes the scanner's window placement.
type Config struct {
	// Window is the target window size in bytes (spec default 0x1000).
	Window int
	// Step is the stride between window starts. Equal to Window gives
	// non-overlapping windows, the calibrated default.
	Step int
	// MinWindow is the file size below which the scanner classifies the
	// whole file as one window without planning window offsets (spec
	// default 0x80). Files of at least MinWindow but no more than Window
	// bytes are also a single whole-file window.
	MinWindow int
}

func _defaultConfig() *Config {
	return &Config{Window: 0x1000, Step: 0x1000, MinWindow: 0x80}
}

// Result is one classified window (spec §3 "Window result").
type Result struct {
	Offset  int
	Length  int
	Verdict classify.Verdict
	// Entropy is the window's Shannon byte entropy, normalized to [0,1].
	Entropy float64
}

// Scan classifies data by sliding a window across it and returns results in
// strictly ascending offset order (spec §5).
func Scan(ctx context.Context, data []byte, idx *corpus.Index, scanCfg *Config, classifyCfg *classify.Config, profileCfg *profile.Config) ([]Result, error) {
	if scanCfg == nil {
		scanCfg = _defaultConfig()
	}

	if len(data) < scanCfg.MinWindow {
		return []Result{classifyWindow(data, 0, idx, classifyCfg, profileCfg)}, nil
	}

	offsets, width := plan(len(data), scanCfg)

	results := make([]Result, len(offsets))
	g, ctx := errgroup.WithContext(ctx)
	for i, off := range offsets {
		i, off := i, off
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = classifyWindow(data[off:off+width], off, idx, classifyCfg, profileCfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// plan computes window start offsets and the common window width (spec
// §4.5): windows at 0, S, 2S, ... until the last window that fully fits,
// plus a final tail window covering [n-W, n) whenever S doesn't evenly
// divide the file. Files smaller than W but >= MinWindow collapse to one
// window whose width is the whole file.
func plan(n int, cfg *Config) (offsets []int, width int) {
	if n <= cfg.Window {
		return []int{0}, n
	}

	width = cfg.Window
	for o := 0; o+width <= n; o += cfg.Step {
		offsets = append(offsets, o)
	}
	last := n - width
	if len(offsets) == 0 || offsets[len(offsets)-1] != last {
		offsets = append(offsets, last)
	}
	return offsets, width
}

func classifyWindow(window []byte, offset int, idx *corpus.Index, classifyCfg *classify.Config, profileCfg *profile.Config) Result {
	builder := profile.New(profileCfg)
	q := classify.Query{
		P2: builder.Build(ngram.Count(window, ngram.Order2), ngram.Order2),
		P3: builder.Build(ngram.Count(window, ngram.Order3), ngram.Order3),
	}
	return Result{
		Offset:  offset,
		Length:  len(window),
		Verdict: classify.Classify(q, idx, classifyCfg),
		Entropy: entropy(window),
	}
}

// entropy returns the Shannon byte entropy of data normalized to [0,1] by
// dividing by the maximum possible entropy for a byte alphabet (8 bits).
func entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	n := float64(len(data))
	var h float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	// Clamp against float rounding at the boundary (a perfectly uniform
	// 256-byte-alphabet window can compute fractionally above 1.0).
	return numeric.Clamp01(h / 8.0)
}
