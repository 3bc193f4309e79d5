package cpurec

import (
	"context"

	"github.com/airbus-seclab/cpu-rec/internal/classify"
	"github.com/airbus-seclab/cpu-rec/internal/corpus"
	"github.com/airbus-seclab/cpu-rec/internal/ngram"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
	"github.com/airbus-seclab/cpu-rec/internal/scan"
	"github.com/airbus-seclab/cpu-rec/internal/segment"
)

// Index is the loaded set of reference architecture profiles a blob is
// classified against.
type Index = corpus.Index

// Diagnostic records one corpus entry skipped during loading (spec §7
// CorpusEntryMalformed).
type Diagnostic = corpus.Diagnostic

// Divergence pairs a reference label with its KL divergence from a query.
type Divergence = classify.Divergence

// Run is one labeled, contiguous byte range of a segmented file (spec §3
// "Segmentation").
type Run = segment.Run

// Verdict is the outcome of classifying one blob: its winning label (empty
// for NONE) and whether the order-2/order-3 votes agreed.
type Verdict struct {
	Label     string
	Confident bool
}

// VerboseVerdict is a Verdict plus the full divergence ranking at both
// n-gram orders, for callers that want to show runner-up candidates (spec
// §6 "-v/--verbose").
type VerboseVerdict struct {
	Verdict
	Rank2 []Divergence
	Rank3 []Divergence
}

// Config bundles every tunable stage of the classification/scan/segment
// pipeline behind one entry point, the way consumption.Config bundles the
// power model's coefficients. Any nil field uses that stage's own default.
type Config struct {
	Profile  *profile.Config
	Classify *classify.Config
	Scan     *scan.Config
	Segment  *segment.Config
}

func _defaultConfig() *Config {
	return &Config{}
}

// LoadCorpus reads dir for "*.corpus" (and detects, but does not
// decompress, "*.corpus.xz") entries and builds the reference Index that
// Classify and Scan compare blobs against (spec §4.3).
func LoadCorpus(ctx context.Context, dir string, cfg *Config) (*Index, []Diagnostic, error) {
	if cfg == nil {
		cfg = _defaultConfig()
	}
	return corpus.Load(ctx, dir, cfg.Profile)
}

// DeriveOCamlThreshold computes the calibrated OCaml low-divergence
// post-filter threshold (spec §4.4, §9) from the named reference already
// loaded in idx. Callers typically feed the result back into a Config's
// Classify.OCamlThreshold. Reports false if idx has no reference under
// label.
func DeriveOCamlThreshold(idx *Index, label string) (float64, bool) {
	ref, ok := idx.Lookup(label)
	if !ok {
		return 0, false
	}
	return classify.DeriveOCamlThreshold(ref), true
}

func buildQuery(data []byte, profileCfg *profile.Config) classify.Query {
	builder := profile.New(profileCfg)
	return classify.Query{
		P2: builder.Build(ngram.Count(data, ngram.Order2), ngram.Order2),
		P3: builder.Build(ngram.Count(data, ngram.Order3), ngram.Order3),
	}
}

// Classify runs whole-blob classification (spec §4.4) and returns the
// winning verdict.
func Classify(data []byte, idx *Index, cfg *Config) Verdict {
	if cfg == nil {
		cfg = _defaultConfig()
	}
	v := classify.Classify(buildQuery(data, cfg.Profile), idx, cfg.Classify)
	return Verdict{Label: v.Label, Confident: v.Confident}
}

// ClassifyVerbose is Classify but also returns the full order-2/order-3
// divergence rankings against every loaded reference.
func ClassifyVerbose(data []byte, idx *Index, cfg *Config) VerboseVerdict {
	if cfg == nil {
		cfg = _defaultConfig()
	}
	v := classify.Classify(buildQuery(data, cfg.Profile), idx, cfg.Classify)
	return VerboseVerdict{
		Verdict: Verdict{Label: v.Label, Confident: v.Confident},
		Rank2:   v.Rank2,
		Rank3:   v.Rank3,
	}
}

// Scan slides a window across data, classifies each window independently,
// and reconciles the per-window verdicts into a gapless labeled
// segmentation (spec §4.5-§4.6).
func Scan(ctx context.Context, data []byte, idx *Index, cfg *Config) ([]Run, error) {
	if cfg == nil {
		cfg = _defaultConfig()
	}
	results, err := scan.Scan(ctx, data, idx, cfg.Scan, cfg.Classify, cfg.Profile)
	if err != nil {
		return nil, err
	}
	return segment.Reconcile(results, cfg.Segment), nil
}
