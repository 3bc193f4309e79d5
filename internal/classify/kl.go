// Package classify ranks a query profile against a loaded reference index
// by Kullback-Leibler divergence and derives a confidence-gated verdict.
package classify

import (
	"math"
	"sort"

	"github.com/airbus-seclab/cpu-rec/internal/corpus"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
)

// Query is the pair of profiles built from the blob under analysis.
type Query struct {
	P2 profile.Profile
	P3 profile.Profile
}

// Divergence pairs a reference label with its KL divergence from a query.
type Divergence struct {
	Label string
	Value float64
}

// Verdict is the outcome of classifying one Query against an Index (spec
// §3 "Classification verdict"). Label is "" for NONE.
type Verdict struct {
	Label     string
	Confident bool
	Rank2     []Divergence
	Rank3     []Divergence
}

// KL computes the Kullback-Leibler divergence from query q to reference r,
// summed over every key present in q (spec §4.4: keys absent from q
// contribute zero; keys present in q but absent from r's sparse map fall
// back to r's Default, which is why every Profile must keep Default > 0).
func KL(q, r profile.Profile) float64 {
	var sum float64
	for k, qv := range q.Stored {
		if qv <= 0 {
			continue
		}
		sum += qv * math.Log(qv/r.Prob(k))
	}
	return sum
}

func rank(q profile.Profile, refs []corpus.Reference, pick func(corpus.Reference) profile.Profile) []Divergence {
	out := make([]Divergence, len(refs))
	for i, r := range refs {
		out[i] = Divergence{Label: r.Label, Value: KL(q, pick(r))}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		// Deterministic tie-break, spec §5: "ties in KL divergence
		// (vanishingly rare) are broken by lexicographic label order."
		return out[i].Label < out[j].Label
	})
	return out
}

// Classify ranks q against every reference in idx at both n-gram orders and
// applies the two-order confidence gate (spec §4.4): the verdict is
// confident only when the order-2 and order-3 argmins agree.
func Classify(q Query, idx *corpus.Index, cfg *Config) Verdict {
	if isEmptyQuery(q) {
		// spec §7 EmptyQuery: a block too short to yield a single n-gram at
		// either order (0 or 1 bytes) carries no signal to rank against.
		// Without this, KL sums over an empty Stored map to exactly 0.0 for
		// every reference at both orders, and rank's lexicographic tie-break
		// then makes the two orders "agree" on the alphabetically-first
		// label, producing a spurious confident verdict.
		return Verdict{}
	}

	refs := idx.References()
	rank2 := rank(q.P2, refs, func(r corpus.Reference) profile.Profile { return r.P2 })
	rank3 := rank(q.P3, refs, func(r corpus.Reference) profile.Profile { return r.P3 })

	v := Verdict{Rank2: rank2, Rank3: rank3}
	if len(refs) == 0 {
		return v
	}

	argmin2, argmin3 := rank2[0].Label, rank3[0].Label
	if argmin2 != argmin3 {
		return v
	}

	v.Label = argmin2
	v.Confident = true

	if cfg == nil {
		cfg = _defaultConfig()
	}
	if cfg.OCamlLabel != "" && v.Label == cfg.OCamlLabel && cfg.OCamlThreshold == 0 {
		if ref, ok := idx.Lookup(cfg.OCamlLabel); ok {
			derived := *cfg
			derived.OCamlThreshold = DeriveOCamlThreshold(ref)
			cfg = &derived
		}
	}
	applyOCamlGate(&v, rank3[0].Value, cfg)
	return v
}

// isEmptyQuery reports whether q carries no n-gram signal at either order.
func isEmptyQuery(q Query) bool {
	return len(q.P2.Stored) == 0 && len(q.P3.Stored) == 0
}
