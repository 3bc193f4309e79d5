package classify

import (
	"math"

	"github.com/airbus-seclab/cpu-rec/internal/corpus"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
)

// Config tunes the confidence gate applied after the raw two-order vote.
type Config struct {
	// OCamlLabel is the reference label treated as OCaml bytecode, subject
	// to the low-divergence post-filter (spec §4.4). Empty disables the
	// filter entirely.
	OCamlLabel string

	// OCamlThreshold is the calibrated order-3 divergence ceiling below
	// which an OCaml verdict is accepted. Zero means "derive it from the
	// loaded OCaml reference" via DeriveOCamlThreshold.
	OCamlThreshold float64
}

func _defaultConfig() *Config {
	return &Config{OCamlLabel: "OCaml"}
}

// applyOCamlGate demotes an OCaml verdict to NONE unless its order-3
// divergence is below cfg.OCamlThreshold (spec §4.4). OCaml bytecode
// statistics resemble generic data sections closely enough that, without
// this gate, OCaml dominates false positives.
func applyOCamlGate(v *Verdict, order3Divergence float64, cfg *Config) {
	if cfg.OCamlLabel == "" || v.Label != cfg.OCamlLabel {
		return
	}
	if order3Divergence >= cfg.OCamlThreshold {
		v.Label = ""
		v.Confident = false
	}
}

// DeriveOCamlThreshold computes the calibrated low-divergence threshold for
// the OCaml post-filter directly from the loaded OCaml reference.
//
// Spec §9 notes the threshold "is calibrated empirically; its exact numeric
// value should be captured from the reference implementation's test outputs
// before re-implementation, not reinvented" — but this pack's retrieval of
// the original cpu_rec source was filtered out entirely (see the
// repository's DESIGN.md: _INDEX.md reports zero kept files), so no such
// test output is available to copy. Rather than invent an arbitrary
// constant, the threshold is derived from the corpus itself: it computes
// the order-3 KL divergence of a perfectly uniform byte distribution (the
// statistical opposite of real compiled bytecode) from the OCaml reference,
// and takes half of that as a conservative "close to OCaml" cutoff. A
// genuine OCaml query sits near zero; random or uniform-looking data sits
// near the full uniform-divergence value; architectures that merely
// resemble OCaml's generic-looking statistics fall somewhere in between and
// are rejected by requiring divergence below the midpoint.
func DeriveOCamlThreshold(ocaml corpus.Reference) float64 {
	return klFromUniform(ocaml.P3) / 2
}

// klFromUniform computes D_KL(U || r) where U is the perfectly uniform
// distribution over r's n-gram universe (every key equally likely), without
// materializing U: since U[k] = 1/N for every one of the N = 256^order
// keys,
//
//	D_KL(U || r) = (1/N) * Σ_k log((1/N) / r[k])
//	             = log(1/N) - (1/N) * Σ_k log(r[k])
//
// and Σ_k log(r[k]) decomposes into the |Stored| explicit terms plus
// (N - |Stored|) copies of log(r.Default).
func klFromUniform(r profile.Profile) float64 {
	n := float64(r.Order.Universe())

	var sumLog float64
	for _, v := range r.Stored {
		sumLog += math.Log(v)
	}
	unseen := n - float64(len(r.Stored))
	sumLog += unseen * math.Log(r.Default)

	return -math.Log(n) - sumLog/n
}
