package classify

import (
	"math"
	"testing"

	"github.com/airbus-seclab/cpu-rec/internal/corpus"
	"github.com/airbus-seclab/cpu-rec/internal/ngram"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRef(t *testing.T, label string, data []byte) corpus.Reference {
	t.Helper()
	b := profile.New(nil)
	return corpus.Reference{
		Label: label,
		P2:    b.Build(ngram.Count(data, ngram.Order2), ngram.Order2),
		P3:    b.Build(ngram.Count(data, ngram.Order3), ngram.Order3),
		Size:  len(data),
	}
}

func buildQuery(data []byte) Query {
	b := profile.New(nil)
	return Query{
		P2: b.Build(ngram.Count(data, ngram.Order2), ngram.Order2),
		P3: b.Build(ngram.Count(data, ngram.Order3), ngram.Order3),
	}
}

func newIndex(refs ...corpus.Reference) *corpus.Index {
	return corpus.New(refs)
}

func TestKL_SelfDivergenceIsZero(t *testing.T) {
	p := buildQuery([]byte("some representative byte content, repeated a few times, repeated")).P2
	assert.InDelta(t, 0.0, KL(p, p), 1e-9)
}

func TestKL_NonNegative(t *testing.T) {
	a := buildQuery([]byte("alpha beta gamma delta epsilon")).P2
	b := buildQuery([]byte("completely different byte soup here instead")).P2
	assert.GreaterOrEqual(t, KL(a, b), -1e-9)
	assert.GreaterOrEqual(t, KL(b, a), -1e-9)
}

func TestClassify_ConfidentWhenOrdersAgree(t *testing.T) {
	x86Bytes := []byte("x86 like byte stream with particular recurring patterns here and here and here")
	refs := []corpus.Reference{
		buildRef(t, "X86", x86Bytes),
		buildRef(t, "PPCel", []byte("ppc like byte stream totally different patterns zzz zzz zzz zzz")),
	}
	idx := newIndex(refs...)

	v := Classify(buildQuery(x86Bytes), idx, nil)
	assert.True(t, v.Confident)
	assert.Equal(t, "X86", v.Label)
	require.Len(t, v.Rank2, 2)
	require.Len(t, v.Rank3, 2)
}

func TestClassify_NoneWhenOrdersDisagree(t *testing.T) {
	// Directly-authored profiles (as TestRank_TieBrokenLexicographically
	// does) engineered so order-2 favors "A" and order-3 favors "B": the
	// query puts all its mass on one key per order, and the two references
	// are given opposite probabilities for that key at each order.
	q := Query{
		P2: profile.Profile{Order: ngram.Order2, Default: 0.0001, Stored: map[uint32]float64{1: 1.0}},
		P3: profile.Profile{Order: ngram.Order3, Default: 0.0001, Stored: map[uint32]float64{7: 1.0}},
	}
	refA := corpus.Reference{
		Label: "A",
		P2:    profile.Profile{Order: ngram.Order2, Default: 0.0001, Stored: map[uint32]float64{1: 0.9}},
		P3:    profile.Profile{Order: ngram.Order3, Default: 0.0001, Stored: map[uint32]float64{7: 0.1}},
	}
	refB := corpus.Reference{
		Label: "B",
		P2:    profile.Profile{Order: ngram.Order2, Default: 0.0001, Stored: map[uint32]float64{1: 0.1}},
		P3:    profile.Profile{Order: ngram.Order3, Default: 0.0001, Stored: map[uint32]float64{7: 0.9}},
	}
	idx := newIndex(refA, refB)

	rank2 := rank(q.P2, idx.References(), func(r corpus.Reference) profile.Profile { return r.P2 })
	rank3 := rank(q.P3, idx.References(), func(r corpus.Reference) profile.Profile { return r.P3 })
	require.Equal(t, "A", rank2[0].Label)
	require.Equal(t, "B", rank3[0].Label)

	v := Classify(q, idx, nil)
	assert.Equal(t, "", v.Label)
	assert.False(t, v.Confident)
}

func TestClassify_EmptyQueryIsNone(t *testing.T) {
	idx := newIndex(buildRef(t, "A", []byte("alpha alpha alpha alpha alpha")))

	for _, data := range [][]byte{{}, {0x42}} {
		v := Classify(buildQuery(data), idx, nil)
		assert.Equal(t, "", v.Label)
		assert.False(t, v.Confident)
		assert.Empty(t, v.Rank2)
		assert.Empty(t, v.Rank3)
	}
}

func TestClassify_EmptyIndexIsNone(t *testing.T) {
	idx := newIndex()
	v := Classify(buildQuery([]byte("anything")), idx, nil)
	assert.Equal(t, "", v.Label)
	assert.False(t, v.Confident)
	assert.Empty(t, v.Rank2)
}

func TestDeriveOCamlThreshold_PositiveAndFinite(t *testing.T) {
	ref := buildRef(t, "OCaml", []byte("ocaml bytecode looking content padded out to a reasonable length, repeated"))
	threshold := DeriveOCamlThreshold(ref)
	require.Greater(t, threshold, 0.0)
	assert.False(t, math.IsInf(threshold, 0))
	assert.False(t, math.IsNaN(threshold))
}

func TestApplyOCamlGate_DemotesHighDivergence(t *testing.T) {
	v := Verdict{Label: "OCaml", Confident: true}
	cfg := &Config{OCamlLabel: "OCaml", OCamlThreshold: 1.0}

	applyOCamlGate(&v, 5.0, cfg)
	assert.Equal(t, "", v.Label)
	assert.False(t, v.Confident)
}

func TestApplyOCamlGate_AcceptsLowDivergence(t *testing.T) {
	v := Verdict{Label: "OCaml", Confident: true}
	cfg := &Config{OCamlLabel: "OCaml", OCamlThreshold: 1.0}

	applyOCamlGate(&v, 0.1, cfg)
	assert.Equal(t, "OCaml", v.Label)
	assert.True(t, v.Confident)
}

func TestApplyOCamlGate_IgnoresOtherLabels(t *testing.T) {
	v := Verdict{Label: "X86", Confident: true}
	cfg := &Config{OCamlLabel: "OCaml", OCamlThreshold: 0.01}

	applyOCamlGate(&v, 100.0, cfg)
	assert.Equal(t, "X86", v.Label)
	assert.True(t, v.Confident)
}

func TestRank_TieBrokenLexicographically(t *testing.T) {
	p := profile.Profile{Stored: map[uint32]float64{1: 0.5}, Default: 0.001, Order: ngram.Order2}
	refs := []corpus.Reference{
		{Label: "Zed", P2: p},
		{Label: "Alpha", P2: p},
	}
	out := rank(p, refs, func(r corpus.Reference) profile.Profile { return r.P2 })
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Label)
	assert.Equal(t, "Zed", out[1].Label)
}
