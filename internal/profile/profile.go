// Package profile turns sparse n-gram counts into smoothed probability
// distributions ("profiles") used as either a reference or a query.
package profile

import "github.com/airbus-seclab/cpu-rec/internal/ngram"

// Config holds the smoothing coefficient used by the Builder.
type Config struct {
	// Alpha is the Laplace-style additive smoothing weight added to every
	// cell of the 256^order universe. Must be > 0 so every probability in
	// the resulting Profile is strictly positive.
	Alpha float64
}

// _defaultConfig matches the smoothing weight documented in spec §4.2.
func _defaultConfig() *Config {
	return &Config{Alpha: 0.01}
}

// Profile is a smoothed probability distribution over n-grams of a fixed
// order. Stored is the explicit, sparse portion; Default is the implicit
// probability assigned to every key absent from Stored.
type Profile struct {
	Order   ngram.Order
	Stored  map[uint32]float64
	Default float64
}

// Prob returns the profile's probability for key, falling back to Default
// when key was never observed.
func (p Profile) Prob(key uint32) float64 {
	if v, ok := p.Stored[key]; ok {
		return v
	}
	return p.Default
}

// Builder derives Profiles from n-gram counts.
type Builder struct {
	cfg *Config
}

// New returns a Builder. A nil cfg uses the spec's default alpha (0.01).
func New(cfg *Config) *Builder {
	if cfg == nil {
		cfg = _defaultConfig()
	}
	return &Builder{cfg: cfg}
}

// Build derives a Profile at the given order from raw counts.
func (b *Builder) Build(counts ngram.Counts, order ngram.Order) Profile {
	return b.BuildWeighted(counts, order, 1)
}

// BuildWeighted scales every count by weight before smoothing. This is the
// explicit multiplier spec §9 recommends in place of the source's corpus
// "repeat" trick: repeating a small corpus N times before counting is
// numerically identical to building once and passing weight=N, without the
// I/O duplication.
func (b *Builder) BuildWeighted(counts ngram.Counts, order ngram.Order, weight float64) Profile {
	universe := float64(order.Universe())
	alpha := b.cfg.Alpha

	var weightedTotal float64
	for _, c := range counts {
		weightedTotal += weight * float64(c)
	}

	total := weightedTotal + alpha*universe

	stored := make(map[uint32]float64, len(counts))
	for k, c := range counts {
		stored[k] = (weight*float64(c) + alpha) / total
	}

	return Profile{
		Order:   order,
		Stored:  stored,
		Default: alpha / total,
	}
}
