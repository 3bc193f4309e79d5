// Package segment reconciles window classification results into a gapless,
// non-overlapping labeled segmentation of a file (spec §4.6).
package segment

import (
	"github.com/airbus-seclab/cpu-rec/internal/numeric"
	"github.com/airbus-seclab/cpu-rec/internal/scan"
)

// Config tunes the reconciler's noise-absorption and entropy-flagging
// behavior.
type Config struct {
	// NoiseThreshold is the maximum length (in bytes) of an isolated run
	// that gets absorbed into its flanking runs (spec §4.6, §9: "not a
	// crisp constant in the source"; default is one window size).
	NoiseThreshold int
	// HighEntropyThreshold flags a run as likely encrypted/compressed when
	// its normalized entropy is at or above this value (spec §4.6: 0.9).
	HighEntropyThreshold float64
}

func _defaultConfig() *Config {
	return &Config{NoiseThreshold: 0x1000, HighEntropyThreshold: 0.9}
}

// Run is one maximal contiguous stretch of the file sharing a label (spec
// §3 "Segmentation"). Label is "" for NONE.
type Run struct {
	Offset      int
	Length      int
	Label       string
	Entropy     float64
	HighEntropy bool
}

// resolved is a disjoint, not-yet-coalesced interval produced by overlap
// resolution: the unit Reconcile's coalescing pass operates on.
type resolved struct {
	offset, length int
	label          string
	confident      bool
	entropy        float64
}

// Reconcile converts window results (spec §4.5, possibly overlapping, in
// ascending offset order) into a gapless, non-overlapping segmentation. It
// is total: every byte of the scanned file ends up in exactly one Run.
func Reconcile(results []scan.Result, cfg *Config) []Run {
	if cfg == nil {
		cfg = _defaultConfig()
	}
	if len(results) == 0 {
		return nil
	}

	disjoint := resolveOverlaps(results)
	runs := coalesce(disjoint)
	runs = absorbNoise(runs, cfg.NoiseThreshold)

	for i := range runs {
		runs[i].HighEntropy = runs[i].Entropy >= cfg.HighEntropyThreshold
	}
	return runs
}

// resolveOverlaps assigns overlapping byte ranges between consecutive
// windows to whichever window has a confident verdict; ties (both or
// neither confident) go to the earlier window (spec §4.6 step 1).
func resolveOverlaps(results []scan.Result) []resolved {
	out := make([]resolved, 0, len(results))
	for _, r := range results {
		start, end := r.Offset, r.Offset+r.Length
		confident := r.Verdict.Confident

		if len(out) > 0 {
			last := &out[len(out)-1]
			lastEnd := last.offset + last.length
			if start < lastEnd {
				overlapEnd := lastEnd
				if end < overlapEnd {
					overlapEnd = end
				}
				switch {
				case confident && !last.confident:
					// Overlap goes to the current window: shrink the
					// previous interval back to where the overlap begins.
					last.length = start - last.offset
				default:
					// Previous window keeps it: either it alone is
					// confident, or neither/both are (tie -> earlier).
					start = overlapEnd
				}
			}
		}

		if start < end {
			out = append(out, resolved{
				offset:    start,
				length:    end - start,
				label:     r.Verdict.Label,
				confident: confident,
				entropy:   r.Entropy,
			})
		}
	}
	return out
}

// coalesce sweeps left to right merging contiguous intervals that share a
// label into runs (spec §4.6 step 2), weight-averaging entropy across the
// merged windows rather than recomputing it from raw bytes (the reconciler
// never sees the underlying blob, only window results).
func coalesce(in []resolved) []Run {
	runs := make([]Run, 0, len(in))
	for _, iv := range in {
		if n := len(runs); n > 0 && runs[n-1].Label == iv.label {
			runs[n-1].Entropy = weightedEntropy(runs[n-1], iv)
			runs[n-1].Length += iv.length
			continue
		}
		runs = append(runs, Run{Offset: iv.offset, Length: iv.length, Label: iv.label, Entropy: iv.entropy})
	}
	return runs
}

func weightedEntropy(run Run, next resolved) float64 {
	total := float64(run.Length + next.length)
	return numeric.SafeDiv(run.Entropy*float64(run.Length)+next.entropy*float64(next.length), total)
}

// absorbNoise repeatedly applies spec §4.6 steps 3 and 4 until no further
// merge happens:
//
//   - step 3: a run of label X flanked by two runs of the same label Y, with
//     |X| <= threshold and both Y-runs >= threshold, is absorbed into Y.
//   - step 4: a NONE run shorter than threshold, flanked by the same
//     non-NONE label on both sides, is absorbed into that label regardless
//     of the flanking runs' lengths.
func absorbNoise(runs []Run, threshold int) []Run {
	for {
		merged := false
		for i := 1; i+1 < len(runs); i++ {
			prev, mid, next := runs[i-1], runs[i], runs[i+1]
			if prev.Label != next.Label || mid.Label == prev.Label {
				continue
			}

			generalRule := mid.Length <= threshold && prev.Length >= threshold && next.Length >= threshold
			noneRule := mid.Label == "" && mid.Length < threshold

			if !generalRule && !noneRule {
				continue
			}

			merged1 := Run{
				Offset:  prev.Offset,
				Length:  prev.Length + mid.Length + next.Length,
				Label:   prev.Label,
				Entropy: weightedAbsorb(prev, mid, next),
			}
			runs = append(append(append([]Run{}, runs[:i-1]...), merged1), runs[i+2:]...)
			merged = true
			break
		}
		if !merged {
			break
		}
	}
	return runs
}

func weightedAbsorb(prev, mid, next Run) float64 {
	total := float64(prev.Length + mid.Length + next.Length)
	sum := prev.Entropy*float64(prev.Length) + mid.Entropy*float64(mid.Length) + next.Entropy*float64(next.Length)
	return numeric.SafeDiv(sum, total)
}
