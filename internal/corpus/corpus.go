package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/airbus-seclab/cpu-rec/internal/ngram"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
	"golang.org/x/sync/errgroup"
)

const (
	corpusSuffix = ".corpus"
	xzSuffix     = ".xz"
)

// Reference is a labeled pair of order-2/order-3 profiles for one ISA,
// derived from a single corpus entry.
type Reference struct {
	Label string
	P2    profile.Profile
	P3    profile.Profile
	// Size is the number of raw bytes the reference was built from.
	Size int
}

// Diagnostic records a corpus entry that was skipped rather than aborting
// the load (spec §7 CorpusEntryMalformed).
type Diagnostic struct {
	Entry string
	Err   error
}

// Index is the immutable, session-lifetime set of loaded References.
type Index struct {
	refs []Reference
}

// New assembles an Index directly from a caller-supplied set of References,
// sorted into the same deterministic label order Load produces. Useful for
// tests and for callers that build references by some means other than
// reading a corpus directory.
func New(refs []Reference) *Index {
	sorted := append([]Reference(nil), refs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })
	return &Index{refs: sorted}
}

// References returns the loaded references in deterministic, label-sorted
// order.
func (idx *Index) References() []Reference {
	return idx.refs
}

// Len returns the number of loaded references.
func (idx *Index) Len() int {
	return len(idx.refs)
}

// Lookup returns the reference for label, if loaded.
func (idx *Index) Lookup(label string) (Reference, bool) {
	for _, r := range idx.refs {
		if r.Label == label {
			return r, true
		}
	}
	return Reference{}, false
}

// Load enumerates dir for "*.corpus" (and detects, but does not decompress,
// "*.corpus.xz") entries and builds a Reference per usable entry. Entries
// that are unreadable, empty, or compressed are reported via the returned
// Diagnostic slice and do not abort the load (spec §4.3, §7).
//
// Reference construction is parallelized across entries (spec §5): it is
// embarrassingly parallel, as every entry only ever reads its own file and
// writes its own Reference slot.
func Load(ctx context.Context, dir string, cfg *profile.Config) (*Index, []Diagnostic, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrDirUnavailable, dir, err)
	}

	type candidate struct {
		label string
		path  string
	}
	var (
		candidates []candidate
		diagsMu    sync.Mutex
		diags      []Diagnostic
	)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()

		switch {
		case strings.HasSuffix(name, corpusSuffix+xzSuffix):
			label := strings.TrimSuffix(strings.TrimSuffix(name, xzSuffix), corpusSuffix)
			diags = append(diags, Diagnostic{
				Entry: name,
				Err:   fmt.Errorf("corpus: %q is xz-compressed; pre-decompress it (label %q not loaded)", name, label),
			})
		case strings.HasSuffix(name, corpusSuffix):
			label := strings.TrimSuffix(name, corpusSuffix)
			candidates = append(candidates, candidate{label: label, path: filepath.Join(dir, name)})
		}
	}

	builder := profile.New(cfg)
	refs := make([]Reference, len(candidates))
	valid := make([]bool, len(candidates))

	g, _ := errgroup.WithContext(ctx)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(c.path)
			if err != nil {
				diagsMu.Lock()
				diags = append(diags, Diagnostic{Entry: c.label, Err: fmt.Errorf("read: %w", err)})
				diagsMu.Unlock()
				return nil
			}
			if len(data) == 0 {
				diagsMu.Lock()
				diags = append(diags, Diagnostic{Entry: c.label, Err: fmt.Errorf("empty corpus entry")})
				diagsMu.Unlock()
				return nil
			}

			c2 := ngram.Count(data, ngram.Order2)
			c3 := ngram.Count(data, ngram.Order3)

			refs[i] = Reference{
				Label: c.label,
				P2:    builder.Build(c2, ngram.Order2),
				P3:    builder.Build(c3, ngram.Order3),
				Size:  len(data),
			}
			valid[i] = true
			return nil
		})
	}
	// Entry loading never returns an error of its own (failures become
	// Diagnostics); the only possible error here is ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]Reference, 0, len(refs))
	for i, ok := range valid {
		if ok {
			out = append(out, refs[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })

	if len(out) == 0 {
		return &Index{}, diags, ErrEmpty
	}

	return &Index{refs: out}, diags, nil
}
