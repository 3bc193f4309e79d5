package main

import (
	"context"
	"fmt"

	"github.com/airbus-seclab/cpu-rec/internal/classify"
	"github.com/airbus-seclab/cpu-rec/internal/profile"
	"github.com/airbus-seclab/cpu-rec/pkg/cpurec"
)

// loadIndex loads the corpus named by g and builds the pipeline Config
// every subcommand shares, deriving the OCaml post-filter threshold from the
// loaded corpus itself when the caller didn't pin one explicitly.
func loadIndex(ctx context.Context, g *globalOpts) (*cpurec.Index, *cpurec.Config, error) {
	profileCfg := &profile.Config{Alpha: g.alpha}

	idx, diags, err := cpurec.LoadCorpus(ctx, g.corpusDir, &cpurec.Config{Profile: profileCfg})
	if err != nil {
		return nil, nil, fmt.Errorf("loading corpus %q: %w", g.corpusDir, err)
	}
	for _, d := range diags {
		fmt.Printf("corpus: skipped %s: %v\n", d.Entry, d.Err)
	}

	classifyCfg := &classify.Config{OCamlLabel: g.ocamlLabel, OCamlThreshold: g.ocamlThreshold}
	if g.ocamlLabel != "" && g.ocamlThreshold == 0 {
		if derived, ok := cpurec.DeriveOCamlThreshold(idx, g.ocamlLabel); ok {
			classifyCfg.OCamlThreshold = derived
		}
	}

	return idx, &cpurec.Config{Profile: profileCfg, Classify: classifyCfg}, nil
}
