package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/airbus-seclab/cpu-rec/internal/profile"
	"github.com/airbus-seclab/cpu-rec/pkg/cpurec"
	"github.com/airbus-seclab/cpu-rec/pkg/types"
	"github.com/spf13/cobra"
)

func newCorpusCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "corpus",
		Short: "Load the reference corpus and report what was found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpus(cmd.Context(), g)
		},
	}
}

func runCorpus(ctx context.Context, g *globalOpts) error {
	idx, diags, err := cpurec.LoadCorpus(ctx, g.corpusDir, &cpurec.Config{Profile: &profile.Config{Alpha: g.alpha}})
	if err != nil {
		return fmt.Errorf("loading corpus %q: %w", g.corpusDir, err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tSIZE\tORDER-2 KEYS\tORDER-3 KEYS")
	fmt.Fprintln(tw, "-----\t----\t------------\t------------")
	for _, r := range idx.References() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.Label, types.Bytes(r.Size).Humanized(), len(r.P2.Stored), len(r.P3.Stored))
	}
	tw.Flush()

	fmt.Printf("\n%d architectures loaded from %s\n", idx.Len(), g.corpusDir)
	for _, d := range diags {
		fmt.Printf("skipped %s: %v\n", d.Entry, d.Err)
	}
	return nil
}
