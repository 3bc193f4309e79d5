package main

import (
	"fmt"
	"os"

	"github.com/airbus-seclab/cpu-rec/internal/container"
	"github.com/airbus-seclab/cpu-rec/pkg/cpurec"
	"github.com/spf13/cobra"
)

func newClassifyCmd(g *globalOpts) *cobra.Command {
	var (
		verbose     bool
		extractText bool
	)

	cmd := &cobra.Command{
		Use:   "classify FILE",
		Short: "Classify a whole binary blob's CPU instruction set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %q: %w", args[0], err)
			}

			idx, cfg, err := loadIndex(cmd.Context(), g)
			if err != nil {
				return err
			}

			fmt.Print("whole file: ")
			classifyOne(data, idx, cfg, verbose)

			// container extraction is an optional, out-of-core collaborator
			// (spec §9): the core classify path never calls it itself. When
			// it succeeds, its region(s) are classified in addition to the
			// whole file, not instead of it.
			if extractText {
				if regions := container.ExtractRegions(data); regions != nil {
					for i, r := range regions {
						fmt.Printf("region %d (offset=0x%x, size=0x%x): ", i, r.Offset, r.Length)
						classifyOne(data[r.Offset:r.Offset+r.Length], idx, cfg, verbose)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the full order-2/order-3 divergence ranking")
	cmd.Flags().BoolVar(&extractText, "extract-text", false, "additionally classify the detected ELF/PE/Mach-O text section(s), if any")

	return cmd
}

func classifyOne(blob []byte, idx *cpurec.Index, cfg *cpurec.Config, verbose bool) {
	if verbose {
		printVerbose(cpurec.ClassifyVerbose(blob, idx, cfg))
	} else {
		printVerdict(cpurec.Classify(blob, idx, cfg))
	}
}

func printVerdict(v cpurec.Verdict) {
	fmt.Println(verdictLabel(v.Label, v.Confident))
}

func printVerbose(v cpurec.VerboseVerdict) {
	fmt.Println(verdictLabel(v.Label, v.Confident))
	fmt.Println("order-2 ranking (closest first):")
	for _, d := range topN(v.Rank2, 5) {
		fmt.Printf("  %-16s %.6f\n", verdictLabel(d.Label, true), d.Value)
	}
	fmt.Println("order-3 ranking (closest first):")
	for _, d := range topN(v.Rank3, 5) {
		fmt.Printf("  %-16s %.6f\n", verdictLabel(d.Label, true), d.Value)
	}
}

func topN(divs []cpurec.Divergence, n int) []cpurec.Divergence {
	if len(divs) < n {
		return divs
	}
	return divs[:n]
}

func verdictLabel(label string, confident bool) string {
	if label == "" || !confident {
		return "None"
	}
	return label
}
