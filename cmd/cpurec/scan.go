package main

import (
	"fmt"
	"os"

	"github.com/airbus-seclab/cpu-rec/internal/scan"
	"github.com/airbus-seclab/cpu-rec/internal/segment"
	"github.com/airbus-seclab/cpu-rec/pkg/cpurec"
	"github.com/spf13/cobra"
)

func newScanCmd(g *globalOpts) *cobra.Command {
	var (
		window    int
		step      int
		minWindow int
	)

	cmd := &cobra.Command{
		Use:   "scan FILE",
		Short: "Segment a binary blob into labeled regions by sliding a classification window",
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
			cfg.Scan = &scan.Config{Window: window, Step: step, MinWindow: minWindow}

			runs, err := cpurec.Scan(cmd.Context(), data, idx, cfg)
			if err != nil {
				return fmt.Errorf("scanning %q: %w", args[0], err)
			}

			return writeRuns(os.Stdout, runs, g.format)
		},
	}

	cmd.Flags().IntVar(&window, "window", 0x1000, "classification window size in bytes")
	cmd.Flags().IntVar(&step, "step", 0x1000, "stride between window starts in bytes")
	cmd.Flags().IntVar(&minWindow, "min-window", 0x80, "file size below which the whole file is classified as one window")

	return cmd
}

func writeRuns(w *os.File, runs []segment.Run, format string) error {
	switch format {
	case "csv":
		return segment.WriteCSV(w, runs)
	case "json":
		return segment.WriteJSON(w, runs)
	default:
		segment.WriteTable(w, runs)
		return nil
	}
}
