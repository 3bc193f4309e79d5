package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalOpts holds flags shared by every subcommand: where the reference
// corpus lives and which output format to render results in.
type globalOpts struct {
	corpusDir      string
	format         string
	alpha          float64
	ocamlLabel     string
	ocamlThreshold float64
}

func main() {
	var g globalOpts

	root := &cobra.Command{
		Use:   "cpurec",
		Short: "CPU instruction set recognizer for raw firmware/binary blobs",
		Long: `cpurec classifies a binary blob's CPU instruction set by comparing its
byte n-gram statistics against a labeled corpus of known architectures, and
can segment a blob into labeled regions by sliding a classification window
across it.

* GitHub: https://github.com/airbus-seclab/cpu-rec

Examples:
  cpurec classify --corpus ./corpus firmware.bin
  cpurec scan --corpus ./corpus --format json firmware.bin
  cpurec corpus --corpus ./corpus`,
	}

	root.PersistentFlags().StringVar(&g.corpusDir, "corpus", "corpus", "path to the reference corpus directory")
	root.PersistentFlags().StringVar(&g.format, "format", "table", "scan output format: table, csv, or json")
	root.PersistentFlags().Float64Var(&g.alpha, "alpha", 0.01, "Laplace smoothing weight applied to every n-gram profile")
	root.PersistentFlags().StringVar(&g.ocamlLabel, "ocaml-label", "OCaml", "corpus label subject to the low-divergence OCaml post-filter (empty disables it)")
	root.PersistentFlags().Float64Var(&g.ocamlThreshold, "ocaml-threshold", 0, "OCaml post-filter divergence ceiling (0 = derive from the loaded OCaml reference)")

	root.AddCommand(newClassifyCmd(&g))
	root.AddCommand(newScanCmd(&g))
	root.AddCommand(newCorpusCmd(&g))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
