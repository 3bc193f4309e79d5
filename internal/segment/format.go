package segment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// noneToken is the literal printed for a NONE run (spec §6).
const noneToken = "None"

func label(r Run) string {
	if r.Label == "" {
		return noneToken
	}
	return r.Label
}

// FormatLine renders one run per spec §6's human-readable line format:
//
//	OFFSET  HEX_OFFSET  LABEL (size=HEX_SIZE, entropy=E)
func FormatLine(r Run) string {
	return fmt.Sprintf("%d  0x%x  %s (size=0x%x, entropy=%.6f)",
		r.Offset, r.Offset, label(r), r.Length, r.Entropy)
}

// WriteTable prints an aligned, tabwriter-based table of runs, following
// the teacher CLI's pretty-table convention (header + dashes + rows).
func WriteTable(w io.Writer, runs []Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tHEX_OFFSET\tLABEL\tSIZE\tENTROPY\tHIGH_ENTROPY")
	fmt.Fprintln(tw, "------\t----------\t-----\t----\t-------\t------------")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t0x%x\t%s\t0x%x\t%.6f\t%t\n",
			r.Offset, r.Offset, label(r), r.Length, r.Entropy, r.HighEntropy)
	}
	tw.Flush()
}

// WriteCSV writes one row per run, mirroring the teacher CLI's CSV output
// path (pkg/consumption's cmd/consumption/main.go csv.Writer usage).
func WriteCSV(w io.Writer, runs []Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"offset", "hex_offset", "label", "size", "hex_size", "entropy", "high_entropy"}); err != nil {
		return err
	}
	for _, r := range runs {
		if err := cw.Write([]string{
			strconv.Itoa(r.Offset),
			fmt.Sprintf("0x%x", r.Offset),
			label(r),
			strconv.Itoa(r.Length),
			fmt.Sprintf("0x%x", r.Length),
			strconv.FormatFloat(r.Entropy, 'f', 6, 64),
			strconv.FormatBool(r.HighEntropy),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonRun is the wire shape for WriteJSON; Run itself stays a plain
// internal struct so it's not coupled to a JSON field naming scheme.
type jsonRun struct {
	Offset      int     `json:"offset"`
	HexOffset   string  `json:"hex_offset"`
	Label       string  `json:"label"`
	Size        int     `json:"size"`
	HexSize     string  `json:"hex_size"`
	Entropy     float64 `json:"entropy"`
	HighEntropy bool    `json:"high_entropy"`
}

// WriteJSON writes the segmentation as a JSON array, mirroring the teacher
// CLI's JSON output path.
func WriteJSON(w io.Writer, runs []Run) error {
	out := make([]jsonRun, len(runs))
	for i, r := range runs {
		out[i] = jsonRun{
			Offset:      r.Offset,
			HexOffset:   fmt.Sprintf("0x%x", r.Offset),
			Label:       label(r),
			Size:        r.Length,
			HexSize:     fmt.Sprintf("0x%x", r.Length),
			Entropy:     r.Entropy,
			HighEntropy: r.HighEntropy,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
