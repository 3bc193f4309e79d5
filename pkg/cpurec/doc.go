// Package cpurec is the public entry point for classifying and segmenting
// raw binary blobs by CPU instruction set, using n-gram statistical
// profiles built from a labeled corpus (spec §1-§6).
//
// A typical program loads a corpus once, then classifies or scans any
// number of blobs against it:
//
//	idx, diags, err := cpurec.LoadCorpus(ctx, "/path/to/corpus", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range diags {
//	    log.Printf("corpus: skipped %s: %v", d.Entry, d.Err)
//	}
//
//	v := cpurec.Classify(blob, idx, nil)
//	if v.Confident {
//	    fmt.Println(v.Label)
//	}
//
// Classify answers "what is this whole blob", Scan answers "what is at
// each offset of this blob" by sliding a window and reconciling the
// per-window verdicts into labeled runs (spec §4.5-§4.6). Both share the
// same Index and Config.
package cpurec
