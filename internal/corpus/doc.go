// Package corpus loads a directory of labeled training blobs ("the corpus")
// and builds the Reference Index the classifier compares unknown blobs
// against.
//
// # Layout
//
// A corpus directory is flat and contains one file per architecture, named
// either "<Label>.corpus" or "<Label>.corpus.xz". The label is the base
// filename with the ".corpus"/".xz" suffix(es) stripped. File contents are
// read verbatim and counted; no alignment, no framing.
//
// ".xz"-suffixed entries are recognized but not decompressed: spec §6
// explicitly allows requiring pre-decompressed entries, and no xz library
// appears anywhere in this project's dependency pack (see the repository's
// DESIGN.md), so wiring one in would be an out-of-pack, ungrounded
// dependency for an optional feature. Such entries are reported back as
// Diagnostics and otherwise skipped.
//
// # Loading
//
//	idx, diags, err := corpus.Load(ctx, "/path/to/corpus", nil)
//	if err != nil {
//	    // directory itself unreadable: spec §7 InputUnavailable
//	}
//	for _, d := range diags {
//	    log.Printf("skipped %s: %v", d.Entry, d.Err) // spec §7 CorpusEntryMalformed
//	}
//
// Entry loading (reading the file, counting bigrams/trigrams, building both
// profiles) runs concurrently across entries via errgroup, since each entry
// is independent and corpora commonly hold on the order of 70 architectures
// (spec §5). The returned Index is immutable and safe to share across
// concurrent classifications once Load returns.
package corpus
