package cpurec

import "github.com/airbus-seclab/cpu-rec/internal/corpus"

var (
	// ErrDirUnavailable means the corpus directory could not be opened or
	// listed (spec §7 InputUnavailable).
	ErrDirUnavailable = corpus.ErrDirUnavailable

	// ErrEmpty means a corpus directory was read but held no usable entries.
	ErrEmpty = corpus.ErrEmpty
)
