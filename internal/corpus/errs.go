package corpus

import "errors"

var (
	// ErrDirUnavailable means the corpus directory could not be opened or
	// listed at all (spec §7 InputUnavailable).
	ErrDirUnavailable = errors.New("corpus: directory unavailable")

	// ErrEmpty means the directory was read successfully but contained no
	// usable *.corpus entries.
	ErrEmpty = errors.New("corpus: no usable entries found")
)
