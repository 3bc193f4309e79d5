// Package container is the optional, out-of-core "extract text section"
// collaborator spec §9 describes: given a whole binary, it best-effort
// locates the byte range(s) most likely to hold executable code, so the
// core classifier can additionally be pointed at just that slice. The core
// classification/scan/segment packages never import this package; it is
// wired in only at the CLI boundary (cmd/cpurec), exactly as spec §9
// requires: "The core never depends on container parsing."
//
// It is deliberately built on the standard library's own container parsers
// (debug/elf, debug/pe, debug/macho) rather than a third-party one: this is
// the stdlib's own job to do, and no repo in this project's reference pack
// implements an ELF/PE/Mach-O executable parser to imitate (the closest,
// zchee-go-qcow2, parses a disk-image format, not an executable container).
// See the repository's DESIGN.md for the full justification.
package container

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
)

// Region is a byte range within the original blob, in raw file-offset terms
// (not virtual address).
type Region struct {
	Offset int64
	Length int64
}

// ExtractRegions returns the code-bearing region(s) of data, if any
// recognized container format is detected. A universal (FAT) Mach-O yields
// one region per contained architecture slice (spec §8 scenario 6); a plain
// ELF/PE/Mach-O yields a single region for its text section. An
// unrecognized or malformed container yields nil: the caller falls back to
// treating the whole blob as the query (spec §9: "bytes -> (offset, length)
// | whole-file").
func ExtractRegions(data []byte) []Region {
	if regions := fatMachORegions(data); regions != nil {
		return regions
	}
	if r, ok := elfTextRegion(data); ok {
		return []Region{r}
	}
	if r, ok := peTextRegion(data); ok {
		return []Region{r}
	}
	if r, ok := machoTextRegion(data); ok {
		return []Region{r}
	}
	return nil
}

func fatMachORegions(data []byte) []Region {
	f, err := macho.NewFatFile(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	defer f.Close()
	return regionsFromFatArches(f.Arches)
}

func regionsFromFatArches(arches []macho.FatArch) []Region {
	if len(arches) == 0 {
		return nil
	}
	out := make([]Region, len(arches))
	for i, a := range arches {
		out[i] = Region{Offset: int64(a.Offset), Length: int64(a.Size)}
	}
	return out
}

func elfTextRegion(data []byte) (Region, bool) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return Region{}, false
	}
	defer f.Close()
	return textFromELFSections(f.Sections)
}

func textFromELFSections(sections []*elf.Section) (Region, bool) {
	for _, s := range sections {
		if s.Name == ".text" {
			return Region{Offset: int64(s.Offset), Length: int64(s.Size)}, true
		}
	}
	return Region{}, false
}

func peTextRegion(data []byte) (Region, bool) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return Region{}, false
	}
	defer f.Close()
	return textFromPESections(f.Sections)
}

func textFromPESections(sections []*pe.Section) (Region, bool) {
	for _, s := range sections {
		if s.Name == ".text" {
			return Region{Offset: int64(s.Offset), Length: int64(s.Size)}, true
		}
	}
	return Region{}, false
}

func machoTextRegion(data []byte) (Region, bool) {
	f, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return Region{}, false
	}
	defer f.Close()
	return textFromMachOSections(f.Sections)
}

func textFromMachOSections(sections []*macho.Section) (Region, bool) {
	for _, s := range sections {
		if s.Name == "__text" && s.Seg == "__TEXT" {
			return Region{Offset: int64(s.Offset), Length: int64(s.Size)}, true
		}
	}
	return Region{}, false
}
