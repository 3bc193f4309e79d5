package segment

import (
	"bytes"
	"strings"
	"testing"

	"github.com/airbus-seclab/cpu-rec/internal/classify"
	"github.com/airbus-seclab/cpu-rec/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func win(offset, length int, label string, confident bool, entropy float64) scan.Result {
	return scan.Result{
		Offset:  offset,
		Length:  length,
		Verdict: classify.Verdict{Label: label, Confident: confident},
		Entropy: entropy,
	}
}

func totalLength(runs []Run) int {
	var n int
	for _, r := range runs {
		n += r.Length
	}
	return n
}

func TestReconcile_CoalescesContiguousSameLabel(t *testing.T) {
	results := []scan.Result{
		win(0, 4096, "PPCel", true, 0.5),
		win(4096, 4096, "PPCel", true, 0.5),
		win(8192, 4096, "", false, 0.5),
	}
	runs := Reconcile(results, nil)
	require.Len(t, runs, 2)
	assert.Equal(t, "PPCel", runs[0].Label)
	assert.Equal(t, 0, runs[0].Offset)
	assert.Equal(t, 8192, runs[0].Length)
	assert.Equal(t, "", runs[1].Label)
}

func TestReconcile_CoverageIsGaplessAndTotal(t *testing.T) {
	results := []scan.Result{
		win(0, 0x5800, "", false, 0.4),
		win(0x5800, 0x4c800, "PPCel", true, 0.2),
		win(0x52000, 0x23800, "", false, 0.9),
	}
	runs := Reconcile(results, &Config{NoiseThreshold: 0x1000, HighEntropyThreshold: 0.9})

	var last int
	for _, r := range runs {
		assert.Equal(t, last, r.Offset, "runs must be contiguous")
		last = r.Offset + r.Length
	}
	assert.Equal(t, 0x5800+0x4c800+0x23800, totalLength(runs))
}

func TestReconcile_NoiseAbsorption_SingleWindowXBetweenLongYRuns(t *testing.T) {
	w := 0x1000
	results := []scan.Result{
		win(0, 2*w, "PPCel", true, 0.3),
		win(2*w, w, "IA-64", true, 0.3),
		win(3*w, 2*w, "PPCel", true, 0.3),
	}
	runs := Reconcile(results, &Config{NoiseThreshold: w, HighEntropyThreshold: 0.9})
	require.Len(t, runs, 1)
	assert.Equal(t, "PPCel", runs[0].Label)
	assert.Equal(t, 5*w, runs[0].Length)
}

func TestReconcile_NoneAbsorbedBetweenSameLabel(t *testing.T) {
	w := 0x1000
	results := []scan.Result{
		win(0, 10*w, "MSP430", true, 0.3),
		win(10*w, 1, "", false, 0.3), // tiny NONE sliver, well under threshold
		win(10*w+1, 10*w, "MSP430", true, 0.3),
	}
	runs := Reconcile(results, &Config{NoiseThreshold: w, HighEntropyThreshold: 0.9})
	require.Len(t, runs, 1)
	assert.Equal(t, "MSP430", runs[0].Label)
}

func TestReconcile_HighEntropyFlag(t *testing.T) {
	results := []scan.Result{win(0, 4096, "", false, 0.97)}
	runs := Reconcile(results, nil)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].HighEntropy)
}

func TestReconcile_OverlapAssignedToConfidentWindow(t *testing.T) {
	// Window A [0,4096) not confident, window B [2048,6144) confident:
	// the overlap [2048,4096) must go to B.
	results := []scan.Result{
		win(0, 4096, "", false, 0.5),
		win(2048, 4096, "X86", true, 0.5),
	}
	runs := Reconcile(results, &Config{NoiseThreshold: 0x1000, HighEntropyThreshold: 0.9})
	require.Len(t, runs, 2)
	assert.Equal(t, "", runs[0].Label)
	assert.Equal(t, 0, runs[0].Offset)
	assert.Equal(t, 2048, runs[0].Length)
	assert.Equal(t, "X86", runs[1].Label)
	assert.Equal(t, 2048, runs[1].Offset)
	assert.Equal(t, 4096, runs[1].Length)
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(Run{Offset: 0x5800, Label: "PPCel", Length: 0x4c800, Entropy: 0.123456})
	assert.Equal(t, "22528  0x5800  PPCel (size=0x4c800, entropy=0.123456)", line)
}

func TestFormatLine_None(t *testing.T) {
	line := FormatLine(Run{Offset: 0, Label: "", Length: 0x100, Entropy: 0})
	assert.True(t, strings.Contains(line, "None"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Run{{Offset: 0, Label: "X86", Length: 16}}))
	assert.Contains(t, buf.String(), "X86")
	assert.Contains(t, buf.String(), "offset,hex_offset,label")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, []Run{{Offset: 0, Label: "", Length: 16}}))
	assert.Contains(t, buf.String(), `"label": "None"`)
}
