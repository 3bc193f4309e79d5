package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeDiv_Normal(t *testing.T) {
	assert.Equal(t, 2.0, SafeDiv(4, 2))
}

func TestSafeDiv_NearZeroDenominatorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, SafeDiv(4, 1e-15))
	assert.Equal(t, 0.0, SafeDiv(4, 0))
}

func TestClamp01_InRange(t *testing.T) {
	assert.Equal(t, 0.5, Clamp01(0.5))
}

func TestClamp01_OutOfRange(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-1))
	assert.Equal(t, 1.0, Clamp01(1.5))
}

func TestClamp01_NaN(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}
