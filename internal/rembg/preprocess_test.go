package rembg

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessShape(t *testing.T) {
	src := solidImage(1024, 768, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	tensor := preprocess(src)

	assert.Equal(t, inferSize, tensor.Width)
	assert.Equal(t, inferSize, tensor.Height)
	require.Len(t, tensor.Data, 3*inferSize*inferSize)
}

func TestPreprocessNormalization(t *testing.T) {
	// A solid white frame normalizes every channel to (1 - mean) / std.
	src := solidImage(64, 64, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	tensor := preprocess(src)

	plane := inferSize * inferSize
	for ch := 0; ch < 3; ch++ {
		want := (1.0 - normMean[ch]) / normStd[ch]
		got := tensor.Data[ch*plane+plane/2]
		if math.Abs(float64(got-want)) > 1e-3 {
			t.Fatalf("channel %d: got %f want %f", ch, got, want)
		}
	}
}
