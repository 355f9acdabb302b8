package rembg

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
)

// centerMaskSegmenter marks the middle half of the frame as foreground.
type centerMaskSegmenter struct {
	calls int
}

func (s *centerMaskSegmenter) Segment(_ context.Context, input Tensor) (*image.Gray, error) {
	s.calls++
	mask := image.NewGray(image.Rect(0, 0, input.Width, input.Height))
	for y := input.Height / 4; y < 3*input.Height/4; y++ {
		for x := input.Width / 4; x < 3*input.Width/4; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return mask, nil
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRemoveKeepsDimensionsAndAddsAlpha(t *testing.T) {
	svc := NewService(func() (Segmenter, error) { return &centerMaskSegmenter{}, nil })
	src := solidImage(1024, 768, color.NRGBA{R: 200, G: 40, B: 40, A: 255})

	out, err := svc.Remove(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1024, out.Bounds().Dx())
	assert.Equal(t, 768, out.Bounds().Dy())

	// Inside the subject region the mask is fully opaque, outside fully cut.
	assert.Greater(t, int(out.NRGBAAt(512, 384).A), 200)
	assert.Equal(t, uint8(0), out.NRGBAAt(2, 2).A)
	assert.Equal(t, uint8(0), out.NRGBAAt(1021, 765).A)

	// Color channels survive the cutout.
	assert.Equal(t, uint8(200), out.NRGBAAt(512, 384).R)
}

func TestRemoveDoesNotMutateInput(t *testing.T) {
	svc := NewService(func() (Segmenter, error) { return &centerMaskSegmenter{}, nil })
	src := solidImage(64, 64, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	_, err := svc.Remove(context.Background(), src)
	require.NoError(t, err)

	for i := 3; i < len(src.Pix); i += 4 {
		require.Equal(t, uint8(255), src.Pix[i], "input alpha changed at %d", i)
	}
}

func TestRemoveInitializesLazilyAndOnce(t *testing.T) {
	seg := &centerMaskSegmenter{}
	inits := 0
	svc := NewService(func() (Segmenter, error) {
		inits++
		return seg, nil
	})

	assert.False(t, svc.Ready())

	src := solidImage(32, 32, color.NRGBA{A: 255})
	_, err := svc.Remove(context.Background(), src)
	require.NoError(t, err)
	_, err = svc.Remove(context.Background(), src)
	require.NoError(t, err)

	assert.True(t, svc.Ready())
	assert.Equal(t, 1, inits)
	assert.Equal(t, 2, seg.calls)

	svc.Reset()
	assert.False(t, svc.Ready())
	_, err = svc.Remove(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, inits)
}

func TestRemoveReportsModelUnavailable(t *testing.T) {
	svc := NewService(func() (Segmenter, error) {
		return nil, errors.New("connection refused")
	})
	_, err := svc.Remove(context.Background(), solidImage(8, 8, color.NRGBA{A: 255}))
	require.Error(t, err)
	assert.Equal(t, domain.KindModelUnavailable, domain.KindOf(err))
	assert.False(t, svc.Ready())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("definitely not an image"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidImage, domain.KindOf(err))
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := solidImage(16, 9, color.NRGBA{R: 1, G: 2, B: 3, A: 128})
	data, err := EncodePNG(src)
	require.NoError(t, err)

	img, err := DecodeImage(data)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 9, img.Bounds().Dy())
	assert.True(t, domainHasAlpha(img))
}

func domainHasAlpha(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
