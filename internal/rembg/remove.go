package rembg

import (
	"bytes"
	"context"
	"image"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/nfnt/resize"

	"server/internal/domain"
)

// Remove cuts the background out of src: the capability's mask, resized back
// to the source resolution, becomes the alpha channel of a new image. The
// input is never mutated and output dimensions always equal input dimensions.
func (s *Service) Remove(ctx context.Context, src image.Image) (*image.NRGBA, error) {
	if src == nil {
		return nil, domain.E(domain.KindInvalidImage, "nil image")
	}
	seg, err := s.segmenter()
	if err != nil {
		return nil, err
	}

	mask, err := seg.Segment(ctx, preprocess(src))
	if err != nil {
		return nil, domain.Wrap(domain.KindModelUnavailable, "segment", err)
	}

	asset := domain.ImageAsset{Img: src}
	w := asset.Width()
	h := asset.Height()
	full := toGray(resize.Resize(uint(w), uint(h), mask, resize.NearestNeighbor))

	out := copyNRGBA(src)
	for y := 0; y < h; y++ {
		row := y * out.Stride
		maskRow := y * full.Stride
		for x := 0; x < w; x++ {
			out.Pix[row+x*4+3] = full.Pix[maskRow+x]
		}
	}
	return out, nil
}

// DecodeImage decodes PNG, JPEG or GIF bytes into an ImageAsset-ready image.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Wrap(domain.KindInvalidImage, "decode image", err)
	}
	return img, nil
}

// EncodePNG renders an image to PNG bytes. PNG is the only output format the
// pipeline stores for cutouts since it carries the alpha channel.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, domain.Wrap(domain.KindInvalidImage, "encode png", err)
	}
	return buf.Bytes(), nil
}

// copyNRGBA always allocates, even when src already is *image.NRGBA, so the
// caller's image stays untouched.
func copyNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if nrgba, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) && nrgba.Stride == dst.Stride {
		copy(dst.Pix, nrgba.Pix)
		return dst
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
