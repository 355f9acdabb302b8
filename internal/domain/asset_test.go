package domain

import (
	"image"
	"image/color"
	"testing"
)

func TestImageAssetDimensions(t *testing.T) {
	a := ImageAsset{Img: image.NewNRGBA(image.Rect(0, 0, 640, 480))}
	if a.Width() != 640 || a.Height() != 480 {
		t.Fatalf("dimensions = %dx%d, want 640x480", a.Width(), a.Height())
	}

	var empty ImageAsset
	if empty.Width() != 0 || empty.Height() != 0 {
		t.Fatalf("nil image should report 0x0, got %dx%d", empty.Width(), empty.Height())
	}
	if empty.HasAlpha() {
		t.Fatalf("nil image cannot have alpha")
	}
}

func TestImageAssetHasAlpha(t *testing.T) {
	opaque := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			opaque.SetNRGBA(x, y, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
		}
	}
	if (ImageAsset{Img: opaque}).HasAlpha() {
		t.Fatalf("fully opaque image reported alpha")
	}

	opaque.SetNRGBA(1, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 0})
	if !(ImageAsset{Img: opaque}).HasAlpha() {
		t.Fatalf("transparent pixel not detected")
	}
}
