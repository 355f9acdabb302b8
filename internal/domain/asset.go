package domain

import (
	"image"
	"time"
)

// ImageAsset wraps a decoded image together with the answers the pipeline
// keeps asking about it. It has no persistent identity until stored.
type ImageAsset struct {
	Img image.Image
}

func (a ImageAsset) Width() int {
	if a.Img == nil {
		return 0
	}
	return a.Img.Bounds().Dx()
}

func (a ImageAsset) Height() int {
	if a.Img == nil {
		return 0
	}
	return a.Img.Bounds().Dy()
}

// HasAlpha reports whether any pixel is not fully opaque.
func (a ImageAsset) HasAlpha() bool {
	if a.Img == nil {
		return false
	}
	if nrgba, ok := a.Img.(*image.NRGBA); ok {
		for i := 3; i < len(nrgba.Pix); i += 4 {
			if nrgba.Pix[i] != 255 {
				return true
			}
		}
		return false
	}
	b := a.Img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, alpha := a.Img.At(x, y).RGBA(); alpha != 0xffff {
				return true
			}
		}
	}
	return false
}

// StoredObject is the durable artifact held by the object store gateway.
// Created once, never mutated, referenced thereafter only by key.
type StoredObject struct {
	Key         string
	ContentType string
	Bytes       []byte
}

// AccessLink is a time-bounded signed URL derived from a stored key. It must
// only be minted after the referenced object exists in the store.
type AccessLink struct {
	URL       string
	ExpiresAt time.Time
}

// RenderRequest describes one composition call. Transient; exists only for
// the duration of the call.
type RenderRequest struct {
	ID           string
	TemplatePath string
	AudioPath    string
	ImagePath    string
	OutputPath   string
	Text         string
}

// RenderedVideo is the output of a composition call before upload.
type RenderedVideo struct {
	ID   string
	Path string
}

// ImageSource names where the orchestrator should read the render input
// from: an object-store key or a local path under the uploads root. The key
// wins when both are present.
type ImageSource struct {
	key  string
	path string
}

func ByKey(key string) ImageSource { return ImageSource{key: key} }

func ByPath(path string) ImageSource { return ImageSource{path: path} }

// NewImageSource applies the key-over-path preference once, at the boundary.
func NewImageSource(key, path string) ImageSource {
	if key != "" {
		return ByKey(key)
	}
	if path != "" {
		return ByPath(path)
	}
	return ImageSource{}
}

func (s ImageSource) Key() (string, bool) { return s.key, s.key != "" }

func (s ImageSource) Path() (string, bool) { return s.path, s.path != "" }

func (s ImageSource) IsZero() bool { return s.key == "" && s.path == "" }
