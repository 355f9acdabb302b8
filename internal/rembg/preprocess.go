package rembg

import (
	"image"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// Fixed preprocessing contract for the segmentation capability. The resize
// target and normalization constants are configuration, not negotiable at
// call time.
const inferSize = 320

var (
	normMean = [3]float32{0.485, 0.456, 0.406}
	normStd  = [3]float32{0.229, 0.224, 0.225}
)

// Tensor is the channel-major float32 input the capability consumes.
type Tensor struct {
	Width  int
	Height int
	Data   []float32
}

// preprocess resizes the image to the fixed square inference target and
// normalizes it into a CHW tensor.
func preprocess(img image.Image) Tensor {
	resized := resize.Resize(inferSize, inferSize, img, resize.Lanczos3)
	src := toNRGBA(resized)

	plane := inferSize * inferSize
	data := make([]float32, 3*plane)
	for y := 0; y < inferSize; y++ {
		row := y * src.Stride
		for x := 0; x < inferSize; x++ {
			i := row + x*4
			p := y*inferSize + x
			data[p] = (float32(src.Pix[i])/255.0 - normMean[0]) / normStd[0]
			data[plane+p] = (float32(src.Pix[i+1])/255.0 - normMean[1]) / normStd[1]
			data[2*plane+p] = (float32(src.Pix[i+2])/255.0 - normMean[2]) / normStd[2]
		}
	}
	return Tensor{Width: inferSize, Height: inferSize, Data: data}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}
