package detection

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

var padColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// letterbox records how a source image was fitted into the square model input.
type letterbox struct {
	size  int
	scale float64
	padX  float64
	padY  float64
}

func newLetterbox(w, h, size int) letterbox {
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return letterbox{
		size:  size,
		scale: scale,
		padX:  float64(size-nw) / 2,
		padY:  float64(size-nh) / 2,
	}
}

// toSource maps a point in model input space back to source pixel space.
func (lb letterbox) toSource(x, y float64) (float64, float64) {
	return (x - lb.padX) / lb.scale, (y - lb.padY) / lb.scale
}

// letterboxTensor resizes img into a size x size canvas, keeping aspect ratio
// and padding with grey, and returns it as a normalised CHW float tensor.
func letterboxTensor(img image.Image, size int) ([]float32, letterbox) {
	b := img.Bounds()
	lb := newLetterbox(b.Dx(), b.Dy(), size)

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(padColor), image.Point{}, xdraw.Src)
	left := int(math.Round(lb.padX - 0.1))
	top := int(math.Round(lb.padY - 0.1))
	nw := int(math.Round(float64(b.Dx()) * lb.scale))
	nh := int(math.Round(float64(b.Dy()) * lb.scale))
	xdraw.BiLinear.Scale(canvas, image.Rect(left, top, left+nw, top+nh), img, b, xdraw.Src, nil)

	plane := size * size
	data := make([]float32, 3*plane)
	for i := 0; i < plane; i++ {
		off := i * 4
		data[i] = float32(canvas.Pix[off]) / 255
		data[plane+i] = float32(canvas.Pix[off+1]) / 255
		data[2*plane+i] = float32(canvas.Pix[off+2]) / 255
	}
	return data, lb
}
