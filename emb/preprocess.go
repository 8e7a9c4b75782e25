package emb

import (
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// ErrDecode marks failures to open or decode an image file, as opposed to
// failures inside the model runtime.
var ErrDecode = errors.New("image decode")

// CLIP preprocessing constants.
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// pixelTensor decodes an image file into the CLIP input layout: shorter side
// resized to size, center crop, per-channel mean/std normalization,
// channel-first float32.
func pixelTensor(path string, size int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-dimension image %s", ErrDecode, path)
	}
	cropped := centerCrop(resizeShortSide(img, size), size)

	out := make([]float32, 3*size*size)
	plane := size * size
	origin := cropped.Bounds().Min
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := cropped.At(origin.X+x, origin.Y+y).RGBA()
			idx := y*size + x
			out[idx] = (float32(r)/65535 - clipMean[0]) / clipStd[0]
			out[plane+idx] = (float32(g)/65535 - clipMean[1]) / clipStd[1]
			out[2*plane+idx] = (float32(bl)/65535 - clipMean[2]) / clipStd[2]
		}
	}
	return out, nil
}

// resizeShortSide scales the image so its shorter side equals size,
// preserving aspect ratio.
func resizeShortSide(img image.Image, size int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := size, size
	if w < h {
		nh = int(math.Round(float64(h) * float64(size) / float64(w)))
	} else if h < w {
		nw = int(math.Round(float64(w) * float64(size) / float64(h)))
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func centerCrop(img *image.RGBA, size int) *image.RGBA {
	b := img.Bounds()
	x0 := b.Min.X + (b.Dx()-size)/2
	y0 := b.Min.Y + (b.Dy()-size)/2
	return img.SubImage(image.Rect(x0, y0, x0+size, y0+size)).(*image.RGBA)
}
