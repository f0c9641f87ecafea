package quantize

import (
	"fmt"

	"picdither/errs"
	"picdither/palette"
	"picdither/pixbuf"
	"picdither/rgb"
)

// NearestIndex returns the index of the palette entry closest to c by
// squared Euclidean RGB distance, the first one on ties.
func NearestIndex(c rgb.Color, p palette.Palette) (int, error) {
	if err := p.Validate(); err != nil {
		return -1, err
	}
	return p.Index(c), nil
}

// Nearest returns the palette entry closest to c. c may lie outside [0,1].
func Nearest(c rgb.Color, p palette.Palette) (rgb.Color, error) {
	i, err := NearestIndex(c, p)
	if err != nil {
		return rgb.Color{}, err
	}
	return p[i], nil
}

// Quantize maps every pixel of a normalized 4-channel buffer to its nearest
// palette color without spreading any error. Output alpha is 1.
func Quantize(src *pixbuf.FloatBuffer, p palette.Palette) (*pixbuf.FloatBuffer, error) {
	if err := checkColor(src, p); err != nil {
		return nil, err
	}
	Logger().Debug("quantizing", "width", src.Width, "height", src.Height, "colors", len(p))

	out := pixbuf.NewFloat(src.Width, src.Height, pixbuf.RGBA)
	for i := 0; i < len(src.Pix); i += pixbuf.RGBA {
		c := p.Convert(rgb.Color(src.Pix[i : i+3]))
		copy(out.Pix[i:], c[:])
		out.Pix[i+3] = 1
	}
	return out, nil
}

func checkColor(src *pixbuf.FloatBuffer, p palette.Palette) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if src.Channels != pixbuf.RGBA {
		return fmt.Errorf("%w: color quantization needs RGBA input, got %d channels", errs.ErrInvalidInput, src.Channels)
	}
	return p.Validate()
}
