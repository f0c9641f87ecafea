package quantize

import (
	"fmt"

	"picdither/errs"
	"picdither/kernel"
	"picdither/palette"
	"picdither/pixbuf"
	"picdither/rgb"
)

// Two-level output values of single-channel quantization.
const (
	Black = 0
	White = pixbuf.MaxValue
)

func checkDiffusion(alg kernel.Algorithm) error {
	if alg.Kind != kernel.Diffusion {
		return fmt.Errorf("%w: %q is a %s algorithm, not diffusion", errs.ErrUnknownAlgorithm, alg.Name, alg.Kind)
	}
	return alg.Validate()
}

// Diffuse dithers a normalized 4-channel buffer to the palette with alg's
// error diffusion kernel and returns a new buffer holding only palette
// colors with alpha 1.
//
// Pixels are visited in raster order. The error of each pixel is added in
// place to src at the kernel offsets that fall inside the image, so src is
// consumed by the call and must not be used concurrently. Samples may leave
// [0,1] on the way; they are never clamped.
func Diffuse(src *pixbuf.FloatBuffer, alg kernel.Algorithm, p palette.Palette) (*pixbuf.FloatBuffer, error) {
	if err := checkDiffusion(alg); err != nil {
		return nil, err
	}
	if err := checkColor(src, p); err != nil {
		return nil, err
	}
	Logger().Debug("diffusing", "algorithm", alg.Name, "width", src.Width, "height", src.Height, "colors", len(p))

	out := pixbuf.NewFloat(src.Width, src.Height, pixbuf.RGBA)
	for y := range src.Height {
		for x := range src.Width {
			cur := src.Pixel(x, y).RGB()
			c := p.Convert(cur)

			out.SetPixel(x, y, c.WithAlpha(1))
			qerr := cur.Sub(c)
			spread(src, x, y, alg, func(k int, f float64) {
				next := rgb.Color(src.Pix[k : k+3]).Add(qerr.Scale(f))
				copy(src.Pix[k:], next[:])
			})
		}
	}

	return out, nil
}

// DiffuseGray dithers a single-channel buffer on the [0,255] scale to black
// and white: samples below alg.Threshold become 0, the rest 255, and the
// difference is spread like in Diffuse. samples is consumed. The result is
// an opaque 4-channel buffer with equal R, G and B.
func DiffuseGray(samples *pixbuf.FloatBuffer, alg kernel.Algorithm) (*pixbuf.Buffer, error) {
	if err := checkDiffusion(alg); err != nil {
		return nil, err
	}
	if err := checkGray(samples); err != nil {
		return nil, err
	}
	Logger().Debug("diffusing gray", "algorithm", alg.Name, "width", samples.Width, "height", samples.Height)

	out := pixbuf.New(samples.Width, samples.Height, pixbuf.RGBA)
	for y := range samples.Height {
		for x := range samples.Width {
			v := samples.Pix[samples.Offset(x, y)]
			q := uint8(White)
			if v < alg.Threshold {
				q = Black
			}

			spreadError(samples, x, y, alg, v-float64(q))
			out.SetRGBA(x, y, q, q, q, White)
		}
	}

	return out, nil
}

// spreadError adds weight/divisor × qerr[c] to channel c of every pixel the
// kernel reaches from (x, y).
func spreadError(buf *pixbuf.FloatBuffer, x, y int, alg kernel.Algorithm, qerr ...float64) {
	spread(buf, x, y, alg, func(k int, f float64) {
		for c, e := range qerr {
			buf.Pix[k+c] += f * e
		}
	})
}

// spread calls fn with the sample offset and error fraction of every
// non-zero kernel position inside buf. Offsets outside the image are
// dropped, never wrapped.
func spread(buf *pixbuf.FloatBuffer, x, y int, alg kernel.Algorithm, fn func(k int, f float64)) {
	a, b := alg.Size()
	for dy := range b {
		s := y + dy
		if s >= buf.Height {
			break
		}

		for dx := -a / 2; dx < a-a/2; dx++ {
			r := x + dx
			if r < 0 || r >= buf.Width {
				continue
			}

			if f := alg.Factor(dx, dy); f != 0 {
				fn(buf.Offset(r, s), f)
			}
		}
	}
}

func checkGray(samples *pixbuf.FloatBuffer) error {
	if err := samples.Validate(); err != nil {
		return err
	}
	if samples.Channels != pixbuf.Gray {
		return fmt.Errorf("%w: expected single-channel samples, got %d channels", errs.ErrInvalidInput, samples.Channels)
	}
	return nil
}
