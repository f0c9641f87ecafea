package quantize

import (
	"fmt"

	"picdither/errs"
	"picdither/kernel"
	"picdither/palette"
	"picdither/pixbuf"
)

// DitherGray reduces single-channel [0,255] samples to black and white with
// any algorithm of the catalog. Diffusion consumes samples; functional
// quantizers only read them.
func DitherGray(samples *pixbuf.FloatBuffer, alg kernel.Algorithm, opts ...Option) (*pixbuf.Buffer, error) {
	switch alg.Kind {
	case kernel.Threshold, kernel.Random:
		return Functional(samples, alg, opts...)
	case kernel.Diffusion:
		return DiffuseGray(samples, alg)
	}
	return nil, fmt.Errorf("%w: %q has unsupported kind %s", errs.ErrUnknownAlgorithm, alg.Name, alg.Kind)
}

// DitherColor dithers an integer RGBA buffer to the palette with a
// diffusion algorithm. buf is left untouched.
func DitherColor(buf *pixbuf.Buffer, alg kernel.Algorithm, p palette.Palette) (*pixbuf.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out, err := Diffuse(buf.Normalize(), alg, p)
	if err != nil {
		return nil, err
	}
	return out.Denormalize(), nil
}

// QuantizeColor maps an integer RGBA buffer to the nearest palette colors
// without dithering.
func QuantizeColor(buf *pixbuf.Buffer, p palette.Palette) (*pixbuf.Buffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	out, err := Quantize(buf.Normalize(), p)
	if err != nil {
		return nil, err
	}
	return out.Denormalize(), nil
}
