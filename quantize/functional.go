package quantize

import (
	"fmt"
	"math/rand/v2"

	"picdither/errs"
	"picdither/kernel"
	"picdither/parallel"
	"picdither/pixbuf"
)

type options struct {
	seed    uint64
	seeded  bool
	workers int
}

type Option func(*options)

// WithSeed makes the random quantizer reproducible. Each row draws from its
// own stream derived from seed and the row index, so the output does not
// depend on scheduling.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed, o.seeded = seed, true
	}
}

// WithWorkers bounds the goroutines used by per-pixel stages. Values below 1
// mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}
	return o
}

// Functional quantizes each sample of a single-channel [0,255] buffer on its
// own, without error propagation. Threshold maps samples below
// alg.Threshold to 0 and the rest to 255; Random draws an integer in
// [0,255] per sample and picks 0 when the draw exceeds the sample. samples
// is only read.
func Functional(samples *pixbuf.FloatBuffer, alg kernel.Algorithm, opts ...Option) (*pixbuf.Buffer, error) {
	if alg.Kind != kernel.Threshold && alg.Kind != kernel.Random {
		return nil, fmt.Errorf("%w: %q is a %s algorithm, not functional", errs.ErrUnknownAlgorithm, alg.Name, alg.Kind)
	}
	if err := checkGray(samples); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	Logger().Debug("quantizing gray", "algorithm", alg.Name, "width", samples.Width, "height", samples.Height)

	out := pixbuf.New(samples.Width, samples.Height, pixbuf.RGBA)
	err := parallel.Rows(samples.Height, o.workers, func(y int) error {
		var rnd *rand.Rand
		if alg.Kind == kernel.Random {
			rnd = rand.New(rand.NewPCG(o.seed, uint64(y)))
		}

		for x := range samples.Width {
			v := samples.Pix[samples.Offset(x, y)]

			var q uint8
			switch alg.Kind {
			case kernel.Threshold:
				q = threshold(v, alg.Threshold)
			case kernel.Random:
				q = randomDither(v, rnd)
			}
			out.SetRGBA(x, y, q, q, q, White)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func threshold(v, t float64) uint8 {
	if v < t {
		return Black
	}
	return White
}

func randomDither(v float64, rnd *rand.Rand) uint8 {
	draw := Black + rnd.IntN(White-Black+1)
	if float64(draw) > v {
		return Black
	}
	return White
}
