package mangle

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/anthonynsimon/bild/adjust"

	"picdither/config"
	"picdither/errs"
	"picdither/grayscale"
	"picdither/kernel"
	"picdither/palette"
	"picdither/pixbuf"
	"picdither/quantize"
)

// job is the resolved form of the dither settings, shared read-only by all
// files of a run.
type job struct {
	alg          kernel.Algorithm
	pal          palette.Palette
	policy       *grayscale.Policy
	quantizeOnly bool
	gamma        float64
	workers      int
	opts         []quantize.Option
}

func newJob(env *Env, d config.Dither) (*job, error) {
	alg, err := env.Algorithms.Lookup(d.Algorithm)
	if err != nil {
		return nil, err
	}

	j := &job{
		alg:          alg,
		quantizeOnly: d.QuantizeOnly,
		gamma:        d.Gamma,
		workers:      env.Config.Main.Workers,
		opts:         []quantize.Option{quantize.WithWorkers(env.Config.Main.Workers)},
	}
	if d.Seed != 0 {
		j.opts = append(j.opts, quantize.WithSeed(uint64(d.Seed)))
	}

	if d.Grayscale != "" {
		policy, err := grayscale.Lookup(d.Grayscale)
		if err != nil {
			return nil, err
		}
		j.policy = &policy
		j.pal, _ = palette.Builtin().Get(palette.BlackWhite)

		if j.quantizeOnly {
			j.alg = kernel.Algorithm{
				Name:        kernel.NameThreshold,
				DisplayName: "Threshold",
				Kind:        kernel.Threshold,
				Threshold:   alg.Threshold,
			}
		}
		return j, nil
	}

	if j.pal, err = env.Palettes.Load(d.Palette); err != nil {
		return nil, err
	}
	if !j.quantizeOnly && alg.Kind != kernel.Diffusion {
		return nil, fmt.Errorf("%w: %s quantizes single samples, use it with a grayscale policy",
			errs.ErrUnknownAlgorithm, alg.Name)
	}

	return j, nil
}

// apply runs the dither pipeline on img and returns the result with the
// palette its pixels are drawn from.
func (j *job) apply(logger *slog.Logger, img image.Image) (image.Image, color.Palette, error) {
	if j.gamma > 0 && j.gamma != 1 {
		logger.Debug("adjusting gamma", "gamma", j.gamma)
		img = adjust.Gamma(img, j.gamma)
	}

	buf := pixbuf.FromImage(img)

	var out *pixbuf.Buffer
	var err error
	switch {
	case j.policy != nil:
		logger.Info("dithering to black and white", "grayscale", j.policy.Name, "algorithm", j.alg.Name)
		var samples *pixbuf.FloatBuffer
		if samples, err = grayscale.Reduce(buf, *j.policy, j.workers); err == nil {
			out, err = quantize.DitherGray(samples, j.alg, j.opts...)
		}
	case j.quantizeOnly:
		logger.Info("quantizing", "colors", len(j.pal))
		out, err = quantize.QuantizeColor(buf, j.pal)
	default:
		logger.Info("dithering", "colors", len(j.pal), "algorithm", j.alg.Name)
		out, err = quantize.DitherColor(buf, j.alg, j.pal)
	}
	if err != nil {
		return nil, nil, err
	}

	return out.Image(), j.pal.ToColorPalette(), nil
}
