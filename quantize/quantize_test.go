package quantize

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picdither/errs"
	"picdither/kernel"
	"picdither/palette"
	"picdither/pixbuf"
	"picdither/rgb"
)

var bw = palette.Palette{{0, 0, 0}, {1, 1, 1}}

func lookup(t *testing.T, name string) kernel.Algorithm {
	t.Helper()
	a, err := kernel.Lookup(name)
	require.NoError(t, err)
	return a
}

func grayStrip(width, height int, v float64) *pixbuf.FloatBuffer {
	fb := pixbuf.NewFloat(width, height, pixbuf.RGBA)
	for y := range height {
		for x := range width {
			fb.SetRGBA(x, y, v, v, v, 1)
		}
	}
	return fb
}

func TestNearest(t *testing.T) {
	mac := palette.MacOS8Bit()

	t.Run("members map to themselves", func(t *testing.T) {
		for _, p := range []palette.Palette{bw, mac} {
			for _, c := range p {
				got, err := Nearest(c, p)
				require.NoError(t, err)
				assert.Equal(t, c, got)
			}
		}
	})

	t.Run("ties go to the first entry", func(t *testing.T) {
		p := palette.Palette{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		i, err := NearestIndex(rgb.Color{0.5, 0.5, 0.5}, p)
		require.NoError(t, err)
		assert.Equal(t, 0, i)

		i, _ = NearestIndex(rgb.Color{0, 0.5, 0.5}, p)
		assert.Equal(t, 1, i)
	})

	t.Run("out of range input", func(t *testing.T) {
		got, err := Nearest(rgb.Color{1.3, 1.1, 2}, bw)
		require.NoError(t, err)
		assert.Equal(t, rgb.Color{1, 1, 1}, got)
	})

	t.Run("empty palette", func(t *testing.T) {
		_, err := Nearest(rgb.Color{}, palette.Palette{})
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	})
}

func TestQuantize(t *testing.T) {
	src := pixbuf.NewFloat(2, 1, pixbuf.RGBA)
	src.SetRGBA(0, 0, 0.6, 0.6, 0.6, 0.2)
	src.SetRGBA(1, 0, 0.4, 0.4, 0.4, 0.2)
	before := src.Clone()

	out, err := Quantize(src, bw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 0, 0, 0, 1}, out.Pix)
	assert.Equal(t, before, src)

	buf := pixbuf.New(1, 1, pixbuf.RGBA)
	buf.SetRGBA(0, 0, 250, 80, 80, 255)
	vga, _ := palette.Builtin().Get(palette.VGA16)
	got, err := QuantizeColor(buf, vga)
	require.NoError(t, err)
	assert.Equal(t, []uint8{255, 85, 85, 255}, got.Pix)
}

func TestDiffuseSinglePixel(t *testing.T) {
	src := pixbuf.NewFloat(1, 1, pixbuf.RGBA)
	src.SetRGBA(0, 0, 0.6, 0.6, 0.6, 1)

	out, err := Diffuse(src, lookup(t, kernel.NameSimple), bw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1}, out.Pix)
	assert.Equal(t, []uint8{255, 255, 255, 255}, out.Denormalize().Pix)
}

func TestDiffuseStrip(t *testing.T) {
	src := grayStrip(3, 1, 0.5)

	out, err := Diffuse(src, lookup(t, kernel.NameFloydSteinberg), bw)
	require.NoError(t, err)

	// first pixel ties and takes black, so +0.5 error moves right
	second := 0.5 + (7.0/16)*(0.5-0)
	assert.InDelta(t, second, src.Pix[4], 1e-12)
	third := 0.5 + (7.0/16)*(second-1)
	assert.InDelta(t, third, src.Pix[8], 1e-12)

	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1, 1, 1, 0, 0, 0, 1}, out.Pix)
}

func TestDiffuseEdges(t *testing.T) {
	src := grayStrip(2, 2, 0.5)

	_, err := Diffuse(src, lookup(t, kernel.NameSimple), bw)
	require.NoError(t, err)

	// (0,0) sends +0.5 to (1,0); (1,0) is on the right edge and must not
	// wrap into (0,1)
	assert.InDelta(t, 1.0, src.Pix[src.Offset(1, 0)], 1e-12)
	assert.InDelta(t, 0.5, src.Pix[src.Offset(0, 1)], 1e-12)
}

func TestSpreadErrorConservation(t *testing.T) {
	for _, name := range kernel.Builtin().Names() {
		alg := lookup(t, name)
		if alg.Kind != kernel.Diffusion {
			continue
		}

		t.Run(name, func(t *testing.T) {
			buf := pixbuf.NewFloat(9, 5, pixbuf.Gray)
			spreadError(buf, 4, 1, alg, 1)

			sum := 0.0
			for _, v := range buf.Pix {
				sum += v
			}
			assert.InDelta(t, alg.Spread(), sum, 1e-12)
			assert.LessOrEqual(t, sum, 1+1e-12)

			// nothing lands on visited positions
			for i := 0; i <= buf.Offset(4, 1); i++ {
				assert.Equal(t, 0.0, buf.Pix[i], "offset %d", i)
			}
		})
	}

	t.Run("corner loses error", func(t *testing.T) {
		alg := lookup(t, kernel.NameFloydSteinberg)
		buf := pixbuf.NewFloat(3, 3, pixbuf.RGBA)
		spreadError(buf, 2, 2, alg, 1, 1, 1)
		assert.Equal(t, make([]float64, len(buf.Pix)), buf.Pix)
	})
}

func TestDiffuseColorPalette(t *testing.T) {
	src := pixbuf.NewFloat(8, 8, pixbuf.RGBA)
	for y := range 8 {
		for x := range 8 {
			src.SetRGBA(x, y, float64(x)/7, float64(y)/7, 0.3, 1)
		}
	}

	mac := palette.MacOS8Bit()
	out, err := Diffuse(src, lookup(t, kernel.NameAtkinson), mac)
	require.NoError(t, err)

	members := make(map[rgb.Color]bool, len(mac))
	for _, c := range mac {
		members[c] = true
	}
	for i := 0; i < len(out.Pix); i += pixbuf.RGBA {
		assert.True(t, members[rgb.Color{out.Pix[i], out.Pix[i+1], out.Pix[i+2]}], "pixel %d", i/4)
		assert.Equal(t, 1.0, out.Pix[i+3])
	}
}

func TestDiffuseErrors(t *testing.T) {
	fs := lookup(t, kernel.NameFloydSteinberg)

	_, err := Diffuse(grayStrip(2, 2, 0.5), lookup(t, kernel.NameThreshold), bw)
	assert.ErrorIs(t, err, errs.ErrUnknownAlgorithm)

	_, err = Diffuse(grayStrip(2, 2, 0.5), fs, palette.Palette{})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = Diffuse(pixbuf.NewFloat(2, 2, pixbuf.Gray), fs, bw)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	short := &pixbuf.FloatBuffer{Pix: make([]float64, 7), Width: 2, Height: 1, Channels: pixbuf.RGBA}
	_, err = Diffuse(short, fs, bw)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	bad := fs
	bad.Divisor = 0
	_, err = Diffuse(grayStrip(2, 2, 0.5), bad, bw)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	backwards := fs
	backwards.Matrix = [][]int{{7, 0, 0}, {3, 5, 1}}
	_, err = Diffuse(grayStrip(2, 2, 0.5), backwards, bw)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestDiffuseGray(t *testing.T) {
	samples := &pixbuf.FloatBuffer{Pix: []float64{100, 100, 100}, Width: 3, Height: 1, Channels: pixbuf.Gray}

	out, err := DiffuseGray(samples, lookup(t, kernel.NameFloydSteinberg))
	require.NoError(t, err)
	assert.Equal(t, []uint8{
		0, 0, 0, 255,
		255, 255, 255, 255,
		0, 0, 0, 255,
	}, out.Pix)
	assert.InDelta(t, 100+7.0/16*100, samples.Pix[1], 1e-9)

	_, err = DiffuseGray(pixbuf.NewFloat(1, 1, pixbuf.RGBA), lookup(t, kernel.NameFloydSteinberg))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestFunctionalThreshold(t *testing.T) {
	samples := &pixbuf.FloatBuffer{Pix: []float64{0, 127.9, 128, 255, -4, 300}, Width: 3, Height: 2, Channels: pixbuf.Gray}
	before := samples.Clone()
	alg := lookup(t, kernel.NameThreshold)

	first, err := Functional(samples, alg)
	require.NoError(t, err)
	second, err := Functional(samples, alg, WithWorkers(1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, samples)

	var got []uint8
	for i := 0; i < len(first.Pix); i += 4 {
		got = append(got, first.Pix[i])
		assert.Equal(t, uint8(255), first.Pix[i+3])
	}
	assert.Equal(t, []uint8{0, 0, 255, 255, 0, 255}, got)
}

func TestFunctionalRandom(t *testing.T) {
	const w, h = 64, 16
	samples := pixbuf.NewFloat(w, h, pixbuf.Gray)
	for i := range samples.Pix {
		samples.Pix[i] = float64(i % 256)
	}
	alg := lookup(t, kernel.NameRandom)

	a, err := Functional(samples, alg, WithSeed(42), WithWorkers(1))
	require.NoError(t, err)
	b, err := Functional(samples, alg, WithSeed(42), WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, a.Pix, b.Pix)

	t.Run("extremes", func(t *testing.T) {
		ext := &pixbuf.FloatBuffer{Pix: []float64{-1, 255, 256}, Width: 3, Height: 1, Channels: pixbuf.Gray}
		for seed := range uint64(20) {
			out, err := Functional(ext, alg, WithSeed(seed))
			require.NoError(t, err)
			assert.Equal(t, uint8(0), out.Pix[0])
			assert.Equal(t, uint8(255), out.Pix[4])
			assert.Equal(t, uint8(255), out.Pix[8])
		}
	})

	t.Run("brighter samples give more white", func(t *testing.T) {
		count := func(v float64) int {
			s := pixbuf.NewFloat(100, 100, pixbuf.Gray)
			for i := range s.Pix {
				s.Pix[i] = v
			}
			out, err := Functional(s, alg, WithSeed(7))
			require.NoError(t, err)
			n := 0
			for i := 0; i < len(out.Pix); i += 4 {
				if out.Pix[i] == White {
					n++
				}
			}
			return n
		}
		assert.Less(t, count(32), count(128))
		assert.Less(t, count(128), count(224))
	})

	_, err = Functional(samples, lookup(t, kernel.NameAtkinson))
	assert.ErrorIs(t, err, errs.ErrUnknownAlgorithm)
}

func TestDitherGray(t *testing.T) {
	for _, name := range kernel.Builtin().Names() {
		t.Run(name, func(t *testing.T) {
			samples := pixbuf.NewFloat(5, 4, pixbuf.Gray)
			for i := range samples.Pix {
				samples.Pix[i] = float64(i * 12)
			}

			out, err := DitherGray(samples, lookup(t, name), WithSeed(1))
			require.NoError(t, err)
			require.NoError(t, out.Validate())
			for i := 0; i < len(out.Pix); i += 4 {
				v := out.Pix[i]
				assert.Contains(t, []uint8{Black, White}, v)
				assert.Equal(t, []uint8{v, v, White}, out.Pix[i+1:i+4])
			}
		})
	}

	_, err := DitherGray(pixbuf.NewFloat(1, 1, pixbuf.Gray), kernel.Algorithm{Name: "bogus"})
	assert.ErrorIs(t, err, errs.ErrUnknownAlgorithm)
}

func TestDitherColor(t *testing.T) {
	buf := pixbuf.New(4, 4, pixbuf.RGBA)
	for i := range buf.Pix {
		buf.Pix[i] = 153
	}
	orig := append([]uint8(nil), buf.Pix...)

	out, err := DitherColor(buf, lookup(t, kernel.NameFloydSteinberg), bw)
	require.NoError(t, err)
	assert.Equal(t, orig, buf.Pix)

	white := 0
	for i := 0; i < len(out.Pix); i += 4 {
		assert.Contains(t, []uint8{0, 255}, out.Pix[i])
		assert.Equal(t, uint8(255), out.Pix[i+3])
		if out.Pix[i] == 255 {
			white++
		}
	}
	assert.Greater(t, white, 4)
	assert.Less(t, white, 16)

	_, err = DitherColor(buf, lookup(t, kernel.NameRandom), bw)
	assert.ErrorIs(t, err, errs.ErrUnknownAlgorithm)
}

func TestLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, err := Diffuse(grayStrip(1, 1, 0.2), lookup(t, kernel.NameSimple), bw)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "algorithm=simple")

	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}
