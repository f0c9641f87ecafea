package palette

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picdither/errs"
	"picdither/rgb"
)

func TestNew(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	p, err := New(rgb.Color{0, 0, 0})
	require.NoError(t, err)
	assert.Len(t, p, 1)
}

func TestIndex(t *testing.T) {
	bw := Palette{{0, 0, 0}, {1, 1, 1}}

	t.Run("exact", func(t *testing.T) {
		for i, c := range bw {
			assert.Equal(t, i, bw.Index(c))
		}
	})

	t.Run("tie goes to first", func(t *testing.T) {
		assert.Equal(t, 0, bw.Index(rgb.Color{0.5, 0.5, 0.5}))
		rev := Palette{{1, 1, 1}, {0, 0, 0}}
		assert.Equal(t, 0, rev.Index(rgb.Color{0.5, 0.5, 0.5}))
	})

	t.Run("out of range", func(t *testing.T) {
		assert.Equal(t, 1, bw.Index(rgb.Color{1.4, 2, 0.9}))
		assert.Equal(t, 0, bw.Index(rgb.Color{-1, -0.2, 0.1}))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, -1, Palette{}.Index(rgb.Color{}))
		assert.Equal(t, rgb.Color{}, Palette{}.Convert(rgb.Color{1, 1, 1}))
	})

	t.Run("convert", func(t *testing.T) {
		assert.Equal(t, rgb.Color{1, 1, 1}, bw.Convert(rgb.Color{0.6, 0.6, 0.6}))
	})
}

func TestMacOS8BitColor(t *testing.T) {
	tests := []struct {
		index int
		want  rgb.Color
	}{
		{0, rgb.Color{1, 1, 1}},
		{5, rgb.Color{1, 1, 0}},
		{36, rgb.Color{0.8, 1, 1}},
		{214, rgb.Color{0, 0, 0.2}},
		{215, rgb.Color{14.0 / 15, 0, 0}},
		{224, rgb.Color{1.0 / 15, 0, 0}},
		{225, rgb.Color{0, 14.0 / 15, 0}},
		{235, rgb.Color{0, 0, 14.0 / 15}},
		{245, rgb.Color{14.0 / 15, 14.0 / 15, 14.0 / 15}},
		{254, rgb.Color{1.0 / 15, 1.0 / 15, 1.0 / 15}},
		{255, rgb.Color{0, 0, 0}},
	}

	for _, x := range tests {
		c, err := MacOS8BitColor(x.index)
		require.NoError(t, err)
		for i := range c {
			assert.InDelta(t, x.want[i], c[i], 1e-12, "index %d channel %d", x.index, i)
		}
	}

	for _, i := range []int{-1, 256, 1000} {
		_, err := MacOS8BitColor(i)
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	}

	assert.Len(t, MacOS8Bit(), MacOS8BitSize)
}

func TestBuiltin(t *testing.T) {
	sizes := map[string]int{
		BlackWhite: 2,
		Spectra6:   6,
		Apple2:     15,
		Gray16:     16,
		VGA16:      16,
		MacOS8:     256,
	}

	r := Builtin()
	assert.Equal(t, []string{Apple2, BlackWhite, Gray16, MacOS8, Spectra6, VGA16}, r.Names())
	for name, n := range sizes {
		p, err := LoadPalette(name)
		require.NoError(t, err, name)
		assert.Len(t, p, n, name)
	}

	bw, _ := r.Get(BlackWhite)
	assert.Equal(t, Palette{{0, 0, 0}, {1, 1, 1}}, bw)

	_, err := LoadPalette("nope")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestRegistryWith(t *testing.T) {
	custom := Palette{{1, 0, 0}}
	r, err := Builtin().With(map[string]Palette{"red": custom})
	require.NoError(t, err)

	p, err := r.Load("red")
	require.NoError(t, err)
	assert.Equal(t, custom, p)

	_, ok := Builtin().Get("red")
	assert.False(t, ok)

	_, err = Builtin().With(map[string]Palette{"empty": {}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestHex(t *testing.T) {
	p, err := ParseHex("#ff0000", "00ff00", " #0000ff ")
	require.NoError(t, err)
	assert.Equal(t, Palette{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, p)

	_, err = ParseHex("#zzzzzz")
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = ParseHex()
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	src := "; a comment\n#000000\n\n// another\n#ffffff\n"
	p, err = ReadHex(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, Palette{{0, 0, 0}, {1, 1, 1}}, p)

	var buf bytes.Buffer
	_, err = p.WriteHex(&buf)
	require.NoError(t, err)
	assert.Equal(t, "#000000\n#ffffff\n", buf.String())
}

func TestColorPalette(t *testing.T) {
	p := Palette{{0, 0, 0}, {1, 1, 1}, {1, 0, 0}}
	pal := p.ToColorPalette()
	require.Len(t, pal, 3)

	assert.Equal(t, color.RGBAModel.Convert(color.White), color.RGBAModel.Convert(pal[1]))
	assert.Equal(t, p, FromColorPalette(pal))
	assert.Equal(t, Palette{{1, 1, 1}}, FromColorPalette(color.Palette{color.Gray{Y: 255}}))
}

func TestRIFF(t *testing.T) {
	gray, _ := Builtin().Get(Gray16)
	vga, _ := Builtin().Get(VGA16)

	var buf bytes.Buffer
	n, err := WriteTo(&buf, []Palette{gray, vga})
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, 12+2*(12+16*4), buf.Len())

	pals, err := ReadFrom(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, pals, 2)
	assert.Equal(t, gray, pals[0])
	assert.Equal(t, vga, pals[1])

	t.Run("not a palette", func(t *testing.T) {
		b := append([]byte(nil), buf.Bytes()...)
		copy(b[8:], "WAVE")
		_, err := ReadFrom(bytes.NewReader(b))
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		name := filepath.Join(dir, "test.PAL")
		require.NoError(t, os.WriteFile(name, buf.Bytes(), 0o600))

		p, err := LoadPalette(name)
		require.NoError(t, err)
		assert.Len(t, p, 32)

		hex := filepath.Join(dir, "test.hex")
		require.NoError(t, os.WriteFile(hex, []byte("#123456\n"), 0o600))
		p, err = LoadPalette(hex)
		require.NoError(t, err)
		assert.Len(t, p, 1)
	})
}

func TestImagePalette(t *testing.T) {
	dir := t.TempDir()
	pal := color.Palette{color.RGBA{A: 255}, color.RGBA{R: 255, A: 255}}
	img := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)

	write := func(name string, encode func(f *os.File) error) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, encode(f))
		require.NoError(t, f.Close())
		return path
	}

	want := Palette{{0, 0, 0}, {1, 0, 0}}
	for _, path := range []string{
		write("indexed.png", func(f *os.File) error { return png.Encode(f, img) }),
		write("indexed.gif", func(f *os.File) error { return gif.Encode(f, img, nil) }),
	} {
		p, err := LoadPalette(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, p, path)
	}

	truecolor := write("rgb.png", func(f *os.File) error {
		return png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	})
	_, err := LoadPalette(truecolor)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
