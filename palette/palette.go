// Package palette holds the fixed color sets the quantizer maps pixels to.
//
// Colors are stored on the [0,1] scale. A Palette is never modified once
// built; the engine and the registry share them by reference.
package palette

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"picdither/errs"
	"picdither/rgb"
)

type Palette []rgb.Color

// New validates colors and returns them as a Palette.
func New(colors ...rgb.Color) (Palette, error) {
	p := Palette(colors)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports an empty palette.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty palette", errs.ErrInvalidInput)
	}
	return nil
}

// Index returns the index of the entry closest to c by squared Euclidean
// distance. Ties go to the lowest index. It returns -1 for an empty palette.
func (p Palette) Index(c rgb.Color) int {
	ret, bestSum := -1, math.Inf(1)
	for i, v := range p {
		sum := c.DistanceSquared(v)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	if ret < 0 && len(p) > 0 {
		// every distance was NaN or +Inf
		ret = 0
	}
	return ret
}

// Convert returns the entry closest to c. See Index.
func (p Palette) Convert(c rgb.Color) rgb.Color {
	if len(p) == 0 {
		return rgb.Color{}
	}
	return p[p.Index(c)]
}

// ToColorPalette converts p to opaque 8-bit colors.
func (p Palette) ToColorPalette() color.Palette {
	pal := make(color.Palette, len(p))
	for i, c := range p {
		pal[i] = colorful.Color{R: c[0], G: c[1], B: c[2]}.Clamped()
	}
	return pal
}

// FromColorPalette converts a standard library palette. Alpha is dropped.
func FromColorPalette(pal color.Palette) Palette {
	p := make(Palette, 0, len(pal))
	for _, col := range pal {
		c, _ := colorful.MakeColor(opaque(col))
		p = append(p, rgb.Color{c.R, c.G, c.B})
	}
	return p
}

func opaque(col color.Color) color.Color {
	r, g, b, _ := col.RGBA()
	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff}
}

func from8(r, g, b uint8) rgb.Color {
	return rgb.Color{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}

// ParseHex parses "#rrggbb" colors.
func ParseHex(s ...string) (Palette, error) {
	p := make(Palette, 0, len(s))
	for i, h := range s {
		h = strings.TrimSpace(h)
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("%w: color %d %q: %v", errs.ErrInvalidInput, i, h, err)
		}
		p = append(p, from8(c.RGB255()))
	}

	return p, p.Validate()
}

// ReadHex reads one hex color per line. Blank lines and lines starting with
// ';' or "//" are skipped.
func ReadHex(r io.Reader) (Palette, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("could not read palette: %w", err)
	}

	return ParseHex(lines...)
}

// WriteHex writes p as one "#rrggbb" line per color.
func (p Palette) WriteHex(w io.Writer) (int64, error) {
	var n int64
	for _, c := range p {
		m, err := fmt.Fprintln(w, colorful.Color{R: c[0], G: c[1], B: c[2]}.Clamped().Hex())
		n += int64(m)
		if err != nil {
			return n, fmt.Errorf("could not write palette: %w", err)
		}
	}
	return n, nil
}
