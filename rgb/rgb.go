// Package rgb defines the fixed-size color vectors used by the quantizer.
package rgb

// Color is a 3-channel color. All values of one computation share the same
// scale, either [0,1] or [0,255].
type Color [3]float64

// Pixel is a 4-channel R, G, B, A sample.
type Pixel [4]float64

func (c Color) Sub(o Color) Color {
	return Color{c[0] - o[0], c[1] - o[1], c[2] - o[2]}
}

func (c Color) Add(o Color) Color {
	return Color{c[0] + o[0], c[1] + o[1], c[2] + o[2]}
}

func (c Color) Scale(f float64) Color {
	return Color{c[0] * f, c[1] * f, c[2] * f}
}

// LengthSquared returns the squared Euclidean length of c.
func (c Color) LengthSquared() float64 {
	return c[0]*c[0] + c[1]*c[1] + c[2]*c[2]
}

// DistanceSquared returns the squared Euclidean distance between c and o.
func (c Color) DistanceSquared(o Color) float64 {
	return c.Sub(o).LengthSquared()
}

// RGB drops the alpha channel.
func (p Pixel) RGB() Color {
	return Color{p[0], p[1], p[2]}
}

// WithAlpha extends c with the given alpha.
func (c Color) WithAlpha(a float64) Pixel {
	return Pixel{c[0], c[1], c[2], a}
}
