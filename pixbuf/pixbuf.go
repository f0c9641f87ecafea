// Package pixbuf provides flat, row-major pixel buffers.
//
// A sample at (x, y), channel c lives at Pix[Channels*(y*Width+x)+c]. Buffer
// is the integer storage form with values in [0,255]. FloatBuffer is the
// working form used by the quantizer; its samples may leave their nominal
// range while quantization error accumulates.
package pixbuf

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"picdither/errs"
	"picdither/rgb"
)

const (
	// RGBA is the channel count of color buffers.
	RGBA = 4
	// Gray is the channel count of single-channel buffers.
	Gray = 1

	// MaxValue is the largest integer sample.
	MaxValue = 255
)

type Buffer struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
}

type FloatBuffer struct {
	Pix      []float64
	Width    int
	Height   int
	Channels int
}

// New returns a zeroed integer buffer.
func New(width, height, channels int) *Buffer {
	return &Buffer{
		Pix:      make([]uint8, channels*width*height),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// NewFloat returns a zeroed float buffer.
func NewFloat(width, height, channels int) *FloatBuffer {
	return &FloatBuffer{
		Pix:      make([]float64, channels*width*height),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

func checkShape(n, width, height, channels int) error {
	switch {
	case width < 0 || height < 0:
		return fmt.Errorf("%w: negative dimensions %dx%d", errs.ErrInvalidInput, width, height)
	case channels != RGBA && channels != Gray:
		return fmt.Errorf("%w: unsupported channel count %d", errs.ErrInvalidInput, channels)
	case n != channels*width*height:
		return fmt.Errorf("%w: buffer holds %d samples, %dx%dx%d expected",
			errs.ErrInvalidInput, n, width, height, channels)
	}
	return nil
}

// Validate reports whether the sample count matches the dimensions.
func (b *Buffer) Validate() error {
	return checkShape(len(b.Pix), b.Width, b.Height, b.Channels)
}

// Validate reports whether the sample count matches the dimensions.
func (b *FloatBuffer) Validate() error {
	return checkShape(len(b.Pix), b.Width, b.Height, b.Channels)
}

// Offset returns the index of the first channel of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return b.Channels * (y*b.Width + x)
}

// Offset returns the index of the first channel of pixel (x, y).
func (b *FloatBuffer) Offset(x, y int) int {
	return b.Channels * (y*b.Width + x)
}

// SetRGBA writes a 4-channel pixel.
func (b *Buffer) SetRGBA(x, y int, r, g, bl, a uint8) {
	i := b.Offset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// SetRGBA writes a 4-channel pixel.
func (b *FloatBuffer) SetRGBA(x, y int, r, g, bl, a float64) {
	i := b.Offset(x, y)
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
	b.Pix[i+3] = a
}

// Pixel returns the 4-channel pixel at (x, y).
func (b *FloatBuffer) Pixel(x, y int) rgb.Pixel {
	i := b.Offset(x, y)
	return rgb.Pixel(b.Pix[i : i+4])
}

// SetPixel writes a 4-channel pixel.
func (b *FloatBuffer) SetPixel(x, y int, p rgb.Pixel) {
	copy(b.Pix[b.Offset(x, y):], p[:])
}

// Clone returns a deep copy of b.
func (b *FloatBuffer) Clone() *FloatBuffer {
	c := *b
	c.Pix = append([]float64(nil), b.Pix...)
	return &c
}

// Normalize converts integer samples to the [0,1] scale.
func (b *Buffer) Normalize() *FloatBuffer {
	out := NewFloat(b.Width, b.Height, b.Channels)
	for i, v := range b.Pix {
		out.Pix[i] = float64(v) / MaxValue
	}
	return out
}

// Denormalize converts [0,1] samples back to integers, rounding to nearest
// and clamping anything diffusion pushed out of range.
func (b *FloatBuffer) Denormalize() *Buffer {
	out := New(b.Width, b.Height, b.Channels)
	for i, v := range b.Pix {
		out.Pix[i] = ClampUint8(math.Round(v * MaxValue))
	}
	return out
}

// ClampUint8 clamps v to [0,255]. NaN maps to 0.
func ClampUint8(v float64) uint8 {
	switch {
	case v >= MaxValue:
		return MaxValue
	case v > 0:
		return uint8(v)
	}
	return 0
}

// FromImage copies img into a new 4-channel buffer with non-premultiplied
// R, G, B, A samples. The buffer origin is the top-left corner of the image
// bounds.
func FromImage(img image.Image) *Buffer {
	sr := img.Bounds()
	buf := New(sr.Dx(), sr.Dy(), RGBA)

	src, ok := img.(*image.NRGBA)
	if !ok {
		src = image.NewNRGBA(image.Rect(0, 0, sr.Dx(), sr.Dy()))
		draw.Draw(src, src.Bounds(), img, sr.Min, draw.Src)
		sr = src.Bounds()
	}

	n := buf.Width * RGBA
	for y := range buf.Height {
		i := src.PixOffset(sr.Min.X, sr.Min.Y+y)
		copy(buf.Pix[buf.Offset(0, y):], src.Pix[i:i+n])
	}
	return buf
}

// Image converts the buffer to an image. Color buffers become *image.NRGBA,
// single-channel buffers *image.Gray.
func (b *Buffer) Image() image.Image {
	r := image.Rect(0, 0, b.Width, b.Height)
	if b.Channels == Gray {
		img := image.NewGray(r)
		copy(img.Pix, b.Pix)
		return img
	}

	img := image.NewNRGBA(r)
	copy(img.Pix, b.Pix)
	return img
}
