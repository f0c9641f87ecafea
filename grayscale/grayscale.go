// Package grayscale reduces RGBA pixels to a single brightness sample.
//
// Every policy is a pure function of one pixel. Alpha scales the result, so
// a fully transparent pixel reduces to 0 whatever its color.
package grayscale

import (
	"fmt"

	"picdither/errs"
	"picdither/parallel"
	"picdither/pixbuf"
)

// Coefficients of the weighted policies.
const (
	WeightedR = 0.3
	WeightedG = 0.59
	WeightedB = 0.11

	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// Func maps r, g, b on the [0,255] scale to a brightness on the same scale.
type Func func(r, g, b float64) float64

type Policy struct {
	Name        string
	DisplayName string
	Func        Func
}

// Gray returns alpha/255 × p.Func(r, g, b).
func (p Policy) Gray(r, g, b, a uint8) float64 {
	return (float64(a) / pixbuf.MaxValue) * p.Func(float64(r), float64(g), float64(b))
}

// Policy names.
const (
	Average              = "average"
	WeightedAverage      = "weightedAverage"
	Luminance            = "luminance"
	QuickDesaturation    = "quickDesaturation"
	MinDecomposition     = "minDecomposition"
	MaxDecomposition     = "maxDecomposition"
	RedChannel           = "redChannel"
	GreenChannel         = "greenChannel"
	BlueChannel          = "blueChannel"
	RedAndGreenChannels  = "redAndGreenChannels"
	RedAndBlueChannels   = "redAndBlueChannels"
	GreenAndBlueChannels = "greenAndBlueChannels"
)

var policies = []Policy{
	{Average, "Average", func(r, g, b float64) float64 { return (r + g + b) / 3 }},
	{WeightedAverage, "Weighted Average", func(r, g, b float64) float64 { return WeightedR*r + WeightedG*g + WeightedB*b }},
	{Luminance, "Luminance", func(r, g, b float64) float64 { return LumaR*r + LumaG*g + LumaB*b }},
	{QuickDesaturation, "Quick Desaturation", func(r, g, b float64) float64 { return (max(r, g, b) + min(r, g, b)) / 2 }},
	{MinDecomposition, "Minimum Decomposition", func(r, g, b float64) float64 { return min(r, g, b) }},
	{MaxDecomposition, "Maximum Decomposition", func(r, g, b float64) float64 { return max(r, g, b) }},
	{RedChannel, "Red Channel", func(r, _, _ float64) float64 { return r }},
	{GreenChannel, "Green Channel", func(_, g, _ float64) float64 { return g }},
	{BlueChannel, "Blue Channel", func(_, _, b float64) float64 { return b }},
	{RedAndGreenChannels, "Red/Green Channels", func(r, g, _ float64) float64 { return (r + g) / 2 }},
	{RedAndBlueChannels, "Red/Blue Channels", func(r, _, b float64) float64 { return (r + b) / 2 }},
	{GreenAndBlueChannels, "Green/Blue Channels", func(_, g, b float64) float64 { return (g + b) / 2 }},
}

// Policies returns the available policies in display order.
func Policies() []Policy {
	return append([]Policy(nil), policies...)
}

// Lookup returns the policy registered under name.
func Lookup(name string) (Policy, error) {
	for _, p := range policies {
		if p.Name == name {
			return p, nil
		}
	}
	return Policy{}, fmt.Errorf("%w: grayscale policy %q", errs.ErrUnknownAlgorithm, name)
}

// Reduce converts a 4-channel buffer to a single-channel buffer on the
// [0,255] scale. Rows are reduced concurrently by up to numWorkers
// goroutines (GOMAXPROCS when numWorkers < 1).
func Reduce(buf *pixbuf.Buffer, p Policy, numWorkers int) (*pixbuf.FloatBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	if buf.Channels != pixbuf.RGBA {
		return nil, fmt.Errorf("%w: grayscale reduction needs RGBA input, got %d channels", errs.ErrInvalidInput, buf.Channels)
	}
	if p.Func == nil {
		return nil, fmt.Errorf("%w: grayscale policy %q has no function", errs.ErrUnknownAlgorithm, p.Name)
	}

	out := pixbuf.NewFloat(buf.Width, buf.Height, pixbuf.Gray)
	err := parallel.Rows(buf.Height, numWorkers, func(y int) error {
		for x := range buf.Width {
			i := buf.Offset(x, y)
			out.Pix[out.Offset(x, y)] = p.Gray(buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
