// Package kernel is the catalog of dithering algorithms.
//
// An Algorithm is plain data: either a functional quantizer (threshold or
// random) that looks at one sample at a time, or a diffusion kernel whose
// integer weights spread quantization error over pixels that the raster scan
// has not reached yet. The engine in package quantize switches on Kind.
package kernel

import (
	"fmt"

	"picdither/errs"
)

type Kind int

const (
	// Threshold maps samples below the threshold to low, others to high.
	Threshold Kind = iota + 1
	// Random compares each sample with a uniform draw in [low, high].
	Random
	// Diffusion quantizes and propagates the error through Matrix.
	Diffusion
)

func (k Kind) String() string {
	switch k {
	case Threshold:
		return "threshold"
	case Random:
		return "random"
	case Diffusion:
		return "diffusion"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultThreshold splits the [0,255] sample range.
const DefaultThreshold = 128

type Algorithm struct {
	Name        string
	DisplayName string
	Kind        Kind

	// Matrix row j applies to the pixel row y+j, column i to x+i-a/2 where
	// a is the row width. Only Diffusion uses Matrix and Divisor.
	Matrix  [][]int
	Divisor int

	// Threshold is the decision point on the [0,255] sample scale used by
	// single-channel quantization.
	Threshold float64
}

// Size returns the matrix width and height.
func (a Algorithm) Size() (width, height int) {
	if len(a.Matrix) == 0 {
		return 0, 0
	}
	return len(a.Matrix[0]), len(a.Matrix)
}

// Factor returns the fraction of error sent to offset (dx, dy), or 0 when
// the offset is outside the matrix.
func (a Algorithm) Factor(dx, dy int) float64 {
	w, h := a.Size()
	i := dx + w/2
	if dy < 0 || dy >= h || i < 0 || i >= w || a.Divisor <= 0 {
		return 0
	}
	return float64(a.Matrix[dy][i]) / float64(a.Divisor)
}

// Spread returns the total fraction of error the kernel distributes, the
// weight sum over the divisor.
func (a Algorithm) Spread() float64 {
	if a.Divisor <= 0 {
		return 0
	}
	sum := 0
	for _, row := range a.Matrix {
		for _, w := range row {
			sum += w
		}
	}
	return float64(sum) / float64(a.Divisor)
}

// Validate checks the definition. Diffusion kernels need a positive
// divisor, a non-empty rectangular matrix of non-negative weights, and no
// weight on the current pixel or to its left in the first row, which the
// scan has already visited.
func (a Algorithm) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("%w: algorithm without a name", errs.ErrInvalidInput)
	}

	switch a.Kind {
	case Threshold, Random:
		return nil
	case Diffusion:
	default:
		return fmt.Errorf("%w: %s has unsupported kind %s", errs.ErrUnknownAlgorithm, a.Name, a.Kind)
	}

	if a.Divisor <= 0 {
		return fmt.Errorf("%w: %s divisor must be positive, got %d", errs.ErrInvalidInput, a.Name, a.Divisor)
	}

	w, h := a.Size()
	if w == 0 || h == 0 {
		return fmt.Errorf("%w: %s has an empty matrix", errs.ErrInvalidInput, a.Name)
	}

	for j, row := range a.Matrix {
		if len(row) != w {
			return fmt.Errorf("%w: %s row %d has %d weights, %d expected", errs.ErrInvalidInput, a.Name, j, len(row), w)
		}
		for i, wt := range row {
			if wt < 0 {
				return fmt.Errorf("%w: %s has negative weight at (%d, %d)", errs.ErrInvalidInput, a.Name, i, j)
			}
			if j == 0 && i <= w/2 && wt != 0 {
				return fmt.Errorf("%w: %s diffuses to visited offset (%d, 0)", errs.ErrInvalidInput, a.Name, i-w/2)
			}
		}
	}

	return nil
}
