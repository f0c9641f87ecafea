package palette

import (
	"fmt"

	"picdither/errs"
	"picdither/rgb"
)

// MacOS8BitSize is the number of entries of the classic Mac OS system palette.
const MacOS8BitSize = 256

// ramp levels for indices 215-254, in fifteenths
var macRamp = [10]float64{14, 13, 11, 10, 8, 7, 5, 4, 2, 1}

// MacOS8BitColor returns entry index of the 1990s Mac OS 8-bit system
// palette. Indices 0-214 are a 6x6x6 cube running from white to black,
// 215-254 are ten-step red, green, blue and gray ramps, 255 is black.
func MacOS8BitColor(index int) (rgb.Color, error) {
	switch {
	case index < 0 || index >= MacOS8BitSize:
		return rgb.Color{}, fmt.Errorf("%w: mac color index %d not in [0, 255]", errs.ErrInvalidInput, index)
	case index < 215:
		return rgb.Color{
			float64(5-index/36) / 5,
			float64(5-(index/6)%6) / 5,
			float64(5-index%6) / 5,
		}, nil
	case index < 255:
		v := macRamp[(index-215)%10] / 15
		switch (index - 215) / 10 {
		case 0:
			return rgb.Color{v, 0, 0}, nil
		case 1:
			return rgb.Color{0, v, 0}, nil
		case 2:
			return rgb.Color{0, 0, v}, nil
		default:
			return rgb.Color{v, v, v}, nil
		}
	}
	return rgb.Color{0, 0, 0}, nil
}

// MacOS8Bit builds the full 256-entry system palette.
func MacOS8Bit() Palette {
	p := make(Palette, MacOS8BitSize)
	for i := range p {
		// the index is always in range
		p[i], _ = MacOS8BitColor(i)
	}
	return p
}
