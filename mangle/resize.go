package mangle

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// layout says where a resized image goes. src is the part of the source
// that is kept, dest where it lands inside a canvas of the given size.
type layout struct {
	size, dest, src image.Rectangle
}

// fit computes the layout for scaling src into at most width×height. A zero
// dimension keeps the source one. crop trims src to the target aspect
// ratio; otherwise the canvas shrinks to the scaled image unless fill is
// set, in which case the image is centered on the full canvas.
func fit(src image.Rectangle, width, height int, crop, fill bool) (layout, bool) {
	srcWidth := float64(src.Dx())
	srcHeight := float64(src.Dy())

	destWidth := float64(width)
	if destWidth == 0 {
		destWidth = srcWidth
	}
	destHeight := float64(height)
	if destHeight == 0 {
		destHeight = srcHeight
	}

	if (srcWidth == destWidth) && (srcHeight == destHeight) {
		return layout{}, false
	}

	l := layout{
		size: image.Rect(0, 0, int(destWidth), int(destHeight)),
		dest: image.Rect(0, 0, int(destWidth), int(destHeight)),
		src:  src,
	}

	srcAR := srcWidth / srcHeight
	destAR := destWidth / destHeight
	switch {
	case crop && srcAR < destAR:
		dh := int(math.Round((srcHeight - srcWidth/destAR) / 2))
		l.src.Min.Y += dh
		l.src.Max.Y -= dh
	case crop && srcAR > destAR:
		dw := int(math.Round((srcWidth - srcHeight*destAR) / 2))
		l.src.Min.X += dw
		l.src.Max.X -= dw
	case crop:
	case srcAR < destAR:
		dw := destHeight * srcAR
		if !fill {
			l.size.Max.X = int(math.Round(dw))
			l.dest.Max.X = l.size.Max.X
		} else if destWidth > dw {
			idw := int(math.Round((destWidth - dw) / 2))
			l.dest.Min.X += idw
			l.dest.Max.X -= idw
		}
	case srcAR > destAR:
		dh := destWidth / srcAR
		if !fill {
			l.size.Max.Y = int(math.Round(dh))
			l.dest.Max.Y = l.size.Max.Y
		} else if destHeight > dh {
			idh := int(math.Round((destHeight - dh) / 2))
			l.dest.Min.Y += idh
			l.dest.Max.Y -= idh
		}
	}

	return l, true
}

func resize(logger *slog.Logger, img image.Image, width, height int, crop bool, fillColor color.Color) (image.Image, error) {
	l, ok := fit(img.Bounds(), width, height, crop, fillColor != nil)
	if !ok {
		return img, nil
	}

	logger.Info("resizing", "width", l.dest.Dx(), "height", l.dest.Dy())
	dest := image.NewNRGBA(l.size)
	if fillColor != nil && !crop {
		draw.Draw(dest, l.size, image.NewUniform(fillColor), l.size.Min, draw.Src)
	}
	draw.CatmullRom.Scale(dest, l.dest, img, l.src, draw.Over, nil)

	return dest, nil
}
