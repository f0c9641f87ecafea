// Package mangle implements the commands of picdither: batch dithering of
// a folder and the catalog listings.
package mangle

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/alecthomas/kong"
	_ "github.com/biessek/golang-ico"
	"github.com/lucasb-eyer/go-colorful"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"picdither/config"
	"picdither/kernel"
	"picdither/palette"
	"picdither/parallel"
)

// Env carries the loaded configuration and the catalogs it extends.
type Env struct {
	Config     config.Config
	Algorithms *kernel.Catalog
	Palettes   *palette.Registry
}

func NewEnv(cfg config.Config) (*Env, error) {
	algs, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	pals, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	return &Env{Config: cfg, Algorithms: algs, Palettes: pals}, nil
}

// CLICmd is the batch dither command. Dither settings left empty fall back
// to the configuration.
type CLICmd struct {
	Scan         string      `help:"Source folder to scan" default:"."`
	Dest         string      `help:"Destination folder for processed pictures. Relative to scan dir if not absolute." default:"dithered"`
	Overwrite    bool        `help:"Replace existing files in the destination folder" default:"false"`
	Resize       bool        `help:"Resize image" default:"false" group:"resize"`
	Width        int         `help:"Max width" group:"resize"`
	Height       int         `help:"Max height" group:"resize"`
	Crop         bool        `help:"Crop image to maintain requested aspect ratio" default:"false" group:"resize"`
	Fill         string      `help:"If given and not cropping, will fill background with this color (#RGB or #RRGGBB) to maintain destination aspect ratio" group:"resize"`
	Gamma        float64     `help:"Gamma correction applied before dithering" group:"dither"`
	Algorithm    string      `help:"Dithering algorithm, see the algorithms command" group:"dither"`
	Palette      string      `help:"Palette name, PAL file in RIFF format or file of hex colors" group:"dither"`
	Grayscale    string      `help:"Grayscale policy. If given, images are dithered to black and white instead of the palette" group:"dither"`
	QuantizeOnly bool        `help:"Map pixels to the nearest color without dithering" default:"false" group:"dither"`
	Seed         int64       `help:"Seed of the random algorithm" group:"dither"`
	Format       string      `help:"Output format of dithered image. If prefixed with 'unsup:' will convert only formats without an encoder" enum:"same,gif,unsup:gif,jpeg,unsup:jpeg,png,unsup:png,bmp,unsup:bmp,tiff,unsup:tiff" default:"unsup:png"`
	FillColor    color.Color `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	scanDir, err := filepath.Abs(c.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
	}
	c.Scan = scanDir

	if !filepath.IsAbs(c.Dest) {
		c.Dest = filepath.Join(scanDir, c.Dest)
	}

	if c.Resize {
		switch {
		case (c.Width < 0):
			return fmt.Errorf("invalid resize width: %d", c.Width)
		case (c.Height < 0):
			return fmt.Errorf("invalid resize height: %d", c.Height)
		case (c.Width == 0) && (c.Height == 0):
			return fmt.Errorf("no resize dimensions given")
		}
	}

	if (!c.Crop) && (c.Fill != "") {
		if c.FillColor, err = parseFill(c.Fill); err != nil {
			return err
		}
	}

	if c.Gamma < 0 {
		return fmt.Errorf("invalid gamma: %g", c.Gamma)
	}

	return nil
}

// settings merges the command line over the configured dither section.
func (c *CLICmd) settings(d config.Dither) config.Dither {
	if c.Algorithm != "" {
		d.Algorithm = c.Algorithm
	}
	if c.Palette != "" {
		d.Palette = c.Palette
	}
	if c.Grayscale != "" {
		d.Grayscale = c.Grayscale
	}
	if c.QuantizeOnly {
		d.QuantizeOnly = true
	}
	if c.Gamma > 0 {
		d.Gamma = c.Gamma
	}
	if c.Seed != 0 {
		d.Seed = c.Seed
	}
	return d
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc, env *Env) error {
	settings := c.settings(env.Config.Dither)
	j, err := newJob(env, settings)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.Dest, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	slog.Info("dithering", "algorithm", j.alg.Name, "palette", settings.Palette, "grayscale", settings.Grayscale,
		"quantize_only", settings.QuantizeOnly)

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath)

				if err := c.process(logger, j, filePath, fileName); err != nil {
					errCount.Add(1)
					logger.Error("could not process image", "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file.Name()))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) process(logger *slog.Logger, j *job, filePath, fileName string) error {
	imgFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer imgFile.Close()

	img, imgType, err := image.Decode(imgFile)
	if err != nil {
		return fmt.Errorf("could not decode image: %w", err)
	}

	if c.Resize {
		if img, err = resize(logger, img, c.Width, c.Height, c.Crop, c.FillColor); err != nil {
			return fmt.Errorf("could not resize image: %w", err)
		}
	}

	out, pal, err := j.apply(logger, img)
	if err != nil {
		return fmt.Errorf("could not dither image: %w", err)
	}

	if err = save(out, pal, imgType, c.Format, c.Dest, fileName, c.Overwrite); err != nil {
		return fmt.Errorf("could not save image in %q: %w", c.Dest, err)
	}
	return nil
}

func parseFill(s string) (color.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid fill color %q, should be #RGB or #RRGGBB: %w", s, err)
	}

	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xFF}, nil
}
