// Package config holds the settings of the dither command. Defaults are
// set by Default and may be overridden by a TOML file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pelletier/go-toml"

	"picdither/errs"
	"picdither/grayscale"
	"picdither/kernel"
	"picdither/palette"
)

type Config struct {
	Main     Main         `toml:"main"`
	Dither   Dither       `toml:"dither"`
	Palettes []PaletteDef `toml:"palettes,omitempty"`
	Kernels  []KernelDef  `toml:"kernels,omitempty"`
}

type Main struct {
	LogLevel string `toml:"log_level"`
	Workers  int    `toml:"workers"`
}

// Dither selects the processing applied to every image. An empty Grayscale
// dithers in color to Palette; otherwise images are reduced with that
// policy and dithered to black and white.
type Dither struct {
	Algorithm    string  `toml:"algorithm"`
	Palette      string  `toml:"palette"`
	Grayscale    string  `toml:"grayscale"`
	QuantizeOnly bool    `toml:"quantize_only"`
	Gamma        float64 `toml:"gamma"`
	// Seed feeds the random quantizer, 0 picks a new seed on every run.
	Seed int64 `toml:"seed"`
}

// PaletteDef is a named palette given as hex colors.
type PaletteDef struct {
	Name   string   `toml:"name"`
	Colors []string `toml:"colors"`
}

// KernelDef is a custom error diffusion kernel.
type KernelDef struct {
	Name        string  `toml:"name"`
	DisplayName string  `toml:"display_name"`
	Matrix      [][]int `toml:"matrix"`
	Divisor     int     `toml:"divisor"`
	Threshold   float64 `toml:"threshold"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Main: Main{
			LogLevel: "info",
			Workers:  runtime.NumCPU(),
		},
		Dither: Dither{
			Algorithm: kernel.NameAtkinson,
			Palette:   palette.MacOS8,
			Gamma:     1,
		},
	}
}

// Load returns the defaults overridden by the file at path, if any.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	fd, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not open configuration: %w", err)
	}
	defer fd.Close()

	if err = cfg.Decode(fd); err != nil {
		return Config{}, fmt.Errorf("could not load configuration %q: %w", path, err)
	}
	return cfg, nil
}

// Decode overrides c with the TOML document read from r and validates the
// result.
func (c *Config) Decode(r io.Reader) error {
	if err := toml.NewDecoder(r).Decode(c); err != nil {
		return err
	}
	return c.Validate()
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	enc := toml.NewEncoder(w).
		ArraysWithOneElementPerLine(true).
		Indentation("  ").
		Order(toml.OrderPreserve)

	return enc.Encode(c)
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Main),
		validation.Field(&c.Dither),
		validation.Field(&c.Palettes),
		validation.Field(&c.Kernels),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}
	return nil
}

func (m Main) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.LogLevel, validation.Required, validation.By(checkLevel)),
		validation.Field(&m.Workers, validation.Min(0)),
	)
}

func (d Dither) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Algorithm, validation.Required),
		validation.Field(&d.Palette, validation.When(d.Grayscale == "", validation.Required)),
		validation.Field(&d.Grayscale, validation.By(checkPolicy)),
		validation.Field(&d.Gamma, validation.Required, validation.Min(0.0).Exclusive()),
	)
}

func (p PaletteDef) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Colors, validation.Required),
	)
}

func (k KernelDef) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.Name, validation.Required),
		validation.Field(&k.Matrix, validation.Required),
		validation.Field(&k.Divisor, validation.Required, validation.Min(1)),
		validation.Field(&k.Threshold, validation.Min(0.0), validation.Max(255.0)),
	)
}

func checkLevel(value any) error {
	var l slog.Level
	return l.UnmarshalText([]byte(value.(string)))
}

func checkPolicy(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := grayscale.Lookup(s)
	return err
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Main.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Algorithm converts the definition to a diffusion kernel. A zero
// threshold means the default.
func (k KernelDef) Algorithm() kernel.Algorithm {
	display := k.DisplayName
	if display == "" {
		display = k.Name
	}
	threshold := k.Threshold
	if threshold == 0 {
		threshold = kernel.DefaultThreshold
	}

	return kernel.Algorithm{
		Name:        k.Name,
		DisplayName: display,
		Kind:        kernel.Diffusion,
		Matrix:      k.Matrix,
		Divisor:     k.Divisor,
		Threshold:   threshold,
	}
}

// Catalog returns the built-in algorithms extended with the configured
// kernels, which may replace built-in ones.
func (c Config) Catalog() (*kernel.Catalog, error) {
	algs := make([]kernel.Algorithm, 0, len(c.Kernels))
	for _, k := range c.Kernels {
		algs = append(algs, k.Algorithm())
	}

	cat, err := kernel.Builtin().With(algs...)
	if err != nil {
		return nil, fmt.Errorf("could not load kernels: %w", err)
	}
	return cat, nil
}

// Registry returns the built-in palettes extended with the configured ones.
func (c Config) Registry() (*palette.Registry, error) {
	extra := make(map[string]palette.Palette, len(c.Palettes))
	for _, def := range c.Palettes {
		p, err := palette.ParseHex(def.Colors...)
		if err != nil {
			return nil, fmt.Errorf("could not load palette %q: %w", def.Name, err)
		}
		extra[def.Name] = p
	}

	return palette.Builtin().With(extra)
}
