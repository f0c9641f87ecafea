package palette

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/png"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"picdither/errs"
)

// Names of the built-in palettes.
const (
	BlackWhite = "bw"
	Spectra6   = "spectra6"
	Apple2     = "apple2"
	Gray16     = "gray16"
	VGA16      = "vga16"
	MacOS8     = "macos8"
)

var builtinHex = map[string][]string{
	BlackWhite: {"#000000", "#ffffff"},
	// 6-color e-paper panels
	Spectra6: {"#000000", "#ffffff", "#ff0000", "#00ff00", "#0000ff", "#ffff00"},
	// Apple II lo-res; the two grays are identical and appear once
	Apple2: {
		"#000000", "#722640", "#40337f", "#e434fe", "#0e5940",
		"#808080", "#1b9afe", "#bfb3ff", "#404c00", "#e46501",
		"#f1a6bf", "#1bcb01", "#bfcc80", "#8dd9bf", "#ffffff",
	},
	Gray16: {
		"#000000", "#111111", "#222222", "#333333", "#444444", "#555555", "#666666", "#777777",
		"#888888", "#999999", "#aaaaaa", "#bbbbbb", "#cccccc", "#dddddd", "#eeeeee", "#ffffff",
	},
	VGA16: {
		"#000000", "#0000aa", "#00aa00", "#00aaaa", "#aa0000", "#aa00aa", "#aa5500", "#aaaaaa",
		"#555555", "#5555ff", "#55ff55", "#55ffff", "#ff5555", "#ff55ff", "#ffff55", "#ffffff",
	},
}

// Registry maps names to palettes. It is read-only after construction.
type Registry struct {
	palettes map[string]Palette
}

// Builtin returns the process-wide registry of built-in palettes.
var Builtin = sync.OnceValue(func() *Registry {
	r := &Registry{palettes: map[string]Palette{MacOS8: MacOS8Bit()}}
	for name, hex := range builtinHex {
		p, err := ParseHex(hex...)
		if err != nil {
			panic(fmt.Sprintf("built-in palette %s: %v", name, err))
		}
		r.palettes[name] = p
	}
	return r
})

// With returns a new registry holding r's palettes plus extra. Entries of
// extra replace those of r with the same name.
func (r *Registry) With(extra map[string]Palette) (*Registry, error) {
	res := &Registry{palettes: maps.Clone(r.palettes)}
	for name, p := range extra {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("palette %q: %w", name, err)
		}
		res.palettes[name] = p
	}
	return res, nil
}

// Names returns the registered palette names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.palettes))
}

// Get returns a registered palette.
func (r *Registry) Get(name string) (Palette, bool) {
	p, ok := r.palettes[name]
	return p, ok
}

// Load resolves name as a registered palette, or else as a palette file:
// RIFF PAL when the extension is .pal, the color table of an indexed GIF or
// PNG, a hex color list otherwise.
func (r *Registry) Load(name string) (Palette, error) {
	if p, ok := r.Get(name); ok {
		return p, nil
	}

	f, err := os.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: unknown palette %q", errs.ErrInvalidInput, name)
		}
		return nil, fmt.Errorf("could not open palette file %q: %w", name, err)
	}
	defer f.Close()

	var p Palette
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pal":
		var pals []Palette
		if pals, err = ReadFrom(f); err == nil {
			p = slices.Concat(pals...)
		}
	case ".gif", ".png":
		p, err = readImagePalette(f)
	default:
		p, err = ReadHex(f)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load palette %q: %w", name, err)
	}

	if err = p.Validate(); err != nil {
		return nil, fmt.Errorf("palette %q: %w", name, err)
	}
	return p, nil
}

// readImagePalette returns the color table of an indexed image.
func readImagePalette(r io.Reader) (Palette, error) {
	conf, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, err
	}

	pal, ok := conf.ColorModel.(color.Palette)
	if !ok {
		return nil, fmt.Errorf("%w: image has no color table", errs.ErrInvalidInput)
	}
	return FromColorPalette(pal), nil
}

// LoadPalette resolves name against the built-in registry.
func LoadPalette(name string) (Palette, error) {
	return Builtin().Load(name)
}
