package kernel

import (
	"fmt"
	"slices"
	"sync"

	"picdither/errs"
)

// Names of the built-in algorithms.
const (
	NameThreshold           = "threshold"
	NameRandom              = "random"
	NameSimple              = "simple"
	NameAtkinson            = "atkinson"
	NameFloydSteinberg      = "floydSteinberg"
	NameFalseFloydSteinberg = "falseFloydSteinberg"
	NameSierra              = "sierra"
	NameSierraTwoRow        = "sierraTwoRow"
	NameSierraLite          = "sierraLite"
	NameJarvisJudiceNinke   = "jarvisJudiceNinke"
	NameStucki              = "stucki"
	NameBurkes              = "burkes"
)

func diffusion(name, display string, divisor int, matrix ...[]int) Algorithm {
	return Algorithm{
		Name:        name,
		DisplayName: display,
		Kind:        Diffusion,
		Matrix:      matrix,
		Divisor:     divisor,
		Threshold:   DefaultThreshold,
	}
}

func builtins() []Algorithm {
	return []Algorithm{
		{Name: NameThreshold, DisplayName: "Threshold", Kind: Threshold, Threshold: DefaultThreshold},
		{Name: NameRandom, DisplayName: "Random", Kind: Random, Threshold: DefaultThreshold},
		diffusion(NameSimple, "Simple", 1,
			[]int{0, 0, 1},
		),
		diffusion(NameAtkinson, "Atkinson", 8,
			[]int{0, 0, 0, 1, 1},
			[]int{0, 1, 1, 1, 0},
			[]int{0, 0, 1, 0, 0},
		),
		diffusion(NameFloydSteinberg, "Floyd-Steinberg", 16,
			[]int{0, 0, 7},
			[]int{3, 5, 1},
		),
		diffusion(NameFalseFloydSteinberg, `"False" Floyd-Steinberg`, 8,
			[]int{0, 0, 3},
			[]int{0, 3, 2},
		),
		diffusion(NameSierra, "Sierra", 32,
			[]int{0, 0, 0, 5, 3},
			[]int{2, 4, 5, 4, 2},
			[]int{0, 2, 3, 2, 0},
		),
		diffusion(NameSierraTwoRow, "Two-Row Sierra", 16,
			[]int{0, 0, 0, 4, 3},
			[]int{1, 2, 3, 2, 1},
		),
		diffusion(NameSierraLite, "Sierra Lite", 4,
			[]int{0, 0, 2},
			[]int{1, 1, 0},
		),
		diffusion(NameJarvisJudiceNinke, "Jarvis, Judice, and Ninke", 48,
			[]int{0, 0, 0, 7, 5},
			[]int{3, 5, 7, 5, 3},
			[]int{1, 3, 5, 3, 1},
		),
		diffusion(NameStucki, "Stucki", 42,
			[]int{0, 0, 0, 8, 4},
			[]int{2, 4, 8, 4, 2},
			[]int{1, 2, 4, 2, 1},
		),
		diffusion(NameBurkes, "Burkes", 32,
			[]int{0, 0, 0, 8, 4},
			[]int{2, 4, 8, 4, 2},
		),
	}
}

// Catalog is an immutable set of algorithms keyed by name. Lookup returns
// copies, so callers cannot alter the catalog through them.
type Catalog struct {
	algs  map[string]Algorithm
	order []string
}

// NewCatalog validates algs and indexes them by name. A later definition
// replaces an earlier one with the same name but keeps its position.
func NewCatalog(algs ...Algorithm) (*Catalog, error) {
	c := &Catalog{algs: make(map[string]Algorithm, len(algs))}
	for _, a := range algs {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, ok := c.algs[a.Name]; !ok {
			c.order = append(c.order, a.Name)
		}
		c.algs[a.Name] = clone(a)
	}
	return c, nil
}

// Builtin returns the process-wide catalog of built-in algorithms.
var Builtin = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(builtins()...)
	if err != nil {
		panic(fmt.Sprintf("built-in dither algorithms: %v", err))
	}
	return c
})

// With returns a new catalog holding c's algorithms followed by algs.
func (c *Catalog) With(algs ...Algorithm) (*Catalog, error) {
	all := make([]Algorithm, 0, len(c.order)+len(algs))
	for _, name := range c.order {
		all = append(all, c.algs[name])
	}
	return NewCatalog(append(all, algs...)...)
}

// Lookup returns the algorithm registered under name.
func (c *Catalog) Lookup(name string) (Algorithm, error) {
	a, ok := c.algs[name]
	if !ok {
		return Algorithm{}, fmt.Errorf("%w: %q", errs.ErrUnknownAlgorithm, name)
	}
	return clone(a), nil
}

// Names returns the algorithm names in definition order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.order)
}

// Lookup resolves name against the built-in catalog.
func Lookup(name string) (Algorithm, error) {
	return Builtin().Lookup(name)
}

func clone(a Algorithm) Algorithm {
	if a.Matrix != nil {
		m := make([][]int, len(a.Matrix))
		for i, row := range a.Matrix {
			m[i] = slices.Clone(row)
		}
		a.Matrix = m
	}
	return a
}
