package mangle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"picdither/grayscale"
	"picdither/palette"
)

type AlgorithmsCmd struct{}

func (AlgorithmsCmd) Run(env *Env) error {
	return listAlgorithms(os.Stdout, env)
}

func listAlgorithms(w io.Writer, env *Env) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSIZE\tDIVISOR\tDESCRIPTION")
	for _, name := range env.Algorithms.Names() {
		alg, err := env.Algorithms.Lookup(name)
		if err != nil {
			return err
		}
		width, height := alg.Size()
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d\t%s\n", alg.Name, alg.Kind, width, height, alg.Divisor, alg.DisplayName)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "GRAYSCALE\tDESCRIPTION")
	for _, p := range grayscale.Policies() {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.DisplayName)
	}
	return tw.Flush()
}

type PalettesCmd struct{}

func (PalettesCmd) Run(env *Env) error {
	return listPalettes(os.Stdout, env)
}

func listPalettes(w io.Writer, env *Env) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCOLORS")
	for _, name := range env.Palettes.Names() {
		p, _ := env.Palettes.Get(name)
		fmt.Fprintf(tw, "%s\t%d\n", name, len(p))
	}
	return tw.Flush()
}

// PaletteExportCmd writes a palette as a RIFF PAL file, or as hex colors
// when the output does not end in .pal.
type PaletteExportCmd struct {
	Name      string `arg:"" help:"Palette name or file"`
	Output    string `arg:"" help:"Destination file" type:"path"`
	Overwrite bool   `help:"Replace an existing destination file" default:"false"`
}

func (c *PaletteExportCmd) Run(env *Env) (err error) {
	p, err := env.Palettes.Load(c.Name)
	if err != nil {
		return err
	}

	if !c.Overwrite {
		if err = checkDest(c.Output); err != nil {
			return err
		}
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("could not create palette file %q: %w", c.Output, err)
	}
	defer func() {
		if defErr := f.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close palette file %q: %w", c.Output, defErr)
		}
	}()

	if strings.EqualFold(filepath.Ext(c.Output), ".pal") {
		_, err = palette.WriteTo(f, []palette.Palette{p})
	} else {
		_, err = p.WriteHex(f)
	}
	if err != nil {
		return fmt.Errorf("could not write palette file %q: %w", c.Output, err)
	}
	return nil
}

// ConfigCmd prints the effective configuration.
type ConfigCmd struct{}

func (ConfigCmd) Run(env *Env) error {
	return env.Config.Write(os.Stdout)
}
