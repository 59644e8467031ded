// Package batch runs the read, normalize and write steps over a whole MGF file.
package batch

import (
	"fmt"
	"io"
	"os"

	"github.com/ChrisMcGann/mgfprep/pkg/config"
	"github.com/ChrisMcGann/mgfprep/pkg/core"
	"github.com/ChrisMcGann/mgfprep/pkg/normalize"
	mgfreader "github.com/ChrisMcGann/mgfprep/pkg/reader/mgf"
	mgfwriter "github.com/ChrisMcGann/mgfprep/pkg/writer/mgf"
	"github.com/ChrisMcGann/mgfprep/pkg/writer/sqlite"
)

// Options holds the three paths of a run and where its messages go.
type Options struct {
	InputPath  string
	OutputPath string
	ConfigPath string

	Stdout io.Writer // nil = os.Stdout
	Stderr io.Writer // nil = os.Stderr
}

// Result summarizes a finished run.
type Result struct {
	Written int
	Clamped int
}

// Run loads the config, normalizes every spectrum of the input file and
// writes them, in input order, to the output file.
func Run(opts Options) (Result, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return Result{}, err
	}

	spectra, err := mgfreader.ReadFile(opts.InputPath)
	if err != nil {
		return Result{}, err
	}

	every := cfg.Progress()
	norm := &normalize.Config{
		ValidCharges: cfg.ValidCharges(),
		Clamp:        cfg.ClampMode(),
		Diagnostics:  stderr,
		Progress: func(done, total int) {
			if every > 0 && done%every == 0 {
				fmt.Fprintf(stderr, "Processed %d/%d spectra...\n", done, total)
			}
		},
	}

	mapped, stats, err := norm.ApplyAll(spectra)
	if err != nil {
		return Result{}, err
	}

	written, err := mgfwriter.WriteFile(opts.OutputPath, mapped, mgfwriter.WithKeyOrder(core.DefaultKeyOrder))
	if err != nil {
		return Result{}, fmt.Errorf("failed to write %s: %w", opts.OutputPath, err)
	}

	if cfg.LibraryPath != "" {
		if err := writeLibrary(cfg.LibraryPath, opts.InputPath, spectra, mapped); err != nil {
			return Result{}, err
		}
		fmt.Fprintf(stderr, "Library: %s\n", cfg.LibraryPath)
	}

	if stats.Clamped > 0 {
		fmt.Fprintf(stderr, "Clamped: %d spectra (invalid charge)\n", stats.Clamped)
	}
	fmt.Fprintf(stdout, "%d spectra written to %s.\n", written, opts.OutputPath)

	return Result{Written: written, Clamped: stats.Clamped}, nil
}

// writeLibrary stores the normalized spectra; a record that differs from its
// input was emptied by the normalizer.
func writeLibrary(path, source string, in, out []*core.Spectrum) error {
	w, err := sqlite.NewWriter(path, fmt.Sprintf("normalized from %s", source))
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}
	defer w.Close()

	for i, spec := range out {
		if err := w.WriteSpectrum(spec, spec != in[i]); err != nil {
			return fmt.Errorf("failed to write spectrum %s to library: %w", spec.Name(), err)
		}
	}

	if err := w.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize library: %w", err)
	}
	return nil
}
