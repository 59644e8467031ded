// Package normalize enforces the charge-state whitelist of the sequencing model
package normalize

import (
	"fmt"
	"io"
	"os"

	"github.com/ChrisMcGann/mgfprep/pkg/core"
)

// ClampMode selects how an invalid charge is moved into the valid set.
type ClampMode int

const (
	// ClampNearest replaces the charge with the closest member of the set
	// (ties go to the lower member).
	ClampNearest ClampMode = iota
	// ClampRange clips the charge to [min, max] of the set. A charge that
	// falls in a hole of the set keeps its value.
	ClampRange
)

func (m ClampMode) String() string {
	switch m {
	case ClampNearest:
		return "nearest"
	case ClampRange:
		return "range"
	}
	return fmt.Sprintf("ClampMode(%d)", int(m))
}

// ParseClampMode parses "nearest" or "range". An empty string is ClampNearest.
func ParseClampMode(s string) (ClampMode, error) {
	switch s {
	case "", "nearest":
		return ClampNearest, nil
	case "range":
		return ClampRange, nil
	}
	return ClampNearest, fmt.Errorf("unknown clamp mode %q, must be nearest or range", s)
}

// Config holds normalization configuration
type Config struct {
	ValidCharges core.ChargeSet // empty = no filter
	Clamp        ClampMode
	Diagnostics  io.Writer // nil = os.Stderr

	// Progress, if set, is called by ApplyAll after each spectrum.
	Progress func(done, total int)
}

// Stats counts what ApplyAll did.
type Stats struct {
	Total   int
	Clamped int
}

// Apply returns the normalized form of spec. A spectrum whose charge is in
// the valid set is returned as is; otherwise a new spectrum with a clamped
// charge and empty peak arrays is returned. spec itself is never modified.
func (c *Config) Apply(spec *core.Spectrum) (*core.Spectrum, error) {
	out, _, err := c.apply(spec)
	return out, err
}

func (c *Config) apply(spec *core.Spectrum) (*core.Spectrum, bool, error) {
	if c.ValidCharges.IsEmpty() {
		return spec, false, nil
	}

	charge, err := spec.Charge.First()
	if err != nil {
		return nil, false, &core.MalformedRecordError{Title: spec.Title, Err: err}
	}

	if c.ValidCharges.Contains(charge) {
		return spec, false, nil
	}

	fmt.Fprintf(c.diagnostics(),
		"Warning: Spectrum %s has invalid charge %d. Clipping to the valid range %s and emptying the spectrum.\n",
		spec.Name(), charge, c.ValidCharges)

	return spec.Emptied(c.clamp(charge)), true, nil
}

// ApplyAll normalizes every spectrum in order. The result always has the same
// length as spectra unless an error is returned.
func (c *Config) ApplyAll(spectra []*core.Spectrum) ([]*core.Spectrum, Stats, error) {
	out := make([]*core.Spectrum, len(spectra))
	stats := Stats{}

	for i, spec := range spectra {
		norm, clamped, err := c.apply(spec)
		if err != nil {
			return nil, stats, fmt.Errorf("spectrum %d: %w", i+1, err)
		}
		out[i] = norm
		stats.Total++
		if clamped {
			stats.Clamped++
		}
		if c.Progress != nil {
			c.Progress(i+1, len(spectra))
		}
	}

	return out, stats, nil
}

func (c *Config) clamp(charge int) int {
	if c.Clamp == ClampRange {
		return c.ValidCharges.Clip(charge)
	}
	return c.ValidCharges.Nearest(charge)
}

func (c *Config) diagnostics() io.Writer {
	if c.Diagnostics != nil {
		return c.Diagnostics
	}
	return os.Stderr
}
