// Package mgf provides readers for Mascot Generic Format (MGF) peak lists
package mgf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/mgfprep/pkg/core"
)

const (
	beginIons = "BEGIN IONS"
	endIons   = "END IONS"

	maxLineSize = 1024 * 1024
)

// Reader provides sequential access to the spectra of an MGF file
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	header      []core.Param // file-level params before the first BEGIN IONS
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MGF reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &Reader{
		scanner: scanner,
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil
	if r.err != nil {
		return false
	}

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Header returns the file-level params seen so far.
func (r *Reader) Header() []core.Param {
	return r.header
}

// ReadAll reads every spectrum from r, in file order.
func ReadAll(r io.Reader) ([]*core.Spectrum, error) {
	reader := NewReader(r)

	var spectra []*core.Spectrum
	for reader.Next() {
		spectra = append(spectra, reader.Spectrum())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return spectra, nil
}

// ReadFile reads every spectrum from the MGF file at path.
func ReadFile(path string) ([]*core.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	spectra, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return spectra, nil
}

// readSpectrum reads up to and including the next END IONS line
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	var spec *core.Spectrum
	startLine := 0

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" || isComment(line) {
			continue
		}

		switch {
		case strings.EqualFold(line, beginIons):
			if spec != nil {
				return nil, fmt.Errorf("line %d: BEGIN IONS inside the block started at line %d", r.lineNum, startLine)
			}
			spec = &core.Spectrum{
				MZ:        []float64{},
				Intensity: []float64{},
			}
			startLine = r.lineNum

		case strings.EqualFold(line, endIons):
			if spec == nil {
				return nil, fmt.Errorf("line %d: END IONS without BEGIN IONS", r.lineNum)
			}
			r.applyHeader(spec)
			if err := spec.Validate(); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			return spec, nil

		case spec == nil:
			// file-level params
			key, value, ok := splitParam(line)
			if !ok {
				return nil, fmt.Errorf("line %d: unexpected content outside BEGIN IONS/END IONS: %q", r.lineNum, line)
			}
			if key == "charge" {
				if _, err := core.ParseCharge(value); err != nil {
					return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
				}
			}
			r.setHeader(key, value)

		default:
			if err := r.parseLine(spec, line); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if spec != nil {
		return nil, fmt.Errorf("line %d: unterminated spectrum block started at line %d", r.lineNum, startLine)
	}

	return nil, io.EOF
}

// parseLine handles a header or peak line inside a BEGIN IONS block
func (r *Reader) parseLine(spec *core.Spectrum, line string) error {
	if key, value, ok := splitParam(line); ok {
		return setParam(spec, key, value)
	}
	return parsePeak(spec, line)
}

func setParam(spec *core.Spectrum, key, value string) error {
	switch key {
	case "title":
		spec.Title = value
	case "charge":
		charge, err := core.ParseCharge(value)
		if err != nil {
			return err
		}
		spec.Charge = charge
	default:
		spec.SetParam(key, value)
	}
	return nil
}

// parsePeak parses a single peak line (format: "mz intensity [charge]")
func parsePeak(spec *core.Spectrum, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("invalid peak format %q, expected at least 2 fields", line)
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Errorf("invalid intensity value: %w", err)
	}

	peakCharge := core.PeakCharge{}
	if len(fields) >= 3 {
		z, err := core.ParseChargeState(fields[2])
		if err != nil {
			return fmt.Errorf("invalid peak charge %q: %w", fields[2], err)
		}
		peakCharge = core.PeakCharge{Value: z, Valid: true}
	}

	// The charge column is only materialized once some peak carries one.
	if peakCharge.Valid && len(spec.PeakCharges) < len(spec.MZ) {
		spec.PeakCharges = append(spec.PeakCharges, make([]core.PeakCharge, len(spec.MZ)-len(spec.PeakCharges))...)
	}

	spec.MZ = append(spec.MZ, mz)
	spec.Intensity = append(spec.Intensity, intensity)
	if peakCharge.Valid || len(spec.PeakCharges) > 0 {
		spec.PeakCharges = append(spec.PeakCharges, peakCharge)
	}

	return nil
}

func (r *Reader) setHeader(key, value string) {
	for i := range r.header {
		if r.header[i].Key == key {
			r.header[i].Value = value
			return
		}
	}
	r.header = append(r.header, core.Param{Key: key, Value: value})
}

// applyHeader copies file-level params the spectrum does not set itself.
func (r *Reader) applyHeader(spec *core.Spectrum) {
	for _, p := range r.header {
		switch p.Key {
		case "title":
			if spec.Title == "" {
				spec.Title = p.Value
			}
		case "charge":
			if !spec.Charge.IsSet() {
				// validated when the header line was read
				spec.Charge, _ = core.ParseCharge(p.Value)
			}
		default:
			if _, ok := spec.Param(p.Key); !ok {
				spec.Params = append(spec.Params, p)
			}
		}
	}
}

// splitParam splits a KEY=VALUE line. Peak lines never contain '='.
func splitParam(line string) (string, string, bool) {
	idx := strings.IndexByte(line, '=')
	if idx <= 0 {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	return key, value, true
}

func isComment(line string) bool {
	switch line[0] {
	case '#', ';', '!', '/':
		return true
	}
	return false
}
