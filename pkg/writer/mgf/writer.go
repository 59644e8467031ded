// Package mgf provides MGF serialization with a caller-chosen header key order
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

// Writer handles writing spectra as MGF blocks
type Writer struct {
	w        *bufio.Writer
	keyOrder []string
	count    int
}

// Option configures a Writer.
type Option func(*Writer)

// WithKeyOrder sets the header keys written first, in order. Remaining
// params follow in their input order.
func WithKeyOrder(keys []string) Option {
	return func(w *Writer) {
		w.keyOrder = make([]string, len(keys))
		for i, k := range keys {
			w.keyOrder[i] = strings.ToLower(k)
		}
	}
}

// NewWriter creates a new MGF writer. The default key order is core.DefaultKeyOrder.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{
		w:        bufio.NewWriter(out),
		keyOrder: core.DefaultKeyOrder,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSpectrum writes a single BEGIN IONS ... END IONS block
func (w *Writer) WriteSpectrum(spec *core.Spectrum) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("spectrum %s: %w", spec.Name(), err)
	}

	if w.count > 0 {
		w.w.WriteString("\n")
	}
	w.w.WriteString("BEGIN IONS\n")

	written := make(map[string]bool, len(w.keyOrder))
	for _, key := range w.keyOrder {
		if value, ok := headerValue(spec, key); ok {
			writeParam(w.w, key, value)
		}
		written[key] = true
	}

	for _, key := range []string{"title", "charge"} {
		if written[key] {
			continue
		}
		if value, ok := headerValue(spec, key); ok {
			writeParam(w.w, key, value)
		}
	}
	for _, p := range spec.Params {
		if !written[p.Key] {
			writeParam(w.w, p.Key, p.Value)
		}
	}

	withCharges := hasPeakCharges(spec)
	for i := range spec.MZ {
		w.w.WriteString(formatFloat(spec.MZ[i]))
		w.w.WriteByte(' ')
		w.w.WriteString(formatFloat(spec.Intensity[i]))
		if withCharges && spec.PeakCharges[i].Valid {
			w.w.WriteByte(' ')
			w.w.WriteString(core.FormatChargeState(spec.PeakCharges[i].Value))
		}
		w.w.WriteByte('\n')
	}

	if _, err := w.w.WriteString("END IONS\n"); err != nil {
		return fmt.Errorf("failed to write spectrum %s: %w", spec.Name(), err)
	}

	w.count++
	return nil
}

// Flush writes any buffered data to the underlying writer
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// Count returns the number of spectra written so far.
func (w *Writer) Count() int {
	return w.count
}

// WriteAll writes spectra in order and flushes. It returns the number written.
func WriteAll(out io.Writer, spectra []*core.Spectrum, opts ...Option) (int, error) {
	w := NewWriter(out, opts...)
	for _, spec := range spectra {
		if err := w.WriteSpectrum(spec); err != nil {
			return w.Count(), err
		}
	}
	if err := w.Flush(); err != nil {
		return w.Count(), err
	}
	return w.Count(), nil
}

// WriteFile creates (or truncates) path and writes spectra to it.
func WriteFile(path string, spectra []*core.Spectrum, opts ...Option) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	n, err := WriteAll(f, spectra, opts...)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close output file: %w", err)
	}
	return n, nil
}

// headerValue resolves a header key, including the dedicated title and charge fields
func headerValue(spec *core.Spectrum, key string) (string, bool) {
	switch key {
	case "title":
		return spec.Title, spec.Title != ""
	case "charge":
		return spec.Charge.String(), spec.Charge.IsSet()
	}
	return spec.Param(key)
}

func writeParam(w *bufio.Writer, key, value string) {
	w.WriteString(strings.ToUpper(key))
	w.WriteByte('=')
	w.WriteString(value)
	w.WriteByte('\n')
}

func hasPeakCharges(spec *core.Spectrum) bool {
	for _, pc := range spec.PeakCharges {
		if pc.Valid {
			return true
		}
	}
	return false
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
