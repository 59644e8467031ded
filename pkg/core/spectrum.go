// Package core provides the in-memory spectrum record shared by the MGF reader,
// the charge normalizer and the writers.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultKeyOrder is the header order expected by the sequencing model.
var DefaultKeyOrder = []string{"title", "rtinseconds", "pepmass", "charge"}

// Param is a single opaque header field (KEY=VALUE) of a spectrum.
type Param struct {
	Key   string // lower-cased
	Value string
}

// PeakCharge is a maskable per-peak charge annotation.
type PeakCharge struct {
	Value int
	Valid bool
}

// Spectrum represents a single MGF scan: its header fields plus the peak list.
type Spectrum struct {
	Title  string
	Charge Charge

	// Everything else from the header, in input order. Never inspected by
	// the normalizer.
	Params []Param

	// Parallel peak arrays. PeakCharges is either empty or len(MZ).
	MZ          []float64
	Intensity   []float64
	PeakCharges []PeakCharge
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that the peak arrays have a consistent shape.
func (s *Spectrum) Validate() error {
	if len(s.MZ) != len(s.Intensity) {
		return &ValidationError{
			Field:   "Peaks",
			Message: fmt.Sprintf("m/z has %d values but intensity has %d", len(s.MZ), len(s.Intensity)),
		}
	}
	if len(s.PeakCharges) != 0 && len(s.PeakCharges) != len(s.MZ) {
		return &ValidationError{
			Field:   "Peaks",
			Message: fmt.Sprintf("charge array has %d values for %d peaks", len(s.PeakCharges), len(s.MZ)),
		}
	}
	return nil
}

// NumPeaks returns the number of peaks in the spectrum.
func (s *Spectrum) NumPeaks() int {
	return len(s.MZ)
}

// Param returns the value of the header field key (case-insensitive).
func (s *Spectrum) Param(key string) (string, bool) {
	key = strings.ToLower(key)
	for _, p := range s.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// SetParam replaces the value of key, appending it if absent.
func (s *Spectrum) SetParam(key, value string) {
	key = strings.ToLower(key)
	for i := range s.Params {
		if s.Params[i].Key == key {
			s.Params[i].Value = value
			return
		}
	}
	s.Params = append(s.Params, Param{Key: key, Value: value})
}

// RetentionTime parses RTINSECONDS. The second result is false when the
// field is absent or not a number.
func (s *Spectrum) RetentionTime() (float64, bool) {
	v, ok := s.Param("rtinseconds")
	if !ok {
		return 0, false
	}
	rt, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return rt, true
}

// PrecursorMZ parses the m/z part of PEPMASS ("mz [intensity]").
func (s *Spectrum) PrecursorMZ() (float64, bool) {
	v, ok := s.Param("pepmass")
	if !ok {
		return 0, false
	}
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return 0, false
	}
	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return mz, true
}

// Emptied returns a new spectrum with the header fields of s, the given
// charge and zero-length peak arrays. s is not modified.
func (s *Spectrum) Emptied(charge int) *Spectrum {
	out := &Spectrum{
		Title:       s.Title,
		Charge:      NewCharge(charge),
		MZ:          []float64{},
		Intensity:   []float64{},
		PeakCharges: []PeakCharge{},
	}
	if s.Params != nil {
		out.Params = append([]Param(nil), s.Params...)
	}
	return out
}

// Name returns the spectrum name used in messages.
func (s *Spectrum) Name() string {
	if s.Title == "" {
		return "<untitled>"
	}
	return s.Title
}
