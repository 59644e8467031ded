package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Title:     "scan=1",
				Charge:    NewCharge(2),
				MZ:        []float64{100.0, 200.0},
				Intensity: []float64{1000.0, 2000.0},
			},
			wantErr: false,
		},
		{
			name: "valid with peak charges",
			spec: &Spectrum{
				MZ:          []float64{100.0},
				Intensity:   []float64{1000.0},
				PeakCharges: []PeakCharge{{Value: 1, Valid: true}},
			},
			wantErr: false,
		},
		{
			name:    "empty spectrum",
			spec:    &Spectrum{MZ: []float64{}, Intensity: []float64{}},
			wantErr: false,
		},
		{
			name: "mismatched intensity",
			spec: &Spectrum{
				MZ:        []float64{100.0, 200.0},
				Intensity: []float64{1000.0},
			},
			wantErr: true,
		},
		{
			name: "mismatched peak charges",
			spec: &Spectrum{
				MZ:          []float64{100.0, 200.0},
				Intensity:   []float64{1000.0, 2000.0},
				PeakCharges: []PeakCharge{{Value: 1, Valid: true}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParams(t *testing.T) {
	spec := &Spectrum{
		Params: []Param{
			{Key: "rtinseconds", Value: "123.5"},
			{Key: "pepmass", Value: "445.12 12000"},
		},
	}

	rt, ok := spec.RetentionTime()
	if !ok || rt != 123.5 {
		t.Errorf("RetentionTime() = %v, %v; want 123.5, true", rt, ok)
	}

	mz, ok := spec.PrecursorMZ()
	if !ok || math.Abs(mz-445.12) > 1e-9 {
		t.Errorf("PrecursorMZ() = %v, %v; want 445.12, true", mz, ok)
	}

	if v, ok := spec.Param("PEPMASS"); !ok || v != "445.12 12000" {
		t.Errorf("Param(PEPMASS) = %q, %v", v, ok)
	}

	spec.SetParam("SCANS", "17")
	spec.SetParam("rtinseconds", "99")
	if len(spec.Params) != 3 {
		t.Fatalf("Expected 3 params, got %d", len(spec.Params))
	}
	if v, _ := spec.Param("rtinseconds"); v != "99" {
		t.Errorf("SetParam did not replace rtinseconds, got %q", v)
	}

	empty := &Spectrum{}
	if _, ok := empty.RetentionTime(); ok {
		t.Error("RetentionTime() on spectrum without rtinseconds should report false")
	}
}

func TestEmptied(t *testing.T) {
	orig := &Spectrum{
		Title:       "A",
		Charge:      Charge{States: []int{5, 6}},
		Params:      []Param{{Key: "scans", Value: "5"}},
		MZ:          []float64{100.0},
		Intensity:   []float64{10.0},
		PeakCharges: []PeakCharge{{Value: 1, Valid: true}},
	}

	e := orig.Emptied(3)
	if e.Title != "A" || e.Charge.String() != "3+" {
		t.Errorf("Emptied() = %q %q", e.Title, e.Charge)
	}
	if e.MZ == nil || e.Intensity == nil || e.PeakCharges == nil || e.NumPeaks() != 0 || len(e.PeakCharges) != 0 {
		t.Errorf("Emptied() peaks = %v %v %v", e.MZ, e.Intensity, e.PeakCharges)
	}

	e.Params[0].Value = "6"
	if orig.Params[0].Value != "5" {
		t.Error("Emptied shares params with the original")
	}
	if orig.NumPeaks() != 1 || len(orig.Charge.States) != 2 {
		t.Error("Emptied modified the original")
	}
}

func TestParseCharge(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{in: "2+", want: []int{2}},
		{in: "2", want: []int{2}},
		{in: "+3", want: []int{3}},
		{in: "1-", want: []int{-1}},
		{in: "2+ and 3+", want: []int{2, 3}},
		{in: "2+,3+", want: []int{2, 3}},
		{in: "", want: nil},
		{in: "two", wantErr: true},
		{in: "+", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCharge(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCharge(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got.States) != len(tt.want) {
				t.Fatalf("ParseCharge(%q) = %v, want %v", tt.in, got.States, tt.want)
			}
			for i := range tt.want {
				if got.States[i] != tt.want[i] {
					t.Errorf("ParseCharge(%q) = %v, want %v", tt.in, got.States, tt.want)
				}
			}
		})
	}
}

func TestChargeFirst(t *testing.T) {
	z, err := Charge{States: []int{3, 2}}.First()
	if err != nil || z != 3 {
		t.Errorf("First() = %d, %v; want 3, nil", z, err)
	}

	if _, err := (Charge{}).First(); !errors.Is(err, ErrNoCharge) {
		t.Errorf("First() on unset charge error = %v, want ErrNoCharge", err)
	}

	if s := (Charge{States: []int{2, 3}}).String(); s != "2+ and 3+" {
		t.Errorf("String() = %q", s)
	}
}

func TestChargeSet(t *testing.T) {
	set := NewChargeSet(4, 1, 2, 2)
	if set.Len() != 3 || set.Min() != 1 || set.Max() != 4 {
		t.Fatalf("NewChargeSet = %v", set.States())
	}
	if !set.Contains(2) || set.Contains(3) {
		t.Error("Contains() wrong for hole set {1,2,4}")
	}
	if got := set.String(); got != "[1, 4]" {
		t.Errorf("String() = %q", got)
	}

	r := ChargeRange(1, 3)
	if r.Len() != 3 || !r.Contains(1) || !r.Contains(3) || r.Contains(4) {
		t.Errorf("ChargeRange(1, 3) = %v", r.States())
	}
	if got := r.States(); len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Errorf("ChargeRange(1, 3).States() = %v", got)
	}
	if got := ChargeRange(4, 4).States(); len(got) != 1 || got[0] != 4 {
		t.Errorf("ChargeRange(4, 4).States() = %v", got)
	}
	if got := r.Nearest(9); got != 3 {
		t.Errorf("ChargeRange(1, 3).Nearest(9) = %d, want 3", got)
	}
	if !ChargeRange(2, 1).IsEmpty() {
		t.Error("ChargeRange(2, 1) should be empty")
	}

	clipTests := []struct{ in, clip, nearest int }{
		{in: 0, clip: 1, nearest: 1},
		{in: 7, clip: 4, nearest: 4},
		{in: 3, clip: 3, nearest: 2}, // tie between 2 and 4
		{in: 2, clip: 2, nearest: 2},
	}
	for _, tt := range clipTests {
		if got := set.Clip(tt.in); got != tt.clip {
			t.Errorf("Clip(%d) = %d, want %d", tt.in, got, tt.clip)
		}
		if got := set.Nearest(tt.in); got != tt.nearest {
			t.Errorf("Nearest(%d) = %d, want %d", tt.in, got, tt.nearest)
		}
	}

	wide := ChargeRange(1, math.MaxInt)
	if wide.Max() != math.MaxInt || !wide.Contains(math.MaxInt) || wide.Contains(0) || wide.String() != fmt.Sprintf("[1, %d]", math.MaxInt) {
		t.Errorf("ChargeRange(1, MaxInt) = %v", wide)
	}

	if got := NewChargeSet(1, 5).Nearest(4); got != 5 {
		t.Errorf("Nearest(4) in {1,5} = %d, want 5", got)
	}
}

func TestMalformedRecordError(t *testing.T) {
	err := error(&MalformedRecordError{Title: "A", Err: ErrNoCharge})
	if !IsMalformedRecord(err) {
		t.Error("IsMalformedRecord() = false")
	}
	if !errors.Is(err, ErrNoCharge) {
		t.Error("MalformedRecordError does not unwrap to ErrNoCharge")
	}
}

func TestNeutralMass(t *testing.T) {
	got := NeutralMass(500.0, 2)
	want := (500.0 - ProtonMass) * 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("NeutralMass() = %.6f, want %.6f", got, want)
	}

	ionTypes := map[int]string{1: "[M+H]+", 3: "[M+3H]3+", -1: "[M-H]-", 0: ""}
	for z, want := range ionTypes {
		if got := PrecursorIonType(z); got != want {
			t.Errorf("PrecursorIonType(%d) = %q, want %q", z, got, want)
		}
	}
}
