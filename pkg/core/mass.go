package core

import "fmt"

// ProtonMass is used to convert precursor m/z to neutral mass.
const ProtonMass = 1.00727646688

// NeutralMass converts a precursor m/z at charge z to its neutral mass.
// A non-positive charge is treated as singly charged.
func NeutralMass(mz float64, charge int) float64 {
	if charge < 1 {
		charge = 1
	}
	return (mz - ProtonMass) * float64(charge)
}

// PrecursorIonType returns the mzVault ion type string, e.g. "[M+2H]2+".
func PrecursorIonType(charge int) string {
	switch {
	case charge == 1:
		return "[M+H]+"
	case charge > 1:
		return fmt.Sprintf("[M+%dH]%d+", charge, charge)
	case charge == -1:
		return "[M-H]-"
	case charge < -1:
		return fmt.Sprintf("[M-%dH]%d-", -charge, -charge)
	}
	return ""
}
