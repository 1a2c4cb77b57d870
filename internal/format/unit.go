// Package format holds the display helpers shared by the API responses so
// every surface renders units and medicine names the same way.
package format

import (
	"fmt"
	"strings"

	"github.com/nomena/pharmastock/internal/domain"
)

// invariableUnits never take a plural suffix.
var invariableUnits = map[string]struct{}{
	"mg": {},
	"ml": {},
	"g":  {},
	"µg": {},
	"ug": {},
}

// PluralizeUnit renders an inventory unit label for a quantity. The rule is
// deliberately naive and kept for display compatibility: quantities above one
// append "s" unless the word already ends in "s" or is an invariable
// measurement unit ("Box" becomes "Boxs", "mg" stays "mg").
func PluralizeUnit(unit string, qty int) string {
	if unit == "" {
		return ""
	}
	if _, ok := invariableUnits[strings.ToLower(unit)]; ok {
		return unit
	}
	if qty > 1 && !strings.HasSuffix(unit, "s") {
		return unit + "s"
	}
	return unit
}

// Dosage renders a medicine's strength, e.g. "500mg". Empty when neither
// part is present.
func Dosage(m *domain.Medicine) string {
	var value string
	if m.DosageValue != nil {
		value = trimFloat(*m.DosageValue)
	}
	var unit string
	if m.DosageUnit != nil {
		unit = *m.DosageUnit
	}
	return strings.TrimSpace(value + unit)
}

// DosageDisplay renders the strength with the dosage unit pluralized for the
// shipped quantity, matching the unit rule above.
func DosageDisplay(m *domain.Medicine, qty int) string {
	dosage := Dosage(m)
	if dosage == "" || qty <= 1 || m.DosageUnit == nil || *m.DosageUnit == "" {
		return dosage
	}
	unit := *m.DosageUnit
	if !strings.HasSuffix(unit, "s") {
		unit += "s"
	}
	var value string
	if m.DosageValue != nil {
		value = trimFloat(*m.DosageValue)
	}
	return strings.TrimSpace(value + unit)
}

// DisplayName builds the full catalog label: "Name - form dosage" with
// absent parts elided.
func DisplayName(m *domain.Medicine) string {
	name := m.Name
	if m.Form != nil && *m.Form != "" {
		name += " - " + *m.Form
	}
	if dosage := Dosage(m); dosage != "" {
		name += " " + dosage
	}
	return name
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.3f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
