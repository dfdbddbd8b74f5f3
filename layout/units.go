package layout

import (
	"strconv"
	"strings"
)

// Unit is the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	}
	return ""
}

// Length is a value together with its original unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ToMM converts the length to millimetres. Unit-less values are taken as
// millimetres.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	}
	return l.Value
}

func (l Length) ToPT() float64 { return l.ToMM() * MmToPt }

// ParseLength parses "12pt", "3.5mm", "1in" or a bare number. ok is false
// when the numeric part is not a number.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	for _, suffix := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suffix.s) {
			unit = suffix.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suffix.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}

// LineHeightKind tells a factor line height ("1.2x") from an absolute one.
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

const defaultLineHeightFactor = 1.4

// ParseLineHeight parses "1.2x" or an absolute length. Empty or invalid
// input yields the default factor.
func ParseLineHeight(value string) LineHeightSpec {
	v := strings.TrimSpace(value)
	if f, ok := strings.CutSuffix(v, "x"); ok {
		if factor, err := strconv.ParseFloat(f, 64); err == nil && factor > 0 {
			return LineHeightSpec{Kind: LineHeightFactor, Factor: factor}
		}
	} else if l, ok := ParseLength(v); ok && l.Value > 0 {
		return LineHeightSpec{Kind: LineHeightAbsolute, Len: l}
	}
	return LineHeightSpec{Kind: LineHeightFactor, Factor: defaultLineHeightFactor}
}

// Resolve returns the line height in millimetres for a font size in
// millimetres.
func (s LineHeightSpec) Resolve(fontSizeMM float64) float64 {
	if s.Kind == LineHeightAbsolute {
		return s.Len.ToMM()
	}
	factor := s.Factor
	if factor <= 0 {
		factor = defaultLineHeightFactor
	}
	return fontSizeMM * factor
}

// parseLength returns value in millimetres, 0 when unparsable.
func parseLength(value string) float64 {
	l, ok := ParseLength(value)
	if !ok {
		return 0
	}
	return l.ToMM()
}

// parseDimension is parseLength plus percentages of reference.
func parseDimension(value string, reference float64) float64 {
	if num, ok := strings.CutSuffix(strings.TrimSpace(value), "%"); ok {
		if f, err := strconv.ParseFloat(num, 64); err == nil {
			return reference * f / 100
		}
		return 0
	}
	return parseLength(value)
}

func isLength(value string) bool {
	_, ok := ParseLength(value)
	return ok
}
