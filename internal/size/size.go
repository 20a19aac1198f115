// Package size parses free-text memory sizes ("4.5 MB", "Zero KB") and
// normalizes them to a single base unit.
//
// All size math in the module goes through this package. Multiples are
// binary throughout: 1 KB = 1024 B, 1 MB = 1024 KB, 1 GB = 1024 MB.
package size

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ZeroPhrase is the literal Apple uses for empty size entries.
const ZeroPhrase = "zero kb"

// Unit identifies a memory unit.
type Unit int

const (
	Bytes Unit = iota
	Kilobytes
	Megabytes
	Gigabytes
)

// String returns the display label (B, KB, MB, GB).
func (u Unit) String() string {
	switch u {
	case Bytes:
		return "B"
	case Kilobytes:
		return "KB"
	case Megabytes:
		return "MB"
	case Gigabytes:
		return "GB"
	default:
		return fmt.Sprintf("Unit(%d)", int(u))
	}
}

// MarshalText encodes the unit as its label.
func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText accepts any label understood by ParseUnit.
func (u *Unit) UnmarshalText(b []byte) error {
	parsed, ok := ParseUnit(string(b))
	if !ok {
		return fmt.Errorf("unknown size unit %q", string(b))
	}
	*u = parsed
	return nil
}

// unitLexicon maps lower-cased unit tokens to units.
var unitLexicon = map[string]Unit{
	"b":         Bytes,
	"byte":      Bytes,
	"bytes":     Bytes,
	"kb":        Kilobytes,
	"kilobyte":  Kilobytes,
	"kilobytes": Kilobytes,
	"mb":        Megabytes,
	"megabyte":  Megabytes,
	"megabytes": Megabytes,
	"gb":        Gigabytes,
	"gigabyte":  Gigabytes,
	"gigabytes": Gigabytes,
}

// ParseUnit resolves a unit label case-insensitively ("KB", "megabytes").
func ParseUnit(s string) (Unit, bool) {
	u, ok := unitLexicon[strings.ToLower(strings.TrimSpace(s))]
	return u, ok
}

// kilobytes per unit.
func (u Unit) factor() float64 {
	switch u {
	case Bytes:
		return 1.0 / 1024
	case Kilobytes:
		return 1
	case Megabytes:
		return 1024
	case Gigabytes:
		return 1024 * 1024
	default:
		return 1
	}
}

// Size is a magnitude stored in kilobytes.
//
// The zero value is 0 KB. Accessors never modify the receiver; SetKilobytes
// is reserved for clamping a limit to a policy maximum.
type Size struct {
	kilobytes float64
}

// New builds a Size from a value expressed in unit.
func New(value float64, unit Unit) Size {
	return Size{kilobytes: value * unit.factor()}
}

// FromKilobytes builds a Size from a kilobyte magnitude.
func FromKilobytes(kb float64) Size {
	return Size{kilobytes: kb}
}

// Bytes returns the magnitude in bytes.
func (s Size) Bytes() float64 { return s.kilobytes * 1024 }

// Kilobytes returns the magnitude in kilobytes.
func (s Size) Kilobytes() float64 { return s.kilobytes }

// Megabytes returns the magnitude in megabytes.
func (s Size) Megabytes() float64 { return s.kilobytes / 1024 }

// Gigabytes returns the magnitude in gigabytes.
func (s Size) Gigabytes() float64 { return s.kilobytes / 1024 / 1024 }

// In returns the magnitude expressed in unit.
func (s Size) In(unit Unit) float64 {
	return s.kilobytes / unit.factor()
}

// SetKilobytes overwrites the magnitude. Only policy clamping uses it.
func (s *Size) SetKilobytes(kb float64) {
	s.kilobytes = kb
}

// String formats the size in the largest unit that keeps the value >= 1.
func (s Size) String() string {
	unit := Bytes
	for _, u := range []Unit{Gigabytes, Megabytes, Kilobytes} {
		if s.In(u) >= 1 {
			unit = u
			break
		}
	}
	return strconv.FormatFloat(s.In(unit), 'f', -1, 64) + " " + unit.String()
}

// Parse reads a free-text size such as "6.6 MB", "512 bytes" or "Zero KB".
//
// The unit is inferred from the alphabetic characters of the text and
// defaults to megabytes when missing or unknown. The number is built from
// the digits and '.' characters; ',' is treated as digit grouping and
// dropped, so "1,024 KB" is 1024 KB.
//
// ok is false when the text carries no number; the returned Size is then 0.
func Parse(text string) (s Size, ok bool) {
	text = strings.TrimSpace(text)
	if strings.ToLower(text) == ZeroPhrase {
		return Size{}, true
	}

	unit, known := unitLexicon[unitToken(text)]
	if !known {
		unit = Megabytes
	}

	value, ok := numberToken(text)
	if !ok {
		return Size{}, false
	}
	return New(value, unit), true
}

// IsZeroPhrase reports whether text is Apple's "Zero KB" literal.
func IsZeroPhrase(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == ZeroPhrase
}

func unitToken(text string) string {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

func numberToken(text string) (float64, bool) {
	var b strings.Builder
	digits := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits = true
		case r == '.':
			b.WriteRune(r)
		}
	}
	if !digits {
		return 0, false
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
