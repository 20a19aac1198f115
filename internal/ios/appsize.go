package ios

import (
	"strings"

	"github.com/JonMunkholm/appsize/internal/size"
)

const (
	compressedLabel   = "compressed"
	uncompressedLabel = "uncompressed"

	// zeroDisplay replaces Apple's "Zero KB" in raw values.
	zeroDisplay = "0 KB"
)

// ParseAppSize reads "<size> compressed, <size> uncompressed" with values
// expressed in megabytes.
func ParseAppSize(raw string) AppSize {
	return ParseAppSizeIn(raw, size.Megabytes)
}

// ParseAppSizeIn is ParseAppSize with a chosen display unit.
//
// Both sides must parse; otherwise the placeholder pair is returned.
func ParseAppSizeIn(raw string, unit size.Unit) AppSize {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PlaceholderAppSize()
	}

	var compressed, uncompressed string
	var haveCompressed, haveUncompressed bool
	for _, fragment := range strings.Split(raw, ", ") {
		// "uncompressed" contains "compressed", so test the longer label first.
		switch {
		case !haveUncompressed && strings.Contains(fragment, uncompressedLabel):
			uncompressed = strings.TrimSpace(strings.ReplaceAll(fragment, uncompressedLabel, ""))
			haveUncompressed = true
		case !haveCompressed && strings.Contains(fragment, compressedLabel) && !strings.Contains(fragment, uncompressedLabel):
			compressed = strings.TrimSpace(strings.ReplaceAll(fragment, compressedLabel, ""))
			haveCompressed = true
		}
	}
	if !haveCompressed || !haveUncompressed {
		return PlaceholderAppSize()
	}

	c, ok := sizeValue(compressed, unit)
	if !ok {
		return PlaceholderAppSize()
	}
	u, ok := sizeValue(uncompressed, unit)
	if !ok {
		return PlaceholderAppSize()
	}
	return AppSize{Compressed: c, Uncompressed: u}
}

func sizeValue(text string, unit size.Unit) (SizeValue, bool) {
	s, ok := size.Parse(text)
	if !ok {
		return SizeValue{}, false
	}
	display := text
	if size.IsZeroPhrase(text) {
		display = zeroDisplay
	}
	return SizeValue{RawValue: display, Value: s.In(unit), Unit: unit}, true
}
