// Package ios parses Apple's App Thinning Size Report.
//
// A report is a plain-text dump with one block per thinned variant:
//
//	Variant: App-35AD0331.ipa
//	Supported variant descriptors: [device: iPhone10,3, os-version: 14.0], and [device: iPhone11,2, os-version: 14.0]
//	App + On Demand Resources size: 6.6 MB compressed, 12.9 MB uncompressed
//	App size: 6.6 MB compressed, 12.9 MB uncompressed
//	On Demand Resources size: Zero KB compressed, Zero KB uncompressed
//
// Parsing is best effort. Unreadable sizes become placeholders and malformed
// device groups are skipped; nothing in this package returns a parse error.
package ios

import (
	"io"
	"strings"

	"github.com/JonMunkholm/appsize/internal/textio"
)

// Parse extracts every variant of a report, in document order.
func Parse(text string) []Variant {
	blocks := Segment(text)
	variants := make([]Variant, 0, len(blocks))
	for _, block := range blocks {
		variants = append(variants, NewVariant(ExtractFields(block)))
	}
	return variants
}

// ParseReader reads a whole report and parses it.
func ParseReader(r io.Reader) ([]Variant, error) {
	text, err := textio.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(text), nil
}

// NewVariant assembles a Variant from extracted raw field values.
// Missing fields fall back to their placeholders.
func NewVariant(fields map[Field]string) Variant {
	return Variant{
		Name:                  strings.TrimSpace(fields[FieldVariant]),
		SupportedDevices:      ParseDeviceList(fields[FieldSupportedDevices]),
		CombinedSize:          ParseAppSize(fields[FieldCombinedSize]),
		AppSize:               ParseAppSize(fields[FieldAppSize]),
		OnDemandResourcesSize: ParseAppSize(fields[FieldOnDemandResourcesSize]),
	}
}
