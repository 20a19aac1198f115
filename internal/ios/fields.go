package ios

import (
	"fmt"
	"strings"
)

// Field identifies a labeled line of a variant block.
type Field int

const (
	FieldVariant Field = iota
	FieldSupportedDevices
	FieldCombinedSize
	FieldAppSize
	FieldOnDemandResourcesSize
)

// Fields lists every field in matching order.
//
// FieldCombinedSize precedes FieldOnDemandResourcesSize: the label
// "On Demand Resources size: " is a substring of
// "App + On Demand Resources size: ".
var Fields = []Field{
	FieldVariant,
	FieldSupportedDevices,
	FieldCombinedSize,
	FieldAppSize,
	FieldOnDemandResourcesSize,
}

// Label returns the literal prefix the report uses for the field.
func (f Field) Label() string {
	switch f {
	case FieldVariant:
		return "Variant: "
	case FieldSupportedDevices:
		return "Supported variant descriptors: "
	case FieldCombinedSize:
		return "App + On Demand Resources size: "
	case FieldAppSize:
		return "App size: "
	case FieldOnDemandResourcesSize:
		return "On Demand Resources size: "
	default:
		panic(fmt.Sprintf("ios: unknown field %d", int(f)))
	}
}

// String returns the field's JSON key.
func (f Field) String() string {
	switch f {
	case FieldVariant:
		return "variant"
	case FieldSupportedDevices:
		return "supported_variant_descriptors"
	case FieldCombinedSize:
		return "app_on_demand_resources_size"
	case FieldAppSize:
		return "app_size"
	case FieldOnDemandResourcesSize:
		return "on_demand_resources_size"
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

// matchField returns the field a line belongs to, if any.
func matchField(line string) (Field, bool) {
	for _, f := range Fields {
		if strings.Contains(line, f.Label()) {
			return f, true
		}
	}
	return 0, false
}

// ExtractFields pulls the raw value of each labeled line out of a block.
//
// The label is stripped from the line and the remainder kept untrimmed.
// The first line for a field wins; later duplicates are ignored.
// Fields with no line are absent from the result.
func ExtractFields(block string) map[Field]string {
	out := make(map[Field]string, len(Fields))
	for _, line := range strings.Split(block, "\n") {
		f, ok := matchField(line)
		if !ok {
			continue
		}
		if _, seen := out[f]; seen {
			continue
		}
		out[f] = strings.ReplaceAll(line, f.Label(), "")
	}
	return out
}
