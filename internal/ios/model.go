package ios

import "github.com/JonMunkholm/appsize/internal/size"

// SizeValue is a display-ready size with its original report text.
type SizeValue struct {
	RawValue string    `json:"raw_value"`
	Value    float64   `json:"value"`
	Unit     size.Unit `json:"unit"`
}

// PlaceholderSize is used when a size could not be read from the report.
func PlaceholderSize() SizeValue {
	return SizeValue{RawValue: "Unknown", Value: 0, Unit: size.Bytes}
}

// IsPlaceholder reports whether v is the "Unknown" placeholder.
func (v SizeValue) IsPlaceholder() bool {
	return v == PlaceholderSize()
}

// AppSize is a compressed/uncompressed pair, e.g.
// "6.6 MB compressed, 12.9 MB uncompressed".
//
// Either both sides are parsed or both are the placeholder.
type AppSize struct {
	Compressed   SizeValue `json:"compressed"`
	Uncompressed SizeValue `json:"uncompressed"`
}

// PlaceholderAppSize returns an AppSize with both sides unknown.
func PlaceholderAppSize() AppSize {
	return AppSize{Compressed: PlaceholderSize(), Uncompressed: PlaceholderSize()}
}

// IsPlaceholder reports whether the pair could not be parsed.
func (a AppSize) IsPlaceholder() bool {
	return a.Compressed.IsPlaceholder() && a.Uncompressed.IsPlaceholder()
}

// DeviceDescriptor identifies the hardware a variant targets,
// e.g. "device: iPhone10,3, os-version: 14.0".
type DeviceDescriptor struct {
	Device    string `json:"device"`
	OSVersion string `json:"os_version"`
}

// Universal is the descriptor of a variant that runs everywhere.
var Universal = DeviceDescriptor{Device: "Universal", OSVersion: ""}

// Variant is one thinned build listed in an App Thinning Size Report.
type Variant struct {
	Name                  string             `json:"variant"`
	SupportedDevices      []DeviceDescriptor `json:"supported_variant_descriptors"`
	CombinedSize          AppSize            `json:"app_on_demand_resources_size"`
	AppSize               AppSize            `json:"app_size"`
	OnDemandResourcesSize AppSize            `json:"on_demand_resources_size"`
}
