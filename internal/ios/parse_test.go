package ios

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/appsize/internal/size"
)

const twoVariantReport = `App Thinning Size Report for All Variants of Example

Variant: Example-A.ipa
Supported variant descriptors: Universal
App + On Demand Resources size: 1 MB compressed, 2 MB uncompressed

App size: 1 MB compressed, 2 MB uncompressed
On Demand Resources size: Zero KB compressed, Zero KB uncompressed


Variant: Example-B.ipa
Supported variant descriptors: [device: iPad7,1, os-version: 14.0]
App size: 3 MB compressed, 4 MB uncompressed
`

func readFixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "App Thinning Size Report.txt"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func TestSegment_TwoVariants(t *testing.T) {
	blocks := Segment(twoVariantReport)
	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
	if !strings.Contains(blocks[0], "Variant: Example-A.ipa") {
		t.Errorf("blocks[0] missing first variant: %q", blocks[0])
	}
	if !strings.Contains(blocks[0], "App size: 1 MB") {
		t.Errorf("single blank line split the first variant: %q", blocks[0])
	}
	if !strings.Contains(blocks[1], "Variant: Example-B.ipa") {
		t.Errorf("blocks[1] missing second variant: %q", blocks[1])
	}
}

func TestSegment_NoVariants(t *testing.T) {
	if blocks := Segment("App Thinning Size Report\n\n\nnothing here"); len(blocks) != 0 {
		t.Errorf("len(blocks) = %d, want 0", len(blocks))
	}
	if blocks := Segment(""); len(blocks) != 0 {
		t.Errorf("len(blocks) = %d, want 0", len(blocks))
	}
}

func TestSegment_GapBeforeVariantName(t *testing.T) {
	// Blank-line runs before a block has a name must not close it.
	text := "Title\n\n\n\nVariant: A.ipa\nApp size: 1 MB compressed, 2 MB uncompressed"
	blocks := Segment(text)
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if !strings.Contains(blocks[0], "Title") || !strings.Contains(blocks[0], "App size:") {
		t.Errorf("block = %q", blocks[0])
	}
}

func TestSegment_CRLF(t *testing.T) {
	text := strings.ReplaceAll(twoVariantReport, "\n", "\r\n")
	if blocks := Segment(text); len(blocks) != 2 {
		t.Errorf("len(blocks) = %d, want 2", len(blocks))
	}
}

func TestExtractFields(t *testing.T) {
	block := strings.Join([]string{
		"Variant: A.ipa",
		"Supported variant descriptors: Universal",
		"App + On Demand Resources size: 5 MB compressed, 6 MB uncompressed",
		"App size: 1 MB compressed, 2 MB uncompressed",
		"On Demand Resources size: 3 MB compressed, 4 MB uncompressed",
		"Variant: B.ipa",
	}, "\n")

	got := ExtractFields(block)
	want := map[Field]string{
		FieldVariant:               "A.ipa",
		FieldSupportedDevices:      "Universal",
		FieldCombinedSize:          "5 MB compressed, 6 MB uncompressed",
		FieldAppSize:               "1 MB compressed, 2 MB uncompressed",
		FieldOnDemandResourcesSize: "3 MB compressed, 4 MB uncompressed",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractFields() = %#v, want %#v", got, want)
	}
}

func TestExtractFields_CompoundLabelOnly(t *testing.T) {
	got := ExtractFields("App + On Demand Resources size: 5 MB compressed, 6 MB uncompressed")
	if _, ok := got[FieldOnDemandResourcesSize]; ok {
		t.Errorf("compound line attributed to on-demand resources size: %#v", got)
	}
	if got[FieldCombinedSize] != "5 MB compressed, 6 MB uncompressed" {
		t.Errorf("combined size = %q", got[FieldCombinedSize])
	}
}

func TestFieldLabels_Exhaustive(t *testing.T) {
	seen := map[string]bool{}
	for _, f := range Fields {
		label := f.Label()
		if label == "" || seen[label] {
			t.Errorf("field %v has empty or duplicate label %q", f, label)
		}
		seen[label] = true
	}
}

func TestParseAppSize(t *testing.T) {
	got := ParseAppSize("6.6 MB compressed, 12.9 MB uncompressed")
	if math.Abs(got.Compressed.Value-6.6) > 1e-9 || got.Compressed.Unit != size.Megabytes {
		t.Errorf("Compressed = %+v, want 6.6 MB", got.Compressed)
	}
	if math.Abs(got.Uncompressed.Value-12.9) > 1e-9 || got.Uncompressed.Unit != size.Megabytes {
		t.Errorf("Uncompressed = %+v, want 12.9 MB", got.Uncompressed)
	}
	if got.Compressed.RawValue != "6.6 MB" || got.Uncompressed.RawValue != "12.9 MB" {
		t.Errorf("raw values = %q, %q", got.Compressed.RawValue, got.Uncompressed.RawValue)
	}
}

func TestParseAppSize_ReversedOrder(t *testing.T) {
	got := ParseAppSize("12.9 MB uncompressed, 6.6 MB compressed")
	if got.Compressed.RawValue != "6.6 MB" || got.Uncompressed.RawValue != "12.9 MB" {
		t.Errorf("got %+v", got)
	}
}

func TestParseAppSize_ZeroKB(t *testing.T) {
	got := ParseAppSize("Zero KB compressed, Zero KB uncompressed")
	want := SizeValue{RawValue: "0 KB", Value: 0, Unit: size.Megabytes}
	if got.Compressed != want || got.Uncompressed != want {
		t.Errorf("got %+v, want both %+v", got, want)
	}
}

func TestParseAppSize_KilobyteDisplay(t *testing.T) {
	got := ParseAppSizeIn("1 MB compressed, 2 MB uncompressed", size.Kilobytes)
	if got.Compressed.Value != 1024 || got.Uncompressed.Value != 2048 {
		t.Errorf("got %+v", got)
	}
}

func TestParseAppSize_Placeholder(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"6.6 MB compressed",
		"12.9 MB uncompressed",
		"MB compressed, 12.9 MB uncompressed",
		"6.6 MB compressed, Unknown uncompressed",
		"garbage",
	}
	for _, raw := range tests {
		got := ParseAppSize(raw)
		if !got.IsPlaceholder() {
			t.Errorf("ParseAppSize(%q) = %+v, want placeholder", raw, got)
		}
		if got.Compressed != PlaceholderSize() || got.Uncompressed != PlaceholderSize() {
			t.Errorf("ParseAppSize(%q) partially populated: %+v", raw, got)
		}
	}
}

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []DeviceDescriptor
	}{
		{
			name: "empty",
			raw:  "  ",
			want: nil,
		},
		{
			name: "universal",
			raw:  "Universal",
			want: []DeviceDescriptor{{Device: "Universal", OSVersion: ""}},
		},
		{
			name: "two devices",
			raw:  "[device: iPhone10,3, os-version: 14.0], and [device: iPad7,1, os-version: 14.0]",
			want: []DeviceDescriptor{
				{Device: "iPhone10,3", OSVersion: "14.0"},
				{Device: "iPad7,1", OSVersion: "14.0"},
			},
		},
		{
			name: "three devices",
			raw:  "[device: iPhone11,4, os-version: 14.0], [device: iPhone12,5, os-version: 14.1], and [device: iPhone11,6, os-version: 14.2]",
			want: []DeviceDescriptor{
				{Device: "iPhone11,4", OSVersion: "14.0"},
				{Device: "iPhone12,5", OSVersion: "14.1"},
				{Device: "iPhone11,6", OSVersion: "14.2"},
			},
		},
		{
			name: "two devices without comma",
			raw:  "[device: iPhone10,3, os-version: 14.0] and [device: iPad7,1, os-version: 14.0]",
			want: []DeviceDescriptor{
				{Device: "iPhone10,3", OSVersion: "14.0"},
				{Device: "iPad7,1", OSVersion: "14.0"},
			},
		},
		{
			name: "missing os version",
			raw:  "[device: iPhone10,3]",
			want: []DeviceDescriptor{{Device: "iPhone10,3", OSVersion: "Unknown"}},
		},
		{
			name: "malformed group skipped",
			raw:  "device: iPhone10,3, os-version: 14.0",
			want: []DeviceDescriptor{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDeviceList(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDeviceList(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParse_Fixture(t *testing.T) {
	variants := Parse(readFixture(t))
	if len(variants) != 3 {
		t.Fatalf("len(variants) = %d, want 3", len(variants))
	}

	first := variants[0]
	if first.Name != "ExampleAppClip-35AD0331-EA57-4B82-B8E6-029D7786B9B7.ipa" {
		t.Errorf("Name = %q", first.Name)
	}
	if len(first.SupportedDevices) != 3 {
		t.Errorf("len(SupportedDevices) = %d, want 3", len(first.SupportedDevices))
	}
	if first.AppSize.Uncompressed.RawValue != "13.1 MB" {
		t.Errorf("AppSize.Uncompressed.RawValue = %q", first.AppSize.Uncompressed.RawValue)
	}
	if first.OnDemandResourcesSize.Compressed.RawValue != "0 KB" {
		t.Errorf("OnDemandResourcesSize.Compressed.RawValue = %q", first.OnDemandResourcesSize.Compressed.RawValue)
	}

	second := variants[1]
	if second.AppSize.IsPlaceholder() {
		t.Errorf("single blank line dropped the app size of %q", second.Name)
	}
	if second.CombinedSize.Uncompressed.Value != 12.9 {
		t.Errorf("CombinedSize.Uncompressed.Value = %v, want 12.9", second.CombinedSize.Uncompressed.Value)
	}

	third := variants[2]
	if !reflect.DeepEqual(third.SupportedDevices, []DeviceDescriptor{Universal}) {
		t.Errorf("SupportedDevices = %#v", third.SupportedDevices)
	}
}

func TestParse_MissingFieldsUsePlaceholders(t *testing.T) {
	variants := Parse("Variant: Lonely.ipa\n")
	if len(variants) != 1 {
		t.Fatalf("len(variants) = %d, want 1", len(variants))
	}
	v := variants[0]
	if v.SupportedDevices != nil {
		t.Errorf("SupportedDevices = %#v, want nil", v.SupportedDevices)
	}
	for name, a := range map[string]AppSize{
		"CombinedSize":          v.CombinedSize,
		"AppSize":               v.AppSize,
		"OnDemandResourcesSize": v.OnDemandResourcesSize,
	} {
		if !a.IsPlaceholder() {
			t.Errorf("%s = %+v, want placeholder", name, a)
		}
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := readFixture(t)
	if a, b := Parse(text), Parse(text); !reflect.DeepEqual(a, b) {
		t.Errorf("Parse() not idempotent:\n%#v\n%#v", a, b)
	}
}

func TestParseReader_BOM(t *testing.T) {
	input := "\xEF\xBB\xBF" + twoVariantReport
	variants, err := ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader() error = %v", err)
	}
	if len(variants) != 2 {
		t.Errorf("len(variants) = %d, want 2", len(variants))
	}
}

func TestVariant_JSON(t *testing.T) {
	v := Variant{
		Name:                  "A.ipa",
		SupportedDevices:      []DeviceDescriptor{Universal},
		CombinedSize:          ParseAppSize("1 MB compressed, 2 MB uncompressed"),
		AppSize:               ParseAppSize("1 MB compressed, 2 MB uncompressed"),
		OnDemandResourcesSize: PlaceholderAppSize(),
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	got := string(b)

	order := []string{
		`"variant":"A.ipa"`,
		`"supported_variant_descriptors":[{"device":"Universal","os_version":""}]`,
		`"app_on_demand_resources_size":{"compressed":{"raw_value":"1 MB","value":1,"unit":"MB"}`,
		`"app_size":`,
		`"on_demand_resources_size":{"compressed":{"raw_value":"Unknown","value":0,"unit":"B"}`,
	}
	last := -1
	for _, part := range order {
		idx := strings.Index(got, part)
		if idx < 0 {
			t.Fatalf("JSON %s missing %s", got, part)
		}
		if idx < last {
			t.Errorf("JSON field %s out of order in %s", part, got)
		}
		last = idx
	}
}
