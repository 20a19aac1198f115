package review

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/ios"
	"github.com/JonMunkholm/appsize/internal/policy"
	"github.com/JonMunkholm/appsize/internal/size"
)

func iosResult() policy.IOSResult {
	variants := ios.Parse(`Variant: Small.ipa
Supported variant descriptors: [device: iPhone10,3, os-version: 14.0], and [device: iPad7,1, os-version: 14.0]
App size: 1.5 MB compressed, 3 MB uncompressed
On Demand Resources size: Zero KB compressed, Zero KB uncompressed


Variant: Big.ipa
Supported variant descriptors: Universal
App size: 6.6 MB compressed, 12.9 MB uncompressed
On Demand Resources size: Zero KB compressed, Zero KB uncompressed
`)
	s := policy.Settings{Platform: policy.IOS, BuildType: policy.Clip, Limit: policy.Limit{Value: 10, Unit: size.Megabytes}}
	return policy.EvaluateIOS(variants, s)
}

func TestRenderer_IOS(t *testing.T) {
	got := NewRenderer().IOS(iosResult())
	want := "# App Thinning Size Report\n" +
		"### Size limit = 10 MB\n\n" +
		"| Under Limit | Variant | App Size - Compressed | App Size - Uncompressed | ODR Size - Compressed | ODR Size - Uncompressed |\n" +
		"| :-: | :-: | :-: | :-: | :-: | :-: |\n" +
		"✅ | Small.ipa | 1.5 MB | 3 MB | 0 MB | 0 MB |\n" +
		"❌ | Big.ipa | 6.6 MB | 12.9 MB | 0 MB | 0 MB |\n"
	if got != want {
		t.Errorf("IOS() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderer_VariantDescriptors(t *testing.T) {
	got := NewRenderer().VariantDescriptors(iosResult().Variants)
	for _, part := range []string{
		"### Supported Variant Descriptors \n\n",
		"<summary> Small.ipa </summary> \n\n",
		"iPhone10,3 | 14.0 | \n",
		"iPad7,1 | 14.0 | \n",
		"<summary> Big.ipa </summary> \n\n",
		"Universal |  | \n",
	} {
		if !strings.Contains(got, part) {
			t.Errorf("VariantDescriptors() missing %q in\n%s", part, got)
		}
	}
	if n := strings.Count(got, "</details> \n\n"); n != 2 {
		t.Errorf("details blocks = %d, want 2", n)
	}
}

func TestRenderer_EscapesReportText(t *testing.T) {
	variants := ios.Parse(`Variant: <form action="https://evil.example/"><input name=p></form>
Supported variant descriptors: [device: <b>iPhone</b>, os-version: 14|0]
App size: 1 MB compressed, 2 MB uncompressed
On Demand Resources size: Zero KB compressed, Zero KB uncompressed
`)
	res := policy.EvaluateIOS(variants, policy.Settings{Platform: policy.IOS, BuildType: policy.App, Limit: policy.Limit{Value: 10, Unit: size.Megabytes}})
	rows := []android.Row{{SDK: "21", ABI: "<i>x86</i>", ScreenDensity: "MDPI", Language: "en|de", MaxBytes: 1}}
	droid := policy.EvaluateAndroid(rows, policy.Settings{Platform: policy.Android, BuildType: policy.App, Limit: policy.Limit{Value: 1, Unit: size.Megabytes}})

	r := NewRenderer()
	got := r.IOS(res) + r.VariantDescriptors(res.Variants) + r.Android(droid)

	for _, raw := range []string{"<form", "<input", "<b>", "<i>", "14|0", "en|de"} {
		if strings.Contains(got, raw) {
			t.Errorf("rendered markdown contains raw %q:\n%s", raw, got)
		}
	}
	for _, want := range []string{
		"&lt;form action=&#34;https://evil.example/&#34;&gt;",
		"&lt;b&gt;iPhone&lt;/b&gt; | 14\\|0 |",
		"&lt;i&gt;x86&lt;/i&gt; | MDPI | en\\|de |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered markdown missing %q:\n%s", want, got)
		}
	}
}

func androidResult(t *testing.T, limit int64, sizes ...int64) policy.AndroidResult {
	t.Helper()
	rows := make([]android.Row, len(sizes))
	for i, s := range sizes {
		rows[i] = android.Row{SDK: fmt.Sprint(21 + i), ABI: "arm64-v8a", ScreenDensity: "MDPI", Language: "en", MaxBytes: s}
	}
	s := policy.Settings{Platform: policy.Android, BuildType: policy.App, Limit: policy.Limit{Value: float64(limit), Unit: size.Kilobytes}}
	return policy.EvaluateAndroid(android.Sort(rows), s)
}

func TestRenderer_Android(t *testing.T) {
	res := androidResult(t, 2, 1000, 4100000, 2048, 3000)
	got := NewRenderer().Android(res)

	want := "# Android App Size Report\n" +
		"### Size limit = 2 KB\n\n" +
		"## Variants exceeding the size limit\n\n" +
		androidHeader + tableAlign +
		"❌ | 22 | arm64-v8a | MDPI | en | 4100000 |\n" +
		"❌ | 24 | arm64-v8a | MDPI | en | 3000 |\n" +
		"\n" +
		"## Variants under or equal to the size limit\n\n" +
		"<details>\n<summary>Click to expand!</summary>\n\n" +
		androidHeader + tableAlign +
		"✅ | 23 | arm64-v8a | MDPI | en | 2048 |\n" +
		"✅ | 21 | arm64-v8a | MDPI | en | 1000 |\n" +
		"</details>\n"
	if got != want {
		t.Errorf("Android() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderer_AndroidNoViolations(t *testing.T) {
	got := NewRenderer().Android(androidResult(t, 100, 10, 20))
	if strings.Contains(got, "exceeding") {
		t.Errorf("Android() rendered an exceeding table without violations:\n%s", got)
	}
}

func TestRenderer_AndroidVariantsLimit(t *testing.T) {
	res := androidResult(t, 1, 5000, 6000, 7000, 100, 200, 300)
	got := NewRenderer(WithVariantsLimit(2)).Android(res)

	if !strings.Contains(got, "<summary>Click to view more violating variants!</summary>") {
		t.Fatalf("missing collapsed table:\n%s", got)
	}
	more := got[strings.Index(got, "Click to view more"):]
	if !strings.Contains(more, "| 5000 |") || strings.Contains(more[:strings.Index(more, "</details>")], "| 7000 |") {
		t.Errorf("collapsed table should hold only the smallest violation:\n%s", more)
	}
	under := got[strings.Index(got, "Click to expand!"):]
	if strings.Contains(under, "| 100 |") {
		t.Errorf("within table exceeded the variants limit:\n%s", under)
	}
	if !strings.Contains(under, "| 300 |") || !strings.Contains(under, "| 200 |") {
		t.Errorf("within table should show the largest rows:\n%s", under)
	}
}

func TestRenderer_Locale(t *testing.T) {
	got := NewRenderer(WithLocale("en")).Android(androidResult(t, 1, 4100000))
	if !strings.Contains(got, "| 4,100,000 |") {
		t.Errorf("Android() with en locale missing grouped bytes:\n%s", got)
	}
	plain := NewRenderer(WithLocale("not a tag!")).Android(androidResult(t, 1, 4100000))
	if !strings.Contains(plain, "| 4100000 |") {
		t.Errorf("invalid locale should keep plain digits:\n%s", plain)
	}
}

func TestPublish(t *testing.T) {
	r := Report{
		Findings: policy.Findings{
			Messages: []string{"m"},
			Warnings: []string{"w"},
			Failures: []string{"f"},
		},
		Markdown: []string{"# one", Footer},
	}

	var c Collector
	Publish(&c, r)
	if got := c.Report(); !reflect.DeepEqual(got, r) {
		t.Errorf("Collector.Report() = %+v, want %+v", got, r)
	}

	var out, diag bytes.Buffer
	Publish(WriterSink{Out: &out, Diag: &diag}, r)
	if want := "message: m\nwarning: w\nfailure: f\n"; diag.String() != want {
		t.Errorf("diag = %q, want %q", diag.String(), want)
	}
	if want := "# one\n" + Footer + "\n"; out.String() != want {
		t.Errorf("out = %q, want %q", out.String(), want)
	}
}

func TestIOSReport(t *testing.T) {
	rep := NewRenderer().IOSReport(iosResult())
	if len(rep.Markdown) != 3 || rep.Markdown[2] != Footer {
		t.Fatalf("Markdown sections = %d, want 3 ending with footer", len(rep.Markdown))
	}
	if len(rep.Findings.Warnings) != 1 {
		t.Errorf("Warnings = %v, want 1", rep.Findings.Warnings)
	}
	if !strings.HasPrefix(rep.Text(), "# App Thinning Size Report") {
		t.Errorf("Text() = %q", rep.Text())
	}
}
