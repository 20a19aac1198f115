// Package review renders evaluation results as markdown and publishes them
// to a review sink such as a CI comment or the terminal.
package review

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/ios"
	"github.com/JonMunkholm/appsize/internal/policy"
)

// DefaultVariantsLimit caps the rows shown in each Android table before the
// remaining violations are collapsed.
const DefaultVariantsLimit = 25

// Footer is appended after every report.
const Footer = "Powered by [danger-app_size_report](https://github.com/ChargePoint/danger-app_size_report)"

const (
	passMark = "✅"
	failMark = "❌"

	tableAlign = "| :-: | :-: | :-: | :-: | :-: | :-: |\n"

	androidHeader = "| Under Limit | SDK | ABI | Screen Density | Language | Size (Bytes) |\n"
	iosHeader     = "| Under Limit | Variant | App Size - Compressed | App Size - Uncompressed | ODR Size - Compressed | ODR Size - Uncompressed |\n"
)

// Renderer builds markdown reports.
type Renderer struct {
	variantsLimit int
	printer       *message.Printer
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithVariantsLimit sets how many Android rows each table shows.
// Non-positive values keep the default.
func WithVariantsLimit(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.variantsLimit = n
		}
	}
}

// WithLocale groups byte counts using the number format of a BCP 47 tag,
// e.g. "en" renders 4100000 as 4,100,000. An empty tag keeps plain digits.
func WithLocale(tag string) RendererOption {
	return func(r *Renderer) {
		if tag == "" {
			return
		}
		t, err := language.Parse(tag)
		if err != nil {
			return
		}
		r.printer = message.NewPrinter(t)
	}
}

// NewRenderer returns a Renderer with the given options applied.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{variantsLimit: DefaultVariantsLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) bytes(n int64) string {
	if r.printer == nil {
		return strconv.FormatInt(n, 10)
	}
	return r.printer.Sprintf("%v", number.Decimal(n))
}

// IOS renders the App Thinning Size Report table.
func (r *Renderer) IOS(res policy.IOSResult) string {
	var b strings.Builder
	b.WriteString("# App Thinning Size Report\n")
	fmt.Fprintf(&b, "### Size limit = %s\n\n", res.Settings.Limit)
	b.WriteString(iosHeader)
	b.WriteString(tableAlign)

	for i, v := range res.Variants {
		mark := passMark
		if i < len(res.Flagged) && res.Flagged[i] {
			mark = failMark
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %s |\n",
			mark, cell(v.Name),
			sizeCell(v.AppSize.Compressed), sizeCell(v.AppSize.Uncompressed),
			sizeCell(v.OnDemandResourcesSize.Compressed), sizeCell(v.OnDemandResourcesSize.Uncompressed))
	}
	return b.String()
}

// cell makes report and CSV text inert inside a table row: HTML is escaped
// and pipes cannot open a new column.
func cell(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "|", `\|`)
}

func sizeCell(v ios.SizeValue) string {
	return strconv.FormatFloat(v.Value, 'f', -1, 64) + " " + v.Unit.String()
}

// VariantDescriptors renders one collapsible device table per variant.
func (r *Renderer) VariantDescriptors(variants []ios.Variant) string {
	var b strings.Builder
	b.WriteString("### Supported Variant Descriptors \n\n")
	for _, v := range variants {
		b.WriteString("<details> \n")
		fmt.Fprintf(&b, "<summary> %s </summary> \n\n", cell(v.Name))
		b.WriteString("| Model | Operating System | \n")
		b.WriteString("| - | :-: |\n")
		for _, d := range v.SupportedDevices {
			fmt.Fprintf(&b, "%s | %s | \n", cell(d.Device), cell(d.OSVersion))
		}
		b.WriteString("</details> \n\n")
	}
	return b.String()
}

// Android renders the exceeding and within tables, largest rows first.
// Exceeding rows beyond the variants limit go to a collapsed table; within
// rows beyond it are omitted.
func (r *Renderer) Android(res policy.AndroidResult) string {
	c := res.Classification

	exceeding := c.Exceeding
	var more []android.Row
	if len(exceeding) > r.variantsLimit {
		exceeding, more = exceeding[:r.variantsLimit], exceeding[r.variantsLimit:]
	}
	within := c.Within
	if len(within) > r.variantsLimit {
		within = within[:r.variantsLimit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Android %s Size Report\n", res.Settings.BuildType)
	fmt.Fprintf(&b, "### Size limit = %s\n\n", res.Settings.Limit)

	if len(c.Exceeding) > 0 {
		b.WriteString("## Variants exceeding the size limit\n\n")
		r.androidTable(&b, exceeding, failMark)
		b.WriteString("\n")

		if len(more) > 0 {
			b.WriteString("<details>\n<summary>Click to view more violating variants!</summary>\n\n")
			r.androidTable(&b, more, failMark)
			b.WriteString("</details>\n\n")
		}
	}

	b.WriteString("## Variants under or equal to the size limit\n\n")
	b.WriteString("<details>\n<summary>Click to expand!</summary>\n\n")
	r.androidTable(&b, within, passMark)
	b.WriteString("</details>\n")
	return b.String()
}

func (r *Renderer) androidTable(b *strings.Builder, rows []android.Row, mark string) {
	b.WriteString(androidHeader)
	b.WriteString(tableAlign)
	for _, row := range rows {
		fmt.Fprintf(b, "%s | %s | %s | %s | %s | %s |\n",
			mark, cell(row.SDK), cell(row.ABI), cell(row.ScreenDensity), cell(row.Language), r.bytes(row.MaxBytes))
	}
}
