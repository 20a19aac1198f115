package review

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/JonMunkholm/appsize/internal/policy"
)

// Sink receives review output.
type Sink interface {
	Message(text string)
	Warn(text string)
	Fail(text string)
	Markdown(text string)
}

// Report is everything published for one evaluation.
type Report struct {
	Findings policy.Findings `json:"findings"`
	Markdown []string        `json:"markdown"`
}

// Text joins the markdown sections into a single document.
func (r Report) Text() string {
	return strings.Join(r.Markdown, "\n")
}

// Publish sends findings first, then markdown sections in order.
func Publish(s Sink, r Report) {
	for _, m := range r.Findings.Messages {
		s.Message(m)
	}
	for _, w := range r.Findings.Warnings {
		s.Warn(w)
	}
	for _, f := range r.Findings.Failures {
		s.Fail(f)
	}
	for _, md := range r.Markdown {
		s.Markdown(md)
	}
}

// IOSReport assembles the full iOS review: size table, descriptors, footer.
func (r *Renderer) IOSReport(res policy.IOSResult) Report {
	return Report{
		Findings: res.Findings,
		Markdown: []string{r.IOS(res), r.VariantDescriptors(res.Variants), Footer},
	}
}

// AndroidReport assembles the Android review.
func (r *Renderer) AndroidReport(res policy.AndroidResult) Report {
	return Report{
		Findings: res.Findings,
		Markdown: []string{r.Android(res), Footer},
	}
}

// Collector is a Sink that records everything it receives.
type Collector struct {
	mu     sync.Mutex
	report Report
}

func (c *Collector) Message(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Findings.Messages = append(c.report.Findings.Messages, text)
}

func (c *Collector) Warn(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Findings.Warnings = append(c.report.Findings.Warnings, text)
}

func (c *Collector) Fail(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Findings.Failures = append(c.report.Findings.Failures, text)
}

func (c *Collector) Markdown(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report.Markdown = append(c.report.Markdown, text)
}

// Report returns a copy of what was collected.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.report
	out.Findings.Messages = append([]string(nil), out.Findings.Messages...)
	out.Findings.Warnings = append([]string(nil), out.Findings.Warnings...)
	out.Findings.Failures = append([]string(nil), out.Findings.Failures...)
	out.Markdown = append([]string(nil), out.Markdown...)
	return out
}

// WriterSink prints markdown to out and findings to diag, one per line,
// prefixed by severity.
type WriterSink struct {
	Out  io.Writer
	Diag io.Writer
}

func (w WriterSink) Message(text string)  { fmt.Fprintf(w.Diag, "message: %s\n", text) }
func (w WriterSink) Warn(text string)     { fmt.Fprintf(w.Diag, "warning: %s\n", text) }
func (w WriterSink) Fail(text string)     { fmt.Fprintf(w.Diag, "failure: %s\n", text) }
func (w WriterSink) Markdown(text string) { fmt.Fprintln(w.Out, text) }
