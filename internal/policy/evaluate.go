package policy

import (
	"fmt"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/ios"
	"github.com/JonMunkholm/appsize/internal/size"
)

// Findings are the messages an evaluation raises, by severity.
type Findings struct {
	Messages []string `json:"messages"`
	Warnings []string `json:"warnings"`
	Failures []string `json:"failures"`
}

// Failed reports whether any failure was raised.
func (f Findings) Failed() bool {
	return len(f.Failures) > 0
}

func (f *Findings) message(msg string) {
	if msg != "" {
		f.Messages = append(f.Messages, msg)
	}
}

// violation raises msg as a failure or a warning.
func (f *Findings) violation(failOnWarning bool, msg string) {
	if failOnWarning {
		f.Failures = append(f.Failures, msg)
		return
	}
	f.Warnings = append(f.Warnings, msg)
}

// IOSResult is the outcome of evaluating an App Thinning Size Report.
type IOSResult struct {
	Settings Settings      `json:"settings"`
	Variants []ios.Variant `json:"variants"`
	// Flagged[i] is true when Variants[i] exceeds the limit.
	Flagged  []bool   `json:"flagged"`
	Findings Findings `json:"findings"`
}

// FlaggedCount returns the number of violating variants.
func (r IOSResult) FlaggedCount() int {
	n := 0
	for _, f := range r.Flagged {
		if f {
			n++
		}
	}
	return n
}

// EvaluateIOS flags variants whose uncompressed app size or uncompressed
// on-demand resources size exceeds the limit. Placeholder sizes never exceed.
func EvaluateIOS(variants []ios.Variant, s Settings) IOSResult {
	s, limit, notice := Clamp(s)

	res := IOSResult{
		Settings: s,
		Variants: variants,
		Flagged:  make([]bool, len(variants)),
	}
	res.Findings.message(notice)

	limitMB := limit.Megabytes()
	for i, v := range variants {
		res.Flagged[i] = megabytes(v.AppSize.Uncompressed) > limitMB ||
			megabytes(v.OnDemandResourcesSize.Uncompressed) > limitMB
	}

	if res.FlaggedCount() > 0 {
		res.Findings.violation(s.FailOnWarning,
			fmt.Sprintf("The size limit of %s has been exceeded by one or more variants", s.Limit))
	}
	return res
}

func megabytes(v ios.SizeValue) float64 {
	return size.New(v.Value, v.Unit).Megabytes()
}

// AndroidResult is the outcome of evaluating a filtered size table.
type AndroidResult struct {
	Settings       Settings               `json:"settings"`
	Classification android.Classification `json:"classification"`
	Findings       Findings               `json:"findings"`
}

// EvaluateAndroid classifies sorted rows against the limit in bytes.
// sorted must be ordered by android.Sort.
func EvaluateAndroid(sorted []android.Row, s Settings) AndroidResult {
	s, limit, notice := Clamp(s)

	res := AndroidResult{
		Settings:       s,
		Classification: android.Classify(sorted, int64(limit.Bytes())),
	}
	res.Findings.message(notice)

	if n := res.Classification.Violations(); n > 0 {
		res.Findings.violation(s.FailOnWarning,
			fmt.Sprintf("The size limit of %s has been exceeded by %d variants", s.Limit, n))
	}
	return res
}
