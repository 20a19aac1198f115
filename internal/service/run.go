package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/appsize/internal/policy"
	"github.com/JonMunkholm/appsize/internal/review"
	"github.com/JonMunkholm/appsize/internal/size"
	"github.com/JonMunkholm/appsize/internal/store"
)

// Run is the stored outcome of one evaluation.
type Run struct {
	ID        string          `json:"id"`
	Platform  policy.Platform `json:"platform"`
	CreatedAt time.Time       `json:"created_at"`
	Settings  policy.Settings `json:"settings"`

	policy.Findings

	Violations int  `json:"violations"`
	Failed     bool `json:"failed"`

	// Markdown is Sections joined into one document.
	Markdown string   `json:"markdown"`
	Sections []string `json:"sections"`

	IOS     *policy.IOSResult     `json:"ios,omitempty"`
	Android *policy.AndroidResult `json:"android,omitempty"`
}

func newRun(p policy.Platform, settings policy.Settings, violations int, rep review.Report) *Run {
	return &Run{
		Platform:   p,
		Settings:   settings,
		Findings:   rep.Findings,
		Violations: violations,
		Failed:     rep.Findings.Failed(),
		Markdown:   rep.Text(),
		Sections:   rep.Markdown,
	}
}

// Report returns what the run publishes to a review sink.
func (r *Run) Report() review.Report {
	return review.Report{Findings: r.Findings, Markdown: r.Sections}
}

// record converts r into a history row and its entries.
func (r *Run) record() (store.Run, []store.Entry, error) {
	result, err := json.Marshal(r)
	if err != nil {
		return store.Run{}, nil, err
	}

	rec := store.Run{
		ID:         r.ID,
		Platform:   string(r.Platform),
		BuildType:  string(r.Settings.BuildType),
		LimitLabel: r.Settings.Limit.String(),
		LimitBytes: r.Settings.Limit.Bytes(),
		Violations: r.Violations,
		Failed:     r.Failed,
		Markdown:   r.Markdown,
		Result:     result,
		CreatedAt:  r.CreatedAt,
	}

	var entries []store.Entry
	if r.IOS != nil {
		for i, v := range r.IOS.Variants {
			u := v.AppSize.Uncompressed
			entries = append(entries, store.Entry{
				Name:      v.Name,
				SizeBytes: int64(size.New(u.Value, u.Unit).Bytes()),
				Violating: r.IOS.Flagged[i],
			})
		}
	}
	if r.Android != nil {
		c := r.Android.Classification
		for _, row := range c.Exceeding {
			entries = append(entries, store.Entry{Name: rowName(row.SDK, row.ABI, row.ScreenDensity, row.Language), SizeBytes: row.MaxBytes, Violating: true})
		}
		for _, row := range c.Within {
			entries = append(entries, store.Entry{Name: rowName(row.SDK, row.ABI, row.ScreenDensity, row.Language), SizeBytes: row.MaxBytes})
		}
	}
	return rec, entries, nil
}

func rowName(sdk, abi, density, lang string) string {
	return fmt.Sprintf("sdk=%s abi=%s density=%s language=%s", sdk, abi, density, lang)
}
