package android

import (
	"cmp"
	"io"
	"slices"
)

// Filter keeps the rows whose screen density and language are both allowed.
// Matching is exact. Input order is preserved and rows is not modified.
func Filter(rows []Row, densities, languages []string) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if slices.Contains(densities, row.ScreenDensity) && slices.Contains(languages, row.Language) {
			out = append(out, row)
		}
	}
	return out
}

// FilterCSV reads a size CSV and filters it.
func FilterCSV(r io.Reader, densities, languages []string) ([]Row, error) {
	rows, err := ReadRows(r)
	if err != nil {
		return nil, err
	}
	return Filter(rows, densities, languages), nil
}

// Sort returns a copy of rows ordered by ascending MaxBytes.
// Rows with equal sizes keep their relative order.
func Sort(rows []Row) []Row {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b Row) int {
		return cmp.Compare(a.MaxBytes, b.MaxBytes)
	})
	return sorted
}

// ViolationCount returns how many rows of sorted have MaxBytes strictly
// above limitBytes.
//
// sorted must be ordered as Sort leaves it; the result is meaningless
// otherwise. The search keeps lb on a row within the limit and ub on a
// violating row, starting from the virtual positions -1 and len(sorted).
func ViolationCount(sorted []Row, limitBytes int64) int {
	lb, ub := -1, len(sorted)
	for ub-lb > 1 {
		mid := lb + (ub-lb)/2
		if sorted[mid].MaxBytes <= limitBytes {
			lb = mid
		} else {
			ub = mid
		}
	}
	return len(sorted) - ub
}

// Classification splits a sorted table around a size limit.
type Classification struct {
	LimitBytes int64 `json:"limit_bytes"`
	// Exceeding rows, largest first.
	Exceeding []Row `json:"exceeding"`
	// Within rows, largest first.
	Within []Row `json:"within"`
}

// Classify partitions sorted rows into those above limitBytes and the rest.
// sorted is not modified.
func Classify(sorted []Row, limitBytes int64) Classification {
	split := len(sorted) - ViolationCount(sorted, limitBytes)
	return Classification{
		LimitBytes: limitBytes,
		Exceeding:  reversed(sorted[split:]),
		Within:     reversed(sorted[:split]),
	}
}

// Violations returns the number of exceeding rows.
func (c Classification) Violations() int {
	return len(c.Exceeding)
}

func reversed(rows []Row) []Row {
	out := slices.Clone(rows)
	slices.Reverse(out)
	if out == nil {
		out = []Row{}
	}
	return out
}
