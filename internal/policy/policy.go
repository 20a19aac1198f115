// Package policy validates size-limit arguments, clamps limits to store
// restrictions and decides which variants violate them.
package policy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/appsize/internal/size"
)

// ErrInvalidArgument is matched by every ArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError reports a rejected evaluation argument.
type ArgumentError struct {
	Name    string
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// Platform is the store a build targets.
type Platform string

const (
	IOS     Platform = "ios"
	Android Platform = "android"
)

// BuildType is the kind of build being measured.
type BuildType string

const (
	App     BuildType = "App"
	Clip    BuildType = "Clip"
	Instant BuildType = "Instant"
)

// BuildTypes returns the build types accepted for a platform.
func BuildTypes(p Platform) []BuildType {
	if p == Android {
		return []BuildType{App, Instant}
	}
	return []BuildType{App, Clip}
}

// ParseBuildType validates a build type for a platform. Matching is exact.
func ParseBuildType(p Platform, s string) (BuildType, error) {
	allowed := BuildTypes(p)
	for _, bt := range allowed {
		if string(bt) == s {
			return bt, nil
		}
	}
	return "", &ArgumentError{
		Name:    "build_type",
		Message: fmt.Sprintf("The 'build_type' argument only accepts the values %q and %q", allowed[0], allowed[1]),
	}
}

// ParseLimitUnit accepts KB, MB or GB in any case.
func ParseLimitUnit(s string) (size.Unit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KB":
		return size.Kilobytes, nil
	case "MB":
		return size.Megabytes, nil
	case "GB":
		return size.Gigabytes, nil
	}
	return 0, &ArgumentError{
		Name:    "limit_unit",
		Message: `The 'limit_unit' argument only accepts the values "KB", "MB" and "GB"`,
	}
}

// ParseLimitSize reads a non-negative numeric limit.
func ParseLimitSize(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, &ArgumentError{
			Name:    "limit_size",
			Message: "The 'limit_size' argument only accepts numeric values",
		}
	}
	return v, nil
}

// ParseFailOnWarning reads a boolean flag given as text.
func ParseFailOnWarning(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &ArgumentError{
		Name:    "fail_on_warning",
		Message: "The 'fail_on_warning' argument only accepts the values 'true' and 'false'",
	}
}

// Limit is a size limit as the user expressed it.
type Limit struct {
	Value float64   `json:"value"`
	Unit  size.Unit `json:"unit"`
}

// Size returns the limit as a normalized size.
func (l Limit) Size() size.Size {
	return size.New(l.Value, l.Unit)
}

// Bytes returns the limit in whole bytes, rounded down.
func (l Limit) Bytes() int64 {
	return int64(math.Floor(l.Size().Bytes()))
}

// String renders the limit as "4 GB".
func (l Limit) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + " " + l.Unit.String()
}

// Options are the caller-supplied evaluation settings.
type Options struct {
	BuildType     string
	LimitSize     float64
	LimitUnit     string
	FailOnWarning bool
}

// Settings are validated Options.
type Settings struct {
	Platform      Platform  `json:"platform"`
	BuildType     BuildType `json:"build_type"`
	Limit         Limit     `json:"limit"`
	FailOnWarning bool      `json:"fail_on_warning"`
}

// Validate checks o for platform p.
func (o Options) Validate(p Platform) (Settings, error) {
	bt, err := ParseBuildType(p, o.BuildType)
	if err != nil {
		return Settings{}, err
	}
	if math.IsNaN(o.LimitSize) || math.IsInf(o.LimitSize, 0) || o.LimitSize < 0 {
		return Settings{}, &ArgumentError{
			Name:    "limit_size",
			Message: "The 'limit_size' argument only accepts numeric values",
		}
	}
	unit, err := ParseLimitUnit(o.LimitUnit)
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Platform:      p,
		BuildType:     bt,
		Limit:         Limit{Value: o.LimitSize, Unit: unit},
		FailOnWarning: o.FailOnWarning,
	}, nil
}
