package policy

import (
	"fmt"

	"github.com/JonMunkholm/appsize/internal/size"
)

// Restriction is the largest limit a store accepts for a build type.
type Restriction struct {
	Platform  Platform
	BuildType BuildType
	Max       Limit
	// Name completes "exceeds ... size restrictions".
	Name string
}

// Restrictions lists the store maximums.
var Restrictions = []Restriction{
	{IOS, App, Limit{4, size.Gigabytes}, "Apple's App"},
	{IOS, Clip, Limit{10, size.Megabytes}, "Apple's App Clip"},
	{Android, App, Limit{150, size.Megabytes}, "Android App"},
	{Android, Instant, Limit{4, size.Megabytes}, "Android Instant App"},
}

// RestrictionFor returns the restriction of a platform and build type.
func RestrictionFor(p Platform, bt BuildType) (Restriction, bool) {
	for _, r := range Restrictions {
		if r.Platform == p && r.BuildType == bt {
			return r, true
		}
	}
	return Restriction{}, false
}

// Clamp lowers the limit of s to the store maximum when it exceeds it.
// It returns the effective settings, the effective limit as a size and, when
// clamping happened, a notice for the user.
func Clamp(s Settings) (Settings, size.Size, string) {
	effective := s.Limit.Size()
	r, ok := RestrictionFor(s.Platform, s.BuildType)
	if !ok || effective.Kilobytes() <= r.Max.Size().Kilobytes() {
		return s, effective, ""
	}

	notice := fmt.Sprintf("The size limit was set to %s as the given limit of %s exceeds %s size restrictions",
		r.Max, s.Limit, r.Name)
	effective.SetKilobytes(r.Max.Size().Kilobytes())
	s.Limit = r.Max
	return s, effective, notice
}
