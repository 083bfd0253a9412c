package pubmrf

import (
	"github.com/blang/semver"
)

// Version is the version string of this PUB-MRF build.
const Version = "0.9.0"

// VersionSemVer returns the semantic version of this build.
func VersionSemVer() (semver.Version, error) {
	return semver.Make(Version)
}
