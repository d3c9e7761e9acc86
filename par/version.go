package par

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version information for parslice.
const (
	// Version is the current version of the module.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the library build.
type Info struct {
	// Version is the library version string.
	Version string

	// Tiers lists the accessor tiers in order of increasing obligation.
	Tiers []string

	// Checker names the algorithm behind Slice.Checked.
	Checker string
}

// GetInfo returns information about the library.
//
// Example:
//
//	info := par.GetInfo()
//	fmt.Printf("parslice %s (%s)\n", info.Version, info.Checker)
func GetInfo() Info {
	return Info{
		Version: Version,
		Tiers:   []string{"pointer", "value", "ref"},
		Checker: "phase epochs with per-element shadow cells",
	}
}

// Compatible reports whether this version satisfies the semantic version
// required: same major version, and not older than required. Before 1.0
// the minor version must match too.
//
// The leading "v" is optional. An invalid version returns an error.
func Compatible(required string) (bool, error) {
	req := canonical(required)
	if !semver.IsValid(req) {
		return false, fmt.Errorf("parslice: invalid version %q", required)
	}

	cur := canonical(Version)
	if semver.Major(req) != semver.Major(cur) {
		return false, nil
	}
	if semver.Major(cur) == "v0" && semver.MajorMinor(req) != semver.MajorMinor(cur) {
		return false, nil
	}
	return semver.Compare(cur, req) >= 0, nil
}

func canonical(v string) string {
	if len(v) > 0 && v[0] != 'v' {
		v = "v" + v
	}
	return v
}
