package domain

import (
	mm "github.com/Masterminds/semver/v3"
)

// Version is a totally-orderable version token attached to an Identifier.
//
// Repositories are not required to speak strict semantic versioning, so
// Version parses opportunistically: when the raw token parses as a semantic
// version, comparisons use semver precedence; otherwise it falls back to a
// byte-wise string comparison of the raw token. Either way comparisons are
// total, matching the Non-goal that the core "assumes repository-reported
// identifiers are totally orderable."
type Version struct {
	raw string
	sv  *mm.Version
}

// NewVersion parses raw as a semantic version, falling back to a raw string
// token when it does not parse as one.
func NewVersion(raw string) Version {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{raw: raw}
	}
	return Version{raw: raw, sv: v}
}

// String returns the original, unparsed version token.
func (v Version) String() string {
	return v.raw
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	return v.raw == "" && v.sv == nil
}

// Compare returns -1, 0, or +1 as v is less than, equal to, or greater than
// other. When both versions parsed as semantic versions, semver precedence
// rules apply; otherwise the raw tokens are compared lexicographically.
func (v Version) Compare(other Version) int {
	if v.sv != nil && other.sv != nil {
		return v.sv.Compare(other.sv)
	}
	switch {
	case v.raw < other.raw:
		return -1
	case v.raw > other.raw:
		return 1
	default:
		return 0
	}
}
