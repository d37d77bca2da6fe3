package domain

// IsExcluded reports whether spec equals any specification in exclusions,
// using Specification.Equal. A module whose specification is excluded never
// enters the graph: its dependencies are consequently never queried either.
func IsExcluded(spec Specification, exclusions []Specification) bool {
	for _, e := range exclusions {
		if spec.Equal(e) {
			return true
		}
	}
	return false
}
