package search

// Filters are post-ranking constraints. Zero-value fields (empty strings,
// nil MinScore) impose no constraint.
type Filters struct {
	Category     string
	DocumentType string
	MinScore     *float64
}

// Apply returns the results satisfying every set filter, preserving order.
// With no filters set it is the identity transform.
func Apply(results []Result, f Filters) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if f.Category != "" && r.Metadata.Category != f.Category {
			continue
		}
		if f.DocumentType != "" && r.Metadata.DocumentType != f.DocumentType {
			continue
		}
		if f.MinScore != nil && r.FinalScore < *f.MinScore {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
