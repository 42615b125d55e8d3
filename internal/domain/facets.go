package domain

import "slices"

// DeriveFacets collects the distinct non-empty states and cities of records,
// each sorted ascending. Values are compared exactly; no case folding.
func DeriveFacets(records []StorageRecord) FacetSet {
	states := make([]string, 0, len(records))
	cities := make([]string, 0, len(records))
	for i := range records {
		if s := records[i].State; s != "" {
			states = append(states, s)
		}
		if c := records[i].City; c != "" {
			cities = append(cities, c)
		}
	}
	return FacetSet{
		States: distinctSorted(states),
		Cities: distinctSorted(cities),
	}
}

func distinctSorted(values []string) []string {
	slices.Sort(values)
	return slices.Compact(values)
}
