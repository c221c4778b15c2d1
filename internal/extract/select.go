package extract

import "sort"

// SelectDeal ranks deals by discount (descending, stable) and returns the
// best one not yet present in the announced set, or nil when every candidate
// has already been published. The input slice is not modified.
func SelectDeal(deals []Deal, announced map[string]struct{}) *Deal {
	ranked := make([]Deal, len(deals))
	copy(ranked, deals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DiscountPercent > ranked[j].DiscountPercent
	})

	for i := range ranked {
		if _, seen := announced[ranked[i].ID]; !seen {
			return &ranked[i]
		}
	}
	return nil
}
