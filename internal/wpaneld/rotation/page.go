package rotation

import "sort"

// DefaultPageSize is the 5x4 paged board
const DefaultPageSize = 20

// PageView is one page of a paged board
type PageView struct {
	Items     []Item
	Page      int
	PageCount int
}

// SortByOrdinal returns a copy of items ordered by ordinal, items without an
// ordinal last. The sort is stable so equal ordinals keep input order.
func SortByOrdinal(items []Item) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Ordinal, sorted[j].Ordinal
		switch {
		case a > 0 && b > 0:
			return a < b
		case a > 0:
			return true
		default:
			return false
		}
	})
	return sorted
}

// PageCount returns how many pages of size n items span
func PageCount(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Page cuts the ordinal-sorted items into pages of size and returns the
// requested page, taken modulo the page count.
func Page(items []Item, page, size int) PageView {
	if size <= 0 {
		size = DefaultPageSize
	}
	count := PageCount(len(items), size)
	if count == 0 {
		return PageView{}
	}

	page %= count
	if page < 0 {
		page += count
	}

	sorted := SortByOrdinal(items)
	start := page * size
	end := start + size
	if end > len(sorted) {
		end = len(sorted)
	}

	return PageView{
		Items:     sorted[start:end],
		Page:      page,
		PageCount: count,
	}
}
