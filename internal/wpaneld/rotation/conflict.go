package rotation

import (
	"fmt"
	"sort"

	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

// DefaultSuggestions is the number of free ordinals SuggestOrdinals returns
// when no limit is given
const DefaultSuggestions = 5

// maxSuggestedOrdinal bounds the SuggestOrdinals scan
const maxSuggestedOrdinal = 100

// Conflict is a set of items requesting the same ordinal
type Conflict struct {
	Ordinal int
	Items   []Item
}

// DetectConflicts returns every ordinal requested by more than one item,
// sorted by ordinal. Items keep input order within a conflict; the first
// one wins the slot in Allocate.
func DetectConflicts(items []Item) []Conflict {
	byOrdinal := make(map[int][]Item)
	for _, it := range items {
		if it.Ordinal > 0 {
			byOrdinal[it.Ordinal] = append(byOrdinal[it.Ordinal], it)
		}
	}

	var conflicts []Conflict
	for ordinal, group := range byOrdinal {
		if len(group) > 1 {
			conflicts = append(conflicts, Conflict{Ordinal: ordinal, Items: group})
		}
	}
	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].Ordinal < conflicts[j].Ordinal
	})
	return conflicts
}

// ValidateOrdinal checks whether the item exceptID may move to ordinal.
// A non-positive or occupied ordinal is an error; an ordinal that leaves a
// gap after the highest used one is allowed with a warning.
func ValidateOrdinal(items []Item, ordinal int, exceptID string) (warning string, err error) {
	const op = "rotation.ValidateOrdinal"

	if ordinal <= 0 {
		return "", werrors.NewError("INVALID_INPUT", "ordinal must be positive", op, werrors.ErrInvalidInput)
	}

	highest := 0
	for _, it := range items {
		if it.ID == exceptID {
			continue
		}
		if it.Ordinal == ordinal {
			return "", werrors.NewError(
				"CONFLICT",
				fmt.Sprintf("ordinal %d is taken by %s", ordinal, it.ID),
				op,
				werrors.ErrConflict,
			)
		}
		if it.Ordinal > highest {
			highest = it.Ordinal
		}
	}

	if ordinal > highest+1 {
		warning = fmt.Sprintf("ordinal %d leaves a gap after %d", ordinal, highest)
	}
	return warning, nil
}

// SuggestOrdinals returns the lowest limit ordinals not used by any item.
// Ordinals above 100 are never suggested, so the result may be short.
func SuggestOrdinals(items []Item, limit int) []int {
	if limit <= 0 {
		limit = DefaultSuggestions
	}

	used := make(map[int]bool, len(items))
	for _, it := range items {
		if it.Ordinal > 0 {
			used[it.Ordinal] = true
		}
	}

	suggestions := make([]int, 0, limit)
	for candidate := 1; len(suggestions) < limit && candidate <= maxSuggestedOrdinal; candidate++ {
		if !used[candidate] {
			suggestions = append(suggestions, candidate)
		}
	}
	return suggestions
}
