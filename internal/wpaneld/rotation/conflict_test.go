package rotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

func TestDetectConflicts(t *testing.T) {
	in := []Item{
		{ID: "a", Ordinal: 5},
		{ID: "b", Ordinal: 2},
		{ID: "c", Ordinal: 5},
		{ID: "d"},
		{ID: "e"},
		{ID: "f", Ordinal: 2},
		{ID: "g", Ordinal: 7},
	}

	conflicts := DetectConflicts(in)
	require.Len(t, conflicts, 2)

	assert.Equal(t, 2, conflicts[0].Ordinal)
	assert.Equal(t, "b", conflicts[0].Items[0].ID)
	assert.Equal(t, "f", conflicts[0].Items[1].ID)

	assert.Equal(t, 5, conflicts[1].Ordinal)
	assert.Len(t, conflicts[1].Items, 2)
}

func TestDetectConflicts_None(t *testing.T) {
	assert.Empty(t, DetectConflicts([]Item{{ID: "a", Ordinal: 1}, {ID: "b"}, {ID: "c"}}))
}

func TestValidateOrdinal(t *testing.T) {
	in := []Item{
		{ID: "a", Ordinal: 1},
		{ID: "b", Ordinal: 2},
		{ID: "c", Ordinal: 4},
	}

	tests := []struct {
		name    string
		ordinal int
		except  string
		check   func(error) bool
		warns   bool
	}{
		{name: "zero", ordinal: 0, check: werrors.IsInvalidInput},
		{name: "negative", ordinal: -3, check: werrors.IsInvalidInput},
		{name: "taken", ordinal: 2, except: "a", check: werrors.IsConflict},
		{name: "own slot", ordinal: 2, except: "b"},
		{name: "free hole", ordinal: 3, except: "a"},
		{name: "next after highest", ordinal: 5, except: "a"},
		{name: "gap", ordinal: 9, except: "a", warns: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := ValidateOrdinal(in, tt.ordinal, tt.except)
			if tt.check != nil {
				require.Error(t, err)
				assert.True(t, tt.check(err))
				return
			}
			require.NoError(t, err)
			if tt.warns {
				assert.NotEmpty(t, warning)
			} else {
				assert.Empty(t, warning)
			}
		})
	}
}

func TestSuggestOrdinals(t *testing.T) {
	in := []Item{{Ordinal: 1}, {Ordinal: 2}, {Ordinal: 4}, {Ordinal: 7}, {}}

	assert.Equal(t, []int{3, 5, 6, 8, 9}, SuggestOrdinals(in, 0))
	assert.Equal(t, []int{3, 5}, SuggestOrdinals(in, 2))
	assert.Equal(t, []int{1, 2, 3}, SuggestOrdinals(nil, 3))

	full := make([]Item, 0, 99)
	for i := 1; i <= 99; i++ {
		full = append(full, Item{Ordinal: i})
	}
	assert.Equal(t, []int{100}, SuggestOrdinals(full, 5), "scan stops at 100")
}
