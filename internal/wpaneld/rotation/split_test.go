package rotation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPanes(t *testing.T) {
	tests := []struct {
		name  string
		left  float64
		right float64
		want  Split
	}{
		{"equal aspects", 1.5, 1.5, Split{50, 50}},
		{"wide left", 2, 1, Split{100 * 2.0 / 3.0, 100 - 100*2.0/3.0}},
		{"portrait right", 16.0 / 9.0, 9.0 / 16.0, Split{100 * (16.0 / 9.0) / (16.0/9.0 + 9.0/16.0), 100 - 100*(16.0/9.0)/(16.0/9.0+9.0/16.0)}},
		{"unknown left", 0, 1.2, EvenSplit},
		{"unknown right", 1.2, 0, EvenSplit},
		{"negative", -1, 1, EvenSplit},
		{"nan", math.NaN(), 1, EvenSplit},
		{"inf", math.Inf(1), 1, EvenSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPanes(tt.left, tt.right)
			assert.InDelta(t, tt.want.Left, got.Left, 1e-9)
			assert.InDelta(t, tt.want.Right, got.Right, 1e-9)
		})
	}
}

func TestSplitPanes_SumsToHundred(t *testing.T) {
	aspects := []float64{0.01, 0.5625, 0.75, 1, 1.333, 1.7778, 2.39, 40}
	for _, l := range aspects {
		for _, r := range aspects {
			s := SplitPanes(l, r)
			assert.InDelta(t, 100, s.Left+s.Right, 1e-9, "left=%v right=%v", l, r)
			assert.True(t, s.Left > 0 && s.Right > 0)
		}
	}
}
