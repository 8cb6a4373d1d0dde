package tokencount

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCharsCount(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Chars{}.Count(""))
	assert.Equal(t, 5, Chars{}.Count("hello"))
}

func TestEstimatorCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "short ascii rounds up", text: "hi", want: 1},
		{name: "ascii", text: strings.Repeat("a", 40), want: 10},
		{name: "cjk counts per rune", text: "你好世界", want: 4},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Estimator{}.Count(tt.text))
		})
	}
}

func TestEstimatorMixed(t *testing.T) {
	t.Parallel()
	// 2 CJK runes plus 8 ascii bytes -> 2 + 2.
	assert.Equal(t, 4, Estimator{}.Count("你好abcdefgh"))
}
