package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdjustLevel(t *testing.T) {
	assert.Equal(t, 0, AdjustLevel(0, -1))
	assert.Equal(t, 1, AdjustLevel(0, 1))
	assert.Equal(t, 2, AdjustLevel(2, 0))
	assert.Equal(t, 1, AdjustLevel(2, -1))

	for level := 0; level < 5; level++ {
		for _, delta := range []int{-3, -1, 0, 1} {
			assert.GreaterOrEqual(t, AdjustLevel(level, delta), 0)
		}
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, "OneColumn", p.Layout(0, ""))
	assert.Equal(t, "TwoColumnsMidExpanded", p.Layout(1, ""))
	assert.Equal(t, "ThreeColumnsEndExpanded", p.Layout(2, ""))
	assert.Equal(t, "EndColumnFullScreen", p.Layout(3, ""))
	assert.Equal(t, "OneColumn", p.Layout(-1, ""))

	assert.Equal(t, "B", ColumnPolicy{Names: []string{"A", "B"}}.Layout(7, ""))
	assert.Equal(t, "", ColumnPolicy{}.Layout(0, ""))
}

func TestTrackerNext(t *testing.T) {
	tr := NewTracker(true, nil)

	level, underflow := tr.Next(-1)
	assert.Equal(t, 0, level)
	assert.True(t, underflow)

	tr.SetLevel(1)
	level, underflow = tr.Next(-1)
	assert.Equal(t, 0, level)
	assert.False(t, underflow)

	tr.SetLevel(-4)
	assert.Equal(t, 0, tr.Level())
}

func TestTrackerUpdateLevels(t *testing.T) {
	tr := NewTracker(true, PolicyFunc(func(level int, path string) string {
		return path
	}))
	begin, mid := &struct{ n int }{1}, &struct{ n int }{2}

	tr.UpdateLevels([]any{begin, mid})
	assert.Equal(t, 1, tr.Level())

	l, ok := tr.LevelOf(mid)
	assert.True(t, ok)
	assert.Equal(t, 1, l)

	assert.Equal(t, "Orders(1)", tr.ComputeLayout(1, "Orders(1)"))

	tr.Reset()
	assert.Equal(t, 0, tr.Level())
	_, ok = tr.LevelOf(mid)
	assert.False(t, ok)
}
