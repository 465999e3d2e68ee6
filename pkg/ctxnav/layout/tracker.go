// Package layout tracks the column depth of a flexible multi-column layout and
// maps it to a layout identifier through a Policy owned by the surrounding shell.
package layout

import (
	"sync"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"go.uber.org/atomic"
)

// Policy maps a column level and the target path to a layout identifier.
type Policy interface {
	Layout(level int, path string) string
}

// PolicyFunc adapts a function to a Policy.
type PolicyFunc func(level int, path string) string

func (f PolicyFunc) Layout(level int, path string) string {
	return f(level, path)
}

// ColumnPolicy picks Names[level]; levels past the last name use Overflow.
type ColumnPolicy struct {
	Names    []string
	Overflow string
}

// DefaultPolicy is the three-column policy used when the shell supplies none.
func DefaultPolicy() ColumnPolicy {
	return ColumnPolicy{
		Names: []string{
			constants.LayoutOneColumn,
			constants.LayoutTwoColumnsMid,
			constants.LayoutThreeColumnsEnd,
		},
		Overflow: constants.LayoutEndColumnFullScreen,
	}
}

func (p ColumnPolicy) Layout(level int, _ string) string {
	if level < 0 {
		level = 0
	}
	if level < len(p.Names) {
		return p.Names[level]
	}
	if p.Overflow != "" {
		return p.Overflow
	}
	if len(p.Names) > 0 {
		return p.Names[len(p.Names)-1]
	}
	return ""
}

// AdjustLevel applies delta to current, floored at 0.
func AdjustLevel(current, delta int) int {
	next := current + delta
	if next < constants.DefaultRootLayoutLevel {
		return constants.DefaultRootLayoutLevel
	}
	return next
}

// Tracker owns the current column level of one routing session.
type Tracker struct {
	enabled bool
	policy  Policy
	level   atomic.Int64

	mu     sync.Mutex
	levels map[any]int
}

// NewTracker creates a Tracker. A nil policy selects DefaultPolicy. A disabled
// tracker belongs to a single-page (fullscreen) layout.
func NewTracker(enabled bool, policy Policy) *Tracker {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Tracker{
		enabled: enabled,
		policy:  policy,
		levels:  make(map[any]int),
	}
}

// Enabled reports whether the layout has multiple columns.
func (t *Tracker) Enabled() bool {
	return t.enabled
}

// Level returns the current column level.
func (t *Tracker) Level() int {
	return int(t.level.Load())
}

// SetLevel sets the current column level, floored at 0.
func (t *Tracker) SetLevel(level int) {
	t.level.Store(int64(AdjustLevel(level, 0)))
}

// Next returns the level that applying delta would produce, and whether delta
// would have moved above the first column.
func (t *Tracker) Next(delta int) (int, bool) {
	current := t.Level()
	return AdjustLevel(current, delta), current+delta < constants.DefaultRootLayoutLevel
}

// Reset returns to the first column and forgets per-view levels.
func (t *Tracker) Reset() {
	t.level.Store(constants.DefaultRootLayoutLevel)
	t.mu.Lock()
	t.levels = make(map[any]int)
	t.mu.Unlock()
}

// ComputeLayout delegates to the policy.
func (t *Tracker) ComputeLayout(level int, path string) string {
	return t.policy.Layout(level, path)
}

// UpdateLevels records the column level of each view shown by a multi-target
// route: the view at index i sits in column i. The current level becomes the
// level of the last view.
func (t *Tracker) UpdateLevels(views []any) {
	if len(views) == 0 {
		return
	}
	t.mu.Lock()
	for i, v := range views {
		if v != nil {
			t.levels[v] = i
		}
	}
	t.mu.Unlock()
	t.SetLevel(len(views) - 1)
}

// LevelOf returns the column level recorded for view.
func (t *Tracker) LevelOf(view any) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	level, ok := t.levels[view]
	return level, ok
}
