package busy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type view struct{ id string }

func TestLockerCounts(t *testing.T) {
	l := NewLocker()
	v := &view{id: "op"}

	var events []bool
	l.OnChange(func(target Target, busy bool) {
		assert.Same(t, v, target)
		events = append(events, busy)
	})

	l.Lock(v)
	l.Lock(v)
	assert.True(t, l.IsLocked(v))

	l.Unlock(v)
	assert.True(t, l.IsLocked(v))

	l.Unlock(v)
	assert.False(t, l.IsLocked(v))

	l.Unlock(v)
	assert.False(t, l.IsLocked(v))

	assert.Equal(t, []bool{true, false}, events)
}

func TestLockerTargetsAreIndependent(t *testing.T) {
	l := NewLocker()
	a, b := &view{id: "a"}, &view{id: "b"}

	l.Lock(a)
	assert.True(t, l.IsLocked(a))
	assert.False(t, l.IsLocked(b))

	l.UnlockIfLocked(b)
	l.UnlockIfLocked(a)
	assert.False(t, l.IsLocked(a))
}
