package session

// tracker holds the single session-wide clean/dirty flag. Transitions
// refresh the externally visible title exactly once; repeated marks in the
// same state are no-ops.
type tracker struct {
	dirty   bool
	refresh func(dirty bool)
}

func newTracker(refresh func(bool)) *tracker {
	return &tracker{refresh: refresh}
}

func (t *tracker) markDirty() {
	if t.dirty {
		return
	}
	t.dirty = true
	t.refresh(true)
}

func (t *tracker) markClean() {
	if !t.dirty {
		return
	}
	t.dirty = false
	t.refresh(false)
}

func (t *tracker) isDirty() bool { return t.dirty }
