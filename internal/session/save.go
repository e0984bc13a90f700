package session

// SaveStatus is the tri-state outcome of the save protocol. Callers must
// not collapse it to a boolean: a cancelled save-as is neither a success
// nor a failure, but it did not save.
type SaveStatus int

const (
	SaveSaved SaveStatus = iota
	SaveCancelled
	SaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveSaved:
		return "saved"
	case SaveCancelled:
		return "cancelled"
	}
	return "failed"
}

// SaveOutcome is the result of one save attempt. Err is set only for
// SaveFailed.
type SaveOutcome struct {
	Status SaveStatus
	Err    error
}

func saved() SaveOutcome           { return SaveOutcome{Status: SaveSaved} }
func cancelled() SaveOutcome       { return SaveOutcome{Status: SaveCancelled} }
func failed(err error) SaveOutcome { return SaveOutcome{Status: SaveFailed, Err: err} }

// runSaveProtocol executes the four save steps strictly in order. Runs on
// the session loop, so the whole protocol is serialized against every
// other session mutation.
func (s *Session) runSaveProtocol(prompt PathPrompter) SaveOutcome {
	// Step 1: flush. Every open window's text reaches the store before
	// anything touches disk.
	if err := s.reg.flushAll(); err != nil {
		return failed(err)
	}

	// Step 2: persist to the current backing location. Failures are
	// reported, never swallowed; the store guarantees the prior on-disk
	// state is intact.
	if err := s.store.Persist(); err != nil {
		return failed(err)
	}

	// Step 3: promote an untitled notebook to a user-chosen path. A
	// dismissed prompt cancels the whole save: the untitled and dirty
	// flags stay as they are and step 4 never runs.
	if s.untitled {
		path, ok := prompt.SaveAsPath()
		if !ok {
			return cancelled()
		}
		if err := s.store.MoveTo(path); err != nil {
			return failed(err)
		}
		s.untitled = false
	}

	// Step 4: commit. Only reached when nothing above failed or was
	// cancelled.
	s.dirty.markClean()
	s.refreshTitle()
	return saved()
}
