package session

// confirmClose decides whether the session may close now. Runs on the
// session loop. This is the one place a save outcome gates a control
// decision, and it observes the full tri-state: a cancelled or failed save
// keeps the session open and dirty.
func (s *Session) confirmClose(prompter Prompter, paths PathPrompter) CloseDecision {
	if !s.dirty.isDirty() {
		return Proceed
	}

	switch prompter.ConfirmClose() {
	case ChoiceDiscard:
		// Changes lost on purpose: no flush, no persist.
		return Proceed
	case ChoiceSave:
		if out := s.save(paths); out.Status == SaveSaved {
			return Proceed
		}
		return Abort
	case ChoiceCancel:
		return Abort
	}
	// An unknown choice is treated as cancel.
	return Abort
}
