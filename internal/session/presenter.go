package session

import "github.com/starford/raido/internal/models"

// Presenter is the GUI-side collaborator. The session tells it what became
// visible; it renders nothing itself and must not call back into the
// session from these methods.
type Presenter interface {
	WindowOpened(item models.ItemView)
	WindowActivated(item models.ItemView)
	WindowRetitled(item models.ItemView)
	WindowClosed(item models.ItemView)

	// SessionTitle refreshes the notebook title and its dirty decoration.
	SessionTitle(title string, dirty bool)

	// SaveStarted and SaveFinished bracket the save protocol so the UI can
	// show a busy indication while the persist step runs.
	SaveStarted()
	SaveFinished(outcome SaveOutcome)
}

// NopPresenter discards all presentation callbacks.
type NopPresenter struct{}

func (NopPresenter) WindowOpened(models.ItemView)    {}
func (NopPresenter) WindowActivated(models.ItemView) {}
func (NopPresenter) WindowRetitled(models.ItemView)  {}
func (NopPresenter) WindowClosed(models.ItemView)    {}
func (NopPresenter) SessionTitle(string, bool)       {}
func (NopPresenter) SaveStarted()                    {}
func (NopPresenter) SaveFinished(SaveOutcome)        {}

// CloseChoice is the user's answer to the dirty-close prompt.
type CloseChoice int

const (
	ChoiceSave CloseChoice = iota
	ChoiceDiscard
	ChoiceCancel
)

// CloseDecision answers "may the session close now?".
type CloseDecision int

const (
	Proceed CloseDecision = iota
	Abort
)

func (d CloseDecision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "abort"
}

// Prompter yields the user's three-way choice when closing a dirty session.
type Prompter interface {
	ConfirmClose() CloseChoice
}

// ChoiceFunc adapts a function to Prompter.
type ChoiceFunc func() CloseChoice

func (f ChoiceFunc) ConfirmClose() CloseChoice { return f() }

// StaticChoice is a Prompter that always answers the same choice.
func StaticChoice(c CloseChoice) Prompter {
	return ChoiceFunc(func() CloseChoice { return c })
}

// PathPrompter yields the destination path for save-as promotion, or
// ok=false when the user dismissed the prompt.
type PathPrompter interface {
	SaveAsPath() (path string, ok bool)
}

// PathFunc adapts a function to PathPrompter.
type PathFunc func() (string, bool)

func (f PathFunc) SaveAsPath() (string, bool) { return f() }

// FixedPath is a PathPrompter that always supplies path.
func FixedPath(path string) PathPrompter {
	return PathFunc(func() (string, bool) { return path, true })
}

// NoPath is a PathPrompter representing a dismissed prompt.
func NoPath() PathPrompter {
	return PathFunc(func() (string, bool) { return "", false })
}
