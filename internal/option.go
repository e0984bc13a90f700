package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config       *Config
	notebookPath string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithNotebookPath opens an existing notebook file instead of starting a
// fresh untitled one.
func WithNotebookPath(path string) Option {
	return func(a *application) {
		a.notebookPath = path
	}
}
