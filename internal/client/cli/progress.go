package cli

import (
	"time"

	"github.com/briandowns/spinner"
)

// withSpinner runs fn while a spinner with msg is shown. In quiet mode fn
// runs without one.
func (a *App) withSpinner(msg string, fn func() error) error {
	if a.quiet {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.out))
	s.Suffix = " " + msg
	s.Start()
	defer s.Stop()

	return fn()
}
