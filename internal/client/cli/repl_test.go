package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls   []string
	allowed []string
	args    []string
	failOn  string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }

func (f *fakeExec) allow(_ context.Context, view string) bool {
	f.allowed = append(f.allowed, view)
	return f.loggedIn
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeExec) Register(context.Context) error { return f.record("register") }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Upload(_ context.Context, args []string) error {
	f.args = args
	return f.record("upload")
}
func (f *fakeExec) History(context.Context) error { return f.record("history") }
func (f *fakeExec) Status(context.Context) error  { return f.record("status") }

func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_GuardedCommands(t *testing.T) {
	capturePrints(t)

	input := strings.NewReader(strings.Join([]string{
		"history",
		"logout",
		"login",
		"history",
		"upload /tmp/id card.png",
		"status",
		"logout",
		"exit",
		"history",
	}, "\n"))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(input))

	assert.Equal(t, []string{"login", "history", "upload", "status", "logout"}, exec.calls)
	assert.Equal(t, []string{"history", "logout", "history", "logout"}, exec.allowed)
	assert.Equal(t, []string{"/tmp/id", "card.png"}, exec.args)
}

func TestRunREPL_HelpUnknownAndErrors(t *testing.T) {
	lines := capturePrints(t)

	input := strings.NewReader("help\n\nfoobar\nregister\nquit\n")
	exec := &fakeExec{failOn: "register"}

	runREPL(context.Background(), exec, func() string { return "(alice)" }, bufio.NewReader(input))

	out := strings.Join(*lines, "\n")
	assert.Contains(t, out, "ts (alice)>")
	assert.Contains(t, out, "register, login")
	assert.Contains(t, out, "Unknown command: foobar")
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_StopsOnCanceledContext(t *testing.T) {
	capturePrints(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, bufio.NewReader(strings.NewReader("status\n")))

	assert.Empty(t, exec.calls)
}
