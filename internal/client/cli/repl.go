package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	allow(ctx context.Context, view string) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, args []string) error
	History(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the tamperscan CLI.
//
// It reads a line from reader, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on EOF, on context cancellation
// or when the user types "exit" or "quit".
//
// Commands:
//
//	help             show available commands
//	register         create an account
//	login            authenticate
//	upload <path>    check a document for tampering
//	status           show the current user
//	history          list past detections (login required)
//	logout           end the session (login required)
//	exit | quit      leave the program
//
// Protected commands are checked with a.allow first. Errors returned by
// command handlers are printed; the loop keeps going.
//
// Command handlers prompt through the same reader, so no input is buffered
// away from them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ts%s> ", prefixSpace(statusFn())))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		err = nil
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: upload <path>, history, status, logout, exit")
			} else {
				printlnFn("Available commands: upload <path>, register, login, status, exit")
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx)

		case "upload":
			err = a.Upload(ctx, args)

		case "status":
			err = a.Status(ctx)

		case "history":
			if a.allow(ctx, cmd) {
				err = a.History(ctx)
			}

		case "logout":
			if a.allow(ctx, cmd) {
				err = a.Logout(ctx)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func prefixSpace(s string) string {
	if s == "" {
		return ""
	}
	return " " + s
}
