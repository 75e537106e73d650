package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/sitecrew/internal/client/models"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Projects(ctx context.Context) error
	Select(ctx context.Context, args []string) error
	Position(ctx context.Context, args []string) error
	ClockIn(ctx context.Context, args []string) error
	ClockOut(ctx context.Context) error
	Status(ctx context.Context) error
	Locate(ctx context.Context) error
	Stage(ctx context.Context, kind models.MediaKind, args []string) error
	Queue(ctx context.Context) error
	Flush(ctx context.Context) error
	Monitor(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, position, status, queue, exit"
	helpLoggedIn  = "Available commands: projects, select, position, clockin, clockout, status, locate, photo, receipt, queue, flush, monitor, logout, exit"
)

// runREPL starts a read–eval–print loop for the SiteCrew CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF, when ctx is done, or
// when the user types "exit" or "quit".
//
// Commands that need a session are refused with a hint while logged out.
// Errors returned by command handlers are not printed here; handlers show
// their own alerts.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("sitecrew %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if needsSession(cmd) && !a.isLoggedIn() {
			printlnFn("Please log in first.")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "projects":
			_ = a.Projects(ctx)

		case "select":
			_ = a.Select(ctx, args)

		case "position":
			_ = a.Position(ctx, args)

		case "clockin":
			_ = a.ClockIn(ctx, args)

		case "clockout":
			_ = a.ClockOut(ctx)

		case "status":
			_ = a.Status(ctx)

		case "locate":
			_ = a.Locate(ctx)

		case "photo":
			_ = a.Stage(ctx, models.MediaKindImage, args)

		case "receipt":
			_ = a.Stage(ctx, models.MediaKindReceipt, args)

		case "queue":
			_ = a.Queue(ctx)

		case "flush":
			_ = a.Flush(ctx)

		case "monitor":
			_ = a.Monitor(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func needsSession(cmd string) bool {
	switch cmd {
	case "logout", "projects", "select", "clockin", "clockout", "locate", "photo", "receipt", "flush":
		return true
	}
	return false
}
