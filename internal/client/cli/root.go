package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sitecrew/internal/client/connectivity"
)

func (a *App) getStatus() string {
	s := ""
	if name := a.user(); name != "" {
		s = name + " "
	}
	if a.net != nil {
		if mode := a.net.Mode(); mode != connectivity.ModeUnknown {
			s += string(mode)
		}
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root restores the previous session (or asks for a login) and runs the REPL.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to SiteCrew (type 'help' for commands)\n")

	a.restoreSession(ctx)
	if a.isLoggedIn() {
		a.printf("Signed in as %s.\n", a.user())
	} else {
		_ = a.Login(ctx)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
