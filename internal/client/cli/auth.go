package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sitecrew/internal/client/state"
	"github.com/dmitrijs2005/sitecrew/internal/client/syncclient"
	"github.com/dmitrijs2005/sitecrew/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// restoreSession picks up a session left by a previous run.
func (a *App) restoreSession(ctx context.Context) {
	sess, err := a.authService.Session(ctx)
	if err != nil {
		if !errors.Is(err, state.ErrNoSession) {
			a.logger.Error(ctx, "failed to load session", "error", err)
		}
		return
	}
	a.setUser(sess.UserName)
	if sess.UserName == "" {
		a.setUser(sess.UserEmail)
	}
}

// Login prompts for credentials and authenticates against the backend.
// Login always needs the server; the session it stores is what lets the
// rest of the client work offline.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		a.logger.Warn(ctx, "login unsuccessful", "error", err)
		return a.fail(err)
	}

	name := sess.UserName
	if name == "" {
		name = sess.UserEmail
	}
	a.setUser(name)
	a.printf("Welcome, %s!\n", name)

	a.onReconnect(ctx)
	a.restoreShift(ctx)
	return nil
}

// restoreShift picks up a timesheet the backend still has open, such as
// one left behind by an earlier logout.
func (a *App) restoreShift(ctx context.Context) {
	rec, err := a.clock.RestoreOpenShift(ctx)
	switch {
	case errors.Is(err, syncclient.ErrOffline):
		return
	case err != nil:
		a.logger.Warn(ctx, "open timesheet check failed", "error", err)
		return
	case rec != nil:
		a.printf("Restored open shift %s since %s.\n", rec.TimesheetID, rec.Start.Local().Format(time.Kitchen))
	}
}

// Logout drops the session and the open shift. Queued work stays and is
// flushed after the next login.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return a.fail(err)
	}
	a.setUser("")
	a.printf("Logged out.\n")
	return nil
}
