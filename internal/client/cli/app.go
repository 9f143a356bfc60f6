// Package cli provides the interactive authkeeper command-line client.
//
// It wires configuration, the local credential cache, the session
// controller and an interactive REPL. Typical flow: restore a cached
// session if one exists, then execute user commands until exit.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// App is the interactive CLI. It talks to the session controller for
// everything session-related and to the services directly for account
// management commands.
type App struct {
	controller *session.Controller
	authSvc    *services.AuthService
	resetSvc   *services.ResetService

	in  *bufio.Reader
	out io.Writer
}

// NewApp wires the CLI over the given controller and services.
func NewApp(controller *session.Controller, authSvc *services.AuthService, resetSvc *services.ResetService, in io.Reader, out io.Writer) *App {
	return &App{
		controller: controller,
		authSvc:    authSvc,
		resetSvc:   resetSvc,
		in:         bufio.NewReader(in),
		out:        out,
	}
}

// Run restores a cached session if possible and starts the REPL. It blocks
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.controller.Close()

	if restored, err := a.controller.Start(ctx); err != nil {
		fmt.Fprintf(a.out, "session restore error: %v\n", err)
	} else if restored {
		fmt.Fprintf(a.out, "Welcome back, %s\n", a.controller.Email())
	}

	fmt.Fprintln(a.out, "authkeeper CLI (type 'help' for commands)")
	for {
		fmt.Fprintf(a.out, "ak %s> ", a.controller.State())
		line, err := a.in.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return
		}
		a.dispatch(ctx, fields[0])
	}
}

func (a *App) dispatch(ctx context.Context, cmd string) {
	var err error
	switch cmd {
	case "help":
		a.printHelp()
	case "register":
		err = a.register(ctx)
	case "login":
		err = a.login(ctx)
	case "logout":
		err = a.controller.Logout(ctx)
	case "logout-all":
		err = a.logoutAll(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "sessions":
		err = a.sessions(ctx)
	case "passwd":
		err = a.changePassword(ctx)
	case "reset-request":
		err = a.resetRequest(ctx)
	case "reset-confirm":
		err = a.resetConfirm(ctx)
	default:
		fmt.Fprintf(a.out, "unknown command %q\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
	}
}

func (a *App) printHelp() {
	fmt.Fprintln(a.out, `Commands:
  register       create an account
  login          open a session
  logout         close this session
  logout-all     close every session of this account
  whoami         show the current session
  sessions       list active sessions
  passwd         change password (closes other sessions)
  reset-request  request a password reset token
  reset-confirm  redeem a reset token with a new password
  exit           quit`)
}

func (a *App) register(ctx context.Context) error {
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	if err := a.controller.Register(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registered. Use 'login' to open a session.")
	return nil
}

func (a *App) login(ctx context.Context) error {
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	if err := a.controller.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged in.")
	return nil
}

// userID reads the subject out of the current access token.
func (a *App) userID(ctx context.Context) (string, error) {
	token, err := a.controller.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	claims, err := auth.DecodeUnverified(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (a *App) whoami(ctx context.Context) error {
	id, err := a.userID(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)\n", a.controller.Email(), id)
	return nil
}

func (a *App) sessions(ctx context.Context) error {
	id, err := a.userID(ctx)
	if err != nil {
		return err
	}
	tokens, err := a.authSvc.ListSessions(ctx, id)
	if err != nil {
		return err
	}
	for _, t := range tokens {
		fmt.Fprintln(a.out, formatSession(t))
	}
	return nil
}

func (a *App) logoutAll(ctx context.Context) error {
	id, err := a.userID(ctx)
	if err != nil {
		return err
	}
	if err := a.authSvc.RevokeAll(ctx, id); err != nil {
		return err
	}
	// This session's refresh token is gone too; drop local state.
	return a.controller.Logout(ctx)
}

func (a *App) changePassword(ctx context.Context) error {
	id, err := a.userID(ctx)
	if err != nil {
		return err
	}
	oldPassword, err := GetPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}
	if err := a.authSvc.ChangePassword(ctx, id, oldPassword, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password changed; other sessions were closed.")
	return a.controller.Logout(ctx)
}

func (a *App) resetRequest(ctx context.Context) error {
	email, err := GetSimpleText(a.in, "Email", a.out)
	if err != nil {
		return err
	}
	value, err := a.resetSvc.Request(ctx, email, models.DeviceMeta{UserAgent: "authkeeper-cli"})
	if err != nil {
		return err
	}
	// The acknowledgement is the same whether or not the account exists.
	fmt.Fprintln(a.out, "If the account exists, a reset token was issued.")
	if value != "" {
		fmt.Fprintf(a.out, "Reset token: %s\n", value)
	}
	return nil
}

func (a *App) resetConfirm(ctx context.Context) error {
	value, err := GetSimpleText(a.in, "Reset token", a.out)
	if err != nil {
		return err
	}
	newPassword, err := GetPassword("New password", a.out)
	if err != nil {
		return err
	}
	if err := a.resetSvc.ConfirmPassword(ctx, value, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password reset; all sessions were closed.")
	return nil
}

// formatSession renders one refresh-token row for the sessions listing.
func formatSession(t *models.RefreshToken) string {
	status := "active"
	if t.IsRevoked {
		status = "revoked"
	}
	agent := t.UserAgent
	if agent == "" {
		agent = "unknown agent"
	}
	return fmt.Sprintf("%s  %s  %s  expires %s", t.ID, status, agent, t.ExpiresAt.Format("2006-01-02 15:04"))
}
