// Package cli implements the terminal surface of the CRM: command
// dispatch, interactive prompts and table rendering. Business rules and
// permissions live below it; the CLI only translates errors to messages.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/epic-events/crm/internal/audit"
	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/crm"
	"github.com/epic-events/crm/internal/obs"
)

// App bundles the services the commands operate on.
type App struct {
	Authn     *auth.Authenticator
	Users     *crm.UserService
	Customers *crm.CustomerService
	Contracts *crm.ContractService
	Events    *crm.EventService

	// BootstrapStore is the unguarded user directory used only by `crm
	// init` to create the very first account.
	BootstrapStore crm.UserStore

	InitStore func(ctx context.Context) error

	Out    io.Writer
	Prompt *Prompter
}

// Run dispatches a top-level command. The returned error is already
// user-presentable.
func (a *App) Run(ctx context.Context, args []string) error {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if len(args) == 0 {
		a.usage()
		return errors.New("missing command")
	}

	cmd, rest := args[0], args[1:]
	ctx = audit.WithCommand(ctx, cmd)

	var err error
	switch cmd {
	case "init":
		err = a.runInit(ctx, rest)
	case "login":
		err = a.runLogin(ctx, rest)
	case "logout":
		err = a.runLogout(ctx)
	case "whoami":
		err = a.runWhoami(ctx)
	case "refresh":
		err = a.runRefresh(ctx)
	case "user":
		err = a.runUser(ctx, rest)
	case "customer":
		err = a.runCustomer(ctx, rest)
	case "contract":
		err = a.runContract(ctx, rest)
	case "event":
		err = a.runEvent(ctx, rest)
	case "stats":
		err = obs.WriteSnapshot(a.Out)
	case "help", "-h", "--help":
		a.usage()
	default:
		a.usage()
		err = fmt.Errorf("unknown command %q", cmd)
	}
	return a.presentable(err)
}

func (a *App) usage() {
	fmt.Fprintln(a.Out, `usage: crm <command> [arguments]

commands:
  init        create the database schema and the first admin account
  login       open a session
  logout      close the current session
  whoami      show the authenticated account
  refresh     extend the current session
  user        manage collaborator accounts
  customer    manage customers
  contract    manage contracts and payments
  event       manage events
  stats       show in-process counters`)
}

// presentable rewrites internal failures into terminal messages. The
// permission layer never distinguishes unknown users from wrong
// passwords, and neither does the output here.
func (a *App) presentable(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		return errors.New("login failed: check the username and password")
	case errors.Is(err, auth.ErrTooManyAttempts):
		return errors.New("too many login attempts, slow down")
	case errors.Is(err, auth.ErrUnauthenticated):
		return errors.New("not logged in: run `crm login` first")
	case errors.Is(err, auth.ErrTokenExpired):
		return errors.New("session expired: run `crm refresh` or log in again")
	case errors.Is(err, auth.ErrTokenInvalid):
		return errors.New("session is unusable: log in again")
	case errors.Is(err, auth.ErrForbidden):
		return fmt.Errorf("not allowed: %v", err)
	default:
		return err
	}
}

// listWithRefresh runs a read-only query and, when the session just
// expired, refreshes once and retries before giving up.
func (a *App) listWithRefresh(ctx context.Context, query func(context.Context) error) error {
	err := query(ctx)
	if !errors.Is(err, auth.ErrTokenExpired) {
		return err
	}
	if _, refreshErr := a.Authn.Refresh(ctx); refreshErr != nil {
		return err
	}
	obs.Log("info", "session refreshed after expiry", nil)
	return query(ctx)
}

func (a *App) runInit(ctx context.Context, args []string) error {
	if a.InitStore != nil {
		if err := a.InitStore(ctx); err != nil {
			return err
		}
	}
	if len(args) > 0 && args[0] == "--schema-only" {
		fmt.Fprintln(a.Out, "schema ready")
		return nil
	}
	return a.bootstrapAdmin(ctx)
}

func (a *App) runLogin(ctx context.Context, args []string) error {
	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		username, err = a.Prompt.Ask("username: ")
		if err != nil {
			return err
		}
	}
	password, err := a.Prompt.AskSecret("password: ")
	if err != nil {
		return err
	}
	user, err := a.Authn.Login(ctx, username, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *App) runLogout(ctx context.Context) error {
	if err := a.Authn.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "logged out")
	return nil
}

func (a *App) runWhoami(ctx context.Context) error {
	user, err := a.Authn.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(a.Out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.Out, "%s (%s) <%s>\n", user.Username, user.Role, user.Email)
	return nil
}

func (a *App) runRefresh(ctx context.Context) error {
	user, err := a.Authn.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "session extended for %s (%s)\n", user.Username, user.Role)
	return nil
}
