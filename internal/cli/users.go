package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/crm"
)

func (a *App) runUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: crm user <create|list|update|reset-password|deactivate|activate>")
	}
	switch args[0] {
	case "create":
		return a.userCreate(ctx, args[1:])
	case "list":
		return a.userList(ctx, args[1:])
	case "update":
		return a.userUpdate(ctx, args[1:])
	case "reset-password":
		return a.userResetPassword(ctx, args[1:])
	case "deactivate":
		return a.userToggle(ctx, args[1:], false)
	case "activate":
		return a.userToggle(ctx, args[1:], true)
	default:
		return fmt.Errorf("unknown user command %q", args[0])
	}
}

func (a *App) userCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("user create", flag.ContinueOnError)
	username := fs.String("username", "", "unique login name")
	email := fs.String("email", "", "email address")
	fullName := fs.String("name", "", "full name")
	role := fs.String("role", "", "one of admin, gestion, commercial, support")
	if err := fs.Parse(args); err != nil {
		return err
	}

	password, err := a.Prompt.AskSecret("new password: ")
	if err != nil {
		return err
	}
	confirm, err := a.Prompt.AskSecret("confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	user, err := a.Users.Create(ctx, crm.UserInput{
		Username: *username,
		Email:    *email,
		FullName: *fullName,
		Password: password,
		Role:     *role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *App) userList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("user list", flag.ContinueOnError)
	all := fs.Bool("all", false, "include deactivated accounts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		users, err := a.Users.List(ctx, *all)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(users))
		for _, u := range users {
			rows = append(rows, []string{u.Username, u.FullName, u.Email, u.Role.String(), yesNo(u.Active)})
		}
		renderTable(a.Out, []string{"USERNAME", "NAME", "EMAIL", "ROLE", "ACTIVE"}, rows)
		return nil
	})
}

func (a *App) userUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("user update", flag.ContinueOnError)
	email := fs.String("email", "", "new email address")
	fullName := fs.String("name", "", "new full name")
	role := fs.String("role", "", "new role")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: crm user update [flags] <username>")
	}

	var upd crm.UserUpdate
	if *email != "" {
		upd.Email = email
	}
	if *fullName != "" {
		upd.FullName = fullName
	}
	if *role != "" {
		upd.Role = role
	}
	user, err := a.Users.Update(ctx, fs.Arg(0), upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated %s (%s)\n", user.Username, user.Role)
	return nil
}

func (a *App) userResetPassword(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm user reset-password <username>")
	}
	password, err := a.Prompt.AskSecret("new password: ")
	if err != nil {
		return err
	}
	if err := a.Users.ResetPassword(ctx, args[0], password); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "password reset for %s\n", args[0])
	return nil
}

func (a *App) userToggle(ctx context.Context, args []string, activate bool) error {
	if len(args) != 1 {
		verb := "deactivate"
		if activate {
			verb = "activate"
		}
		return fmt.Errorf("usage: crm user %s <username>", verb)
	}
	var err error
	if activate {
		err = a.Users.Activate(ctx, args[0])
	} else {
		err = a.Users.Deactivate(ctx, args[0])
	}
	if err != nil {
		return err
	}
	state := "deactivated"
	if activate {
		state = "activated"
	}
	fmt.Fprintf(a.Out, "%s %s\n", state, args[0])
	return nil
}

// bootstrapAdmin creates the first administrator when the directory is
// empty. It bypasses the guard chain: there is nobody to authenticate
// yet.
func (a *App) bootstrapAdmin(ctx context.Context) error {
	users, err := a.BootstrapStore.List(ctx, true)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		fmt.Fprintln(a.Out, "schema ready, accounts already exist")
		return nil
	}

	fmt.Fprintln(a.Out, "creating the first administrator account")
	username, err := a.Prompt.Ask("admin username: ")
	if err != nil {
		return err
	}
	email, err := a.Prompt.Ask("admin email: ")
	if err != nil {
		return err
	}
	fullName, err := a.Prompt.Ask("admin full name: ")
	if err != nil {
		return err
	}
	password, err := a.Prompt.AskSecret("admin password: ")
	if err != nil {
		return err
	}
	user, err := crm.BootstrapAdmin(ctx, a.BootstrapStore, crm.UserInput{
		Username: username,
		Email:    email,
		FullName: fullName,
		Password: password,
		Role:     auth.RoleAdmin.String(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created administrator %s\n", user.Username)
	return nil
}
