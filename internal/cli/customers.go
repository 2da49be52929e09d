package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/epic-events/crm/internal/crm"
)

func (a *App) runCustomer(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: crm customer <create|list|show|update>")
	}
	switch args[0] {
	case "create":
		return a.customerCreate(ctx, args[1:])
	case "list":
		return a.customerList(ctx)
	case "show":
		return a.customerShow(ctx, args[1:])
	case "update":
		return a.customerUpdate(ctx, args[1:])
	default:
		return fmt.Errorf("unknown customer command %q", args[0])
	}
}

func (a *App) customerCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("customer create", flag.ContinueOnError)
	name := fs.String("name", "", "customer full name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	company := fs.String("company", "", "company name")
	salesContact := fs.String("sales-contact", "", "sales contact user id (management only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	customer, err := a.Customers.Create(ctx, crm.CustomerInput{
		FullName:       *name,
		Email:          *email,
		Phone:          *phone,
		Company:        *company,
		SalesContactID: *salesContact,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created customer %s (%s)\n", customer.FullName, customer.ID)
	return nil
}

func (a *App) customerList(ctx context.Context) error {
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		customers, err := a.Customers.List(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(customers))
		for _, c := range customers {
			rows = append(rows, []string{c.ID, c.FullName, c.Email, orDash(c.Company), c.SalesContactID})
		}
		renderTable(a.Out, []string{"ID", "NAME", "EMAIL", "COMPANY", "SALES CONTACT"}, rows)
		return nil
	})
}

func (a *App) customerShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm customer show <id>")
	}
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		c, err := a.Customers.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s\n  email:   %s\n  phone:   %s\n  company: %s\n  sales:   %s\n  since:   %s\n",
			c.FullName, c.Email, orDash(c.Phone), orDash(c.Company), c.SalesContactID, when(c.CreatedAt))
		return nil
	})
}

func (a *App) customerUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("customer update", flag.ContinueOnError)
	name := fs.String("name", "", "new full name")
	email := fs.String("email", "", "new email address")
	phone := fs.String("phone", "", "new phone number")
	company := fs.String("company", "", "new company name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: crm customer update [flags] <id>")
	}

	var upd crm.CustomerUpdate
	if *name != "" {
		upd.FullName = name
	}
	if *email != "" {
		upd.Email = email
	}
	if *phone != "" {
		upd.Phone = phone
	}
	if *company != "" {
		upd.Company = company
	}
	customer, err := a.Customers.Update(ctx, fs.Arg(0), upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated customer %s\n", customer.FullName)
	return nil
}
