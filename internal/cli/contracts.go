package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/epic-events/crm/internal/crm"
)

func (a *App) runContract(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: crm contract <create|list|show|update|sign|pay>")
	}
	switch args[0] {
	case "create":
		return a.contractCreate(ctx, args[1:])
	case "list":
		return a.contractList(ctx, args[1:])
	case "show":
		return a.contractShow(ctx, args[1:])
	case "update":
		return a.contractUpdate(ctx, args[1:])
	case "sign":
		return a.contractSign(ctx, args[1:])
	case "pay":
		return a.contractPay(ctx, args[1:])
	default:
		return fmt.Errorf("unknown contract command %q", args[0])
	}
}

func (a *App) contractCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contract create", flag.ContinueOnError)
	customerID := fs.String("customer", "", "customer id")
	total := fs.Int64("total", 0, "total amount in cents")
	if err := fs.Parse(args); err != nil {
		return err
	}

	contract, err := a.Contracts.Create(ctx, crm.ContractInput{
		CustomerID:  *customerID,
		TotalAmount: *total,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created contract %s for %s\n", contract.ID, money(contract.TotalAmount))
	return nil
}

func (a *App) contractList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contract list", flag.ContinueOnError)
	unsigned := fs.Bool("unsigned", false, "only unsigned contracts")
	unpaid := fs.Bool("unpaid", false, "only contracts with an amount due")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		contracts, err := a.Contracts.List(ctx, crm.ContractFilter{
			UnsignedOnly: *unsigned,
			UnpaidOnly:   *unpaid,
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(contracts))
		for _, c := range contracts {
			rows = append(rows, []string{c.ID, c.CustomerID, money(c.TotalAmount), money(c.AmountDue), yesNo(c.Signed)})
		}
		renderTable(a.Out, []string{"ID", "CUSTOMER", "TOTAL", "DUE", "SIGNED"}, rows)
		return nil
	})
}

func (a *App) contractShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm contract show <id>")
	}
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		c, err := a.Contracts.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "contract %s\n  customer: %s\n  sales:    %s\n  total:    %s\n  due:      %s\n  signed:   %s\n",
			c.ID, c.CustomerID, c.SalesContactID, money(c.TotalAmount), money(c.AmountDue), yesNo(c.Signed))
		return nil
	})
}

func (a *App) contractUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contract update", flag.ContinueOnError)
	total := fs.Int64("total", -1, "new total amount in cents")
	due := fs.Int64("due", -1, "new amount due in cents")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: crm contract update [flags] <id>")
	}

	var upd crm.ContractUpdate
	if *total >= 0 {
		upd.TotalAmount = total
	}
	if *due >= 0 {
		upd.AmountDue = due
	}
	contract, err := a.Contracts.Update(ctx, fs.Arg(0), upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated contract %s, due %s\n", contract.ID, money(contract.AmountDue))
	return nil
}

func (a *App) contractSign(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm contract sign <id>")
	}
	contract, err := a.Contracts.Sign(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "contract %s signed\n", contract.ID)
	return nil
}

func (a *App) contractPay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("contract pay", flag.ContinueOnError)
	amount := fs.Int64("amount", 0, "payment amount in cents")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: crm contract pay -amount <cents> <id>")
	}
	contract, err := a.Contracts.RecordPayment(ctx, fs.Arg(0), *amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "recorded %s, remaining due %s\n", money(*amount), money(contract.AmountDue))
	return nil
}
