package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/epic-events/crm/internal/crm"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) runEvent(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: crm event <create|list|show|update|assign|delete>")
	}
	switch args[0] {
	case "create":
		return a.eventCreate(ctx, args[1:])
	case "list":
		return a.eventList(ctx, args[1:])
	case "show":
		return a.eventShow(ctx, args[1:])
	case "update":
		return a.eventUpdate(ctx, args[1:])
	case "assign":
		return a.eventAssign(ctx, args[1:])
	case "delete":
		return a.eventDelete(ctx, args[1:])
	default:
		return fmt.Errorf("unknown event command %q", args[0])
	}
}

func parseWhen(value string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want %q", value, timeLayout)
	}
	return t, nil
}

func (a *App) eventCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event create", flag.ContinueOnError)
	contractID := fs.String("contract", "", "signed contract id")
	name := fs.String("name", "", "event name")
	start := fs.String("start", "", `start time, e.g. "2026-09-01 18:00"`)
	end := fs.String("end", "", "end time")
	location := fs.String("location", "", "venue")
	attendees := fs.Int("attendees", 0, "expected attendees")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	startAt, err := parseWhen(*start)
	if err != nil {
		return err
	}
	endAt, err := parseWhen(*end)
	if err != nil {
		return err
	}

	event, err := a.Events.Create(ctx, crm.EventInput{
		ContractID: *contractID,
		Name:       *name,
		Start:      startAt,
		End:        endAt,
		Location:   *location,
		Attendees:  *attendees,
		Notes:      *notes,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "created event %s (%s)\n", event.Name, event.ID)
	return nil
}

func (a *App) eventList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event list", flag.ContinueOnError)
	unassigned := fs.Bool("unassigned", false, "only events without a support contact")
	mine := fs.String("support", "", "only events assigned to this support user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		events, err := a.Events.List(ctx, crm.EventFilter{
			UnassignedOnly:   *unassigned,
			SupportContactID: *mine,
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{e.ID, e.Name, when(e.Start), orDash(e.Location), orDash(e.SupportContactID)})
		}
		renderTable(a.Out, []string{"ID", "NAME", "START", "LOCATION", "SUPPORT"}, rows)
		return nil
	})
}

func (a *App) eventShow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm event show <id>")
	}
	return a.listWithRefresh(ctx, func(ctx context.Context) error {
		e, err := a.Events.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.Out, "%s\n  contract:  %s\n  customer:  %s\n  support:   %s\n  starts:    %s\n  ends:      %s\n  location:  %s\n  attendees: %d\n  notes:     %s\n",
			e.Name, e.ContractID, e.CustomerID, orDash(e.SupportContactID),
			when(e.Start), when(e.End), orDash(e.Location), e.Attendees, orDash(e.Notes))
		return nil
	})
}

func (a *App) eventUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("event update", flag.ContinueOnError)
	name := fs.String("name", "", "new event name")
	start := fs.String("start", "", "new start time")
	end := fs.String("end", "", "new end time")
	location := fs.String("location", "", "new venue")
	attendees := fs.Int("attendees", -1, "new attendee count")
	notes := fs.String("notes", "", "new notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: crm event update [flags] <id>")
	}

	var upd crm.EventUpdate
	if *name != "" {
		upd.Name = name
	}
	if *start != "" {
		t, err := parseWhen(*start)
		if err != nil {
			return err
		}
		upd.Start = &t
	}
	if *end != "" {
		t, err := parseWhen(*end)
		if err != nil {
			return err
		}
		upd.End = &t
	}
	if *location != "" {
		upd.Location = location
	}
	if *attendees >= 0 {
		upd.Attendees = attendees
	}
	if *notes != "" {
		upd.Notes = notes
	}
	event, err := a.Events.Update(ctx, fs.Arg(0), upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "updated event %s\n", event.Name)
	return nil
}

func (a *App) eventAssign(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: crm event assign <event-id> <support-username>")
	}
	event, err := a.Events.AssignSupport(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "assigned %s to %s\n", args[1], event.Name)
	return nil
}

func (a *App) eventDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: crm event delete <id>")
	}
	if err := a.Events.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "deleted event %s\n", args[0])
	return nil
}
