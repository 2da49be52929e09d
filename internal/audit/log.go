// Package audit writes an append-only trail of security-relevant actions:
// logins, logouts, token refreshes and every privileged mutation.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/epic-events/crm/internal/auth"
	"github.com/epic-events/crm/internal/obs"
)

type ctxKey string

const commandKey ctxKey = "audit_command"

// WithCommand attaches the CLI command name to the context for audit
// enrichment.
func WithCommand(ctx context.Context, command string) context.Context {
	command = strings.TrimSpace(command)
	if command == "" {
		return ctx
	}
	return context.WithValue(ctx, commandKey, command)
}

func commandFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(commandKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with the acting user and the
// running command.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"type":  "audit",
		"event": event,
		"at":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if cmd := commandFromContext(ctx); cmd != "" {
		entry["command"] = cmd
	}
	if actor, ok := auth.ActorFromContext(ctx); ok {
		entry["actor"] = actor
	}
	if len(fields) > 0 {
		copied := make(map[string]any, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		entry["fields"] = copied
	} else {
		entry["fields"] = map[string]any{}
	}

	obs.Log("info", "audit", entry)
	return nil
}
