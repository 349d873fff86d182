package core

import "context"

type CmdRouter interface {
	Execute(ctx context.Context, userID, name string, args []string) string
}

// Command is an out-of-band directive that bypasses the completion path.
// The returned text, when not empty, is sent to the user as the reply.
type Command interface {
	Name() string
	Execute(ctx context.Context, userID string, args []string) (string, error)
}

// Command keys. The postback payloads registered with the Messenger profile use the same names.
const (
	CmdGetStarted   = "GET_STARTED"
	CmdClearHistory = "CLEAR_HISTORY"
	CmdPinterest    = "PINTEREST"
)
