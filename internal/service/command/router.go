package command

import (
	"context"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
)

const (
	DefaultReply = "I received your request. How can I help you?"
	ErrorReply   = "Sorry, I encountered an error processing your message. Please try again."
)

type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	c := &Router{
		commands: make(map[string]core.Command),
	}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	return c
}

// Execute runs the named command and returns the reply to send. An empty
// reply means the command already answered the user.
func (c *Router) Execute(ctx context.Context, userID, name string, args []string) string {
	cmd, ok := c.commands[name]
	if !ok {
		log.FromCtx(ctx).Debug().Str("command", name).Msg("unknown command")
		return DefaultReply
	}

	result, err := cmd.Execute(ctx, userID, args)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("command", name).Msg("command failed")
		return ErrorReply
	}
	return result
}

func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	return res
}
