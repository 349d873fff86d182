package command

import (
	"context"

	"github.com/sandevgo/hashia/internal/core"
)

const Greeting = "Hello! I'm Hashia your personal AI companion. I can help you with questions and analyze images you send me. How can I assist you today? 😊"

type GetStartedCommand struct{}

func NewGetStartedCommand() *GetStartedCommand {
	return &GetStartedCommand{}
}

func (c *GetStartedCommand) Name() string {
	return core.CmdGetStarted
}

func (c *GetStartedCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	return Greeting, nil
}
