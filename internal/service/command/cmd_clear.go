package command

import (
	"context"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
)

const ClearedReply = "Your chat history has been cleared. How can I help you today?"

type ClearHistoryCommand struct {
	store core.HistoryStore
}

func NewClearHistoryCommand(store core.HistoryStore) *ClearHistoryCommand {
	return &ClearHistoryCommand{store: store}
}

func (c *ClearHistoryCommand) Name() string {
	return core.CmdClearHistory
}

func (c *ClearHistoryCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	c.store.Clear(userID)
	log.FromCtx(ctx).Info().Str("user", userID).Msg("chat history cleared")
	return ClearedReply, nil
}
