package command

import (
	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/telemetry"
)

func NewCommands(
	store core.HistoryStore,
	searcher core.ImageSearcher,
	messenger core.Messenger,
	metrics *telemetry.Metrics,
) []core.Command {
	return []core.Command{
		NewGetStartedCommand(),
		NewClearHistoryCommand(store),
		NewPinterestCommand(searcher, messenger, metrics),
	}
}
