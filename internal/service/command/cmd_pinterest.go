package command

import (
	"context"
	"strings"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/telemetry"
	"github.com/sandevgo/hashia/pkg/log"
)

const (
	PinterestPrompt  = "Please enter what image you are looking for after /pinterest"
	NoImagesReply    = "No images found for the given search term."
	PleaseWaitReply  = "Please wait while sending the images..."
	SearchFailReply  = "Something went wrong while fetching images."
	MaxSearchResults = 10
)

// PinterestCommand searches images for the query in args and sends them as one batch.
type PinterestCommand struct {
	searcher  core.ImageSearcher
	messenger core.Messenger
	metrics   *telemetry.Metrics
}

func NewPinterestCommand(searcher core.ImageSearcher, messenger core.Messenger, metrics *telemetry.Metrics) *PinterestCommand {
	return &PinterestCommand{
		searcher:  searcher,
		messenger: messenger,
		metrics:   metrics,
	}
}

func (c *PinterestCommand) Name() string {
	return core.CmdPinterest
}

func (c *PinterestCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	if len(args) == 0 {
		return PinterestPrompt, nil
	}

	logger := log.FromCtx(ctx).With().Str("user", userID).Logger()
	query := strings.Join(args, " ")

	found, err := c.searcher.Search(ctx, query)
	if err != nil {
		c.metrics.SearchDone(ctx, 0, err)
		logger.Error().Err(err).Str("query", query).Msg("image search failed")
		return SearchFailReply, nil
	}

	urls := dedupeURLs(found, MaxSearchResults)
	c.metrics.SearchDone(ctx, len(urls), nil)

	if len(urls) == 0 {
		return NoImagesReply, nil
	}

	if err := c.messenger.SendText(ctx, userID, PleaseWaitReply); err != nil {
		logger.Error().Err(err).Msg("failed to send search notice")
		return SearchFailReply, nil
	}
	if err := c.messenger.SendImages(ctx, userID, urls); err != nil {
		logger.Error().Err(err).Int("images", len(urls)).Msg("failed to send images")
		return SearchFailReply, nil
	}

	logger.Info().Str("query", query).Int("images", len(urls)).Msg("images sent")
	return "", nil
}

// dedupeURLs keeps the first occurrence of each url, in order, up to limit entries.
func dedupeURLs(urls []string, limit int) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, min(len(urls), limit))
	for _, u := range urls {
		if len(out) == limit {
			break
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
