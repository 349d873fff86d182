package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/telemetry"
	"github.com/sandevgo/hashia/pkg/conv"
	"github.com/sandevgo/hashia/pkg/log"
)

const (
	TextApology        = "I apologize, but I'm having trouble processing your message right now. Please try again later."
	ImageApology       = "I apologize, but I'm having trouble analyzing the image you sent. Please try sending it again or describe what you'd like me to help you with."
	DefaultImagePrompt = "What do you see in this image? Please describe it in detail."
	UnsupportedReply   = "I'm sorry, I can only process text messages and images at the moment."
)

var errBlankReply = errors.New("completion is blank after formatting")

// complete runs the provider and strips emphasis markers. A reply with
// nothing left to send counts as a failed completion.
func (h *Handler) complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	reply, err := h.ai.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	reply = conv.StripEmphasis(reply)
	if strings.TrimSpace(reply) == "" {
		return "", errBlankReply
	}
	return reply, nil
}

// Handler threads each user's history through the completion provider.
// Callers serialize calls per user id.
type Handler struct {
	store     core.HistoryStore
	ai        core.Completer
	images    core.ImageDownloader
	messenger core.Messenger
	metrics   *telemetry.Metrics
	now       func() time.Time
}

func NewHandler(
	store core.HistoryStore,
	ai core.Completer,
	images core.ImageDownloader,
	messenger core.Messenger,
	metrics *telemetry.Metrics,
) *Handler {
	return &Handler{
		store:     store,
		ai:        ai,
		images:    images,
		messenger: messenger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// HandleText completes a text turn. Provider failures become an apology,
// which is recorded in the history like any other reply.
func (h *Handler) HandleText(ctx context.Context, userID, text string) string {
	logger := log.FromCtx(ctx)

	session := h.store.Get(userID)
	askedAt := h.now()

	reply, err := h.complete(ctx, core.CompletionRequest{
		History: session.Turns,
		Input:   []core.Part{core.TextPart(text)},
		Config:  core.TextGeneration,
	})
	h.metrics.CompletionDone(ctx, "text", err)

	if err != nil {
		logger.Error().Err(err).Str("user", userID).Msg("text completion failed")
		reply = TextApology
	}

	h.store.Append(userID,
		core.NewTextTurn(core.RoleUser, text, askedAt),
		core.NewTextTurn(core.RoleModel, reply, h.now()),
	)
	return reply
}

// HandleImage downloads the attachment and asks the provider about it.
func (h *Handler) HandleImage(ctx context.Context, userID, imageURL, caption string) string {
	logger := log.FromCtx(ctx).With().Str("user", userID).Logger()
	askedAt := h.now()

	img, err := h.images.DownloadImage(ctx, imageURL)
	if err != nil {
		logger.Error().Err(err).Msg("failed to download image")
		return h.imageFailed(userID, caption, askedAt)
	}

	prompt := caption
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultImagePrompt
	}
	input := []core.Part{core.ImagePart(img), core.TextPart(prompt)}

	session := h.store.Get(userID)
	reply, err := h.complete(ctx, core.CompletionRequest{
		History: session.Turns,
		Input:   input,
		Config:  core.ImageGeneration,
	})
	h.metrics.CompletionDone(ctx, "image", err)

	if err != nil {
		logger.Error().Err(err).Msg("image completion failed")
		return h.imageFailed(userID, caption, askedAt)
	}

	h.store.Append(userID,
		core.Turn{Role: core.RoleUser, Parts: input, Timestamp: askedAt},
		core.NewTextTurn(core.RoleModel, reply, h.now()),
	)
	return reply
}

func (h *Handler) imageFailed(userID, caption string, askedAt time.Time) string {
	var turns []core.Turn
	if strings.TrimSpace(caption) != "" {
		turns = append(turns, core.NewTextTurn(core.RoleUser, caption, askedAt))
	}
	turns = append(turns, core.NewTextTurn(core.RoleModel, ImageApology, h.now()))
	h.store.Append(userID, turns...)
	return ImageApology
}

// HandleUnsupported answers a message with no usable content. The reply is
// recorded as a model turn; the completion provider is not called.
func (h *Handler) HandleUnsupported(ctx context.Context, userID string) string {
	h.store.Append(userID, core.NewTextTurn(core.RoleModel, UnsupportedReply, h.now()))
	return UnsupportedReply
}

// Deliver sends reply in order as chunks of at most conv.MessengerTextLimit characters.
func (h *Handler) Deliver(ctx context.Context, userID, reply string) error {
	chunks := conv.Chunk(reply, conv.MessengerTextLimit)

	sent := 0
	defer func() { h.metrics.ChunksSent(ctx, sent) }()

	for i, chunk := range chunks {
		if err := h.messenger.SendText(ctx, userID, chunk); err != nil {
			return fmt.Errorf("failed to deliver chunk %d/%d: %w", i+1, len(chunks), err)
		}
		sent++
	}
	return nil
}
