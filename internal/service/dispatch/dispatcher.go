package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/telemetry"
	"github.com/sandevgo/hashia/pkg/log"
)

const (
	ErrorReply = "Sorry, I encountered an error processing your message. Please try again."

	DefaultEventTimeout = 2 * time.Minute
	typingTimeout       = 10 * time.Second
)

type Conversation interface {
	HandleText(ctx context.Context, userID, text string) string
	HandleImage(ctx context.Context, userID, imageURL, caption string) string
	HandleUnsupported(ctx context.Context, userID string) string
	Deliver(ctx context.Context, userID, reply string) error
}

type Locker interface {
	Lock(userID string) func()
}

// Dispatcher runs one inbound event end to end: route, handle, deliver.
// Events of the same user never overlap.
type Dispatcher struct {
	locks     Locker
	conv      Conversation
	commands  core.CmdRouter
	messenger core.Messenger
	metrics   *telemetry.Metrics
	timeout   time.Duration
}

func NewDispatcher(
	locks Locker,
	conv Conversation,
	commands core.CmdRouter,
	messenger core.Messenger,
	metrics *telemetry.Metrics,
	timeout time.Duration,
) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultEventTimeout
	}
	return &Dispatcher{
		locks:     locks,
		conv:      conv,
		commands:  commands,
		messenger: messenger,
		metrics:   metrics,
		timeout:   timeout,
	}
}

func (d *Dispatcher) Handle(ctx context.Context, event core.Event) {
	logger := log.FromCtx(ctx).With().Str("user", event.SenderID).Logger()
	ctx = logger.WithContext(ctx)

	if event.SenderID == "" {
		logger.Warn().Msg("event without sender id skipped")
		return
	}

	route := Classify(event)
	if route.Kind == RouteIgnore {
		logger.Debug().Msg("event without message or postback ignored")
		return
	}

	unlock := d.locks.Lock(event.SenderID)
	defer unlock()

	d.metrics.EventRouted(ctx, route.Kind.String())
	logger.Debug().Str("route", route.Kind.String()).Msg("event routed")

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.messenger.TypingOn(ctx, event.SenderID); err != nil {
		logger.Warn().Err(err).Msg("failed to send typing indicator")
	}
	defer d.typingOff(ctx, event.SenderID)

	if err := d.run(ctx, event.SenderID, route); err != nil {
		logger.Error().Err(err).Str("route", route.Kind.String()).Msg("failed to handle event")
		if err := d.messenger.SendText(context.WithoutCancel(ctx), event.SenderID, ErrorReply); err != nil {
			logger.Error().Err(err).Msg("failed to send error reply")
		}
	}
}

// typingOff runs even when the event deadline has passed.
func (d *Dispatcher) typingOff(ctx context.Context, userID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), typingTimeout)
	defer cancel()

	if err := d.messenger.TypingOff(ctx, userID); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to clear typing indicator")
	}
}

func (d *Dispatcher) run(ctx context.Context, userID string, route Route) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.FromCtx(ctx).Error().Str("stack", string(debug.Stack())).Msgf("panic in event handler: %v", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	var reply string
	switch route.Kind {
	case RouteCommand:
		reply = d.commands.Execute(ctx, userID, route.Command, nil)
	case RouteSearch:
		reply = d.commands.Execute(ctx, userID, core.CmdPinterest, strings.Fields(route.Query))
	case RouteImage:
		reply = d.conv.HandleImage(ctx, userID, route.ImageURL, route.Text)
	case RouteText:
		reply = d.conv.HandleText(ctx, userID, route.Text)
	case RouteUnsupported:
		reply = d.conv.HandleUnsupported(ctx, userID)
	}

	if reply == "" {
		return nil
	}
	return d.conv.Deliver(ctx, userID, reply)
}
