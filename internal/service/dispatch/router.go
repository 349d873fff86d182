package dispatch

import (
	"strings"

	"github.com/sandevgo/hashia/internal/core"
)

const (
	searchPrefix       = "/pinterest"
	AttachmentFallback = "I received an attachment that I cannot process."
)

type RouteKind int

const (
	// RouteIgnore covers events with neither message nor postback (deliveries, reads).
	RouteIgnore RouteKind = iota
	RouteCommand
	RouteSearch
	RouteImage
	RouteText
	RouteUnsupported
)

func (k RouteKind) String() string {
	switch k {
	case RouteCommand:
		return "command"
	case RouteSearch:
		return "search"
	case RouteImage:
		return "image"
	case RouteText:
		return "text"
	case RouteUnsupported:
		return "unsupported"
	default:
		return "ignore"
	}
}

type Route struct {
	Kind     RouteKind
	Command  string
	Query    string
	ImageURL string
	Text     string
}

// Classify decides how an event is handled. It has no side effects.
func Classify(ev core.Event) Route {
	if ev.HasPostback {
		return Route{Kind: RouteCommand, Command: ev.Postback}
	}
	if !ev.HasMessage {
		return Route{Kind: RouteIgnore}
	}

	trimmed := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(strings.ToLower(trimmed), searchPrefix) {
		return Route{Kind: RouteSearch, Query: strings.Join(strings.Fields(trimmed)[1:], " ")}
	}

	for _, a := range ev.Attachments {
		if a.Type == "image" && a.URL != "" {
			return Route{Kind: RouteImage, ImageURL: a.URL, Text: ev.Text}
		}
	}

	if ev.Text != "" {
		return Route{Kind: RouteText, Text: ev.Text}
	}

	// Attachment-only messages record the fallback sentence as the user turn,
	// so the model sees that something was sent.
	if len(ev.Attachments) > 0 {
		return Route{Kind: RouteText, Text: AttachmentFallback}
	}

	return Route{Kind: RouteUnsupported}
}
