package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandevgo/hashia/internal/core"
)

func TestClassify(t *testing.T) {
	img := core.Attachment{Type: "image", URL: "https://cdn/cat.jpg"}
	file := core.Attachment{Type: "file", URL: "https://cdn/doc.pdf"}

	tests := []struct {
		name  string
		event core.Event
		want  Route
	}{
		{
			name:  "postback",
			event: core.Event{SenderID: "1", Postback: "GET_STARTED", HasPostback: true},
			want:  Route{Kind: RouteCommand, Command: "GET_STARTED"},
		},
		{
			name:  "postback wins over message",
			event: core.Event{SenderID: "1", Text: "hi", HasMessage: true, Postback: "CLEAR_HISTORY", HasPostback: true},
			want:  Route{Kind: RouteCommand, Command: "CLEAR_HISTORY"},
		},
		{
			name:  "search",
			event: core.Event{SenderID: "1", Text: "/pinterest cats", HasMessage: true},
			want:  Route{Kind: RouteSearch, Query: "cats"},
		},
		{
			name:  "search case and spacing",
			event: core.Event{SenderID: "1", Text: "  /PINTEREST   cute   red pandas ", HasMessage: true},
			want:  Route{Kind: RouteSearch, Query: "cute red pandas"},
		},
		{
			name:  "search without query",
			event: core.Event{SenderID: "1", Text: "/pinterest", HasMessage: true},
			want:  Route{Kind: RouteSearch, Query: ""},
		},
		{
			name:  "search prefix wins over image",
			event: core.Event{SenderID: "1", Text: "/pinterest dogs", Attachments: []core.Attachment{img}, HasMessage: true},
			want:  Route{Kind: RouteSearch, Query: "dogs"},
		},
		{
			name:  "image with caption",
			event: core.Event{SenderID: "1", Text: "what is this", Attachments: []core.Attachment{file, img}, HasMessage: true},
			want:  Route{Kind: RouteImage, ImageURL: "https://cdn/cat.jpg", Text: "what is this"},
		},
		{
			name: "first image wins",
			event: core.Event{SenderID: "1", Attachments: []core.Attachment{
				img, {Type: "image", URL: "https://cdn/dog.jpg"},
			}, HasMessage: true},
			want: Route{Kind: RouteImage, ImageURL: "https://cdn/cat.jpg"},
		},
		{
			name:  "text",
			event: core.Event{SenderID: "1", Text: "Hello", HasMessage: true},
			want:  Route{Kind: RouteText, Text: "Hello"},
		},
		{
			name:  "text with non image attachment",
			event: core.Event{SenderID: "1", Text: "see file", Attachments: []core.Attachment{file}, HasMessage: true},
			want:  Route{Kind: RouteText, Text: "see file"},
		},
		{
			name:  "non image attachment only",
			event: core.Event{SenderID: "1", Attachments: []core.Attachment{file}, HasMessage: true},
			want:  Route{Kind: RouteText, Text: AttachmentFallback},
		},
		{
			name:  "empty message",
			event: core.Event{SenderID: "1", HasMessage: true},
			want:  Route{Kind: RouteUnsupported},
		},
		{
			name:  "neither message nor postback",
			event: core.Event{SenderID: "1"},
			want:  Route{Kind: RouteIgnore},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.event))
		})
	}
}

func TestRouteKind_String(t *testing.T) {
	assert.Equal(t, "command", RouteCommand.String())
	assert.Equal(t, "search", RouteSearch.String())
	assert.Equal(t, "image", RouteImage.String())
	assert.Equal(t, "text", RouteText.String())
	assert.Equal(t, "unsupported", RouteUnsupported.String())
	assert.Equal(t, "ignore", RouteIgnore.String())
}
