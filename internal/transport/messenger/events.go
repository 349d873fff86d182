package messenger

import (
	"encoding/json"

	"github.com/sandevgo/hashia/internal/core"
)

// ObjectPage is the only webhook object this server consumes.
const ObjectPage = "page"

type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID        string            `json:"id"`
	Time      int64             `json:"time"`
	Messaging []json.RawMessage `json:"messaging"`
}

type inAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

type inMessage struct {
	MID         string         `json:"mid"`
	Text        string         `json:"text"`
	IsEcho      bool           `json:"is_echo"`
	Attachments []inAttachment `json:"attachments"`
}

type inPostback struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type messagingEvent struct {
	Sender struct {
		ID string `json:"id"`
	} `json:"sender"`
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Timestamp int64       `json:"timestamp"`
	Message   *inMessage  `json:"message"`
	Postback  *inPostback `json:"postback"`
}

// toEvent reduces a messaging event to the fields the relay consumes.
// Echoes of the page's own messages are dropped.
func (e messagingEvent) toEvent() (core.Event, bool) {
	if e.Message != nil && e.Message.IsEcho {
		return core.Event{}, false
	}

	ev := core.Event{SenderID: e.Sender.ID}

	if e.Message != nil {
		ev.HasMessage = true
		ev.Text = e.Message.Text
		for _, a := range e.Message.Attachments {
			ev.Attachments = append(ev.Attachments, core.Attachment{
				Type: a.Type,
				URL:  a.Payload.URL,
			})
		}
	}

	if e.Postback != nil {
		ev.HasPostback = true
		ev.Postback = e.Postback.Payload
	}

	return ev, true
}
