package core

import (
	"strings"
	"time"
)

const (
	BotName      = "Hashia"
	BotUserAgent = "Hashia-Relay/0.1"
	BotVersion   = "0.1.0"
)

// MaxTurns bounds every session; older turns are evicted first.
const MaxTurns = 40

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// InlineImage is an image carried inside a turn. Data is base64 encoded.
type InlineImage struct {
	MIMEType string `json:"mime_type" yaml:"mime_type"`
	Data     string `json:"data" yaml:"data"`
}

// Part is one piece of turn content: either text or an inline image.
type Part struct {
	Text  string       `json:"text,omitempty" yaml:"text,omitempty"`
	Image *InlineImage `json:"image,omitempty" yaml:"image,omitempty"`
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func ImagePart(img InlineImage) Part {
	return Part{Image: &img}
}

// Turn is one role-tagged message unit. Turns are never mutated after append.
type Turn struct {
	Role      Role      `json:"role" yaml:"role"`
	Parts     []Part    `json:"parts" yaml:"parts"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

func NewTextTurn(role Role, text string, at time.Time) Turn {
	return Turn{Role: role, Parts: []Part{TextPart(text)}, Timestamp: at}
}

// Text joins the text parts of the turn.
func (t Turn) Text() string {
	var texts []string
	for _, p := range t.Parts {
		if p.Image == nil && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Session is the bounded conversation history of one user.
type Session struct {
	UserID string
	Turns  []Turn
}

// Snapshot maps user ids to their turn sequences, oldest first.
type Snapshot map[string][]Turn

// Attachment is an inbound Messenger attachment.
type Attachment struct {
	Type string
	URL  string
}

// Event is one inbound messaging event reduced to the fields the relay consumes.
type Event struct {
	SenderID    string
	Text        string
	Attachments []Attachment
	Postback    string
	HasMessage  bool
	HasPostback bool
}
