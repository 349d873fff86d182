package core

import "context"

// GenerationConfig holds the sampling parameters of one completion call.
type GenerationConfig struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

var (
	// TextGeneration favours longer, steadier replies.
	TextGeneration = GenerationConfig{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 8192}
	// ImageGeneration keeps image descriptions short.
	ImageGeneration = GenerationConfig{Temperature: 0.4, TopK: 32, TopP: 1, MaxOutputTokens: 1024}
)

type CompletionRequest struct {
	History []Turn
	Input   []Part
	Config  GenerationConfig
}

// Completer produces the model reply for a new input given the prior turns.
// Implementations carry the system instruction themselves.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ImageSearcher returns candidate image URLs for a free-text query.
type ImageSearcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// ImageDownloader fetches attachment content from the messaging platform.
type ImageDownloader interface {
	DownloadImage(ctx context.Context, url string) (InlineImage, error)
}

// Messenger delivers replies to a recipient.
type Messenger interface {
	SendText(ctx context.Context, recipientID, text string) error
	SendImages(ctx context.Context, recipientID string, urls []string) error
	TypingOn(ctx context.Context, recipientID string) error
	TypingOff(ctx context.Context, recipientID string) error
}
