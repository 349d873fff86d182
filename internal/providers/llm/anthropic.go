package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/sandevgo/hashia/internal/core"
)

type Anthropic struct {
	client            anthropic.Client
	model             string
	systemInstruction string
}

func NewAnthropic(baseURL, apiKey, model, systemInstruction string, timeout time.Duration) *Anthropic {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Anthropic{
		client:            anthropic.NewClient(opts...),
		model:             model,
		systemInstruction: systemInstruction,
	}
}

func (a *Anthropic) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		Messages:    toAnthropicMessages(req.History, req.Input),
		MaxTokens:   int64(req.Config.MaxOutputTokens),
		Temperature: anthropic.Float(req.Config.Temperature),
	}
	if params.MaxTokens <= 0 {
		params.MaxTokens = 1024
	}
	if req.Config.TopK > 0 {
		params.TopK = anthropic.Int(int64(req.Config.TopK))
	}
	if a.systemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: a.systemInstruction},
		}
	}

	response, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create message: %w", err)
	}

	content := ""
	for _, block := range response.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += b.Text
		}
	}
	if content == "" {
		return "", fmt.Errorf("empty completion (stop reason %q)", response.StopReason)
	}
	return content, nil
}

// toAnthropicMessages builds an alternating user/assistant sequence starting
// with a user message, merging adjacent turns of the same role.
func toAnthropicMessages(history []core.Turn, input []core.Part) []anthropic.MessageParam {
	turns := append(append([]core.Turn{}, history...), core.Turn{Role: core.RoleUser, Parts: input})

	var messages []anthropic.MessageParam
	for _, turn := range turns {
		if len(messages) == 0 && turn.Role != core.RoleUser {
			continue
		}

		role := anthropic.MessageParamRoleUser
		if turn.Role == core.RoleModel {
			role = anthropic.MessageParamRoleAssistant
		}

		blocks := toAnthropicBlocks(turn.Parts)
		if len(blocks) == 0 {
			continue
		}

		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			continue
		}
		messages = append(messages, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return messages
}

func toAnthropicBlocks(parts []core.Part) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, p := range parts {
		if p.Image != nil {
			blocks = append(blocks, anthropic.NewImageBlockBase64(p.Image.MIMEType, p.Image.Data))
			continue
		}
		if p.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(p.Text))
		}
	}
	return blocks
}
