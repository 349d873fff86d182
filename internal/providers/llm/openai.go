package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/sandevgo/hashia/internal/core"
)

// OpenAI talks to the Chat Completions API or any endpoint compatible with it.
type OpenAI struct {
	client            openai.Client
	model             string
	systemInstruction string
}

func NewOpenAI(baseURL, apiKey, model, systemInstruction string, timeout time.Duration) *OpenAI {
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
	return &OpenAI{
		client:            openai.NewClient(opts...),
		model:             model,
		systemInstruction: systemInstruction,
	}
}

func (o *OpenAI) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{}
	if o.systemInstruction != "" {
		messages = append(messages, openai.SystemMessage(o.systemInstruction))
	}

	for _, turn := range req.History {
		switch turn.Role {
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(toOpenAIParts(turn.Parts)))
		case core.RoleModel:
			messages = append(messages, openai.AssistantMessage(turn.Text()))
		}
	}
	messages = append(messages, openai.UserMessage(toOpenAIParts(req.Input)))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(req.Config.Temperature),
	}
	if req.Config.TopP > 0 {
		params.TopP = openai.Float(req.Config.TopP)
	}
	if req.Config.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.Config.MaxOutputTokens))
	}

	response, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	content := response.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty completion (finish reason %q)", response.Choices[0].FinishReason)
	}
	return content, nil
}

func toOpenAIParts(parts []core.Part) []openai.ChatCompletionContentPartUnionParam {
	out := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		if p.Image != nil {
			out = append(out, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:" + p.Image.MIMEType + ";base64," + p.Image.Data,
			}))
			continue
		}
		out = append(out, openai.TextContentPart(p.Text))
	}
	return out
}
