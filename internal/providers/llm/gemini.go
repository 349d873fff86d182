package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/hashia/internal/core"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

type Gemini struct {
	baseProvider
	systemInstruction string
}

func NewGemini(baseURL, apiKey, model, systemInstruction string, timeout time.Duration) *Gemini {
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &Gemini{
		baseProvider:      newBaseProvider(strings.TrimRight(baseURL, "/"), apiKey, model, timeout),
		systemInstruction: systemInstruction,
	}
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *Gemini) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	payload := geminiRequest{
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Config.Temperature,
			TopK:            req.Config.TopK,
			TopP:            req.Config.TopP,
			MaxOutputTokens: req.Config.MaxOutputTokens,
		},
	}
	if g.systemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: g.systemInstruction}}}
	}

	for _, turn := range req.History {
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  string(turn.Role),
			Parts: toGeminiParts(turn.Parts),
		})
	}
	payload.Contents = append(payload.Contents, geminiContent{
		Role:  string(core.RoleUser),
		Parts: toGeminiParts(req.Input),
	})

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", url.PathEscape(g.model))
	headers := map[string]string{
		"x-goog-api-key": g.apiKey,
	}

	resp, err := g.doRequest(ctx, http.MethodPost, path, payload, headers)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result geminiResponse
	if err := decodeResponse(resp, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 {
		if reason := result.PromptFeedback.BlockReason; reason != "" {
			return "", fmt.Errorf("prompt blocked: %s", reason)
		}
		return "", errors.New("empty candidates")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty completion (finish reason %q)", result.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}

func toGeminiParts(parts []core.Part) []geminiPart {
	out := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		if p.Image != nil {
			out = append(out, geminiPart{InlineData: &geminiInlineData{
				MimeType: p.Image.MIMEType,
				Data:     p.Image.Data,
			}})
			continue
		}
		out = append(out, geminiPart{Text: p.Text})
	}
	return out
}
