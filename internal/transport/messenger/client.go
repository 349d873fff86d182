package messenger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
	"github.com/sandevgo/hashia/pkg/retry"
)

const (
	DefaultGraphAPIURL = "https://graph.facebook.com/v22.0"

	// maxImageBytes caps attachment downloads.
	maxImageBytes = 25 << 20
	defaultMIME   = "image/jpeg"
)

// GraphError is a non-2xx answer of the Graph API.
type GraphError struct {
	Status  int
	Message string
	Type    string
	Code    int
}

func (e *GraphError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("graph api http %d", e.Status)
	}
	return fmt.Sprintf("graph api http %d: %s (%s, code %d)", e.Status, e.Message, e.Type, e.Code)
}

// temporary reports whether the Graph API may accept the same call later.
func (e *GraphError) temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// NewSendRetryConfig keeps retries short: a user is waiting for the reply.
func NewSendRetryConfig() *retry.Config {
	return &retry.Config{
		MaxRetries:    2,
		BackoffFactor: 2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      3 * time.Second,
		Jitter:        100 * time.Millisecond,
	}
}

// Client calls the Send API and profile API with the page access token.
type Client struct {
	client  *http.Client
	retrier *retry.Retrier
	baseURL string
	token   string
}

func NewClient(baseURL, pageAccessToken string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphAPIURL
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		retrier: retry.NewRetrier(NewSendRetryConfig()),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   pageAccessToken,
	}
}

// WithRetry replaces the retry policy of Graph API posts.
func (c *Client) WithRetry(cfg *retry.Config) *Client {
	c.retrier = retry.NewRetrier(cfg)
	return c
}

type recipient struct {
	ID string `json:"id"`
}

type attachmentPayload struct {
	URL        string `json:"url"`
	IsReusable bool   `json:"is_reusable"`
}

type outAttachment struct {
	Type    string            `json:"type"`
	Payload attachmentPayload `json:"payload"`
}

type outMessage struct {
	Text        string          `json:"text,omitempty"`
	Attachments []outAttachment `json:"attachments,omitempty"`
}

type sendRequest struct {
	MessagingType string      `json:"messaging_type,omitempty"`
	Recipient     recipient   `json:"recipient"`
	Message       *outMessage `json:"message,omitempty"`
	SenderAction  string      `json:"sender_action,omitempty"`
}

func (c *Client) SendText(ctx context.Context, recipientID, text string) error {
	if err := c.post(ctx, "/me/messages", sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   &outMessage{Text: text},
	}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	log.FromCtx(ctx).Debug().Str("recipient", recipientID).Int("len", len(text)).Msg("message sent")
	return nil
}

// SendImages delivers the urls as one batch of image attachments.
func (c *Client) SendImages(ctx context.Context, recipientID string, urls []string) error {
	attachments := make([]outAttachment, 0, len(urls))
	for _, u := range urls {
		attachments = append(attachments, outAttachment{
			Type:    "image",
			Payload: attachmentPayload{URL: u, IsReusable: false},
		})
	}

	if err := c.post(ctx, "/me/messages", sendRequest{
		MessagingType: "RESPONSE",
		Recipient:     recipient{ID: recipientID},
		Message:       &outMessage{Attachments: attachments},
	}); err != nil {
		return fmt.Errorf("failed to send images: %w", err)
	}
	log.FromCtx(ctx).Debug().Str("recipient", recipientID).Int("images", len(urls)).Msg("images sent")
	return nil
}

func (c *Client) TypingOn(ctx context.Context, recipientID string) error {
	return c.senderAction(ctx, recipientID, "typing_on")
}

func (c *Client) TypingOff(ctx context.Context, recipientID string) error {
	return c.senderAction(ctx, recipientID, "typing_off")
}

func (c *Client) senderAction(ctx context.Context, recipientID, action string) error {
	if err := c.post(ctx, "/me/messages", sendRequest{
		Recipient:    recipient{ID: recipientID},
		SenderAction: action,
	}); err != nil {
		return fmt.Errorf("failed to send %s: %w", action, err)
	}
	return nil
}

type menuItem struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

type persistentMenu struct {
	Locale                string     `json:"locale"`
	ComposerInputDisabled bool       `json:"composer_input_disabled"`
	CallToActions         []menuItem `json:"call_to_actions"`
}

// SetupProfile registers the Get Started button and the persistent menu.
func (c *Client) SetupProfile(ctx context.Context) error {
	getStarted := map[string]any{
		"get_started": map[string]string{"payload": core.CmdGetStarted},
	}
	if err := c.post(ctx, "/me/messenger_profile", getStarted); err != nil {
		return fmt.Errorf("failed to set get started button: %w", err)
	}

	menu := map[string]any{
		"persistent_menu": []persistentMenu{{
			Locale:                "default",
			ComposerInputDisabled: false,
			CallToActions: []menuItem{
				{Title: "Pinterest", Type: "postback", Payload: core.CmdPinterest},
				{Title: "Clear Chat History", Type: "postback", Payload: core.CmdClearHistory},
			},
		}},
	}
	if err := c.post(ctx, "/me/messenger_profile", menu); err != nil {
		return fmt.Errorf("failed to set persistent menu: %w", err)
	}

	log.FromCtx(ctx).Info().Msg("messenger profile setup completed")
	return nil
}

// DownloadImage fetches an attachment with the page token and returns it base64 encoded.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) (core.InlineImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return core.InlineImage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", core.BotUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return core.InlineImage{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.InlineImage{}, fmt.Errorf("failed to download image: http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return core.InlineImage{}, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return core.InlineImage{}, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	if len(data) == 0 {
		return core.InlineImage{}, fmt.Errorf("image is empty")
	}

	return core.InlineImage{
		MIMEType: imageMIME(resp.Header.Get("Content-Type")),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

func imageMIME(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return defaultMIME
	}
	return mediaType
}

// post retries network failures, 429 and 5xx answers. Other Graph errors are final.
func (c *Client) post(ctx context.Context, path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	endpoint := c.baseURL + path + "?" + url.Values{"access_token": {c.token}}.Encode()
	return c.retrier.Do(ctx, func() error {
		err := c.postOnce(ctx, endpoint, data)
		var gerr *GraphError
		if errors.As(err, &gerr) && !gerr.temporary() {
			return retry.Permanent(err)
		}
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("path", path).Msg("graph api call failed")
		}
		return err
	})
}

func (c *Client) postOnce(ctx context.Context, endpoint string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respData, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(respData, &apiErr)

	return &GraphError{
		Status:  resp.StatusCode,
		Message: apiErr.Error.Message,
		Type:    apiErr.Error.Type,
		Code:    apiErr.Error.Code,
	}
}
