// Package judge assembles moderation requests and obtains a natural-language
// judgement from the backing inference service (AWS Bedrock, Anthropic
// Messages API).
//
// The public contract is fail-soft: Judge always returns a string and never
// an error, because the judgement text is itself user-facing — a degraded
// provider should be visible to the end user, not crash the pipeline.
// Internally failures stay typed until the boundary so they can be logged
// structured.
package judge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// MaxMediaBytes is the per-attachment size ceiling.
const MaxMediaBytes = 5 * 1024 * 1024

// MinMediaBytes is the smallest attachment accepted as a viable image.
const MinMediaBytes = 100

// supportedImageMIMEs are the attachment formats the multimodal model accepts.
var supportedImageMIMEs = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

const analyzePrefix = "Analyze the following content and explain in simple English whether it's fake, spam, or AI-generated, and why:\n\n"

const mediaOnlyInstruction = "Analyze the following image and explain in simple English whether it's fake, manipulated, AI-generated, or authentic, and why. Look for signs of digital manipulation, deepfakes, or artificial generation."

// Media is a single binary attachment. At most one per request.
type Media struct {
	Data []byte
	MIME string
}

// Selection is the model tier chosen for a request. It is a pure function
// of media presence.
type Selection struct {
	ModelID     string
	MaxTokens   int
	Temperature float64
}

// Config configures the judgement client.
type Config struct {
	TextModelID       string  `yaml:"text_model_id"`
	MultimodalModelID string  `yaml:"multimodal_model_id"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	Region            string  `yaml:"region"`
	AccessKey         string  `yaml:"-"`
	SecretKey         string  `yaml:"-"`
}

func (c *Config) defaults() {
	if c.TextModelID == "" {
		c.TextModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if c.MultimodalModelID == "" {
		c.MultimodalModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.2
	}
	if c.Region == "" {
		c.Region = "us-west-2"
	}
}

// Invoker sends one serialized request to a model and returns the raw
// response body. Implementations must be safe for concurrent use.
type Invoker interface {
	Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

// Client builds and sends moderation requests. Construct once at process
// start and share; it holds only stateless handles.
type Client struct {
	cfg     Config
	invoker Invoker
	logger  *slog.Logger
}

// Option overrides parts of a Client, mainly for tests.
type Option func(*Client)

// WithInvoker substitutes the model invoker.
func WithInvoker(inv Invoker) Option {
	return func(c *Client) { c.invoker = inv }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client backed by Bedrock unless an invoker is injected.
func New(cfg Config, opts ...Option) *Client {
	cfg.defaults()
	c := &Client{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	if c.invoker == nil {
		c.invoker = newBedrockInvoker(cfg)
	}
	return c
}

// Select returns the model tier for a request: media selects the multimodal
// model with a raised token budget, text-only selects the text model.
func (c *Client) Select(hasMedia bool) Selection {
	sel := Selection{
		ModelID:     c.cfg.TextModelID,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}
	if hasMedia {
		sel.ModelID = c.cfg.MultimodalModelID
		if sel.MaxTokens < 800 {
			sel.MaxTokens = 800
		}
	}
	return sel
}

// Judge submits text and/or one media attachment and returns the judgement
// string. Validation rejections and provider failures are rendered as
// strings; no provider call is made for invalid input.
func (c *Client) Judge(ctx context.Context, text string, media *Media) string {
	if reject := validate(text, media); reject != "" {
		return reject
	}

	judgement, err := c.invoke(ctx, text, media)
	if err != nil {
		c.logger.Error("judge: provider call failed", "error", err, "has_media", media != nil)
		return fmt.Sprintf("Error during LLM analysis: %s", err)
	}
	return judgement
}

// validate applies the media limits in order. An empty return means the
// request may proceed.
func validate(text string, media *Media) string {
	if media != nil {
		if !strings.HasPrefix(media.MIME, "image/") {
			return fmt.Sprintf("Unsupported media type: %s. Currently only image types are supported.", media.MIME)
		}
		if !supportedMIME(media.MIME) {
			return fmt.Sprintf("Unsupported image format: %s. Supported formats: %s",
				media.MIME, strings.Join(supportedImageMIMEs, ", "))
		}
		if len(media.Data) > MaxMediaBytes {
			return fmt.Sprintf("Image too large: %d bytes. Maximum size: %d bytes (5MB)", len(media.Data), MaxMediaBytes)
		}
		if len(media.Data) < MinMediaBytes {
			return "Image data too small or corrupted"
		}
	}
	if text == "" && media == nil {
		return "No content provided for analysis."
	}
	return ""
}

func supportedMIME(mime string) bool {
	for _, m := range supportedImageMIMEs {
		if m == mime {
			return true
		}
	}
	return false
}

// Anthropic Messages API shapes, Bedrock flavor.

type messagesRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float64   `json:"temperature"`
	Messages         []message `json:"messages"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// invoke builds the ordered content-part list, selects the model tier and
// calls the provider.
func (c *Client) invoke(ctx context.Context, text string, media *Media) (string, error) {
	var parts []contentPart
	if text != "" {
		parts = append(parts, contentPart{Type: "text", Text: analyzePrefix + text})
	}
	if media != nil {
		if text == "" {
			parts = append(parts, contentPart{Type: "text", Text: mediaOnlyInstruction})
		}
		parts = append(parts, contentPart{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: media.MIME,
				Data:      base64.StdEncoding.EncodeToString(media.Data),
			},
		})
	}

	sel := c.Select(media != nil)
	body, err := json.Marshal(messagesRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        sel.MaxTokens,
		Temperature:      sel.Temperature,
		Messages:         []message{{Role: "user", Content: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	c.logger.Debug("judge: invoking model",
		"model_id", sel.ModelID, "has_media", media != nil, "max_tokens", sel.MaxTokens)

	raw, err := c.invoker.Invoke(ctx, sel.ModelID, body)
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", sel.ModelID, err)
	}

	var resp messagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "No response from model.", nil
	}
	return resp.Content[0].Text, nil
}
