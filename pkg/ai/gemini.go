package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// Client talks to a Gemini-style generateContent endpoint. Every failure
// path resolves to the Fallback string.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
	log      *zap.Logger
}

// Option tweaks a Client.
type Option func(*Client)

// WithEndpoint overrides the API base URL (used by tests).
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = strings.TrimRight(url, "/") }
}

// WithTimeout bounds a single reply call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a reply client for the given model.
func NewClient(apiKey, model string, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Reply sends the history plus the latest user text and returns the model
// reply, or Fallback on any failure.
func (c *Client) Reply(ctx context.Context, text string, history []Turn) string {
	req := generateRequest{}
	for _, t := range history {
		req.Contents = append(req.Contents, content{Role: string(t.Role), Parts: []part{{Text: t.Text}}})
	}
	req.Contents = append(req.Contents, content{Role: string(RoleUser), Parts: []part{{Text: text}}})

	body, err := json.Marshal(req)
	if err != nil {
		c.log.Warn("reply_marshal_failed", zap.Error(err))
		return Fallback
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.endpoint, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.log.Warn("reply_request_build_failed", zap.Error(err))
		return Fallback
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("reply_call_failed", zap.Error(err))
		return Fallback
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("reply_bad_status", zap.Int("status", resp.StatusCode))
		return Fallback
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.log.Warn("reply_decode_failed", zap.Error(err))
		return Fallback
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		c.log.Warn("reply_empty_candidates")
		return Fallback
	}
	reply := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if reply == "" {
		return Fallback
	}
	return reply
}

var _ Responder = (*Client)(nil)
