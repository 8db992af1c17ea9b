// Package webhook talks to the external automation endpoints that do the
// actual translation, summarization, insight extraction and chat
// answering. The client owns transport concerns only; response bodies go
// back raw and are interpreted by the normalizer.
package webhook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/jordaandigi/pdflingo/config"
	"github.com/jordaandigi/pdflingo/internal/retry"
	"github.com/jordaandigi/pdflingo/pkg/logger"
)

// Client calls the configured automation webhooks.
type Client struct {
	cfg    *config.WebhooksConfig
	http   *http.Client
	retry  retry.Config
	logger logger.Logger
}

func NewClient(cfg *config.WebhooksConfig, log logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout()},
		retry: retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.RetryDelay(),
			Backoff:     cfg.Retry.Backoff,
		},
		logger: log,
	}
}

// Translate forwards the PDF and user id as multipart form data and
// returns the translated binary. When a mirror endpoint is configured it
// receives a copy of the upload; mirror failures are logged, never
// surfaced.
func (c *Client) Translate(ctx context.Context, userID, filename string, content []byte) ([]byte, error) {
	if c.cfg.Mirror.URL != "" {
		go c.notifyMirror(userID, filename, content)
	}

	var translated []byte
	err := retry.Do(ctx, c.retry, func() error {
		body, contentType, err := pdfForm(userID, filename, content)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Translate.URL, body)
		if err != nil {
			return fmt.Errorf("build translate request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("translate request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("translation failed: %s", resp.Status)
		}
		translated, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read translated document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return translated, nil
}

// GenerationRequest identifies the document a summary or insights call
// refers to. Content is only sent in JSON mode.
type GenerationRequest struct {
	UserID   string
	Filename string
	Content  []byte
}

// GenerateSummary calls the summary endpoint and returns the raw body.
func (c *Client) GenerateSummary(ctx context.Context, req GenerationRequest) ([]byte, error) {
	return c.generate(ctx, c.cfg.Summary, "summary", req)
}

// GenerateInsights calls the insights endpoint and returns the raw body.
func (c *Client) GenerateInsights(ctx context.Context, req GenerationRequest) ([]byte, error) {
	return c.generate(ctx, c.cfg.Insights, "insights", req)
}

func (c *Client) generate(ctx context.Context, ep config.EndpointConfig, name string, genReq GenerationRequest) ([]byte, error) {
	var body []byte
	err := retry.Do(ctx, c.retry, func() error {
		req, err := c.generationRequest(ctx, ep, genReq)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("%s generation failed: %s", name, resp.Status)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read %s response: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) generationRequest(ctx context.Context, ep config.EndpointConfig, genReq GenerationRequest) (*http.Request, error) {
	if ep.Mode == config.ModeJSON {
		payload, err := json.Marshal(map[string]string{
			"filename": genReq.Filename,
			"content":  base64.StdEncoding.EncodeToString(genReq.Content),
			"user_id":  genReq.UserID,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal generation payload: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build generation request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	params := url.Values{}
	params.Set("user_id", genReq.UserID)
	params.Set("filename", genReq.Filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	return req, nil
}

// ChatTurn is one prior exchange forwarded as history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries a question plus the document context and history
// the chat endpoint answers against.
type ChatRequest struct {
	Question string
	UserID   string
	Filename string
	Content  []byte
	History  []ChatTurn
}

// Chat posts a question to the chat endpoint and returns the raw body.
func (c *Client) Chat(ctx context.Context, chatReq ChatRequest) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"question": chatReq.Question,
		"document_context": map[string]string{
			"filename": chatReq.Filename,
			"content":  base64.StdEncoding.EncodeToString(chatReq.Content),
		},
		"user_id":      chatReq.UserID,
		"chat_history": chatReq.History,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat payload: %w", err)
	}

	var body []byte
	err = retry.Do(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Chat.URL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build chat request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("chat request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("chat request failed: %s", resp.Status)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read chat response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) notifyMirror(userID, filename string, content []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RequestTimeout())
	defer cancel()

	body, contentType, err := pdfForm(userID, filename, content)
	if err != nil {
		c.logger.Warn("Mirror notification skipped", logger.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Mirror.URL, body)
	if err != nil {
		c.logger.Warn("Mirror notification skipped", logger.Error(err))
		return
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Mirror notification failed",
			logger.String("filename", filename),
			logger.Error(err),
		)
		return
	}
	resp.Body.Close()
}

// pdfForm builds the multipart body the translation pipeline expects:
// the binary under a "PDF" field plus the requesting user id.
func pdfForm(userID, filename string, content []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("PDF", filename)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.WriteField("user_id", userID); err != nil {
		return nil, "", fmt.Errorf("write user field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
