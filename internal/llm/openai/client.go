package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"library-backend/internal/llm"
)

var apiURL = "https://api.openai.com/v1/chat/completions"

const systemPrompt = "You answer questions about a user's book using only the excerpt provided. Reply in plain prose."

// Client implements llm.Completer using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("OPENAI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// errTemperatureUnsupported marks a model rejecting temperature=0.
var errTemperatureUnsupported = errors.New("temperature unsupported")

// Complete returns the model's answer for prompt. Temperature 0 is sent
// unless the model is known not to support it; a rejection triggers one
// retry without it.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	withTemp := !omitTemperature(c.model)
	out, err := c.completeOnce(ctx, prompt, withTemp)
	if withTemp && errors.Is(err, errTemperatureUnsupported) {
		log.Printf("llm model=%s rejected temperature, retrying without it", c.model)
		out, err = c.completeOnce(ctx, prompt, false)
	}
	return out, err
}

func (c *Client) completeOnce(ctx context.Context, prompt string, withTemp bool) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	if withTemp {
		temp := float32(0)
		reqBody.Temperature = &temp
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		if withTemp && strings.Contains(strings.ToLower(parsed.Error.Message), "temperature") {
			return "", fmt.Errorf("openai: %s: %w", parsed.Error.Message, errTemperatureUnsupported)
		}
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response empty content")
	}
	if parsed.Usage != nil {
		log.Printf("llm response model=%s prompt_hash=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
			c.model, llm.PromptHash(prompt)[:12], parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, parsed.Usage.TotalTokens)
	}
	return content, nil
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

// omitTemperature reports whether model is a GPT-5 variant or listed in LLM_NO_TEMP0_MODELS.
func omitTemperature(model string) bool {
	if isGPT5(model) {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(model))
	for _, m := range strings.Split(os.Getenv("LLM_NO_TEMP0_MODELS"), ",") {
		if strings.ToLower(strings.TrimSpace(m)) == normalized && normalized != "" {
			return true
		}
	}
	return false
}

var _ llm.Completer = (*Client)(nil)
