// Package gemini wraps the Google Generative AI SDK for embeddings and
// answer rewriting.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const (
	DefaultEmbedModel = "embedding-001"
	DefaultChatModel  = "gemini-1.5-pro"
	embedTitle        = "book content"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

type Options struct {
	APIKey     string
	EmbedModel string
	ChatModel  string
	// RPM caps outbound requests per minute. Zero means 60.
	RPM int
}

// Client implements llm.Completer and the indexer's Embedder.
type Client struct {
	client     *genai.Client
	embedModel string
	chatModel  string
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if opts.EmbedModel == "" {
		opts.EmbedModel = DefaultEmbedModel
	}
	if opts.ChatModel == "" {
		opts.ChatModel = DefaultChatModel
	}
	if opts.RPM <= 0 {
		opts.RPM = 60
	}
	burst := opts.RPM / 10
	if burst < 1 {
		burst = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		client:     client,
		embedModel: opts.EmbedModel,
		chatModel:  opts.ChatModel,
		breaker:    breaker,
		limiter:    rate.NewLimiter(rate.Limit(float64(opts.RPM)/60.0), burst),
	}, nil
}

// Embed returns the retrieval embedding for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		em := c.client.EmbeddingModel(c.embedModel)
		em.TaskType = genai.TaskTypeRetrievalDocument
		resp, err := em.EmbedContentWithTitle(ctx, embedTitle, genai.Text(text))
		if err != nil {
			return nil, err
		}
		if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Embedding.Values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	return out.([]float32), nil
}

// Complete generates text for prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		model := c.client.GenerativeModel(c.chatModel)
		model.SetTemperature(0.2)
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return nil, err
		}
		text := responseText(resp)
		if text == "" {
			return nil, ErrEmptyResponse
		}
		return text, nil
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return out.(string), nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
