package indexing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var (
	// ErrNoRelevantContent is returned by Ask when the service finds no matching chunk.
	ErrNoRelevantContent = errors.New("no relevant content")
	// ErrNotIndexed is returned by DeleteBook when nothing was indexed under the name.
	ErrNotIndexed = errors.New("book not indexed")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("indexing service unavailable")
)

// StatusError is a non-2xx response from the indexing service.
type StatusError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("indexing %s: http status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("indexing %s: http status %d: %s", e.Op, e.StatusCode, e.Detail)
}

// Chunk is an indexed text fragment returned by the debug endpoint.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Options configures the client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RPS caps outgoing requests per second. Zero disables limiting.
	RPS        float64
	HTTPClient *http.Client
}

// Client talks to the remote indexing service.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

// New constructs an indexing client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("INDEX_SERVICE_URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse index service url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "IndexingService",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Client errors mean the service is healthy.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL:     base,
		httpClient:  httpClient,
		breaker:     breaker,
		rateLimiter: limiter,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

type booksResponse struct {
	Books []string `json:"books"`
}

type askRequest struct {
	UserID   string `json:"user_id"`
	BookName string `json:"book_name"`
	Query    string `json:"query"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

type chunksResponse struct {
	Chunks []Chunk `json:"chunks"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// IndexBook uploads the PDF bytes for indexing under (userID, bookName).
func (c *Client) IndexBook(ctx context.Context, userID, bookName string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", bookName)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := w.WriteField("user_id", userID); err != nil {
		return "", fmt.Errorf("write user_id: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var out statusResponse
	if err := c.do(ctx, "index", http.MethodPost, "/books/", w.FormDataContentType(), buf.Bytes(), &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// DeleteBook removes every indexed chunk for (userID, bookName).
func (c *Client) DeleteBook(ctx context.Context, userID, bookName string) error {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("book_name", bookName)

	var out statusResponse
	err := c.do(ctx, "delete", http.MethodPost, "/books/delete", "application/x-www-form-urlencoded", []byte(form.Encode()), &out)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotIndexed, se.Detail)
	}
	return err
}

// ListBooks returns the distinct book names indexed for userID.
func (c *Client) ListBooks(ctx context.Context, userID string) ([]string, error) {
	var out booksResponse
	if err := c.do(ctx, "list", http.MethodGet, "/books/"+url.PathEscape(userID)+"/", "", nil, &out); err != nil {
		return nil, err
	}
	if out.Books == nil {
		out.Books = []string{}
	}
	return out.Books, nil
}

// Ask runs a semantic question against one book.
func (c *Client) Ask(ctx context.Context, userID, bookName, query string) (string, error) {
	payload, err := json.Marshal(askRequest{UserID: userID, BookName: bookName, Query: query})
	if err != nil {
		return "", err
	}

	var out askResponse
	err = c.do(ctx, "ask", http.MethodPost, "/questions/", "application/json", payload, &out)
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrNoRelevantContent, se.Detail)
	}
	if err != nil {
		return "", err
	}
	return out.Answer, nil
}

// IndexedChunks lists the chunks stored for (userID, bookName).
func (c *Client) IndexedChunks(ctx context.Context, userID, bookName string) ([]Chunk, error) {
	var out chunksResponse
	p := "/debug/indexed_chunks/" + url.PathEscape(userID) + "/" + url.PathEscape(bookName)
	if err := c.do(ctx, "chunks", http.MethodGet, p, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Chunks, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body []byte, out any) error {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("indexing %s: rate limit: %w", op, err)
		}
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, op, method, path, contentType, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("indexing %s: %w", op, ErrUnavailable)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path, contentType string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("indexing %s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return fmt.Errorf("indexing %s request timeout: %w", op, err)
		}
		return fmt.Errorf("indexing %s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("indexing %s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed errorResponse
		detail := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &parsed) == nil && parsed.Detail != "" {
			detail = parsed.Detail
		}
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("indexing %s: parse response: %w", op, err)
	}
	return nil
}
