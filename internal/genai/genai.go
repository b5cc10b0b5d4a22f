// Package genai generates conversational replies for students using the OpenAI API.

package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/YoPracticando/PractiBot/internal/models"
)

const (
	// DefaultModel is used when no model override is supplied.
	DefaultModel = openai.ChatModelGPT4oMini

	// DefaultMaxAttempts bounds how many times a completion is retried.
	DefaultMaxAttempts = 3

	// DefaultRetryBaseDelay is the wait before the first retry; it doubles
	// on every subsequent attempt.
	DefaultRetryBaseDelay = time.Second
)

// ErrNoChoicesReturned indicates the API answered without any completion choice.
var ErrNoChoicesReturned = errors.New("no choices returned")

// ErrAPIKeyNotSet indicates neither an option nor the environment supplied a key.
var ErrAPIKeyNotSet = errors.New("OPENAI_API_KEY not set")

// systemPrompt frames the assistant for the vacancy bot audience.
const systemPrompt = `Eres PractiBot, el asistente virtual de Yo Practicando. ` +
	`Ayudas a estudiantes universitarios de México a encontrar prácticas profesionales ` +
	`y servicio social. Responde siempre en español, con un tono cercano y motivador, ` +
	`en mensajes cortos aptos para WhatsApp. Si te comparten vacantes disponibles, ` +
	`básate únicamente en esa información; nunca inventes vacantes ni datos de contacto.`

// FallbackReply is sent when the model cannot be reached after all retries.
const FallbackReply = "Lo siento, estoy teniendo problemas técnicos en este momento. " +
	"Por favor intenta de nuevo en unos minutos, o escribe *ayuda* para ver las opciones disponibles. 🙏"

// chatService defines the minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// openaiChatService adapts the SDK client to chatService.
type openaiChatService struct {
	client openai.Client
}

func (s *openaiChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Opts holds configuration for the GenAI client.
type Opts struct {
	APIKey         string
	Model          openai.ChatModel
	MaxAttempts    int
	RetryBaseDelay time.Duration
}

// Option configures Opts.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the completion model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// WithMaxAttempts overrides how many completion attempts are made.
func WithMaxAttempts(n int) Option {
	return func(o *Opts) { o.MaxAttempts = n }
}

// WithRetryBaseDelay overrides the initial retry delay.
func WithRetryBaseDelay(d time.Duration) Option {
	return func(o *Opts) { o.RetryBaseDelay = d }
}

// Client wraps the OpenAI chat completion service with retry handling.
type Client struct {
	chat           chatService
	model          openai.ChatModel
	maxAttempts    int
	retryBaseDelay time.Duration
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable when no option provides one.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client initialized", "model", cfg.Model, "maxAttempts", cfg.MaxAttempts)
	return &Client{
		chat:           &openaiChatService{client: cli},
		model:          cfg.Model,
		maxAttempts:    cfg.MaxAttempts,
		retryBaseDelay: cfg.RetryBaseDelay,
	}, nil
}

// GenerateReply answers a student message, retrying transient failures with
// exponential backoff. Vacancy context, when present, is appended to the user
// prompt so the model only talks about real postings.
func (c *Client) GenerateReply(ctx context.Context, userMessage string, vacancies []models.Vacancy) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(userMessage, vacancies)),
		},
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		resp, err := c.chat.Create(ctx, params)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", ErrNoChoicesReturned
			}
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}
		lastErr = err
		slog.Warn("GenAI completion attempt failed", "attempt", attempt, "maxAttempts", c.maxAttempts, "error", err)
		if attempt == c.maxAttempts {
			break
		}
		delay := c.retryBaseDelay * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxAttempts, lastErr)
}

// buildUserPrompt appends a plain-text summary of the available vacancies so
// the model grounds its answer in real postings.
func buildUserPrompt(userMessage string, vacancies []models.Vacancy) string {
	if len(vacancies) == 0 {
		return userMessage
	}
	var b strings.Builder
	b.WriteString(userMessage)
	b.WriteString("\n\nVacantes disponibles:\n")
	for _, v := range vacancies {
		fmt.Fprintf(&b, "- %s en %s (%s, %s", v.Title, v.Company, v.Location, models.ModalityLabel(v.Modality))
		if v.URL != "" {
			fmt.Fprintf(&b, ", %s", v.URL)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
