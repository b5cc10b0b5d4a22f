package genai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"

	"github.com/YoPracticando/PractiBot/internal/models"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	failN  int
	calls  int
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.calls++
	m.params = params
	if m.failN > 0 {
		m.failN--
		return openai.ChatCompletion{}, errors.New("transient failure")
	}
	return m.resp, m.err
}

func completionWith(content string) openai.ChatCompletion {
	return openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func testClient(chat chatService) *Client {
	return &Client{
		chat:           chat,
		model:          DefaultModel,
		maxAttempts:    DefaultMaxAttempts,
		retryBaseDelay: time.Millisecond,
	}
}

func TestGenerateReplySuccess(t *testing.T) {
	mock := &mockChatService{resp: completionWith("  ¡Claro que sí!  ")}
	client := testClient(mock)
	out, err := client.GenerateReply(context.Background(), "hola", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "¡Claro que sí!" {
		t.Errorf("expected trimmed reply, got %q", out)
	}
	if mock.calls != 1 {
		t.Errorf("expected a single attempt, got %d", mock.calls)
	}
}

func TestGenerateReplyRetriesThenSucceeds(t *testing.T) {
	mock := &mockChatService{resp: completionWith("listo"), failN: 2}
	client := testClient(mock)
	out, err := client.GenerateReply(context.Background(), "hola", nil)
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if out != "listo" {
		t.Errorf("expected 'listo', got %q", out)
	}
	if mock.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", mock.calls)
	}
}

func TestGenerateReplyExhaustsAttempts(t *testing.T) {
	mock := &mockChatService{err: errors.New("service down")}
	client := testClient(mock)
	_, err := client.GenerateReply(context.Background(), "hola", nil)
	if err == nil || !strings.Contains(err.Error(), "service down") {
		t.Errorf("expected wrapped service error, got %v", err)
	}
	if mock.calls != DefaultMaxAttempts {
		t.Errorf("expected %d attempts, got %d", DefaultMaxAttempts, mock.calls)
	}
}

func TestGenerateReplyNoChoices(t *testing.T) {
	mock := &mockChatService{resp: openai.ChatCompletion{}}
	client := testClient(mock)
	_, err := client.GenerateReply(context.Background(), "hola", nil)
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected ErrNoChoicesReturned, got %v", err)
	}
}

func TestGenerateReplyRespectsContextCancellation(t *testing.T) {
	mock := &mockChatService{err: errors.New("service down")}
	client := &Client{
		chat:           mock,
		model:          DefaultModel,
		maxAttempts:    DefaultMaxAttempts,
		retryBaseDelay: time.Minute,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GenerateReply(ctx, "hola", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("expected retry loop to stop after cancellation, got %d calls", mock.calls)
	}
}

func TestGenerateReplyIncludesVacancyContext(t *testing.T) {
	mock := &mockChatService{resp: completionWith("ok")}
	client := testClient(mock)
	vacancies := []models.Vacancy{
		{Title: "Practicante de Sistemas", Company: "Acme", Location: "Hermosillo", Modality: models.ModalityRemote, URL: "https://example.com/v/1"},
	}
	if _, err := client.GenerateReply(context.Background(), "busco algo remoto", vacancies); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mock.params.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(mock.params.Messages))
	}
	user := mock.params.Messages[1].OfUser
	if user == nil {
		t.Fatal("expected second message to be a user message")
	}
	prompt := user.Content.OfString.Value
	if !strings.Contains(prompt, "Practicante de Sistemas") || !strings.Contains(prompt, "Acme") {
		t.Errorf("expected vacancy context in prompt, got %q", prompt)
	}
}

func TestNewClientNoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if !errors.Is(err, ErrAPIKeyNotSet) {
		t.Errorf("expected ErrAPIKeyNotSet, got %v", err)
	}
}

func TestNewClientWithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"), WithMaxAttempts(5))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli.maxAttempts != 5 {
		t.Errorf("expected maxAttempts 5, got %d", cli.maxAttempts)
	}
	if cli.model != DefaultModel {
		t.Errorf("expected default model, got %v", cli.model)
	}
}
