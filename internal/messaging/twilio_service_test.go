package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/YoPracticando/PractiBot/internal/phone"
	"github.com/YoPracticando/PractiBot/internal/twiliowhatsapp"
)

// Ensure TwilioService implements Service interface
func TestTwilioService_ImplementsService(t *testing.T) {
	var _ Service = (*TwilioService)(nil)
}

func TestTwilioService_ValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	tests := []struct {
		name      string
		recipient string
		want      string
		wantErr   bool
	}{
		{name: "plus prefix stripped", recipient: "+525551234567", want: "525551234567"},
		{name: "whatsapp prefix stripped", recipient: "whatsapp:+525551234567", want: "525551234567"},
		{name: "empty", recipient: "", wantErr: true},
		{name: "no digits", recipient: "abc", wantErr: true},
		{name: "too short", recipient: "123", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateAndCanonicalizeRecipient(tt.recipient)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.recipient, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTwilioService_SendMessage_Receipt(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(mock)

	if err := svc.SendMessage(context.Background(), "+525551234567", "hola"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if len(mock.SentMessages) != 1 || mock.SentMessages[0].To != "+525551234567" {
		t.Errorf("expected one send to canonical recipient, got %v", mock.SentMessages)
	}
	select {
	case receipt := <-svc.Receipts():
		if receipt.To != "+525551234567" {
			t.Errorf("expected receipt for canonical recipient, got %s", receipt.To)
		}
	default:
		t.Fatal("expected receipt, got none")
	}
}

func TestTwilioService_SendMessage_AfterStop(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "+525551234567", "hola"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}

func TestTwilioWebhookHandler_EmitsResponse(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+525551234567")
	form.Set("Body", "hola, busco prácticas")
	form.Set("ProfileName", "María")

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.TwilioWebhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	select {
	case resp := <-svc.Responses():
		if resp.From != "+525551234567" {
			t.Errorf("unexpected From: %q", resp.From)
		}
		if resp.Body != "hola, busco prácticas" {
			t.Errorf("unexpected Body: %q", resp.Body)
		}
		if resp.Name != "María" {
			t.Errorf("unexpected Name: %q", resp.Name)
		}
	default:
		t.Fatal("expected emitted response, got none")
	}
}

func TestTwilioWebhookHandler_MissingFields(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+525551234567")

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.TwilioWebhookHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestTwilioWebhookHandler_FromIsCanonicalizable(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	normalizer := phone.NewNormalizer()

	form := url.Values{}
	form.Set("From", "whatsapp:+525551234567")
	form.Set("Body", "hola")

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.TwilioWebhookHandler(rec, req)

	select {
	case resp := <-svc.Responses():
		// The emitted sender must collapse to the same canonical identity
		// the whatsmeow path produces, or mirror reconciliation would
		// duplicate contacts per provider.
		if got := normalizer.Normalize(resp.From); got != "+525551234567" {
			t.Errorf("Normalize(%q) = %q, want +525551234567", resp.From, got)
		}
	default:
		t.Fatal("expected emitted response, got none")
	}
}
