package messaging

import (
	"context"
	"testing"

	"github.com/YoPracticando/PractiBot/internal/models"
	"github.com/YoPracticando/PractiBot/internal/phone"
	"github.com/YoPracticando/PractiBot/internal/whatsapp"
)

// Ensure WhatsAppService implements Service interface
func TestWhatsAppService_ImplementsService(t *testing.T) {
	var _ Service = (*WhatsAppService)(nil)
}

// Test SendMessage canonicalizes the recipient and emits a sent receipt
func TestWhatsAppService_SendMessage_Receipt(t *testing.T) {
	mockClient := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mockClient, phone.NewNormalizer())
	ctx := context.Background()
	if err := svc.SendMessage(ctx, "5551234567", "hola"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	select {
	case receipt := <-svc.Receipts():
		if receipt.To != "+525551234567" {
			t.Errorf("expected canonical receipt.To, got %s", receipt.To)
		}
		if receipt.Status != models.StatusTypeSent {
			t.Errorf("expected receipt.Status %s, got %s", models.StatusTypeSent, receipt.Status)
		}
	default:
		t.Fatal("expected receipt, got none")
	}
}

func TestWhatsAppService_SendMessage_RejectsShortRecipient(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient(), phone.NewNormalizer())
	if err := svc.SendMessage(context.Background(), "12", "hola"); err == nil {
		t.Error("expected validation error for short recipient, got nil")
	}
}

// Test Start and Stop do not error and close channels
func TestWhatsAppService_StartStop(t *testing.T) {
	mockClient := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mockClient, phone.NewNormalizer())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	// After Stop, Receipts and Responses channels should be closed
	receipt, ok := <-svc.Receipts()
	if ok {
		t.Errorf("expected receipts channel closed, got value %v", receipt)
	}
	response, ok := <-svc.Responses()
	if ok {
		t.Errorf("expected responses channel closed, got value %v", response)
	}
}
