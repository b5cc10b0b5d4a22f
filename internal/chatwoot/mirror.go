package chatwoot

import (
	"context"
	"errors"
	"log/slog"
)

// API is the subset of the Chatwoot client the Mirror needs. It exists so
// the reconciliation logic can be tested against a mock.
type API interface {
	FindOpenConversationForPhone(ctx context.Context, phoneNumber string) (*Conversation, error)
	FindContactByPhone(ctx context.Context, phoneNumber string) (*ContactResult, error)
	CreateContact(ctx context.Context, phoneNumber, name string) (*ContactResult, error)
	CreateConversation(ctx context.Context, contactID int64, phoneNumber, sourceID string) (*Conversation, error)
	PostMessage(ctx context.Context, conversationID int64, content string, direction MessageType) error
}

// Mirror orchestrates incoming-message delivery into the support inbox:
// reconcile contact, reconcile conversation, post message. Delivery is
// best-effort; failures never propagate past Deliver.
type Mirror struct {
	api API
}

// NewMirror creates a Mirror delivering through the given API.
func NewMirror(api API) *Mirror {
	return &Mirror{api: api}
}

// Deliver mirrors one inbound user message into the support inbox. It
// reports success; all failures degrade to false plus a logged diagnostic so
// the primary bot conversation is never blocked.
//
// The open conversation is checked first: most messages arrive within one,
// and contact/conversation creation is comparatively expensive, so the
// common path costs a single listing call.
func (m *Mirror) Deliver(ctx context.Context, phoneNumber, text, name string) bool {
	conv, err := m.api.FindOpenConversationForPhone(ctx, phoneNumber)
	if err == nil {
		if err := m.api.PostMessage(ctx, conv.ID, text, MessageIncoming); err != nil {
			slog.Error("Mirror.Deliver: post to existing conversation failed", "error", err, "conversation_id", conv.ID)
			return false
		}
		return true
	}
	if !errors.Is(err, ErrNotFound) {
		slog.Error("Mirror.Deliver: conversation lookup failed", "error", err, "phone", phoneNumber)
		return false
	}

	contact, err := m.api.FindContactByPhone(ctx, phoneNumber)
	if errors.Is(err, ErrNotFound) {
		contact, err = m.api.CreateContact(ctx, phoneNumber, name)
	}
	if err != nil || contact == nil {
		slog.Error("Mirror.Deliver: no contact obtainable", "error", err, "phone", phoneNumber)
		return false
	}

	conv, err = m.api.CreateConversation(ctx, contact.Contact.ID, phoneNumber, contact.SourceID)
	if err != nil || conv == nil {
		slog.Error("Mirror.Deliver: no conversation obtainable", "error", err, "contact_id", contact.Contact.ID)
		return false
	}

	if err := m.api.PostMessage(ctx, conv.ID, text, MessageIncoming); err != nil {
		slog.Error("Mirror.Deliver: post to new conversation failed", "error", err, "conversation_id", conv.ID)
		return false
	}
	slog.Info("Mirror.Deliver: message mirrored", "conversation_id", conv.ID, "phone", phoneNumber)
	return true
}
