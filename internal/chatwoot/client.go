// Package chatwoot wraps the Chatwoot REST API for mirroring bot traffic
// into a support inbox.
//
// It provides contact and conversation reconciliation keyed on canonical
// phone numbers, and the Mirror orchestrating incoming-message delivery.
package chatwoot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/YoPracticando/PractiBot/internal/phone"
)

// Constants for Chatwoot client configuration
const (
	// DefaultAccountID is used until account discovery resolves the real one.
	DefaultAccountID = "1"
	// DefaultTimeout bounds every upstream call; a hung Chatwoot instance
	// must not stall a conversation turn indefinitely.
	DefaultTimeout = 30 * time.Second
	// maxErrorBodyBytes caps how much of an error response body is retained.
	maxErrorBodyBytes = 2048
)

// MessageType tags the direction of a mirrored message.
type MessageType string

const (
	// MessageIncoming represents a message from the end user.
	MessageIncoming MessageType = "incoming"
	// MessageOutgoing represents a message toward the end user.
	MessageOutgoing MessageType = "outgoing"
)

// Contact is the remote contact entity owned by Chatwoot.
type Contact struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Identifier  string `json:"identifier"`
}

// ContactResult is the outcome of a contact lookup or creation. SourceID is
// the platform-native contact-inbox anchor, present only on creation
// responses; when available it is preferred over the raw phone as the
// conversation source.
type ContactResult struct {
	Contact  Contact
	SourceID string
}

// Conversation is the remote conversation entity owned by Chatwoot.
type Conversation struct {
	ID        int64  `json:"id"`
	InboxID   int64  `json:"inbox_id"`
	ContactID int64  `json:"contact_id"`
	Status    string `json:"status"`
}

// Opts holds configuration options for the Chatwoot client.
type Opts struct {
	BaseURL   string
	APIToken  string
	InboxID   string
	AccountID string
	Timeout   time.Duration
	HTTPDoer  HTTPDoer
}

// Option defines a configuration option for the Chatwoot client.
type Option func(*Opts)

// WithBaseURL sets the Chatwoot instance base URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithAPIToken sets the static API access token.
func WithAPIToken(token string) Option {
	return func(o *Opts) { o.APIToken = token }
}

// WithInboxID sets the inbox all mirrored conversations are bound to.
func WithInboxID(id string) Option {
	return func(o *Opts) { o.InboxID = id }
}

// WithAccountID sets the account ID fallback used before discovery.
func WithAccountID(id string) Option {
	return func(o *Opts) { o.AccountID = id }
}

// WithTimeout sets the per-request upstream timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithHTTPDoer overrides the HTTP client, primarily for tests.
func WithHTTPDoer(d HTTPDoer) Option {
	return func(o *Opts) { o.HTTPDoer = d }
}

// HTTPDoer is the subset of *http.Client the Chatwoot client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the Chatwoot REST API, authenticated via a static token header.
type Client struct {
	baseURL    string
	apiToken   string
	inboxID    string
	httpClient HTTPDoer
	normalizer *phone.Normalizer

	mu        sync.RWMutex
	accountID string
}

// NewClient creates a Chatwoot client, applying any provided options.
// Returns ErrNotConfigured when the connection settings are incomplete;
// callers treat that as "mirror disabled", not a fatal startup error.
func NewClient(normalizer *phone.Normalizer, opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Chatwoot NewClient options set",
		"baseURL_set", cfg.BaseURL != "",
		"apiToken_set", cfg.APIToken != "",
		"inboxID_set", cfg.InboxID != "",
		"accountID", cfg.AccountID,
		"timeout", cfg.Timeout)

	if cfg.BaseURL == "" || cfg.APIToken == "" || cfg.InboxID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.AccountID == "" {
		cfg.AccountID = DefaultAccountID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPDoer
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiToken:   cfg.APIToken,
		inboxID:    cfg.InboxID,
		accountID:  cfg.AccountID,
		httpClient: httpClient,
		normalizer: normalizer,
	}, nil
}

// AccountID returns the account ID currently in use.
func (c *Client) AccountID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accountID
}

func (c *Client) setAccountID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accountID = id
}

// doJSON performs an authenticated request and decodes a 2xx JSON response
// into out. Non-2xx responses become an *UpstreamError.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("chatwoot: marshal request for %s: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("chatwoot: build request for %s: %w", endpoint, err)
	}
	req.Header.Set("api_access_token", c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chatwoot: request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &UpstreamError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chatwoot: decode response from %s: %w", endpoint, err)
	}
	return nil
}

// profileResponse is the shape of GET /api/v1/profile.
type profileResponse struct {
	Name     string `json:"name"`
	Accounts []struct {
		ID int64 `json:"id"`
	} `json:"accounts"`
}

// GetAccountInfo fetches the caller profile and updates the account ID used
// by all subsequent calls. Failures are connectivity-test failures only;
// callers must not treat them as fatal.
func (c *Client) GetAccountInfo(ctx context.Context) error {
	var profile profileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/profile", nil, &profile); err != nil {
		slog.Error("Chatwoot.GetAccountInfo: profile request failed", "error", err)
		return err
	}
	if len(profile.Accounts) > 0 {
		c.setAccountID(strconv.FormatInt(profile.Accounts[0].ID, 10))
		slog.Info("Chatwoot.GetAccountInfo: account discovered", "account_id", c.AccountID())
	} else {
		slog.Warn("Chatwoot.GetAccountInfo: profile carried no accounts, keeping fallback", "account_id", c.AccountID())
	}
	return nil
}

// contactSearchResponse is the shape of GET .../contacts/search.
type contactSearchResponse struct {
	Payload []Contact `json:"payload"`
}

// FindContactByPhone normalizes the phone and queries the contact search.
// Returns ErrNotFound on zero results; never an error for an empty payload.
func (c *Client) FindContactByPhone(ctx context.Context, phoneNumber string) (*ContactResult, error) {
	canonical := c.normalizer.Normalize(phoneNumber)
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/contacts/search?q=%s", c.AccountID(), url.QueryEscape(canonical))

	var search contactSearchResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &search); err != nil {
		slog.Error("Chatwoot.FindContactByPhone: search failed", "error", err, "phone", canonical)
		return nil, err
	}
	if len(search.Payload) == 0 {
		slog.Debug("Chatwoot.FindContactByPhone: no contact found", "phone", canonical)
		return nil, ErrNotFound
	}
	return &ContactResult{Contact: search.Payload[0]}, nil
}

// contactCreateRequest is the body of POST .../contacts.
type contactCreateRequest struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// contactCreateResponse is the shape of POST .../contacts.
type contactCreateResponse struct {
	Payload struct {
		Contact      Contact `json:"contact"`
		ContactInbox struct {
			SourceID string `json:"source_id"`
		} `json:"contact_inbox"`
	} `json:"payload"`
}

// CreateContact submits a contact creation. On a 409/422 conflict (contact
// already exists) it degrades to FindContactByPhone and returns that result;
// the operation always yields either a contact or an explicit failure, never
// a bare conflict error.
func (c *Client) CreateContact(ctx context.Context, phoneNumber, name string) (*ContactResult, error) {
	canonical := c.normalizer.Normalize(phoneNumber)
	if name == "" {
		name = canonical
	}
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/contacts", c.AccountID())
	body := contactCreateRequest{Identifier: canonical, Name: name, PhoneNumber: canonical}

	var created contactCreateResponse
	err := c.doJSON(ctx, http.MethodPost, endpoint, body, &created)
	if err != nil {
		if IsConflict(err) {
			slog.Debug("Chatwoot.CreateContact: contact already exists, falling back to search", "phone", canonical)
			return c.FindContactByPhone(ctx, canonical)
		}
		slog.Error("Chatwoot.CreateContact: creation failed", "error", err, "phone", canonical)
		return nil, err
	}

	slog.Info("Chatwoot.CreateContact: contact created", "contact_id", created.Payload.Contact.ID, "phone", canonical)
	return &ContactResult{
		Contact:  created.Payload.Contact,
		SourceID: created.Payload.ContactInbox.SourceID,
	}, nil
}

// conversationListResponse is the shape of GET .../conversations.
type conversationListResponse struct {
	Data struct {
		Payload []conversationListEntry `json:"payload"`
	} `json:"data"`
}

type conversationListEntry struct {
	Conversation
	Meta struct {
		Sender struct {
			PhoneNumber string `json:"phone_number"`
			Identifier  string `json:"identifier"`
		} `json:"sender"`
	} `json:"meta"`
}

// FindOpenConversationForPhone lists the open conversations of the configured
// inbox and scans for one whose contact phone normalizes to the same
// canonical value. Multiple opens for one phone have no documented tie-break;
// first in listing order wins. Returns ErrNotFound on no match.
func (c *Client) FindOpenConversationForPhone(ctx context.Context, phoneNumber string) (*Conversation, error) {
	canonical := c.normalizer.Normalize(phoneNumber)
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations?status=open&inbox_id=%s", c.AccountID(), url.QueryEscape(c.inboxID))

	var list conversationListResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &list); err != nil {
		slog.Error("Chatwoot.FindOpenConversationForPhone: listing failed", "error", err, "phone", canonical)
		return nil, err
	}

	for i := range list.Data.Payload {
		entry := &list.Data.Payload[i]
		if c.normalizer.Normalize(entry.Meta.Sender.PhoneNumber) == canonical ||
			c.normalizer.Normalize(entry.Meta.Sender.Identifier) == canonical {
			slog.Debug("Chatwoot.FindOpenConversationForPhone: conversation found", "conversation_id", entry.ID, "phone", canonical)
			conv := entry.Conversation
			return &conv, nil
		}
	}
	slog.Debug("Chatwoot.FindOpenConversationForPhone: no open conversation", "phone", canonical)
	return nil, ErrNotFound
}

// conversationCreateRequest is the body of POST .../conversations.
type conversationCreateRequest struct {
	SourceID  string `json:"source_id"`
	InboxID   string `json:"inbox_id"`
	ContactID int64  `json:"contact_id"`
}

// CreateConversation creates a conversation bound to the configured inbox and
// the given contact. sourceID, when available from a prior contact-creation
// response, is preferred over the raw phone as the conversation anchor.
func (c *Client) CreateConversation(ctx context.Context, contactID int64, phoneNumber, sourceID string) (*Conversation, error) {
	anchor := sourceID
	if anchor == "" {
		anchor = c.normalizer.Normalize(phoneNumber)
	}
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations", c.AccountID())
	body := conversationCreateRequest{SourceID: anchor, InboxID: c.inboxID, ContactID: contactID}

	var conv Conversation
	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, &conv); err != nil {
		slog.Error("Chatwoot.CreateConversation: creation failed", "error", err, "contact_id", contactID)
		return nil, err
	}
	slog.Info("Chatwoot.CreateConversation: conversation created", "conversation_id", conv.ID, "contact_id", contactID)
	return &conv, nil
}

// messageCreateRequest is the body of POST .../conversations/{id}/messages.
type messageCreateRequest struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

// PostMessage posts a message tagged incoming or outgoing to a conversation.
func (c *Client) PostMessage(ctx context.Context, conversationID int64, content string, direction MessageType) error {
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/conversations/%d/messages", c.AccountID(), conversationID)
	body := messageCreateRequest{Content: content, MessageType: string(direction)}

	if err := c.doJSON(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		slog.Error("Chatwoot.PostMessage: post failed", "error", err, "conversation_id", conversationID, "direction", direction)
		return err
	}
	slog.Debug("Chatwoot.PostMessage: message posted", "conversation_id", conversationID, "direction", direction)
	return nil
}
