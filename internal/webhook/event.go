package webhook

// payload mirrors the JSON Chatwoot posts to the webhook endpoint. Two
// historical shapes exist: message fields nested under "message" with the
// conversation object alongside, and a flattened shape where the message
// fields and the contact inbox sit at the top level. Both are decoded here
// and resolved once into an Event; the ambiguity never travels further.
type payload struct {
	Event string `json:"event"`

	// flattened shape
	ID           int64         `json:"id"`
	Content      string        `json:"content"`
	MessageType  string        `json:"message_type"`
	Sender       *sender       `json:"sender"`
	ContactInbox *contactInbox `json:"contact_inbox"`

	// nested shape
	Conversation *conversation `json:"conversation"`
	Message      *message      `json:"message"`
}

type sender struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type contactInbox struct {
	SourceID string `json:"source_id"`
}

type conversation struct {
	ID           int64         `json:"id"`
	InboxID      int64         `json:"inbox_id"`
	ContactInbox *contactInbox `json:"contact_inbox"`
}

type message struct {
	Content     string  `json:"content"`
	MessageType int     `json:"message_type"` // 0 = incoming, 1 = outgoing
	Sender      *sender `json:"sender"`
}

// Event is the canonical internal record resolved from a webhook payload.
type Event struct {
	Name        string
	MessageID   int64
	Content     string
	MessageType string
	SenderType  string
	Phone       string // destination phone, from the contact-inbox source ID
}

// resolve collapses whichever payload shape arrived into one Event.
// Flattened top-level fields win when both shapes are present.
func (p *payload) resolve() Event {
	evt := Event{
		Name:        p.Event,
		MessageID:   p.ID,
		Content:     p.Content,
		MessageType: p.MessageType,
	}
	if p.Sender != nil {
		evt.SenderType = p.Sender.Type
	}

	if p.Message != nil {
		if evt.Content == "" {
			evt.Content = p.Message.Content
		}
		if evt.MessageType == "" {
			if p.Message.MessageType == 1 {
				evt.MessageType = "outgoing"
			} else {
				evt.MessageType = "incoming"
			}
		}
		if evt.SenderType == "" && p.Message.Sender != nil {
			evt.SenderType = p.Message.Sender.Type
		}
	}

	if p.Conversation != nil && p.Conversation.ContactInbox != nil {
		evt.Phone = p.Conversation.ContactInbox.SourceID
	}
	if evt.Phone == "" && p.ContactInbox != nil {
		evt.Phone = p.ContactInbox.SourceID
	}
	return evt
}

// shouldForward reports whether this event is an agent reply that must reach
// the end user. Everything else is acknowledged and dropped: the platform
// echoes the bot's own mirrored messages back through this same channel, and
// forwarding those would loop forever. Sender type "user" is a human agent;
// "contact" is the end user.
func (e Event) shouldForward() bool {
	return e.Name == "message_created" &&
		e.MessageType == "outgoing" &&
		e.SenderType == "user"
}
