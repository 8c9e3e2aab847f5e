// Package mailcapture provides the contact-form mail path. In capture
// mode a local SMTP server accepts messages and files them into the
// snapshot store for inspection; in relay mode messages go out through
// a configured SMTP host.
package mailcapture

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markb/galerie/internal/store"
)

// Message is one captured email.
type Message struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	TextBody   string    `json:"text_body,omitempty"`
	HTMLBody   string    `json:"html_body,omitempty"`
	Raw        []byte    `json:"raw,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Mailbox files captured messages under a single snapshot key, newest
// first.
type Mailbox struct {
	mu sync.Mutex
	db *store.Store
}

func NewMailbox(db *store.Store) *Mailbox {
	return &Mailbox{db: db}
}

// Append stores a message at the front of the capture list.
func (m *Mailbox) Append(msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	var messages []Message
	if _, err := m.db.Get(store.KeyCapturedMail, &messages); err != nil {
		return err
	}
	messages = append([]Message{msg}, messages...)
	return m.db.Set(store.KeyCapturedMail, messages)
}

// List returns all captured messages, newest first.
func (m *Mailbox) List() ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var messages []Message
	if _, err := m.db.Get(store.KeyCapturedMail, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []Message{}
	}
	return messages, nil
}

// Clear empties the mailbox.
func (m *Mailbox) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(store.KeyCapturedMail)
}
