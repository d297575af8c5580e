package notification

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event names pushed to subscribers.
const (
	EventRequestStatus = "request.status"
	EventEventState    = "event.state"
	EventPublished     = "event.published"
)

var (
	ErrClientNotFound = errors.New("SSE client not found")
	ErrChannelFull    = errors.New("SSE message channel full")
)

// RequestStatusChanged is sent to the requester and the event initiator.
type RequestStatusChanged struct {
	RequestID int64  `json:"requestId"`
	EventID   int64  `json:"eventId"`
	Status    string `json:"status"`
}

// EventStateChanged is sent to the initiator when moderation changes an event.
type EventStateChanged struct {
	EventID int64  `json:"eventId"`
	State   string `json:"state"`
}

// Client represents an active SSE connection of one user.
type Client struct {
	ClientID    string
	UserID      int64
	ConnectedAt time.Time
	MessageChan chan *Message
}

// NewClient creates a client with a buffered message channel.
func NewClient(clientID string, userID int64) *Client {
	return &Client{
		ClientID:    clientID,
		UserID:      userID,
		ConnectedAt: time.Now().UTC(),
		MessageChan: make(chan *Message, 100),
	}
}

// Close closes the client's message channel
func (c *Client) Close() {
	close(c.MessageChan)
}

// Message represents a message to be sent via SSE
type Message struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage marshals payload into a message for event.
func NewMessage(event string, payload interface{}) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher delivers messages to connected clients without blocking.
type Publisher interface {
	PublishToUser(userID int64, msg *Message)
	PublishToAll(msg *Message)
}
