package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// TripRepository is the session/state store. It persists the trip record and
// the append-only conversation history for each thread.
type TripRepository interface {
	// GetTrip loads the trip record for a thread. A missing thread returns
	// (nil, nil) so callers can distinguish absence from failure.
	GetTrip(ctx context.Context, threadID string) (*TripState, error)

	// SaveTrip stores the trip record, replacing any previous version.
	SaveTrip(ctx context.Context, trip *TripState) error

	// AddMessage appends a message to the conversation history for the thread.
	AddMessage(ctx context.Context, threadID string, message *schema.Message) error

	// LoadHistory retrieves the full conversation history for a thread.
	LoadHistory(ctx context.Context, threadID string) (*ConversationHistory, error)

	// GetMessageCount returns the number of messages stored for the thread.
	GetMessageCount(ctx context.Context, threadID string) (int, error)

	// ClearThread removes the trip record and all history for a thread.
	ClearThread(ctx context.Context, threadID string) error
}

// ConversationHistory represents loaded conversation data with metadata.
type ConversationHistory struct {
	ThreadID string
	Messages []*schema.Message
}
