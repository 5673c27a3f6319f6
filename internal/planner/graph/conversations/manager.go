package conversations

import (
	"context"
	"net/http"

	"github.com/cloudwego/eino/schema"

	errx "github.com/tripsmith/server/internal/core/error"
	"github.com/tripsmith/server/internal/planner/model"
	logx "github.com/tripsmith/server/pkg/logger"
)

// Manager mediates all trip-state and conversation-history access for the
// planning graph. Graph nodes never touch the repository directly.
type Manager struct {
	repo model.TripRepository
}

func NewManager(repo model.TripRepository) *Manager {
	return &Manager{repo: repo}
}

// EnsureTrip loads the trip for a turn, creating and persisting a fresh one
// when the turn carries initial plan parameters. A chat turn for a thread
// that was never planned is rejected.
func (m *Manager) EnsureTrip(ctx context.Context, in model.TurnInput) (*model.TripState, error) {
	trip, err := m.repo.GetTrip(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	if trip != nil {
		return trip, nil
	}

	if in.Params == nil {
		logx.Warn().Str("thread_id", in.ThreadID).Msg("chat turn for unknown thread")
		return nil, errx.New(nil, http.StatusNotFound, errx.UnknownThreadMessage)
	}

	trip = &model.TripState{
		ThreadID: in.ThreadID,
		Params:   *in.Params,
	}
	if err := m.repo.SaveTrip(ctx, trip); err != nil {
		return nil, err
	}
	logx.Debug().Str("thread_id", in.ThreadID).Msg("created new trip state")
	return trip, nil
}

// SaveTrip persists the current trip record.
func (m *Manager) SaveTrip(ctx context.Context, trip *model.TripState) error {
	return m.repo.SaveTrip(ctx, trip)
}

// AppendUserTurn records an inbound user message.
func (m *Manager) AppendUserTurn(ctx context.Context, threadID, text string) error {
	return m.repo.AddMessage(ctx, threadID, schema.UserMessage(text))
}

// SaveAssistantTurn records a final assistant answer.
func (m *Manager) SaveAssistantTurn(ctx context.Context, threadID, content string) error {
	return m.repo.AddMessage(ctx, threadID, schema.AssistantMessage(content, nil))
}

// History returns the full stored conversation for a thread.
func (m *Manager) History(ctx context.Context, threadID string) ([]*schema.Message, error) {
	history, err := m.repo.LoadHistory(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return history.Messages, nil
}

// TurnCount returns the number of stored messages for a thread.
func (m *Manager) TurnCount(ctx context.Context, threadID string) (int, error) {
	return m.repo.GetMessageCount(ctx, threadID)
}
