package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/tripsmith/server/internal/planner/model"
)

// MemoryTripRepository is a process-lifetime, in-memory session store. It has
// no eviction and no persistence across restarts; use the Redis repository
// for anything beyond single-process deployments.
type MemoryTripRepository struct {
	mu       sync.RWMutex
	trips    map[string]*model.TripState
	messages map[string][]*schema.Message
}

func NewMemoryTripRepository() *MemoryTripRepository {
	return &MemoryTripRepository{
		trips:    make(map[string]*model.TripState),
		messages: make(map[string][]*schema.Message),
	}
}

func (r *MemoryTripRepository) GetTrip(_ context.Context, threadID string) (*model.TripState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trip, ok := r.trips[threadID]
	if !ok {
		return nil, nil
	}
	cp := *trip
	return &cp, nil
}

func (r *MemoryTripRepository) SaveTrip(_ context.Context, trip *model.TripState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *trip
	r.trips[trip.ThreadID] = &cp
	return nil
}

func (r *MemoryTripRepository) AddMessage(_ context.Context, threadID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[threadID] = append(r.messages[threadID], message)
	return nil
}

func (r *MemoryTripRepository) LoadHistory(_ context.Context, threadID string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.messages[threadID]
	msgs := make([]*schema.Message, len(src))
	copy(msgs, src)
	return &model.ConversationHistory{ThreadID: threadID, Messages: msgs}, nil
}

func (r *MemoryTripRepository) GetMessageCount(_ context.Context, threadID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.messages[threadID]), nil
}

func (r *MemoryTripRepository) ClearThread(_ context.Context, threadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trips, threadID)
	delete(r.messages, threadID)
	return nil
}

var _ model.TripRepository = (*MemoryTripRepository)(nil)
