package conversations

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/tripsmith/server/internal/core/error"
	"github.com/tripsmith/server/internal/planner/model"
	"github.com/tripsmith/server/internal/planner/repo"
)

func TestEnsureTripCreatesFromParams(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(repo.NewMemoryTripRepository())

	trip, err := mgr.EnsureTrip(ctx, model.TurnInput{
		ThreadID: "t-1",
		Params: &model.TripParams{
			OriginCity:  "Bangkok",
			Destination: "Tokyo",
			StartDate:   "2026-09-01",
			EndDate:     "2026-09-07",
			Adults:      2,
			Budget:      3000,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, trip)
	assert.Equal(t, "Tokyo", trip.Params.Destination)
	assert.False(t, trip.InitialPlanComplete)

	// Second turn finds the persisted record
	again, err := mgr.EnsureTrip(ctx, model.TurnInput{ThreadID: "t-1", Query: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", again.Params.Destination)
}

func TestEnsureTripRejectsUnknownThread(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(repo.NewMemoryTripRepository())

	_, err := mgr.EnsureTrip(ctx, model.TurnInput{ThreadID: "ghost", Query: "anything there?"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err, http.StatusInternalServerError))
}

func TestHistoryAppendsInOrder(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(repo.NewMemoryTripRepository())

	require.NoError(t, mgr.AppendUserTurn(ctx, "t-1", "first question"))
	require.NoError(t, mgr.SaveAssistantTurn(ctx, "t-1", "first answer"))
	require.NoError(t, mgr.AppendUserTurn(ctx, "t-1", "second question"))

	history, err := mgr.History(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, "first answer", history[1].Content)
	assert.Equal(t, "second question", history[2].Content)

	count, err := mgr.TurnCount(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
