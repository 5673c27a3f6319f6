package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/tripsmith/server/internal/core/error"
	"github.com/tripsmith/server/internal/planner/model"
)

// stubRunner returns a scripted answer or error and records the last input.
type stubRunner struct {
	answer string
	err    error
	lastIn model.TurnInput
}

func (s *stubRunner) Invoke(_ context.Context, in model.TurnInput) (string, error) {
	s.lastIn = in
	return s.answer, s.err
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func validCreateBody() map[string]any {
	return map[string]any{
		"originCity":  "Bangkok",
		"destination": "Tokyo",
		"startDate":   "2026-09-01",
		"endDate":     "2026-09-07",
		"adults":      2,
		"budget":      3000,
		"foodie":      true,
	}
}

func TestCreatePlanSuccess(t *testing.T) {
	runner := &stubRunner{answer: "Day 1: arrive in Tokyo..."}
	srv := New(":0", runner)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/create", validCreateBody())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ThreadID, "a thread id is generated when none is supplied")
	assert.Equal(t, "Day 1: arrive in Tokyo...", resp.Itinerary)

	require.NotNil(t, runner.lastIn.Params)
	assert.Equal(t, model.PurposeFoodie, runner.lastIn.Params.Purpose)
	assert.Equal(t, 2, runner.lastIn.Params.Adults)
	assert.Equal(t, resp.ThreadID, runner.lastIn.ThreadID)
}

func TestCreatePlanKeepsSuppliedThreadID(t *testing.T) {
	runner := &stubRunner{answer: "itinerary"}
	srv := New(":0", runner)

	body := validCreateBody()
	body["threadId"] = "my-thread"
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/create", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createPlanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "my-thread", resp.ThreadID)
}

func TestCreatePlanValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing destination", func(m map[string]any) { delete(m, "destination") }},
		{"bad start date", func(m map[string]any) { m["startDate"] = "Sept 1st" }},
		{"zero adults allowed but negative rejected", func(m map[string]any) { m["adults"] = -1 }},
		{"negative budget", func(m map[string]any) { m["budget"] = -100 }},
		{"two purposes", func(m map[string]any) { m["foodie"] = true; m["business"] = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{answer: "unused"}
			srv := New(":0", runner)

			body := validCreateBody()
			delete(body, "foodie")
			tt.mutate(body)
			rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/create", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreatePlanEmptyItineraryIs500(t *testing.T) {
	runner := &stubRunner{answer: ""}
	srv := New(":0", runner)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/create", validCreateBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChatSuccess(t *testing.T) {
	runner := &stubRunner{answer: "It rains in September, pack a jacket."}
	srv := New(":0", runner)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/chat", map[string]any{
		"threadId":  "t-1",
		"userInput": "what about the weather?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "It rains in September, pack a jacket.", resp.AIMessage)
	assert.Equal(t, "what about the weather?", runner.lastIn.Query)
	assert.Nil(t, runner.lastIn.Params)
}

func TestChatValidation(t *testing.T) {
	srv := New(":0", &stubRunner{})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/chat", map[string]any{"userInput": "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/plan/chat", map[string]any{"threadId": "t-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownThreadPropagatesStatus(t *testing.T) {
	runner := &stubRunner{err: errx.New(nil, http.StatusNotFound, errx.UnknownThreadMessage)}
	srv := New(":0", runner)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/plan/chat", map[string]any{
		"threadId":  "ghost",
		"userInput": "hello?",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	srv := New(":0", &stubRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
