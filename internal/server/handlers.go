package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	errx "github.com/tripsmith/server/internal/core/error"
	"github.com/tripsmith/server/internal/planner/model"
	logx "github.com/tripsmith/server/pkg/logger"
)

type createPlanRequest struct {
	OriginCity  string `json:"originCity" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	StartDate   string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Adults      int    `json:"adults" validate:"omitempty,min=1,max=9"`
	Budget      int    `json:"budget" validate:"omitempty,min=0"`

	Foodie        bool `json:"foodie"`
	Entertainment bool `json:"entertainment"`
	Business      bool `json:"business"`

	ThreadID string `json:"threadId"`
}

type createPlanResponse struct {
	ThreadID  string `json:"threadId"`
	Itinerary string `json:"itinerary"`
}

type chatRequest struct {
	ThreadID  string `json:"threadId" validate:"required"`
	UserInput string `json:"userInput" validate:"required"`
}

type chatResponse struct {
	AIMessage string `json:"aiMessage"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	purpose, err := model.ParsePurpose(req.Foodie, req.Entertainment, req.Business)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = uuid.NewString()
	}
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}

	itinerary, err := s.runner.Invoke(r.Context(), model.TurnInput{
		ThreadID: threadID,
		Params: &model.TripParams{
			OriginCity:  req.OriginCity,
			Destination: req.Destination,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			Adults:      adults,
			Budget:      req.Budget,
			Purpose:     purpose,
		},
	})
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("Plan creation failed")
		writeError(w, errx.StatusOf(err, http.StatusBadRequest), "failed to create plan")
		return
	}
	if strings.TrimSpace(itinerary) == "" {
		logx.Error().Str("thread_id", threadID).Msg("Plan creation produced no itinerary")
		writeError(w, http.StatusInternalServerError, "failed to produce an itinerary")
		return
	}

	writeJSON(w, http.StatusOK, createPlanResponse{
		ThreadID:  threadID,
		Itinerary: itinerary,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	answer, err := s.runner.Invoke(r.Context(), model.TurnInput{
		ThreadID: req.ThreadID,
		Query:    req.UserInput,
	})
	if err != nil {
		logx.Error().Err(err).Str("thread_id", req.ThreadID).Msg("Chat turn failed")
		writeError(w, errx.StatusOf(err, http.StatusInternalServerError), "failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{AIMessage: answer})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
