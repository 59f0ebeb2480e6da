//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/flowkit-ai/flowkit/engine"
	"github.com/flowkit-ai/flowkit/execution"
	"github.com/flowkit-ai/flowkit/node"
	"github.com/flowkit-ai/flowkit/stream"
	"github.com/flowkit-ai/flowkit/upload"
)

// PredictionRequest is the prediction endpoint's body.
type PredictionRequest struct {
	Question       string           `json:"question,omitempty"`
	Form           map[string]any   `json:"form,omitempty"`
	HumanInput     *node.HumanInput `json:"humanInput,omitempty"`
	OverrideConfig map[string]any   `json:"overrideConfig,omitempty"`
	Uploads        []upload.Upload  `json:"uploads,omitempty"`
	ChatID         string           `json:"chatId,omitempty"`
	SessionID      string           `json:"sessionId,omitempty"`
	LeadEmail      string           `json:"leadEmail,omitempty"`
	Streaming      bool             `json:"streaming,omitempty"`
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	flowID := mux.Vars(r)["flowID"]
	var req PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	flowData, err := s.flows.FlowData(r.Context(), flowID)
	if errors.Is(err, ErrFlowNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	params := &engine.ExecuteParams{
		FlowID:         flowID,
		FlowData:       flowData,
		Question:       req.Question,
		Form:           req.Form,
		HumanInput:     req.HumanInput,
		OverrideConfig: req.OverrideConfig,
		Uploads:        req.Uploads,
		ChatID:         req.ChatID,
		SessionID:      req.SessionID,
		LeadEmail:      req.LeadEmail,
	}

	var streamer *stream.SSE
	if req.Streaming {
		streamer, err = stream.NewSSE(w)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		params.Streamer = streamer
	}

	// The pool bounds concurrently running executions; the handler waits
	// so the response writer stays valid for streaming.
	type outcome struct {
		result *engine.Result
		err    error
	}
	done := make(chan outcome, 1)
	submitErr := s.pool.Submit(func() {
		res, execErr := s.engine.Execute(r.Context(), params)
		done <- outcome{result: res, err: execErr}
	})
	if submitErr != nil {
		writeError(w, http.StatusServiceUnavailable, submitErr)
		return
	}
	out := <-done

	if req.Streaming {
		// Events already went to the client; close with the result frame.
		if out.err != nil {
			streamer.StreamAgentFlowEvent(params.ChatID, string(execution.StatusError))
			return
		}
		streamer.StreamTokenEvent(out.result.ChatID, out.result.Text)
		return
	}
	if out.err != nil {
		writeError(w, statusFor(out.err), out.err)
		return
	}
	writeJSON(w, http.StatusOK, out.result)
}

// statusFor maps pre-scheduling engine failures to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.As(err, &engine.BadInputError{}),
		errors.As(err, &engine.StartInputError{}),
		errors.As(err, &engine.InvalidResumeError{}),
		errors.As(err, &engine.NodeNotInCheckpointError{}):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	flowID := mux.Vars(r)["flowID"]
	chatID := r.URL.Query().Get("chatId")
	msgs, err := s.chats.List(r.Context(), flowID, chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleExecution(w http.ResponseWriter, r *http.Request) {
	executionID := mux.Vars(r)["executionID"]
	exec, err := s.executions.Get(r.Context(), executionID)
	if errors.Is(err, execution.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, exec)
}
