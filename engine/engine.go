//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package engine interprets an agent flow graph against a chat session.
// One Execute call runs one flow: nodes are dispatched in dependency
// order from a ready queue, fan-in is aggregated through a waiting table,
// decision outputs prune branches, and human-input nodes pause the run
// into a resumable STOPPED checkpoint.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/flowkit-ai/flowkit/chat"
	"github.com/flowkit-ai/flowkit/execution"
	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/log"
	"github.com/flowkit-ai/flowkit/node"
	"github.com/flowkit-ai/flowkit/stream"
	"github.com/flowkit-ai/flowkit/telemetry"
	"github.com/flowkit-ai/flowkit/upload"
	"github.com/flowkit-ai/flowkit/variable"
)

// Engine executes agent flows. It holds only external handles; all
// per-execution state lives in the run, so one Engine serves concurrent
// executions of distinct sessions.
type Engine struct {
	registry   *node.Registry
	executions execution.Store
	chats      chat.Store
	variables  variable.Store
	streamer   stream.Streamer

	overridePatterns []string
	baseURL          string
}

// Option configures an Engine.
type Option func(*Engine)

// WithChatStore sets the chat-message store the engine writes the user
// and api messages through.
func WithChatStore(s chat.Store) Option {
	return func(e *Engine) { e.chats = s }
}

// WithVariableStore sets the global variable store backing $vars.
func WithVariableStore(s variable.Store) Option {
	return func(e *Engine) { e.variables = s }
}

// WithStreamer sets the default event sink, used when a call supplies
// none of its own.
func WithStreamer(s stream.Streamer) Option {
	return func(e *Engine) { e.streamer = s }
}

// WithOverrideAllowlist sets the glob patterns of logical node names that
// accept per-request override configuration. Defaults to all names.
func WithOverrideAllowlist(patterns ...string) Option {
	return func(e *Engine) { e.overridePatterns = patterns }
}

// WithBaseURL sets the public base URL handed to node implementations.
func WithBaseURL(url string) Option {
	return func(e *Engine) { e.baseURL = url }
}

// New creates an Engine over a node registry and an execution store.
func New(registry *node.Registry, executions execution.Store, opts ...Option) *Engine {
	e := &Engine{
		registry:         registry,
		executions:       executions,
		overridePatterns: []string{"*"},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteParams is one prediction request against a flow.
type ExecuteParams struct {
	// FlowID identifies the flow definition.
	FlowID string
	// FlowData is the serialized flow definition.
	FlowData []byte

	// Question is the chat input. Mutually exclusive with Form.
	Question string
	// Form holds starting form values. Mutually exclusive with Question.
	Form map[string]any
	// HumanInput resumes a STOPPED execution at the node it names.
	HumanInput *node.HumanInput
	// OverrideConfig overlays per-request input values onto allowlisted
	// nodes; its "vars" key overlays the global variables.
	OverrideConfig map[string]any

	// Uploads are file attachments to extract text from. UploadedContent
	// short-circuits extraction when the caller already has the text.
	Uploads         []upload.Upload
	UploadedContent string

	// SessionID scopes persisted state; defaults to ChatID.
	SessionID string
	// ChatID identifies the client conversation; generated when empty.
	ChatID string
	// APIMessageID is the id for the final api message; generated when
	// empty.
	APIMessageID string

	// IsInternal marks calls from the hosting UI rather than the API.
	IsInternal bool
	// LeadEmail is the lead-capture address, recorded with the user
	// message when present.
	LeadEmail string

	// Streamer receives this call's events, overriding the engine default.
	Streamer stream.Streamer
}

// Result is the outcome of one Execute call.
type Result struct {
	Text                  string         `json:"text"`
	Question              string         `json:"question,omitempty"`
	Form                  map[string]any `json:"form,omitempty"`
	ChatID                string         `json:"chatId"`
	ChatMessageID         string         `json:"chatMessageId"`
	FollowUpPrompts       string         `json:"followUpPrompts,omitempty"`
	ExecutionID           string         `json:"executionId"`
	SessionID             string         `json:"sessionId,omitempty"`
	AgentFlowExecutedData ExecutedData   `json:"agentFlowExecutedData"`
}

// Execute runs one flow to a terminal state. Pre-scheduling failures
// (bad input, invalid resume) are returned as errors; node failures,
// cancellation and limit overflows are reflected in the terminal status
// of the returned result instead.
func (e *Engine) Execute(ctx context.Context, params *ExecuteParams) (*Result, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "agentflow.execute")
	defer span.End()

	if params.Question != "" && len(params.Form) > 0 {
		return nil, BadInputError{Reason: "question and form are mutually exclusive"}
	}
	g, err := flow.Parse(params.FlowData)
	if err != nil {
		return nil, err
	}

	chatID := params.ChatID
	if chatID == "" {
		chatID = uuid.NewString()
	}
	sessionID := params.SessionID
	if sessionID == "" {
		sessionID = chatID
	}
	apiMessageID := params.APIMessageID
	if apiMessageID == "" {
		apiMessageID = uuid.NewString()
	}
	span.SetAttributes(
		attribute.String("flow.id", params.FlowID),
		attribute.String("flow.session_id", sessionID),
	)

	uploadedContent := params.UploadedContent
	if uploadedContent == "" && len(params.Uploads) > 0 {
		uploadedContent, err = upload.ExtractAll(params.Uploads)
		if err != nil {
			return nil, BadInputError{Reason: err.Error()}
		}
	}

	streamer := params.Streamer
	if streamer == nil {
		streamer = e.streamer
	}
	if streamer == nil {
		streamer = stream.Noop{}
	}

	adj, indegree := g.Adjacency(false)
	reversed, _ := g.Adjacency(true)

	vars, err := e.mergedVariables(ctx, params.OverrideConfig)
	if err != nil {
		return nil, err
	}
	history, err := e.chatHistory(ctx, params.FlowID, chatID)
	if err != nil {
		return nil, err
	}
	runtime := &RuntimeState{
		State:       map[string]any{},
		Form:        params.Form,
		ChatHistory: history,
	}

	var (
		exec       *execution.Execution
		checkpoint ExecutedData
		queue      []queueEntry
	)
	resuming := params.HumanInput != nil && params.HumanInput.StartNodeID != ""
	if resuming {
		exec, checkpoint, err = e.prepareResume(ctx, params, sessionID)
		if err != nil {
			return nil, err
		}
		rehydrate(runtime, checkpoint)
		// Drop the consumed STOPPED entry and seed the queue in one step,
		// so no persisted snapshot ever holds both the stale entry and
		// its replacement.
		checkpoint = dropStoppedEntry(checkpoint, params.HumanInput.StartNodeID)
		queue = []queueEntry{{nodeID: params.HumanInput.StartNodeID}}
		if e.chats != nil {
			if err := e.chats.ClearLatestAction(ctx, params.FlowID, chatID); err != nil {
				log.Warnf("clear latest action: %v", err)
			}
		}
	} else {
		if err := validateStartInput(g, indegree); err != nil {
			return nil, err
		}
		initial, _ := ExecutedData{}.Marshal()
		exec, err = e.executions.Create(ctx, params.FlowID, sessionID, initial)
		if err != nil {
			return nil, fmt.Errorf("create execution: %w", err)
		}
		for _, id := range flow.StartingNodes(indegree) {
			queue = append(queue, queueEntry{nodeID: id})
		}
	}

	e.saveUserMessage(ctx, params, chatID, sessionID, exec.ID)
	streamer.StreamAgentFlowEvent(chatID, string(execution.StatusInProgress))

	rc := &resolveContext{
		question:        params.Question,
		uploadedContent: uploadedContent,
		vars:            vars,
		flowBase:        flowBase(params, chatID, sessionID, apiMessageID),
		runtime:         runtime,
	}
	r := &run{
		eng:      e,
		graph:    g,
		adj:      adj,
		reversed: reversed,
		streamer: streamer,
		chatID:   chatID,
		rc:       rc,
		runtime:  runtime,
		runParams: node.RunParams{
			FlowID:          params.FlowID,
			ChatID:          chatID,
			SessionID:       sessionID,
			APIMessageID:    apiMessageID,
			Question:        params.Question,
			Form:            params.Form,
			UploadedContent: uploadedContent,
			BaseURL:         e.baseURL,
		},
		overrideConfig: params.OverrideConfig,
		humanInput:     params.HumanInput,
		checkpoint:     checkpoint,
		queue:          queue,
		waiting:        make(map[string]*waitingNode),
		loopCounts:     make(map[string]int),
	}
	rc.checkpoint = &r.checkpoint

	schedErr := r.schedule(ctx)

	final := r.checkpoint.FinalStatus()
	var limitErr IterationLimitError
	if errors.As(schedErr, &limitErr) {
		final = execution.StatusError
		log.Errorf("flow %s: %v", params.FlowID, schedErr)
	}
	data, err := r.checkpoint.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := e.executions.Update(ctx, exec.ID, execution.Update{
		State:         &final,
		ExecutionData: data,
	}); err != nil {
		return nil, fmt.Errorf("persist execution: %w", err)
	}
	streamer.StreamAgentFlowEvent(chatID, string(final))
	telemetry.RecordExecution(ctx, params.FlowID, string(final))
	span.SetAttributes(attribute.String("flow.final_status", string(final)))
	if final == execution.StatusError {
		for _, entry := range r.checkpoint {
			if entry.Status == execution.StatusError {
				telemetry.RecordNodeError(ctx, params.FlowID, entry.NodeID)
			}
		}
	}

	text := " "
	if len(r.checkpoint) > 0 {
		if content := r.checkpoint[len(r.checkpoint)-1].Data.Content(); content != "" {
			text = content
		}
	}
	e.saveAPIMessage(ctx, params, chatID, sessionID, apiMessageID, exec.ID, text, r.checkpoint)

	return &Result{
		Text:                  text,
		Question:              params.Question,
		Form:                  runtime.Form,
		ChatID:                chatID,
		ChatMessageID:         apiMessageID,
		ExecutionID:           exec.ID,
		SessionID:             sessionID,
		AgentFlowExecutedData: r.checkpoint,
	}, nil
}

// mergedVariables flattens the variable store and overlays the "vars"
// object of the override config.
func (e *Engine) mergedVariables(ctx context.Context, overrideConfig map[string]any) (map[string]any, error) {
	var vars []variable.Variable
	if e.variables != nil {
		var err error
		vars, err = e.variables.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list variables: %w", err)
		}
	}
	overrides, _ := overrideConfig["vars"].(map[string]any)
	return variable.Merged(vars, overrides), nil
}

func (e *Engine) chatHistory(ctx context.Context, flowID, chatID string) ([]node.ChatTurn, error) {
	if e.chats == nil {
		return nil, nil
	}
	msgs, err := e.chats.List(ctx, flowID, chatID)
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	turns := make([]node.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, node.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns, nil
}

// prepareResume validates the resume request against the latest execution
// of the session and flips it back to INPROGRESS.
func (e *Engine) prepareResume(ctx context.Context, params *ExecuteParams, sessionID string) (*execution.Execution, ExecutedData, error) {
	latest, err := e.executions.LatestBySession(ctx, params.FlowID, sessionID)
	if errors.Is(err, execution.ErrNotFound) {
		return nil, nil, InvalidResumeError{}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load latest execution: %w", err)
	}
	if latest.State != execution.StatusStopped {
		return nil, nil, InvalidResumeError{State: string(latest.State)}
	}
	checkpoint, err := UnmarshalExecutedData(latest.ExecutionData)
	if err != nil {
		return nil, nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if _, ok := checkpoint.LastIndexOf(params.HumanInput.StartNodeID); !ok {
		return nil, nil, NodeNotInCheckpointError{NodeID: params.HumanInput.StartNodeID}
	}
	inProgress := execution.StatusInProgress
	if err := e.executions.Update(ctx, latest.ID, execution.Update{State: &inProgress}); err != nil {
		return nil, nil, fmt.Errorf("reopen execution: %w", err)
	}
	return latest, checkpoint, nil
}

// rehydrate restores the runtime state from the most recent checkpoint
// entry carrying one.
func rehydrate(runtime *RuntimeState, checkpoint ExecutedData) {
	for i := len(checkpoint) - 1; i >= 0; i-- {
		if state, ok := checkpoint[i].Data.StateDelta(); ok {
			runtime.State = state
			return
		}
	}
}

// dropStoppedEntry removes the STOPPED entry for nodeID so its re-run can
// replace it.
func dropStoppedEntry(checkpoint ExecutedData, nodeID string) ExecutedData {
	i, ok := checkpoint.LastIndexOf(nodeID)
	if !ok || checkpoint[i].Status != execution.StatusStopped {
		return checkpoint
	}
	return append(checkpoint[:i:i], checkpoint[i+1:]...)
}

// validateStartInput requires at least one start node that declares its
// input type.
func validateStartInput(g *flow.Graph, indegree map[string]int) error {
	for _, id := range flow.StartingNodes(indegree) {
		n, ok := g.Node(id)
		if !ok || n.Name != flow.NameStart {
			continue
		}
		if t, _ := n.Inputs["startInputType"].(string); t != "" {
			return nil
		}
	}
	return StartInputError{}
}

// flowBase builds the static part of the $flow namespace.
func flowBase(params *ExecuteParams, chatID, sessionID, apiMessageID string) map[string]any {
	base := map[string]any{
		"chatflowid":   params.FlowID,
		"chatId":       chatID,
		"sessionId":    sessionID,
		"apiMessageId": apiMessageID,
	}
	for k, v := range params.OverrideConfig {
		if k == "vars" {
			continue
		}
		base[k] = v
	}
	return base
}

func (e *Engine) saveUserMessage(ctx context.Context, params *ExecuteParams, chatID, sessionID, executionID string) {
	if e.chats == nil {
		return
	}
	content := params.Question
	if content == "" && params.HumanInput != nil {
		content = params.HumanInput.Feedback
		if content == "" {
			content = params.HumanInput.Type
		}
	}
	if content == "" && len(params.Form) > 0 {
		if raw, err := json.Marshal(params.Form); err == nil {
			content = string(raw)
		}
	}
	msg := &chat.Message{
		ChatflowID:  params.FlowID,
		ChatID:      chatID,
		SessionID:   sessionID,
		Role:        chat.RoleUser,
		Content:     content,
		ExecutionID: executionID,
	}
	if err := e.chats.Save(ctx, msg); err != nil {
		log.Warnf("save user message: %v", err)
	}
}

func (e *Engine) saveAPIMessage(ctx context.Context, params *ExecuteParams, chatID, sessionID, apiMessageID, executionID, text string, checkpoint ExecutedData) {
	if e.chats == nil || len(checkpoint) == 0 {
		return
	}
	last := checkpoint[len(checkpoint)-1]
	msg := &chat.Message{
		ID:          apiMessageID,
		ChatflowID:  params.FlowID,
		ChatID:      chatID,
		SessionID:   sessionID,
		Role:        chat.RoleAPI,
		Content:     text,
		ExecutionID: executionID,
	}
	if action, ok := last.Data.HumanInputAction(); ok && last.Status == execution.StatusStopped {
		if raw, err := json.Marshal(action); err == nil {
			msg.Action = string(raw)
		}
	}
	msg.SourceDocuments = marshalPassThrough(last.Data.SourceDocuments())
	msg.UsedTools = marshalPassThrough(last.Data.UsedTools())
	msg.FileAnnotations = marshalPassThrough(last.Data.FileAnnotations())
	msg.Artifacts = marshalPassThrough(last.Data.Artifacts())
	if err := e.chats.Save(ctx, msg); err != nil {
		log.Warnf("save api message: %v", err)
	}
}

func marshalPassThrough(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
