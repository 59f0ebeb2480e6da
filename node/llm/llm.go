//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package llm implements the model-backed chat node. It calls an
// OpenAI-compatible chat completion API with the node's resolved prompt
// and the running conversation.
package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flowkit-ai/flowkit/flow"
	"github.com/flowkit-ai/flowkit/node"
)

// Name is the logical node name served by this package.
const Name = "llmAgentflow"

const defaultModel = "gpt-4o-mini"

// Options configure the LLM node factory.
type Options struct {
	apiKey       string
	baseURL      string
	defaultModel string
}

// Option mutates Options.
type Option func(*Options)

// WithAPIKey sets the API key. Defaults to OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(o *Options) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.baseURL = url }
}

// WithDefaultModel sets the model used when a node declares none.
func WithDefaultModel(model string) Option {
	return func(o *Options) { o.defaultModel = model }
}

// LLM is the chat-completion node.
type LLM struct {
	client       openai.Client
	defaultModel string
}

// New creates an LLM node.
func New(opts ...Option) *LLM {
	o := Options{
		apiKey:       os.Getenv("OPENAI_API_KEY"),
		defaultModel: defaultModel,
	}
	if env := os.Getenv("OPENAI_MODEL"); env != "" {
		o.defaultModel = env
	}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := []option.RequestOption{option.WithAPIKey(o.apiKey)}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	return &LLM{
		client:       openai.NewClient(clientOpts...),
		defaultModel: o.defaultModel,
	}
}

// Register adds the node to a registry.
func Register(reg *node.Registry, opts ...Option) {
	reg.Register(Name, func() node.Node { return New(opts...) })
}

// Run implements node.Node.
func (l *LLM) Run(ctx context.Context, data *flow.Node, input any, params *node.RunParams) (node.Output, error) {
	model := l.model(data)
	messages := l.buildMessages(data, input, params)
	resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: empty response")
	}
	content := resp.Choices[0].Message.Content
	prompt := l.userContent(data, input, params)
	return node.Output{
		"input": map[string]any{"messages": prompt, "model": model},
		"output": map[string]any{
			"content": content,
		},
		"chatHistory": []any{
			map[string]any{"role": "user", "content": prompt},
			map[string]any{"role": "assistant", "content": content},
		},
	}, nil
}

func (l *LLM) model(data *flow.Node) string {
	if m, ok := data.Inputs["model"].(string); ok && m != "" {
		return m
	}
	return l.defaultModel
}

// buildMessages assembles system message, prior conversation and the
// current user content.
func (l *LLM) buildMessages(data *flow.Node, input any, params *node.RunParams) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if system, ok := data.Inputs["systemMessage"].(string); ok && system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	for _, turn := range params.ChatHistory {
		switch turn.Role {
		case "apiMessage", "assistant":
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(l.userContent(data, input, params)))
	return messages
}

// userContent picks the current user message: an explicit prompt input
// wins, then the aggregated question, then the raw question.
func (l *LLM) userContent(data *flow.Node, input any, params *node.RunParams) string {
	if prompt, ok := data.Inputs["prompt"].(string); ok && prompt != "" {
		return prompt
	}
	if m, ok := input.(map[string]any); ok {
		if q, ok := m["question"].(string); ok && q != "" {
			return q
		}
		if inner, ok := m["output"].(map[string]any); ok {
			if c, ok := inner["content"].(string); ok && c != "" {
				return c
			}
		}
	}
	return params.Question
}
