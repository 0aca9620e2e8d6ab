package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Schlaumeier5/student-database/internal/llm/prompts"
	"github.com/Schlaumeier5/student-database/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// HintRequest describes the task a student needs help with.
type HintRequest struct {
	Task     model.Task
	Topic    model.Topic
	Subject  string
	Grade    int
	Language string
	Question string
}

// HintResult is the tutor's answer.
type HintResult struct {
	Hint     string `json:"hint"`
	NextStep string `json:"next_step"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api     *openai.Client
	model   string
	variant prompts.HintVariant
}

// New creates a new LLM client that builds prompts with the given hint
// variant.
func New(baseURL, apiKey, modelName, variant string) (*Client, error) {
	if !prompts.IsValidVariant(variant) {
		return nil, fmt.Errorf("%w: hint variant %q", model.ErrValidation, variant)
	}
	if err := prompts.Load(prompts.Templates); err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		variant: prompts.HintVariant(variant),
	}, nil
}

// Ping checks that the endpoint answers and knows the configured model.
func (c *Client) Ping(ctx context.Context) error {
	models, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	for _, m := range models.Models {
		if m.ID == c.model || strings.HasPrefix(m.ID, c.model+":") {
			return nil
		}
	}
	slog.Warn("configured model not listed by endpoint", "model", c.model, "available", len(models.Models))
	return nil
}

// Hint asks the model for a hint on a task. The reply never contains the
// solution as far as the prompt can enforce it.
func (c *Client) Hint(ctx context.Context, req HintRequest) (*HintResult, error) {
	systemPrompt, err := prompts.BuildHintPrompt(c.variant, prompts.HintData{
		Grade:      req.Grade,
		Subject:    req.Subject,
		Topic:      req.Topic.Name,
		TaskName:   req.Task.Name,
		TaskNumber: req.Task.Number,
		Level:      req.Task.Level.String(),
		Language:   languageName(req.Language),
		Question:   req.Question,
	})
	if err != nil {
		return nil, fmt.Errorf("build hint prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM hint response", "task_id", req.Task.ID, "raw", raw)
	return parseHint(raw)
}

func parseHint(raw string) (*HintResult, error) {
	var result HintResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}
	result.Hint = strings.TrimSpace(result.Hint)
	result.NextStep = strings.TrimSpace(result.NextStep)
	if result.Hint == "" {
		return nil, fmt.Errorf("LLM response has no hint (raw: %s)", raw)
	}
	return &result, nil
}

func languageName(tag string) string {
	switch strings.ToLower(tag) {
	case "en":
		return "English"
	default:
		return "German"
	}
}
