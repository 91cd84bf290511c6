package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atulbakery/ishan-assistant/src/ai/core"
	"github.com/atulbakery/ishan-assistant/src/webclient"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultModelName   = "gpt-4o-mini"
	defaultMaxTokens   = 300
	defaultTemperature = 0.7
)

func init() {
	core.RegisterProvider("openai", newClient, "gpt")
}

type client struct {
	apiKey     string
	baseURL    string
	attempts   int
	httpClient *http.Client
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultModelName
	}

	return &client{
		apiKey:     cfg.OpenAIKey,
		baseURL:    base,
		attempts:   core.Or(cfg.Attempts, 1),
		httpClient: webclient.NewDefault(core.Or(cfg.Timeout, 60*time.Second)),
		defaults: core.Options{
			Model:               model,
			Temperature:         core.Float(core.FloatOr(cfg.Temperature, defaultTemperature)),
			MaxCompletionTokens: core.Or(cfg.MaxCompletionTokens, defaultMaxTokens),
			SystemPrompt:        cfg.SystemPrompt,
		},
	}, nil
}

type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *client) Generate(ctx context.Context, req core.Request) (*core.Response, error) {
	merged := core.Merge(c.defaults, req.Options)

	payload := map[string]interface{}{
		"model":      merged.Model,
		"messages":   buildMessages(merged.SystemPrompt, req.Turns),
		"max_tokens": merged.MaxCompletionTokens,
	}
	if merged.Temperature != nil {
		payload["temperature"] = *merged.Temperature
	}
	if tools := buildTools(req.Functions); len(tools) > 0 {
		payload["tools"] = tools
		payload["tool_choice"] = "auto"
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	_, body, err := webclient.DoWithRetry(ctx, c.attempts, 2*time.Second, func() (int, []byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
		if err != nil {
			return 0, nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, b, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
		return resp.StatusCode, b, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	out := &core.Response{}
	if len(result.Choices) == 0 {
		return out, nil
	}
	msg := result.Choices[0].Message
	out.Text = msg.Content
	for _, tc := range msg.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if strings.TrimSpace(tc.Function.Arguments) == "" {
			args = json.RawMessage("{}")
		}
		out.Calls = append(out.Calls, core.FunctionCall{Name: tc.Function.Name, Args: args})
	}
	return out, nil
}

func buildMessages(system string, turns []core.Turn) []chatMessage {
	msgs := make([]chatMessage, 0, len(turns)+1)
	if strings.TrimSpace(system) != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	for _, t := range turns {
		role := "user"
		if t.Role == core.RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: t.Text})
	}
	return msgs
}

func buildTools(functions []core.FunctionDeclaration) []map[string]interface{} {
	if len(functions) == 0 {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(functions))
	for _, f := range functions {
		fn := map[string]interface{}{
			"name":        f.Name,
			"description": f.Description,
		}
		if f.Parameters != nil {
			fn["parameters"] = f.Parameters.JSONSchema()
		}
		out = append(out, map[string]interface{}{
			"type":     "function",
			"function": fn,
		})
	}
	return out
}
