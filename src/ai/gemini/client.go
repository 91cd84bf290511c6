package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/atulbakery/ishan-assistant/src/ai/core"
	"github.com/atulbakery/ishan-assistant/src/webclient"
)

const (
	defaultModelName   = "gemini-2.5-flash"
	defaultMaxTokens   = 300
	defaultTemperature = 0.7
)

func init() {
	core.RegisterProvider("gemini", newClient, "google")
}

type client struct {
	genai    *genai.Client
	defaults core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.GeminiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: webclient.NewDefault(core.Or(cfg.Timeout, 60*time.Second)),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}

	gc, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := cfg.Model
	if strings.TrimSpace(model) == "" {
		model = defaultModelName
	}

	return &client{
		genai: gc,
		defaults: core.Options{
			Model:               model,
			Temperature:         core.Float(core.FloatOr(cfg.Temperature, defaultTemperature)),
			MaxCompletionTokens: core.Or(cfg.MaxCompletionTokens, defaultMaxTokens),
			SystemPrompt:        cfg.SystemPrompt,
		},
	}, nil
}

func (c *client) Generate(ctx context.Context, req core.Request) (*core.Response, error) {
	merged := core.Merge(c.defaults, req.Options)

	resp, err := c.genai.Models.GenerateContent(ctx, merged.Model, buildContents(req.Turns), buildConfig(merged, req.Functions))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}
	return parseResponse(resp)
}

func buildContents(turns []core.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		var role genai.Role = genai.RoleUser
		if t.Role == core.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

func buildConfig(opts core.Options, functions []core.FunctionDeclaration) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(opts.MaxCompletionTokens),
	}
	if opts.Temperature != nil {
		temp := float32(*opts.Temperature)
		cfg.Temperature = &temp
	}
	if strings.TrimSpace(opts.SystemPrompt) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.Role(genai.RoleUser))
	}
	if len(functions) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(functions))
		for _, f := range functions {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        f.Name,
				Description: f.Description,
				Parameters:  toSchema(f.Parameters),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func toSchema(s *core.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

func parseResponse(resp *genai.GenerateContentResponse) (*core.Response, error) {
	out := &core.Response{}
	if resp == nil || len(resp.Candidates) == 0 {
		return out, nil
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return out, nil
	}

	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini: encode function args: %w", err)
			}
			out.Calls = append(out.Calls, core.FunctionCall{Name: part.FunctionCall.Name, Args: args})
			continue
		}
		if part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	out.Text = text.String()
	return out, nil
}
