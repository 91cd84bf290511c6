package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubClient struct{ cfg FactoryConfig }

func (s *stubClient) Generate(ctx context.Context, req Request) (*Response, error) {
	return &Response{Text: s.cfg.Model}, nil
}

func TestRegistryResolvesAliasesCaseInsensitively(t *testing.T) {
	RegisterProvider("stub-test", func(cfg FactoryConfig) (Client, error) {
		return &stubClient{cfg: cfg}, nil
	}, "Stub-Alias")

	c, err := NewClient(FactoryConfig{Provider: "STUB-ALIAS", Model: "m1"})
	require.NoError(t, err)
	resp, err := c.Generate(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, "m1", resp.Text)
	require.Contains(t, Providers(), "stub-test")

	_, err = NewClient(FactoryConfig{Provider: "missing"})
	require.Error(t, err)
}

func TestResolveModelName(t *testing.T) {
	require.Equal(t, "gemini-2.5-flash", ResolveModelName("Gemini", ""))
	require.Equal(t, "custom", ResolveModelName("gemini", " custom "))
	require.Equal(t, "unknown", ResolveModelName("other", ""))
}

func TestMerge(t *testing.T) {
	d := Options{Model: "a", Temperature: Float(0.7), MaxCompletionTokens: 300, SystemPrompt: "sys"}
	require.Equal(t, d, Merge(d, Options{}))
	got := Merge(d, Options{Model: "b", MaxCompletionTokens: 50})
	require.Equal(t, "b", got.Model)
	require.Equal(t, 50, got.MaxCompletionTokens)
	require.Equal(t, 0.7, *got.Temperature)

	zero := Merge(d, Options{Temperature: Float(0)})
	require.NotNil(t, zero.Temperature)
	require.Zero(t, *zero.Temperature)
	require.Equal(t, 0.7, *d.Temperature)
}

func TestDefaultHelpers(t *testing.T) {
	require.Equal(t, 5, Or(0, 5))
	require.Equal(t, 3, Or(3, 5))
	require.Equal(t, 2*time.Second, Or(-time.Second, 2*time.Second))
	require.Equal(t, 0.7, FloatOr(nil, 0.7))
	require.Zero(t, FloatOr(Float(0), 0.7))
}

func TestResponseCall(t *testing.T) {
	var nilResp *Response
	_, ok := nilResp.Call("x")
	require.False(t, ok)

	r := &Response{Calls: []FunctionCall{{Name: "a"}, {Name: "b", Args: []byte(`{}`)}}}
	c, ok := r.Call("b")
	require.True(t, ok)
	require.Equal(t, "b", c.Name)
}

func TestSchemaJSONSchema(t *testing.T) {
	s := &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"items": {Type: "ARRAY", Description: "list", Items: &Schema{Type: "STRING"}},
		},
		Required: []string{"items"},
	}
	got := s.JSONSchema()
	require.Equal(t, "object", got["type"])
	require.Equal(t, []string{"items"}, got["required"])
	items := got["properties"].(map[string]interface{})["items"].(map[string]interface{})
	require.Equal(t, "array", items["type"])
	require.Equal(t, "list", items["description"])
	require.Equal(t, map[string]interface{}{"type": "string"}, items["items"])

	var nilSchema *Schema
	require.Equal(t, "object", nilSchema.JSONSchema()["type"])
}
