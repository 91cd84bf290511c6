package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atulbakery/ishan-assistant/src/ai/core"
)

type AI struct {
	Provider    string
	Model       string
	GeminiKey   string
	OpenAIKey   string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Attempts    int
	Timeout     time.Duration
}

// LoadAIFromEnv provides a simple env-only loader; services can merge DB settings over this.
// API_KEY is the shared credential; provider-specific keys win when set.
func LoadAIFromEnv() AI {
	provider := strings.ToLower(os.Getenv("AI_PROVIDER"))
	if provider == "" {
		provider = "gemini"
	}
	shared := os.Getenv("API_KEY")
	return AI{
		Provider:    provider,
		Model:       core.ResolveModelName(provider, os.Getenv("AI_MODEL")),
		GeminiKey:   firstNonEmpty(os.Getenv("GEMINI_API_KEY"), shared),
		OpenAIKey:   firstNonEmpty(os.Getenv("OPENAI_API_KEY"), shared),
		BaseURL:     os.Getenv("AI_BASE_URL"),
		Temperature: envFloat("AI_TEMPERATURE", 0.7),
		MaxTokens:   envInt("AI_MAX_TOKENS", 300),
		Attempts:    envInt("AI_ATTEMPTS", 1),
		Timeout:     envDuration("GATEWAY_TIMEOUT", 30*time.Second),
	}
}

// FactoryConfig converts the settings into provider construction input.
func (a AI) FactoryConfig() core.FactoryConfig {
	return core.FactoryConfig{
		Provider:            a.Provider,
		Model:               a.Model,
		Temperature:         core.Float(a.Temperature),
		MaxCompletionTokens: a.MaxTokens,
		GeminiKey:           a.GeminiKey,
		OpenAIKey:           a.OpenAIKey,
		BaseURL:             a.BaseURL,
		Timeout:             a.Timeout,
		Attempts:            a.Attempts,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return def
}

// envDuration accepts Go durations ("45s") or plain seconds.
func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
