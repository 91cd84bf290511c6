package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atulbakery/ishan-assistant/src/ai/core"
	_ "github.com/atulbakery/ishan-assistant/src/ai/providers"
	sharedconfig "github.com/atulbakery/ishan-assistant/src/config"
	"github.com/atulbakery/ishan-assistant/src/gateway"
	"github.com/atulbakery/ishan-assistant/src/logging"
	"github.com/atulbakery/ishan-assistant/src/persona"
)

var (
	providersFlag = flag.String("providers", "gemini", "Comma-separated provider list or 'all'")
	modeFlag      = flag.String("mode", "reply", "reply|broadcast|both")
	modelFlag     = flag.String("model", "", "Override model name")
	promptFlag    = flag.String("prompt", defaultPrompt, "Customer message for reply mode")
	topicFlag     = flag.String("topic", defaultTopic, "Topic for broadcast mode")
	timeoutFlag   = flag.Duration("timeout", 45*time.Second, "Per-provider timeout")
	maxLenFlag    = flag.Int("max-bytes", 1200, "Maximum bytes of output to print per response (0=unlimited)")
	verboseFlag   = flag.Bool("v", false, "Log gateway errors")
)

var allProviders = []string{
	"gemini",
	"openai",
}

func main() {
	log.SetFlags(0)
	flag.Parse()

	level := "disabled"
	if *verboseFlag {
		level = "debug"
	}
	logging.Setup(level, true)

	providers := resolveProviders(*providersFlag)
	if len(providers) == 0 {
		log.Fatal("no providers specified")
	}

	mode, err := parseMode(*modeFlag)
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}

	if unknown := unknownProviders(providers, core.Providers()); len(unknown) > 0 {
		log.Fatalf("unknown providers %s (registered: %s)", strings.Join(unknown, ", "), strings.Join(core.Providers(), ", "))
	}

	aiEnv := sharedconfig.LoadAIFromEnv()
	for _, provider := range providers {
		runProvider(provider, mode, aiEnv)
	}
}

func runProvider(provider string, mode runMode, aiEnv sharedconfig.AI) {
	aiEnv.Provider = provider
	aiEnv.Model = *modelFlag
	aiEnv.Timeout = *timeoutFlag
	gw := gateway.New(aiEnv.FactoryConfig())

	fmt.Printf("=== %s ===\n", provider)
	if mode == modeReply || mode == modeBoth {
		executeReplyTest(gw)
	}
	if mode == modeBroadcast || mode == modeBoth {
		executeBroadcastTest(gw)
	}
}

func executeReplyTest(gw *gateway.Gateway) {
	start := time.Now()
	instruction := persona.Default().First().Instruction()
	reply := gw.GenerateReply(context.Background(), nil, *promptFlag, instruction)
	status := "✅"
	if reply.Text == gateway.ReplyFailureText || reply.Text == gateway.EmptyReplyText {
		status = "❌"
	}
	fmt.Printf("reply %s (%.1fs)\n%s\n", status, time.Since(start).Seconds(), truncate(reply.Text, *maxLenFlag))
	if reply.Order != nil {
		fmt.Printf("order: %d item(s), total %d\n", reply.Order.Len(), reply.Order.TotalAmount())
	}
}

func executeBroadcastTest(gw *gateway.Gateway) {
	start := time.Now()
	text := gw.GenerateBroadcast(context.Background(), *topicFlag, "Local families", "")
	status := "✅"
	if text == gateway.BroadcastErrorText || text == gateway.EmptyBroadcastText {
		status = "❌"
	}
	fmt.Printf("broadcast %s (%.1fs)\n%s\n", status, time.Since(start).Seconds(), truncate(text, *maxLenFlag))
}

func unknownProviders(requested, registered []string) []string {
	known := make(map[string]struct{}, len(registered))
	for _, r := range registered {
		known[r] = struct{}{}
	}
	var out []string
	for _, p := range requested {
		if _, ok := known[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func resolveProviders(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.EqualFold(raw, "all") {
		return append([]string{}, allProviders...)
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	var out []string
	seen := map[string]struct{}{}
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func parseMode(input string) (runMode, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "reply":
		return modeReply, nil
	case "broadcast":
		return modeBroadcast, nil
	case "both":
		return modeBoth, nil
	default:
		return modeReply, errors.New("expected reply, broadcast, or both")
	}
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:limit]) + "...(truncated)"
}

type runMode int

const (
	modeReply runMode = iota
	modeBroadcast
	modeBoth
)

const (
	defaultPrompt = "Hi, I'm Priya, 9876543210. I want 2 Black Forest pastries and 1 Red Velvet pastry, please make the bill."
	defaultTopic  = "Fresh Christmas plum cakes now available"
)
