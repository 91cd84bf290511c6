package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	RedisURL          string
	MySQLDSN          string
	JWTSecret         string
	AdminPasswordHash string
	AllowedOrigins    []string
	ShopNumber        string
	MessagingHost     string
	ShopTimezone      string
	ReplyDelayMin     time.Duration
	ReplyDelayMax     time.Duration
	SessionTTL        time.Duration
	PersonaFile       string
	DiscordToken      string
	DiscordChannelID  string
	RateLimit         int
	LogLevel          string
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if n, err := strconv.Atoi(getenv(key, "")); err == nil {
		return n
	}
	return def
}

// getenvDuration accepts Go durations ("90s") or plain milliseconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return def
}

func Load() Config {
	origins := strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		Port:              getenv("PORT", "8080"),
		RedisURL:          getenv("REDIS_URL", ""),
		MySQLDSN:          getenv("MYSQL_DSN", ""),
		JWTSecret:         getenv("JWT_SECRET", ""),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),
		AllowedOrigins:    origins,
		ShopNumber:        getenv("SHOP_NUMBER", ""),
		MessagingHost:     getenv("MESSAGING_HOST", "wa.me"),
		ShopTimezone:      getenv("SHOP_TIMEZONE", "Asia/Kolkata"),
		ReplyDelayMin:     getenvDuration("REPLY_DELAY_MIN", 600*time.Millisecond),
		ReplyDelayMax:     getenvDuration("REPLY_DELAY_MAX", 1600*time.Millisecond),
		SessionTTL:        getenvDuration("SESSION_TTL", 24*time.Hour),
		PersonaFile:       getenv("PERSONA_FILE", ""),
		DiscordToken:      getenv("DISCORD_TOKEN", ""),
		DiscordChannelID:  getenv("DISCORD_CHANNEL_ID", ""),
		RateLimit:         getenvInt("RATE_LIMIT", 20),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}
}
