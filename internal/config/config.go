package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	RelayURL      string
	RoundSeconds  int
	AnswerOptions int
	Reconnect     time.Duration
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "3001")
	c.RelayURL = getenv("RELAY_URL", "ws://localhost:3001/ws")
	c.RoundSeconds = getint("ROUND_SECONDS", 60)
	c.AnswerOptions = getint("ANSWER_OPTIONS", 8)
	c.Reconnect = time.Duration(getint("RECONNECT_MS", 1500)) * time.Millisecond
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
