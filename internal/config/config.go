package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port          int
	StreamBitrate int     // bits per second for MP3 and Opus listeners
	RefreshRate   float64 // manual live refreshes allowed per second

	// Sonification defaults
	Tempo      int // bpm
	Scale      string
	Instrument string
	BaseOctave int
	NoteLength string // "8n", "4n." ...
	Volume     float64
	MaxVoices  int

	// Live data
	LiveBuffer      int           // points kept in live mode
	LiveInterval    time.Duration // time between live updates
	LiveBasePrice   float64       // simulator starting price
	LiveFailureRate float64       // simulated fetch failure probability
	LiveAPIURL      string        // quote API; empty uses the simulator
	LiveAPIKey      string
	LiveSymbol      string

	Debug bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:          envInt("SONIGRAPH_PORT", 8080),
		StreamBitrate: envInt("SONIGRAPH_STREAM_BITRATE", 128000),
		RefreshRate:   envFloat("SONIGRAPH_REFRESH_RATE", 2),

		Tempo:      envInt("SONIGRAPH_TEMPO", 120),
		Scale:      envStr("SONIGRAPH_SCALE", "major"),
		Instrument: envStr("SONIGRAPH_INSTRUMENT", "piano"),
		BaseOctave: envInt("SONIGRAPH_BASE_OCTAVE", 4),
		NoteLength: envStr("SONIGRAPH_NOTE_LENGTH", "8n"),
		Volume:     envFloat("SONIGRAPH_VOLUME", 0.2),
		MaxVoices:  envInt("SONIGRAPH_MAX_VOICES", 64),

		LiveBuffer:      envInt("SONIGRAPH_LIVE_BUFFER", 150),
		LiveInterval:    envDuration("SONIGRAPH_LIVE_INTERVAL", 60*time.Second),
		LiveBasePrice:   envFloat("SONIGRAPH_LIVE_BASE_PRICE", 100),
		LiveFailureRate: envFloat("SONIGRAPH_LIVE_FAILURE_RATE", 0),
		LiveAPIURL:      envStr("SONIGRAPH_LIVE_API_URL", ""),
		LiveAPIKey:      envStr("SONIGRAPH_LIVE_API_KEY", ""),
		LiveSymbol:      envStr("SONIGRAPH_LIVE_SYMBOL", "DEMO"),

		Debug: envBool("SONIGRAPH_DEBUG", false),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envDuration accepts Go durations ("90s", "2m") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
