// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds everything sage reads at startup.
type Config struct {
	GeminiAPIKey string // required; the only mandatory setting
	TextModel    string // alias for routing/one-shot text, default gemini-flash
	RouterModel  string // generator for routing: gemini-flash, gemini-pro, haiku, sonnet, nova-lite
	VideoModel   string // Veo model ID
	VideosDir    string // where downloaded videos are materialized
}

// Load reads .env (if present) and the environment. A missing
// GEMINI_API_KEY is a fatal configuration error: callers should abort
// startup rather than limp along without a provider credential.
func Load() (Config, error) {
	// Missing .env is fine; explicit env vars always win.
	_ = godotenv.Load()

	cfg := Config{
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		TextModel:    envOr("SAGE_TEXT_MODEL", "gemini-flash"),
		RouterModel:  envOr("SAGE_ROUTER_MODEL", ""),
		VideoModel:   envOr("SAGE_VIDEO_MODEL", "veo-3.0-generate-001"),
		VideosDir:    envOr("SAGE_VIDEOS_DIR", defaultVideosDir()),
	}
	if cfg.RouterModel == "" {
		cfg.RouterModel = cfg.TextModel
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY is not set (export it or add it to .env)")
	}
	return cfg, nil
}

func defaultVideosDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "sage-videos"
	}
	return filepath.Join(cache, "sage", "videos")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
