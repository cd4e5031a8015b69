package config

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL string
	Host        string
	Port        string
	JwtSecret   string

	GeminiAPIKey string

	// RendererURL points at the external Manim render service. When empty
	// the API falls back to the in-process simulated renderer, which is only
	// meant for local development and demos.
	RendererURL        string
	RenderCallbackBase string

	// Razorpay credentials are optional; when absent the payment endpoints
	// reject requests instead of the whole API refusing to boot.
	RazorpayKeyID     string
	RazorpayKeySecret string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warnf("No .env file loaded, relying on process environment: %v", err)
	}

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Host:               os.Getenv("HOST"),
		Port:               os.Getenv("PORT"),
		JwtSecret:          os.Getenv("JWT_SECRET"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		RendererURL:        os.Getenv("RENDERER_URL"),
		RenderCallbackBase: os.Getenv("RENDER_CALLBACK_BASE"),
		RazorpayKeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
	}

	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.JwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set. This is critical for authentication.")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is not set")
	}
	if cfg.RendererURL == "" {
		log.Warn("RENDERER_URL is not set; using the simulated in-process renderer")
	}
	if cfg.RenderCallbackBase == "" {
		cfg.RenderCallbackBase = "http://" + cfg.Host + ":" + cfg.Port
	}
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		log.Warn("Razorpay credentials are not set; payment endpoints are disabled")
	}

	return cfg
}
