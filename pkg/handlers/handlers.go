package handlers

import (
	"github.com/animateai/animateai-backend/pkg/config"
	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/llm"
	"github.com/animateai/animateai-backend/pkg/render"
	razorpay "github.com/razorpay/razorpay-go"
)

// Generator turns conversation context into explanation text plus optional
// Manim code. Satisfied by *llm.Client.
type Generator interface {
	Generate(messages []db.Message) (*llm.GenerationResult, error)
}

// Handlers bundles the dependencies of the non-static endpoints. Razorpay is
// nil when payment credentials are not configured; the payment endpoints
// then reject requests.
type Handlers struct {
	Config    *config.Config
	Generator Generator
	Renderer  render.Renderer
	Razorpay  *razorpay.Client
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(cfg *config.Config, generator Generator, renderer render.Renderer, razorpayClient *razorpay.Client) *Handlers {
	return &Handlers{
		Config:    cfg,
		Generator: generator,
		Renderer:  renderer,
		Razorpay:  razorpayClient,
	}
}
