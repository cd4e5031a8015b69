// Package render dispatches animation scripts to a rendering backend.
//
// Two backends exist: ServiceRenderer hands the script to the external Manim
// render service and expects the outcome on the render callback endpoint,
// while SimulatedRenderer resolves the animation in-process after a short
// delay for local development. Both report outcomes through the guarded
// status transitions, so a late or duplicate completion is dropped instead
// of overwriting a resolved record.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/animateai/animateai-backend/pkg/db/queries"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Renderer initiates rendering of a Manim script for an animation that has
// already transitioned to rendering. Render returns as soon as the job is
// handed off; the outcome arrives asynchronously.
type Renderer interface {
	Render(animationID uuid.UUID, script string) error
}

// Finalizer resolves a rendering animation to its terminal state.
type Finalizer interface {
	Completed(animationID uuid.UUID, videoURL string) error
	Failed(animationID uuid.UUID, errorMessage string) error
}

// StoreFinalizer finalizes animations through the guarded query helpers.
type StoreFinalizer struct{}

func (StoreFinalizer) Completed(animationID uuid.UUID, videoURL string) error {
	return queries.MarkAnimationCompleted(animationID, videoURL)
}

func (StoreFinalizer) Failed(animationID uuid.UUID, errorMessage string) error {
	return queries.MarkAnimationError(animationID, errorMessage)
}

// serviceRequest is the job submission payload for the external render
// service.
type serviceRequest struct {
	AnimationID   string `json:"animation_id"`
	ScriptContent string `json:"script_content"`
	CallbackURL   string `json:"callback_url"`
}

// ServiceRenderer submits render jobs to the external Manim render service.
// The service executes the script, uploads the video and reports the result
// to the callback URL.
type ServiceRenderer struct {
	baseURL     string
	callbackURL string
	client      *http.Client
}

// NewServiceRenderer creates a renderer pointed at the render service.
// callbackBase is this API's externally reachable base URL.
func NewServiceRenderer(baseURL, callbackBase string) *ServiceRenderer {
	return &ServiceRenderer{
		baseURL:     baseURL,
		callbackURL: callbackBase + "/api/animations/render-callback",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Render submits the job and expects 202 Accepted back. Rendering itself
// happens on the service; only the hand-off is synchronous.
func (r *ServiceRenderer) Render(animationID uuid.UUID, script string) error {
	body, err := json.Marshal(serviceRequest{
		AnimationID:   animationID.String(),
		ScriptContent: script,
		CallbackURL:   r.callbackURL,
	})
	if err != nil {
		return fmt.Errorf("failed to encode render request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.baseURL+"/render", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		log.Errorf("Failed to reach render service at %s: %v", r.baseURL, err)
		return fmt.Errorf("failed to reach render service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp["error"]
		if msg == "" {
			msg = "unknown error from render service"
		}
		log.Errorf("Render service returned status %d: %s", resp.StatusCode, msg)
		return fmt.Errorf("render service returned status %d: %s", resp.StatusCode, msg)
	}

	log.Infof("Render job for animation %s accepted by render service.", animationID.String())
	return nil
}

// DemoVideoURL is served by the simulated renderer for successful runs.
const DemoVideoURL = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

// SimulatedRenderer resolves animations in-process after a fixed delay,
// standing in for the real pipeline during local development. The outcome is
// deterministic: scripts without a Manim Scene class fail the way malformed
// generated code fails on the real renderer, everything else completes with
// a demo video.
type SimulatedRenderer struct {
	finalizer Finalizer
	delay     time.Duration
}

// NewSimulatedRenderer creates a simulated renderer resolving through the
// given finalizer after the given delay.
func NewSimulatedRenderer(finalizer Finalizer, delay time.Duration) *SimulatedRenderer {
	return &SimulatedRenderer{finalizer: finalizer, delay: delay}
}

// Render schedules the resolution and returns immediately.
func (r *SimulatedRenderer) Render(animationID uuid.UUID, script string) error {
	log.Infof("Simulated render started for animation %s (resolves in %s).", animationID.String(), r.delay)

	time.AfterFunc(r.delay, func() {
		if err := ValidateScript(script); err != nil {
			if ferr := r.finalizer.Failed(animationID, err.Error()); ferr != nil {
				log.Warnf("Simulated render could not mark animation %s as failed: %v", animationID.String(), ferr)
			}
			return
		}
		if err := r.finalizer.Completed(animationID, DemoVideoURL); err != nil {
			log.Warnf("Simulated render could not mark animation %s as completed: %v", animationID.String(), err)
		}
	})

	return nil
}

// ValidateScript performs the structural checks the render service applies
// before executing a script. A script that fails here would crash Manim.
func ValidateScript(script string) error {
	if strings.TrimSpace(script) == "" {
		return fmt.Errorf("script is empty")
	}
	if !strings.Contains(script, "(Scene)") {
		return fmt.Errorf("script does not define a Scene class")
	}
	if !strings.Contains(script, "def construct(self)") {
		return fmt.Errorf("scene class has no construct method")
	}
	return nil
}
