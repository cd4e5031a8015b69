package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScript = `from manim import *

class MyScene(Scene):
    def construct(self):
        circle = Circle()
        self.play(Create(circle))
        self.wait(1)
`

type recordingFinalizer struct {
	mu        sync.Mutex
	completed map[uuid.UUID]string
	failed    map[uuid.UUID]string
	done      chan struct{}
}

func newRecordingFinalizer() *recordingFinalizer {
	return &recordingFinalizer{
		completed: make(map[uuid.UUID]string),
		failed:    make(map[uuid.UUID]string),
		done:      make(chan struct{}, 1),
	}
}

func (f *recordingFinalizer) Completed(id uuid.UUID, videoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[id] = videoURL
	f.done <- struct{}{}
	return nil
}

func (f *recordingFinalizer) Failed(id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[id] = errorMessage
	f.done <- struct{}{}
	return nil
}

func (f *recordingFinalizer) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("renderer never finalized the animation")
	}
}

func TestSimulatedRenderer_ValidScriptCompletes(t *testing.T) {
	fin := newRecordingFinalizer()
	r := NewSimulatedRenderer(fin, time.Millisecond)
	id := uuid.New()

	require.NoError(t, r.Render(id, validScript))
	fin.wait(t)

	fin.mu.Lock()
	defer fin.mu.Unlock()
	assert.Equal(t, DemoVideoURL, fin.completed[id])
	assert.Empty(t, fin.failed)
}

func TestSimulatedRenderer_MalformedScriptFails(t *testing.T) {
	fin := newRecordingFinalizer()
	r := NewSimulatedRenderer(fin, time.Millisecond)
	id := uuid.New()

	require.NoError(t, r.Render(id, "print('not an animation')"))
	fin.wait(t)

	fin.mu.Lock()
	defer fin.mu.Unlock()
	assert.Empty(t, fin.completed)
	assert.Contains(t, fin.failed[id], "Scene class")
}

func TestSimulatedRenderer_ReturnsBeforeResolving(t *testing.T) {
	fin := newRecordingFinalizer()
	r := NewSimulatedRenderer(fin, 100*time.Millisecond)
	id := uuid.New()

	require.NoError(t, r.Render(id, validScript))

	fin.mu.Lock()
	pending := len(fin.completed) == 0 && len(fin.failed) == 0
	fin.mu.Unlock()
	assert.True(t, pending, "render must hand off without blocking on the outcome")

	fin.wait(t)
}

func TestValidateScript(t *testing.T) {
	assert.NoError(t, ValidateScript(validScript))
	assert.Error(t, ValidateScript(""))
	assert.Error(t, ValidateScript("   \n\t"))
	assert.Error(t, ValidateScript("class MyScene:\n    pass"))
	assert.Error(t, ValidateScript("class MyScene(Scene):\n    pass"))
}

func TestServiceRenderer_SubmitsJob(t *testing.T) {
	var got serviceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	r := NewServiceRenderer(srv.URL, "http://api.internal:8080")
	id := uuid.New()

	require.NoError(t, r.Render(id, validScript))
	assert.Equal(t, id.String(), got.AnimationID)
	assert.Equal(t, validScript, got.ScriptContent)
	assert.Equal(t, "http://api.internal:8080/api/animations/render-callback", got.CallbackURL)
}

func TestServiceRenderer_NonAcceptedStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "renderer overloaded"})
	}))
	defer srv.Close()

	r := NewServiceRenderer(srv.URL, "http://api.internal:8080")

	err := r.Render(uuid.New(), validScript)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer overloaded")
}

func TestServiceRenderer_UnreachableServiceIsError(t *testing.T) {
	r := NewServiceRenderer("http://127.0.0.1:1", "http://api.internal:8080")

	err := r.Render(uuid.New(), validScript)
	assert.Error(t, err)
}
