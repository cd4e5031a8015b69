package llm

import (
	"fmt"
	"strings"
	"testing"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_IncludesRolesAndContent(t *testing.T) {
	messages := []db.Message{
		{Role: db.RoleUser, Content: "draw a circle"},
		{Role: db.RoleAssistant, Content: "Here is a circle animation."},
	}

	prompt := BuildPrompt(messages)

	assert.Contains(t, prompt, "user: draw a circle")
	assert.Contains(t, prompt, "assistant: Here is a circle animation.")
	assert.Contains(t, prompt, "NEVER use LaTeX")
}

func TestBuildPrompt_CapsContextAtTenMessages(t *testing.T) {
	var messages []db.Message
	for i := 0; i < 15; i++ {
		messages = append(messages, db.Message{
			Role:    db.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		})
	}

	prompt := BuildPrompt(messages)

	assert.NotContains(t, prompt, "message 4")
	assert.Contains(t, prompt, "message 5")
	assert.Contains(t, prompt, "message 14")
	assert.Equal(t, 10, strings.Count(prompt, "user: message"))
}
