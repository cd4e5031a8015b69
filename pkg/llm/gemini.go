package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/errs"
	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// contextMessages caps how much conversation history goes into a single
// prompt.
const contextMessages = 10

// systemPrompt is the fixed instruction set for educational Manim
// generation. The rules track the capabilities of the render service: no
// LaTeX, a restricted set of positioning and animation calls, one Scene
// class per script.
const systemPrompt = `You are an expert at creating educational animations using Manim. Your role is to create clean, educational, and visually appealing animations that work perfectly with our renderer.

IMPORTANT RULES FOR MANIM CODE GENERATION:

1. NEVER use LaTeX or MathTex:
   - Use Text() with Unicode characters for mathematical expressions
   - Example: Text("a² + b² = c²") instead of MathTex("a^2 + b^2 = c^2")
   - For NumberLine, do NOT use include_numbers=True - create numbers manually with Text()
   - For graphs, use ParametricFunction or FunctionGraph instead of MathTex

2. POSITIONING RULES:
   - Use ONLY these positioning methods:
     * move_to(point) - for absolute positioning
     * next_to(mobject, direction, buff=0.2) - for relative positioning
     * shift(vector) - for small adjustments
   - NEVER use get_bottom_left(), get_top_right(), etc.
   - For relative positioning, use LEFT, RIGHT, UP, DOWN, ORIGIN and vector
     arithmetic (e.g. point + RIGHT * 2)

3. ANIMATION RULES:
   - Use ONLY these animation methods:
     * Create(mobject)
     * Write(mobject)
     * FadeIn(mobject)
     * FadeOut(mobject)
     * Transform(mobject1, mobject2)
   - For movement, use mobject.animate.move_to/shift/next_to
   - Always specify run_time for complex animations
   - NEVER use move_along_path or similar path-following methods
   - For moving objects along curves, use point_from_proportion and move_to

4. CODE STRUCTURE:
   - Single Scene class with a construct(self) method
   - Clear variable names, helpful comments, proper spacing

5. GRAPH ANIMATION RULES:
   - Always create axes first with Axes(), label them with Text()
   - Use FunctionGraph for plotting functions
   - Keep animations simple and clear with appropriate x_range and y_range

RESPONSE FORMAT:
1. Start with a clear, concise description of what the animation will show and how it will help understand the concept.
2. Keep the description focused on the visual elements and learning outcomes, engaging and easy to understand for non-technical users.
3. Avoid technical details, implementation notes, or code explanations in the description.
4. After the description, output the Manim code under a "**Manim Code:**" heading inside a python code fence, separate from the user-facing content.`

// Client wraps the Gemini generative model used to turn conversation
// context into explanation text plus Manim code.
type Client struct {
	model *genai.GenerativeModel
	ctx   context.Context
}

// NewClient creates a Gemini-backed generation client.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is not configured", errs.ErrConfiguration)
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	return &Client{model: model, ctx: ctx}, nil
}

// Generate sends the conversation context to Gemini in a single synchronous
// call and parses the response. At most the last ten messages are included,
// joined as "role: content" lines under the system instruction set. There is
// no streaming and no automatic retry; the caller decides what to do with a
// failure.
func (c *Client) Generate(messages []db.Message) (*GenerationResult, error) {
	prompt := BuildPrompt(messages)
	log.Debugf("Generating animation code from %d context messages.", len(messages))

	resp, err := c.model.GenerateContent(c.ctx, genai.Text(prompt))
	if err != nil {
		log.Errorf("Gemini generation call failed: %v", err)
		return nil, fmt.Errorf("%w: gemini call failed: %v", errs.ErrUpstreamUnavailable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		log.Warn("Gemini returned no candidates or content.")
		return nil, fmt.Errorf("%w: gemini returned no content", errs.ErrUpstreamUnavailable)
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		log.Errorf("Gemini response part is not text: %T", resp.Candidates[0].Content.Parts[0])
		return nil, fmt.Errorf("%w: gemini returned non-text content", errs.ErrUpstreamUnavailable)
	}

	result := ParseResponse(string(text))
	log.Infof("Generation complete. Explanation length: %d, has code: %t", len(result.Explanation), result.HasCode())
	return result, nil
}

// BuildPrompt assembles the single prompt body sent to the model: the fixed
// system instructions followed by the trailing window of the conversation.
func BuildPrompt(messages []db.Message) string {
	if len(messages) > contextMessages {
		messages = messages[len(messages)-contextMessages:]
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nConversation so far:\n")
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
