package llm

import (
	"regexp"
	"strings"
)

// codeMarker separates the user-facing explanation from the code section in
// the model's response when the model follows the response format.
const codeMarker = "**Manim Code:**"

var (
	pythonFenceRe   = regexp.MustCompile("(?s)```python\\n(.*?)\\n```")
	anyFenceRe      = regexp.MustCompile("(?s)```[a-zA-Z]*\\n?")
	numberedHeadRe  = regexp.MustCompile(`(?m)^\d+\.\s+\*\*.*?\*\*:`)
	bulletPrefixRe  = regexp.MustCompile(`(?m)^\s*[\*\-]\s+`)
	numberPrefixRe  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	excessNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// GenerationResult is what one generation call yields: the explanation shown
// to the user and, when the model produced one, the extracted Manim script.
type GenerationResult struct {
	Explanation string
	ManimCode   string
}

// HasCode reports whether the response carried a Manim script.
func (r *GenerationResult) HasCode() bool {
	return r.ManimCode != ""
}

// ParseResponse splits a raw model response into explanation text and an
// optional Manim script. The script is the body of the first python-tagged
// fenced block; everything before the code marker (or before the fence when
// no marker is present) becomes the explanation.
func ParseResponse(raw string) *GenerationResult {
	result := &GenerationResult{}

	if m := pythonFenceRe.FindStringSubmatch(raw); m != nil {
		result.ManimCode = strings.TrimSpace(m[1])
	}

	explanation := raw
	if idx := strings.Index(explanation, codeMarker); idx >= 0 {
		explanation = explanation[:idx]
	} else if loc := pythonFenceRe.FindStringIndex(explanation); loc != nil {
		explanation = explanation[:loc[0]]
	}

	result.Explanation = cleanExplanation(explanation)
	return result
}

// cleanExplanation strips markdown noise the model tends to emit so the text
// reads naturally in the chat transcript.
func cleanExplanation(text string) string {
	text = anyFenceRe.ReplaceAllString(text, "")
	text = numberedHeadRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = bulletPrefixRe.ReplaceAllString(text, "")
	text = numberPrefixRe.ReplaceAllString(text, "")
	text = excessNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
