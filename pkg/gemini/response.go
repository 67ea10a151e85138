package gemini

import (
	"strings"

	"google.golang.org/genai"
)

// FirstCandidate returns the first candidate of resp or nil.
func FirstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	return resp.Candidates[0]
}

// ResponseText concatenates the non-thought text parts of the first
// candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	c := FirstCandidate(resp)
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// BlockReason returns the prompt-feedback block reason of resp, if any.
func BlockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || resp.PromptFeedback == nil {
		return ""
	}
	return string(resp.PromptFeedback.BlockReason)
}
