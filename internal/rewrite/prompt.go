package rewrite

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every provider call.
const SystemPrompt = `You are an expert resume writer. You rewrite resume sections so they speak to a specific job posting while staying truthful to the candidate's experience.`

const tailorInstructions = `Tailor the following resume section to align with the specified job title and description.

Rules:
- Return exactly %d line(s), one for each input line, in the same order
- Keep blank input lines blank
- Keep a leading "- ", "* " or "• " marker when the input line has one
- Do not invent employers, titles, dates, degrees or numbers
- Plain text only: no markdown, no headings, no commentary

Respond with ONLY the rewritten section.`

// BuildPrompt creates the user prompt for one chunk.
func BuildPrompt(chunk string, job JobContext) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(tailorInstructions, lineCount(chunk)))
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Job Title: %s\n", job.JobTitle))
	sb.WriteString("Job Description:\n")
	sb.WriteString(job.JobDescription)
	sb.WriteString("\n---\n")
	sb.WriteString("Resume Section:\n")
	sb.WriteString(chunk)
	return sb.String()
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
