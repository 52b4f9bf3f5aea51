package service

import (
	"fmt"
	"strings"

	projectModel "storyforge-backend/internal/domains/project/model"
)

const baseInstruction = "You are a creative writing assistant helping an author develop their story. " +
	"Stay consistent with the project's details below and answer with the requested text only."

const characterInstruction = `Respond with a single JSON object describing one character with the keys:
"name", "role", "description", "backstory", "physical" (object), "personality" (object with "traits" array), "background" (object).`

const plotInstruction = `Respond with a single JSON object describing a plot with the keys:
"title", "description", "structure_type" and "elements" (array of objects with "type", "title", "description").`

// systemPrompt dựng system instruction từ thông tin project
func systemPrompt(p *projectModel.Project, extra string) string {
	var b strings.Builder
	b.WriteString(baseInstruction)
	b.WriteString("\n\nProject: ")
	b.WriteString(p.Title)

	details := []struct{ label, value string }{
		{"Genre", string(p.Genre)},
		{"Target audience", string(p.TargetAudience)},
		{"Narrative", string(p.NarrativeType)},
		{"Tone", p.Tone},
		{"Style", p.Style},
		{"Synopsis", p.Description},
	}
	for _, d := range details {
		if d.value == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", d.label, d.value)
	}

	if extra != "" {
		b.WriteString("\n\n")
		b.WriteString(extra)
	}
	return b.String()
}

func contentPrompt(prompt, previous string) string {
	if previous == "" {
		return prompt
	}
	return "Previous passage:\n" + previous + "\n\nTask:\n" + prompt
}

func characterPrompt(prompt, role string) string {
	if role == "" {
		return prompt
	}
	return prompt + "\nThe character's role in the story: " + role + "."
}

func plotPrompt(prompt, structure string) string {
	if structure == "" {
		return prompt
	}
	return prompt + "\nUse the " + strings.ReplaceAll(structure, "_", " ") + " structure."
}

// stripFences bỏ ```json ... ``` mà model hay bọc quanh JSON
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
