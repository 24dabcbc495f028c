package promptstyle

import "strings"

const marker = "COURSECAST_PROMPT_STYLE_V1"

type Mode string

const (
	ModeJSON Mode = "json"
	ModeText Mode = "text"
)

// ApplySystem prepends a short guidance block to a system prompt. Applying it
// twice is a no-op.
func ApplySystem(system string, mode Mode) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou generate learning material for a narrated course built from a learner's own document.")
	b.WriteString("\nUse the attached document as the only source of facts; do not invent content it does not support.")
	b.WriteString("\nWrite for a learner hearing the material for the first time.")
	if mode == ModeJSON {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nReturn plain text without markdown.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
