package llm

import (
	_ "embed"
	"strings"
)

//go:embed prompts/rewrite.txt
var rewritePrompt string

// RewritePrompt asks the model to answer question using only excerpt.
func RewritePrompt(question, excerpt string) string {
	r := strings.NewReplacer(
		"{{question}}", strings.TrimSpace(question),
		"{{excerpt}}", strings.TrimSpace(excerpt),
	)
	return strings.TrimSpace(r.Replace(rewritePrompt))
}
