package star

import (
	"fmt"
	"strings"
)

// DefaultEmbedInputMaxChars caps the text handed to the embedding provider.
const DefaultEmbedInputMaxChars = 8000

const embeddingTextFormat = `
# Key Information
Repository name: %s
Description: %s
Topics: %s
Owner: %s

# README Content
%s
`

// EmbeddingText builds the text a repository is embedded from. Missing
// description, topics, or README render as "None" so the template stays
// stable across repositories. The result is truncated to maxChars; a
// non-positive maxChars uses DefaultEmbedInputMaxChars.
func EmbeddingText(candidate RepoCandidate, readme string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultEmbedInputMaxChars
	}

	description := candidate.Description()
	if description == "" {
		description = "None"
	}

	topics := "None"
	if t := candidate.Topics(); len(t) > 0 {
		topics = strings.Join(t, ", ")
	}

	if readme == "" {
		readme = "None"
	}

	text := fmt.Sprintf(embeddingTextFormat,
		candidate.FullName(),
		description,
		topics,
		candidate.Owner(),
		readme,
	)

	return truncateRunes(text, maxChars)
}

// TruncateReadme shortens a README to maxChars runes, appending an ellipsis
// when content was cut.
func TruncateReadme(readme string, maxChars int) string {
	if maxChars <= 0 {
		return readme
	}
	runes := []rune(readme)
	if len(runes) <= maxChars {
		return readme
	}
	return string(runes[:maxChars]) + "..."
}

func truncateRunes(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
