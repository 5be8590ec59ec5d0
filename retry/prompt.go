package retry

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/BaSui01/uiflow/validate"
)

const (
	errorsHeader         = "## Previous Attempt Errors (MUST FIX)"
	previousOutputHeader = "## Previous Output (for reference)"

	// previousOutputTokenBudget caps the verbatim previous output embedded
	// in a retry prompt so a pathological attempt cannot blow the context
	// window of the next one.
	previousOutputTokenBudget = 2000

	promptEncoding = "cl100k_base"
)

// BuildRetryPrompt augments the base prompt with the unresolved errors of
// the previous attempt. Already-fixed errors are dropped so the model does
// not re-litigate solved problems. The base prompt always appears verbatim;
// the errors section is appended only when errors is non-empty, and the
// previous-output section only when previousOutput is non-empty.
func BuildRetryPrompt(base string, errors []validate.ChainError, previousOutput string) string {
	var sb strings.Builder
	sb.WriteString(base)

	if len(errors) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(errorsHeader)
		sb.WriteString("\nYour previous response had the following problems. Fix every one of them and respond with the corrected JSON only.\n")
		grouped := groupByLayer(errors)
		for _, layer := range validate.Layers() {
			group := grouped[layer]
			if len(group) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n### %s\n", layer))
			for _, e := range group {
				sb.WriteString(fmt.Sprintf("- at %s: %s", pathOrTop(e.Path), e.Message))
				if e.Suggestion != "" {
					sb.WriteString(fmt.Sprintf(" (fix: %s)", e.Suggestion))
				}
				sb.WriteString("\n")
			}
		}
	}

	if previousOutput != "" {
		sb.WriteString("\n\n")
		sb.WriteString(previousOutputHeader)
		sb.WriteString("\n")
		sb.WriteString(truncateTokens(previousOutput, previousOutputTokenBudget))
		sb.WriteString("\n")
	}

	return sb.String()
}

// groupByLayer buckets errors by layer; callers render the buckets in
// chain execution order so the prompt reads from syntactic to stylistic.
func groupByLayer(errors []validate.ChainError) map[validate.Layer][]validate.ChainError {
	grouped := make(map[validate.Layer][]validate.ChainError)
	for _, e := range errors {
		grouped[e.Layer] = append(grouped[e.Layer], e)
	}
	return grouped
}

func pathOrTop(path string) string {
	if path == "" {
		return "(top level)"
	}
	return path
}

// truncateTokens caps s at the given token budget using the prompt
// encoding. On any tokenizer failure the text passes through untouched;
// truncation is an optimization, not a contract.
func truncateTokens(s string, budget int) string {
	enc, err := tiktoken.GetEncoding(promptEncoding)
	if err != nil {
		return s
	}
	tokens := enc.Encode(s, nil, nil)
	if len(tokens) <= budget {
		return s
	}
	return enc.Decode(tokens[:budget]) + "\n... (truncated)"
}
