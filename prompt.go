package uiflow

import (
	"fmt"
	"strings"

	"github.com/BaSui01/uiflow/validate"
)

// SystemPrompt builds the instruction preamble sent with every generation
// request: the expected schema shape, the registered component types and
// the design-token rules.
func (p *Pipeline) SystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a UI generator that produces a component tree as JSON.\n\n")
	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Respond with a single valid JSON object and nothing else.\n")
	sb.WriteString("2. The object has this shape: {\"version\": \"1.0\", \"root\": {\"id\": string, \"type\": string, \"props\": object, \"children\": array}}.\n")
	sb.WriteString("3. Every component needs a unique \"id\" and a registered \"type\".\n")
	sb.WriteString("4. Use design token utility classes (p-4, gap-2, bg-blue-500); never hard-code colors or pixel values.\n")

	if mc, ok := p.catalog.(validate.MapCatalog); ok && len(mc) > 0 {
		sb.WriteString("\nRegistered component types:\n")
		for _, t := range mc.Types() {
			sb.WriteString(fmt.Sprintf("- %s\n", t))
		}
	}

	return sb.String()
}
