package schema

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/BaSui01/uiflow/internal/jsonscan"
)

// BlockFormat classifies where an extracted JSON block came from.
type BlockFormat string

const (
	FormatFencedJSON    BlockFormat = "fenced-json"    // ```json ... ```
	FormatFencedGeneric BlockFormat = "fenced-generic" // untagged fence holding {...} or [...]
	FormatRaw           BlockFormat = "raw"            // balanced span in plain text
)

// Block is one candidate JSON block found in model output, with its byte
// offsets in the source text. Blocks are ephemeral: created per extraction
// pass and ordered by position.
type Block struct {
	Content string      `json:"content"`
	Format  BlockFormat `json:"format"`
	Start   int         `json:"startIndex"`
	End     int         `json:"endIndex"`
}

// ExtractResult is the outcome of ExtractJSON.
type ExtractResult struct {
	Success bool   `json:"success"`
	JSON    string `json:"json,omitempty"`
	Parsed  any    `json:"parsed,omitempty"`
	Err     error  `json:"error,omitempty"`
}

// openFenceRe matches a fence opener, capturing the info tag.
var openFenceRe = regexp.MustCompile("```([a-zA-Z0-9_-]*)[ \t]*\r?\n?")

// ExtractBlocks finds candidate JSON blocks in text, position-ordered.
//
// Fenced blocks are preferred: tier 1 is fences explicitly tagged json,
// tier 2 is other fences whose body opens with '{' or '['. Only when both
// tiers come up empty is the raw text scanned for balanced brace/bracket
// spans, filtered by a cheap JSON-likely heuristic.
func ExtractBlocks(text string) []Block {
	var blocks []Block

	pos := 0
	for pos < len(text) {
		loc := openFenceRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[0]
		bodyStart := pos + loc[1]
		tag := text[pos+loc[2] : pos+loc[3]]

		content, end, ok := fenceContent(text, bodyStart)
		if !ok {
			break
		}
		switch {
		case strings.EqualFold(tag, "json"):
			blocks = append(blocks, Block{Content: content, Format: FormatFencedJSON, Start: start, End: end})
		case strings.HasPrefix(content, "{") || strings.HasPrefix(content, "["):
			blocks = append(blocks, Block{Content: content, Format: FormatFencedGeneric, Start: start, End: end})
		}
		pos = end
	}

	if len(blocks) == 0 {
		blocks = rawSpans(text)
	}

	sortByStart(blocks)
	return blocks
}

// fenceContent bounds one fence body starting at bodyStart. A body opening
// with '{' or '[' is bounded by balanced-span scanning, so a fence marker
// inside a JSON string value cannot close the block early; any other body
// runs to the next closing fence. ok is false when the fence never closes.
func fenceContent(text string, bodyStart int) (content string, end int, ok bool) {
	j := bodyStart
	for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\r' || text[j] == '\n') {
		j++
	}
	if j < len(text) && (text[j] == '{' || text[j] == '[') {
		if spanEnd, balanced := jsonscan.BalancedSpan(text, j); balanced {
			if closing := strings.Index(text[spanEnd:], "```"); closing >= 0 {
				return text[j:spanEnd], spanEnd + closing + 3, true
			}
		}
	}
	closing := strings.Index(text[bodyStart:], "```")
	if closing < 0 {
		return "", 0, false
	}
	return strings.TrimSpace(text[bodyStart : bodyStart+closing]), bodyStart + closing + 3, true
}

// rawSpans scans plain text for complete JSON values. Nested fences inside
// string values cannot terminate a span early because the scanner counts
// braces, not fence markers.
func rawSpans(text string) []Block {
	var blocks []Block
	for i := 0; i < len(text); {
		if text[i] != '{' && text[i] != '[' {
			i++
			continue
		}
		end, ok := jsonscan.BalancedSpan(text, i)
		if !ok {
			// An unterminated opener swallows the rest of the text.
			break
		}
		span := text[i:end]
		if jsonLikely(span) {
			blocks = append(blocks, Block{Content: span, Format: FormatRaw, Start: i, End: end})
		}
		i = end
	}
	return blocks
}

// jsonLikely filters out balanced spans that are clearly not JSON, such as
// brace groups in prose or code.
func jsonLikely(span string) bool {
	if strings.HasPrefix(span, "{") {
		return strings.Contains(span, ":")
	}
	return strings.HasSuffix(span, "]")
}

func sortByStart(blocks []Block) {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
}

// ExtractJSON returns the first candidate block that parses as JSON.
func ExtractJSON(text string) ExtractResult {
	blocks := ExtractBlocks(text)
	var lastErr error
	for _, b := range blocks {
		var parsed any
		if err := json.Unmarshal([]byte(b.Content), &parsed); err != nil {
			lastErr = err
			continue
		}
		return ExtractResult{Success: true, JSON: b.Content, Parsed: parsed}
	}
	return ExtractResult{Success: false, Err: lastErr}
}

// ExtractUISchema returns the first block that parses as JSON and loosely
// matches the UI-schema shape: a root object carrying string id and type
// fields. A missing version is defaulted. nil means "no schema found",
// which callers must treat as distinct from "schema found but invalid";
// the latter is the validation chain's verdict, not extraction's.
func ExtractUISchema(text string) *UISchema {
	for _, b := range ExtractBlocks(text) {
		var probe struct {
			Version string         `json:"version"`
			Root    map[string]any `json:"root"`
		}
		if err := json.Unmarshal([]byte(b.Content), &probe); err != nil {
			continue
		}
		if !looksLikeRoot(probe.Root) {
			continue
		}
		var s UISchema
		if err := json.Unmarshal([]byte(b.Content), &s); err != nil {
			continue
		}
		if s.Version == "" {
			s.Version = DefaultVersion
			s.VersionDefaulted = true
		}
		return &s
	}
	return nil
}

func looksLikeRoot(root map[string]any) bool {
	if root == nil {
		return false
	}
	id, okID := root["id"].(string)
	typ, okType := root["type"].(string)
	return okID && okType && id != "" && typ != ""
}
