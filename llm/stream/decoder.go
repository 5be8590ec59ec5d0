// Package stream decodes provider SSE wire format into plain text deltas.
//
// The decoder owns none of the provider-specific shaping: it buffers raw
// bytes, carves out complete `data:` records with an escape-aware brace
// counter, and hands each record to a DeltaFunc supplied by the provider
// format. Records split across physical chunks stay buffered until their
// brace depth returns to zero.
package stream

import (
	"strings"

	"github.com/BaSui01/uiflow/internal/jsonscan"
	"github.com/BaSui01/uiflow/llm"
)

const (
	dataMarker   = "data:"
	doneSentinel = "[DONE]"
)

// DeltaFunc extracts the text increment from one complete `data:` record.
type DeltaFunc func(record []byte) (string, error)

// Decoder incrementally decodes an SSE-like token stream.
// It is not safe for concurrent use; each generation run owns its own Decoder.
type Decoder struct {
	extract DeltaFunc
	buf     strings.Builder
	pos     int
	done    bool
}

// NewDecoder creates a Decoder that uses extract for provider-specific
// delta extraction.
func NewDecoder(extract DeltaFunc) *Decoder {
	return &Decoder{extract: extract}
}

// Done reports whether the terminal chunk has already been emitted.
// Once done, further input is ignored.
func (d *Decoder) Done() bool { return d.done }

// Feed appends a raw chunk and returns zero or more decoded StreamChunks.
// The terminal Done chunk is emitted exactly once, when a record carrying
// the [DONE] sentinel completes; bytes arriving after that are dropped.
func (d *Decoder) Feed(data []byte) []llm.StreamChunk {
	if d.done {
		return nil
	}
	d.buf.Write(data)
	return d.drain()
}

// Finish flushes the decoder at end of stream. A record that never
// completed is dropped; if no [DONE] sentinel was seen, the terminal
// chunk is emitted here so consumers always observe exactly one.
func (d *Decoder) Finish() []llm.StreamChunk {
	if d.done {
		return nil
	}
	out := d.drain()
	if !d.done {
		d.done = true
		out = append(out, llm.StreamChunk{Done: true})
	}
	return out
}

// drain extracts every complete record currently in the buffer.
func (d *Decoder) drain() []llm.StreamChunk {
	var out []llm.StreamChunk
	text := d.buf.String()

	for !d.done {
		marker := strings.Index(text[d.pos:], dataMarker)
		if marker < 0 {
			break
		}
		payloadStart := d.pos + marker + len(dataMarker)
		// Tolerate both `data:{...}` and `data: {...}`.
		for payloadStart < len(text) && (text[payloadStart] == ' ' || text[payloadStart] == '\t') {
			payloadStart++
		}

		// Payload region runs to the next marker, if one is already
		// buffered. Markers start on their own line, so a literal "data:"
		// inside a JSON string never bounds the record: raw newlines
		// cannot occur inside JSON string values.
		payloadEnd := len(text)
		if next := strings.Index(text[payloadStart:], "\n"+dataMarker); next >= 0 {
			payloadEnd = payloadStart + next
		}
		payload := text[payloadStart:payloadEnd]

		if strings.HasPrefix(strings.TrimSpace(payload), doneSentinel) {
			d.emitDone(&out)
			break
		}

		open := strings.IndexAny(payload, "{[")
		if open < 0 {
			if payloadEnd == len(text) {
				// Marker seen but no value started yet; wait for more bytes.
				break
			}
			// Empty or junk record followed by another marker: skip it.
			d.pos = payloadEnd
			continue
		}

		end, complete := jsonscan.BalancedSpan(payload, open)
		if !complete {
			if payloadEnd == len(text) {
				// Depth has not returned to zero; keep buffering.
				break
			}
			// A malformed record bounded by the next marker is dropped.
			d.pos = payloadEnd
			continue
		}

		record := payload[open:end]
		if delta, err := d.extract([]byte(record)); err == nil && delta != "" {
			out = append(out, llm.StreamChunk{Content: delta})
		}

		// The sentinel may be concatenated after the JSON in the same record.
		if strings.Contains(payload[end:], doneSentinel) {
			d.emitDone(&out)
			break
		}
		d.pos = payloadStart + end
	}

	d.compact(text)
	return out
}

func (d *Decoder) emitDone(out *[]llm.StreamChunk) {
	d.done = true
	*out = append(*out, llm.StreamChunk{Done: true})
}

// compact discards consumed bytes so the buffer does not grow without bound.
func (d *Decoder) compact(text string) {
	if d.pos == 0 {
		return
	}
	rest := text[d.pos:]
	d.buf.Reset()
	d.buf.WriteString(rest)
	d.pos = 0
}
