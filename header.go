package mqcodec

import (
	"fmt"
	"strconv"
	"strings"
)

// packHeader formats every header field, one part per field so the length
// field can be replaced once the body is known.
func (e *encoder) packHeader(h *Header, values Record) []string {
	parts := make([]string, len(h.Fields))
	for i, f := range h.Fields {
		v, ok := values[f.Name]
		if !ok {
			v, ok = lookupCanonical(values, f.canonical)
		}
		var text string
		if ok {
			text = toText(v)
		} else {
			text = e.codec.defaultFor(f)
		}
		parts[i] = e.format(f, text, "header."+f.Name)
	}
	return parts
}

// spliceLength overwrites the message length field with total.
func (e *encoder) spliceLength(h *Header, parts []string, total int) {
	idx := headerIndex(h, e.codec.lengthFields)
	if idx < 0 {
		return
	}
	f := h.Fields[idx]
	digits := strconv.Itoa(total)
	if len(digits) > f.Length {
		e.warn(CodeValueTruncated, "header."+f.Name,
			fmt.Sprintf("message length %d does not fit in %d positions", total, f.Length))
	}
	parts[idx] = Format(digits, f.Length, FieldTypeNumeric)
}

// headerIndex finds the first header field matching any of names.
func headerIndex(h *Header, names []string) int {
	for i, f := range h.Fields {
		for _, n := range names {
			if f.canonical == Canonicalize(n) {
				return i
			}
		}
	}
	return -1
}

// unpackHeader slices the header field by field. It returns false when the
// wire is shorter than the header; fields that fit completely are kept.
func (d *decoder) unpackHeader(cur *cursor, h *Header, msg *LogicalMessage) bool {
	if cur.remaining() < h.length {
		d.warn(CodeTruncated, "header",
			fmt.Sprintf("message length %d is less than header length %d", cur.remaining(), h.length))
	}
	for _, f := range h.Fields {
		slice, ok := cur.take(f.Length)
		if !ok {
			msg.Truncated = true
			return false
		}
		msg.Header[f.Name] = Parse(slice, f.Type)
	}
	return true
}

// detectSection classifies a decoded header: any return code other than
// "0000" or sent state other than "00" marks a response.
func (c *Codec) detectSection(h *Header, values Record) Section {
	returnCode := headerText(h, values, c.returnCodeFields, defaultReturnCode)
	sentState := headerText(h, values, c.sentStateFields, defaultSentState)
	if returnCode != defaultReturnCode || sentState != defaultSentState {
		return SectionResponse
	}
	return SectionRequest
}

func headerText(h *Header, values Record, names []string, fallback string) string {
	idx := headerIndex(h, names)
	if idx < 0 {
		return fallback
	}
	v, ok := values[h.Fields[idx].Name]
	if !ok {
		return fallback
	}
	return strings.TrimSpace(toText(v))
}
