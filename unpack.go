package mqcodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cursor walks the wire one character position at a time.
type cursor struct {
	wire []rune
	pos  int
}

func newCursor(wire string) *cursor {
	return &cursor{wire: []rune(wire)}
}

func (c *cursor) remaining() int {
	return len(c.wire) - c.pos
}

// take consumes n positions. When fewer remain it consumes what is left and
// reports false.
func (c *cursor) take(n int) (string, bool) {
	if c.remaining() < n {
		rest := string(c.wire[c.pos:])
		c.pos = len(c.wire)
		return rest, false
	}
	s := string(c.wire[c.pos : c.pos+n])
	c.pos += n
	return s, true
}

// skip advances n positions without materializing them.
func (c *cursor) skip(n int) bool {
	if c.remaining() < n {
		c.pos = len(c.wire)
		return false
	}
	c.pos += n
	return true
}

// decoder carries the state of one Decode call.
type decoder struct {
	codec   *Codec
	msg     *LogicalMessage
	stopped bool
}

// Decode parses wire into a logical message, detecting the dialect from the
// header. Short input is not an error: the message is returned with what
// could be read and Truncated set. An error is returned only for a nil
// schema or when the detected section is not defined; in the latter case the
// message still carries the decoded header.
func (c *Codec) Decode(s *Schema, wire string) (*LogicalMessage, error) {
	start := time.Now()
	msg := NewLogicalMessage(SectionRequest)

	if s == nil || s.Header == nil {
		err := &SchemaError{Path: "schema", Reason: "no header structure"}
		c.report(nil, Diagnostic{Severity: SeverityError, Code: CodeSchemaInvalid, Message: err.Error()})
		c.metrics.observeDecode(msg.Section, outcomeFailed, start)
		return msg, err
	}

	d := &decoder{codec: c, msg: msg}
	cur := newCursor(wire)
	if !d.unpackHeader(cur, s.Header, msg) {
		c.metrics.observeDecode(msg.Section, outcomeTruncated, start)
		return msg, nil
	}

	msg.Section = c.detectSection(s.Header, msg.Header)
	dialect, err := s.Dialect(msg.Section)
	if err != nil {
		d.diag(SeverityError, CodeSectionMissing, string(msg.Section), err.Error())
		c.metrics.observeDecode(msg.Section, outcomeFailed, start)
		return msg, err
	}

	d.unpackElements(cur, dialect.Elements, msg.Data, string(msg.Section))
	if !d.stopped && cur.remaining() > 0 {
		d.warn(CodeLengthMismatch, string(msg.Section),
			fmt.Sprintf("%d trailing characters beyond the %s layout", cur.remaining(), msg.Section))
	}

	outcome := outcomeOK
	if msg.Truncated {
		outcome = outcomeTruncated
	}
	c.log.Debug().
		Str("section", string(msg.Section)).
		Str("service", s.ServiceNumber).
		Int("length", len(cur.wire)).
		Bool("truncated", msg.Truncated).
		Msg("message decoded")
	c.metrics.observeDecode(msg.Section, outcome, start)
	return msg, nil
}

// unpackElements mirrors packElements. Once the wire runs short nothing more
// is consumed.
func (d *decoder) unpackElements(cur *cursor, elements []Element, ctx Record, path string) {
	for _, el := range elements {
		if d.stopped {
			return
		}
		switch x := el.(type) {
		case *Field:
			slice, ok := cur.take(x.Length)
			if !ok {
				if slice != "" {
					ctx[x.Name] = Parse(slice, x.Type)
				}
				d.truncate(path+"."+x.Name, x.Length, runeLen(slice))
				return
			}
			ctx[x.Name] = Parse(slice, x.Type)
		case *Occurrence:
			d.unpackOccurrence(cur, x, ctx, path+"."+x.Key())
		}
	}
}

func (d *decoder) unpackOccurrence(cur *cursor, o *Occurrence, ctx Record, path string) {
	counter, ok := cur.take(o.CountFieldLength)
	if !ok {
		d.truncate(path, o.CountFieldLength, runeLen(counter))
		return
	}

	count, valid := parseCounter(counter)
	if !valid {
		d.diag(SeverityInfo, CodeMalformedCounter, path,
			fmt.Sprintf("counter %q is not a number, treated as 0", counter))
	}
	if count > o.Count {
		d.warn(CodeCounterOverflow, path,
			fmt.Sprintf("counter %d exceeds declared maximum %d", count, o.Count))
		count = o.Count
	}

	recs := make([]Record, 0, count)
	for i := 0; i < count && !d.stopped; i++ {
		rec := Record{}
		d.unpackElements(cur, o.Elements, rec, fmt.Sprintf("%s[%d]", path, i))
		if !d.stopped || len(rec) > 0 {
			recs = append(recs, rec)
		}
	}
	ctx[o.Key()] = recs
	if d.stopped {
		return
	}

	padding := (o.Count - count) * o.RepetitionLength()
	if left := cur.remaining(); !cur.skip(padding) {
		d.truncate(path, padding, left)
	}
}

// parseCounter reads the leading digits of a trimmed counter slice; a slice
// without any yields false.
func parseCounter(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (d *decoder) truncate(path string, need, got int) {
	d.stopped = true
	d.msg.Truncated = true
	d.warn(CodeTruncated, path, fmt.Sprintf("needs %d characters, %d left", need, got))
}

func (d *decoder) warn(code, path, message string) {
	d.diag(SeverityWarning, code, path, message)
}

func (d *decoder) diag(sev Severity, code, path, message string) {
	d.msg.Diagnostics = d.codec.report(d.msg.Diagnostics, Diagnostic{
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  message,
	})
}
