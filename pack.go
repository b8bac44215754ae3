package mqcodec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/bytebufferpool"
)

// EncodeResult is the wire form of a message together with what the encoder
// noticed while producing it.
type EncodeResult struct {
	Wire        string
	Section     Section
	Length      int
	Diagnostics []Diagnostic
}

// encoder carries the state of one Encode call.
type encoder struct {
	codec *Codec
	diags []Diagnostic
}

// Encode serializes msg into the wire form of section. Missing data never
// fails: absent values are defaulted. Only a nil schema or an undefined
// section produce an error, together with an empty result.
func (c *Codec) Encode(s *Schema, msg *LogicalMessage, section Section) (string, error) {
	res, err := c.EncodeReport(s, msg, section)
	if err != nil {
		return "", err
	}
	return res.Wire, nil
}

// EncodeReport is Encode returning the diagnostics as well.
func (c *Codec) EncodeReport(s *Schema, msg *LogicalMessage, section Section) (*EncodeResult, error) {
	start := time.Now()

	if s == nil || s.Header == nil {
		err := &SchemaError{Path: "schema", Reason: "no header structure"}
		c.report(nil, Diagnostic{Severity: SeverityError, Code: CodeSchemaInvalid, Message: err.Error()})
		c.metrics.observeEncode(section, outcomeFailed, start)
		return nil, err
	}
	dialect, err := s.Dialect(section)
	if err != nil {
		c.report(nil, Diagnostic{Severity: SeverityError, Code: CodeSectionMissing, Path: string(section), Message: err.Error()})
		c.metrics.observeEncode(section, outcomeFailed, start)
		return nil, err
	}
	if msg == nil {
		msg = NewLogicalMessage(section)
	}

	e := &encoder{codec: c}
	parts := e.packHeader(s.Header, msg.Header)

	body := getBuffer()
	defer putBuffer(body)
	e.packElements(body, dialect.Elements, msg.Data, string(section))

	bodyText := body.String()
	total := s.Header.length + runeLen(bodyText)
	e.spliceLength(s.Header, parts, total)

	out := getBuffer()
	defer putBuffer(out)
	for _, p := range parts {
		out.WriteString(p)
	}
	out.WriteString(bodyText)

	res := &EncodeResult{
		Wire:        out.String(),
		Section:     section,
		Length:      total,
		Diagnostics: e.diags,
	}
	c.log.Debug().
		Str("section", string(section)).
		Str("service", s.ServiceNumber).
		Int("length", total).
		Int("diagnostics", len(e.diags)).
		Msg("message encoded")
	c.metrics.observeEncode(section, outcomeOK, start)
	return res, nil
}

// packElements appends the wire form of elements resolved against ctx. A nil
// ctx yields an all-default repetition.
func (e *encoder) packElements(buf *bytebufferpool.ByteBuffer, elements []Element, ctx Record, path string) {
	for _, el := range elements {
		switch x := el.(type) {
		case *Field:
			buf.WriteString(e.format(x, e.fieldValue(x, ctx), path+"."+x.Name))
		case *Occurrence:
			e.packOccurrence(buf, x, ctx, path+"."+x.Key())
		}
	}
}

func (e *encoder) packOccurrence(buf *bytebufferpool.ByteBuffer, o *Occurrence, ctx Record, path string) {
	var recs []Record
	if v, ok := lookup(ctx, o.Key()); ok {
		recs, _ = asRecords(v)
	}

	n := len(recs)
	if n > o.Count {
		e.warn(CodeOccurrenceOverflow, path,
			fmt.Sprintf("%d repetitions supplied, only %d fit", n, o.Count))
		n = o.Count
	}
	if len(strconv.Itoa(n)) > o.CountFieldLength {
		e.warn(CodeCounterOverflow, path,
			fmt.Sprintf("counter %d does not fit in %d positions", n, o.CountFieldLength))
	}
	buf.WriteString(Format(strconv.Itoa(n), o.CountFieldLength, FieldTypeNumeric))

	for i := 0; i < n; i++ {
		e.packElements(buf, o.Elements, recs[i], fmt.Sprintf("%s[%d]", path, i))
	}
	for i := n; i < o.Count; i++ {
		e.packElements(buf, o.Elements, nil, fmt.Sprintf("%s[%d]", path, i))
	}
}

// fieldValue resolves a body field; blank values count as absent.
func (e *encoder) fieldValue(f *Field, ctx Record) string {
	if v, ok := lookup(ctx, f.Name); ok {
		if _, isList := asRecords(v); !isList {
			if text := toText(v); strings.TrimSpace(text) != "" {
				return text
			}
		}
	}
	return e.codec.defaultFor(f)
}

func (e *encoder) format(f *Field, text, path string) string {
	if n := runeLen(text); n > f.Length {
		e.warn(CodeValueTruncated, path,
			fmt.Sprintf("value of %d characters truncated to %d", n, f.Length))
	}
	return Format(text, f.Length, f.Type)
}

func (e *encoder) warn(code, path, message string) {
	e.diags = e.codec.report(e.diags, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Path:     path,
		Message:  message,
	})
}
