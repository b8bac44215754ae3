package mqcodec

import (
	"fmt"
	"io"
	"strings"
)

// Describe writes a plain text description of s: the header, then each
// defined dialect with its fields and occurrence sections.
func Describe(w io.Writer, s *Schema) error {
	if s == nil || s.Header == nil {
		return &SchemaError{Path: "schema", Reason: "no header structure"}
	}
	dw := &describeWriter{w: w}

	dw.printf("=== HEADER ===\n")
	dw.printf("Total length: %d positions\n\n", s.Header.length)
	dw.printf("Fields:\n")
	for _, f := range s.Header.Fields {
		dw.field(f, "")
	}

	dw.printf("=== SERVICE %s ===\n", s.ServiceNumber)
	if s.ServiceName != "" {
		dw.printf("Name: %s\n", s.ServiceName)
	}
	dw.printf("\n")

	for _, d := range []*Dialect{s.Request, s.Response} {
		if d == nil {
			continue
		}
		dw.printf("== %s ==\n", strings.ToUpper(string(d.Section)))
		dw.printf("Total length: %d positions\n\n", d.length)
		dw.printf("Fields:\n")
		dw.elements(d.Elements, "")
		dw.printf("\n")
	}
	return dw.err
}

// describeWriter keeps the first write error so callers check once.
type describeWriter struct {
	w   io.Writer
	err error
}

func (dw *describeWriter) printf(format string, args ...interface{}) {
	if dw.err != nil {
		return
	}
	_, dw.err = fmt.Fprintf(dw.w, format, args...)
}

func (dw *describeWriter) elements(elements []Element, indent string) {
	for _, el := range elements {
		switch x := el.(type) {
		case *Field:
			dw.field(x, indent)
		case *Occurrence:
			dw.printf("%s* OCCURRENCE %s (up to %d repetitions)\n", indent, x.Key(), x.Count)
			dw.printf("%s  Counter: %d positions\n", indent, x.CountFieldLength)
			dw.printf("%s  Length per repetition: %d positions\n", indent, x.RepetitionLength())
			dw.printf("%s  Reserved length: %d positions\n\n", indent, x.WireLength())
			dw.elements(x.Elements, indent+"    ")
		}
	}
}

func (dw *describeWriter) field(f *Field, indent string) {
	tag := f.Tag
	if tag == "" {
		tag = f.Type.String()
	}
	dw.printf("%s- %s (%d positions, %s)\n", indent, f.Name, f.Length, tag)
	if f.Required != "" {
		dw.printf("%s  Required: %s\n", indent, f.Required)
	}
	if f.Values != "" {
		dw.printf("%s  Values: %s\n", indent, f.Values)
	}
	if f.Description != "" {
		dw.printf("%s  Description: %s\n", indent, f.Description)
	}
	dw.printf("\n")
}

// Skeleton returns an empty logical body for section: every field key set to
// "" and every occurrence slot holding one empty repetition.
func Skeleton(s *Schema, section Section) (Record, error) {
	if s == nil {
		return nil, &SchemaError{Path: "schema", Reason: "nil schema"}
	}
	d, err := s.Dialect(section)
	if err != nil {
		return nil, err
	}
	return skeleton(d.Elements), nil
}

// HeaderSkeleton returns every header field key set to "".
func HeaderSkeleton(s *Schema) Record {
	rec := Record{}
	if s == nil || s.Header == nil {
		return rec
	}
	for _, f := range s.Header.Fields {
		rec[f.Name] = ""
	}
	return rec
}

func skeleton(elements []Element) Record {
	rec := Record{}
	for _, el := range elements {
		switch x := el.(type) {
		case *Field:
			rec[x.Name] = ""
		case *Occurrence:
			rec[x.Key()] = []Record{skeleton(x.Elements)}
		}
	}
	return rec
}
