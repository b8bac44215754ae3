package mqcodec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// FieldType is the closed classification of a free-form field type tag.
type FieldType int

const (
	FieldTypeAlphanumeric FieldType = iota // space padded right
	FieldTypeNumeric                       // zero padded left
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeNumeric:
		return "numeric"
	default:
		return "alphanumeric"
	}
}

// Section names one of the two body dialects of a service.
type Section string

const (
	SectionRequest  Section = "request"
	SectionResponse Section = "response"
)

// ParseSection accepts the English and Spanish dialect names.
func ParseSection(s string) (Section, error) {
	switch Canonicalize(strings.TrimSpace(s)) {
	case "request", "requerimiento", "req":
		return SectionRequest, nil
	case "response", "respuesta", "resp":
		return SectionResponse, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSection, s)
}

// ElementKind distinguishes scalar fields from repeated groups in a dialect.
type ElementKind string

const (
	KindField      ElementKind = "field"
	KindOccurrence ElementKind = "occurrence"
)

// FieldConfig describes one header field as produced by the structure extractor.
type FieldConfig struct {
	Name         string  `json:"name"`
	Length       int     `json:"length"`
	Type         string  `json:"type"`
	Required     string  `json:"required,omitempty"`
	Values       string  `json:"values,omitempty"`
	Description  string  `json:"description,omitempty"`
	DefaultValue *string `json:"defaultValue,omitempty"`
}

// ElementConfig describes one body element. Fields use Name/Length/FieldType,
// occurrences use Index/Name/Count/CountFieldLength/Fields.
type ElementConfig struct {
	Kind             ElementKind     `json:"type"`
	Index            int             `json:"index"`
	Name             string          `json:"name,omitempty"`
	Length           int             `json:"length,omitempty"`
	FieldType        string          `json:"fieldType,omitempty"`
	Required         string          `json:"required,omitempty"`
	Values           string          `json:"values,omitempty"`
	Description      string          `json:"description,omitempty"`
	DefaultValue     *string         `json:"defaultValue,omitempty"`
	Count            int             `json:"count,omitempty"`
	CountFieldLength int             `json:"countFieldLength,omitempty"`
	Fields           []ElementConfig `json:"fields,omitempty"`
}

// DialectConfig is the ordered element list of a request or response body.
type DialectConfig struct {
	TotalLength int             `json:"totalLength"`
	Elements    []ElementConfig `json:"elements"`
}

// HeaderConfig is the fixed prefix shared by both dialects.
type HeaderConfig struct {
	TotalLength int           `json:"totalLength"`
	Fields      []FieldConfig `json:"fields"`
}

// SchemaConfig is the uncompiled schema of one service.
type SchemaConfig struct {
	ServiceNumber string         `json:"serviceNumber,omitempty"`
	ServiceName   string         `json:"serviceName,omitempty"`
	Header        *HeaderConfig  `json:"header,omitempty"`
	Request       *DialectConfig `json:"request,omitempty"`
	Response      *DialectConfig `json:"response,omitempty"`
}

// rawField accepts the loosely typed cells the spreadsheet extractor emits:
// lengths and counts as numbers or strings, required flags as strings or bools.
type rawField struct {
	Type             string          `json:"type"`
	FieldType        string          `json:"fieldType"`
	Index            interface{}     `json:"index"`
	Name             string          `json:"name"`
	Length           interface{}     `json:"length"`
	Required         interface{}     `json:"required"`
	Values           interface{}     `json:"values"`
	Description      interface{}     `json:"description"`
	DefaultValue     interface{}     `json:"defaultValue"`
	Count            interface{}     `json:"count"`
	CountFieldLength interface{}     `json:"countFieldLength"`
	Fields           []ElementConfig `json:"fields"`
}

func (fc *FieldConfig) UnmarshalJSON(data []byte) error {
	var raw rawField
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	length, err := looseInt(raw.Length)
	if err != nil {
		return fmt.Errorf("field %q: length: %w", raw.Name, err)
	}

	*fc = FieldConfig{
		Name:         strings.TrimSpace(raw.Name),
		Length:       length,
		Type:         raw.Type,
		Required:     looseString(raw.Required),
		Values:       looseString(raw.Values),
		Description:  looseString(raw.Description),
		DefaultValue: looseStringPtr(raw.DefaultValue),
	}
	if fc.Type == "" {
		fc.Type = raw.FieldType
	}
	return nil
}

func (ec *ElementConfig) UnmarshalJSON(data []byte) error {
	var raw rawField
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var ints [4]int
	for i, v := range []interface{}{raw.Index, raw.Length, raw.Count, raw.CountFieldLength} {
		n, err := looseInt(v)
		if err != nil {
			return fmt.Errorf("element %q: %w", raw.Name, err)
		}
		ints[i] = n
	}

	*ec = ElementConfig{
		Index:            ints[0],
		Name:             strings.TrimSpace(raw.Name),
		Length:           ints[1],
		FieldType:        raw.FieldType,
		Required:         looseString(raw.Required),
		Values:           looseString(raw.Values),
		Description:      looseString(raw.Description),
		DefaultValue:     looseStringPtr(raw.DefaultValue),
		Count:            ints[2],
		CountFieldLength: ints[3],
		Fields:           raw.Fields,
	}

	switch ElementKind(strings.ToLower(strings.TrimSpace(raw.Type))) {
	case KindField:
		ec.Kind = KindField
	case KindOccurrence:
		ec.Kind = KindOccurrence
	default:
		// "type" held the data type, as in header-style field rows.
		if raw.Fields != nil || raw.Count != nil {
			ec.Kind = KindOccurrence
		} else {
			ec.Kind = KindField
		}
		if ec.FieldType == "" {
			ec.FieldType = raw.Type
		}
	}
	return nil
}

func looseInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, nil
		}
		return strconv.Atoi(x)
	default:
		return cast.ToIntE(x)
	}
}

func looseString(v interface{}) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

func looseStringPtr(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := cast.ToString(v)
	return &s
}
