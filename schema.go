package mqcodec

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultCountFieldLength is the width of an occurrence counter when the
// schema does not declare one.
const DefaultCountFieldLength = 2

// Element is a compiled body element: *Field or *Occurrence.
type Element interface {
	Kind() ElementKind
	// WireLength is the number of characters the element always occupies.
	WireLength() int
}

// Field is a compiled scalar slot.
type Field struct {
	Name         string
	Tag          string // type tag as declared, e.g. "Numérico"
	Type         FieldType
	Length       int
	Required     string
	Values       string
	Description  string
	DefaultValue *string

	canonical string
}

func (f *Field) Kind() ElementKind { return KindField }
func (f *Field) WireLength() int   { return f.Length }

// CanonicalName is the folded name used for key matching.
func (f *Field) CanonicalName() string { return f.canonical }

// IsRequired interprets the free-form required marker, e.g. "S", "Si",
// "Obligatorio", "Y".
func (f *Field) IsRequired() bool {
	switch Canonicalize(strings.TrimSpace(f.Required)) {
	case "s", "si", "y", "yes", "true", "x", "1", "obligatorio", "requerido", "required", "mandatory", "m":
		return true
	}
	return false
}

// Occurrence is a compiled repeatable group. Elements is the layout of a
// single repetition and may contain nested occurrences.
type Occurrence struct {
	Index            int
	Name             string
	Count            int
	CountFieldLength int
	Elements         []Element

	repetitionLength int
}

func (o *Occurrence) Kind() ElementKind { return KindOccurrence }

// Key is the slot under which the repetitions live in the logical tree.
func (o *Occurrence) Key() string {
	if o.Name != "" {
		return o.Name
	}
	return fmt.Sprintf("occurrence_%d", o.Index)
}

// RepetitionLength is the on-wire length of one repetition.
func (o *Occurrence) RepetitionLength() int { return o.repetitionLength }

// WireLength is counter width plus every declared repetition, populated or not.
func (o *Occurrence) WireLength() int {
	return o.CountFieldLength + o.Count*o.repetitionLength
}

// Header is the compiled fixed prefix common to every message.
type Header struct {
	TotalLength int // as declared
	Fields      []*Field

	length int
}

// Length is the computed header length.
func (h *Header) Length() int { return h.length }

// Field returns the header field whose canonical name is one of names, with
// its offset inside the header.
func (h *Header) Field(names ...string) (*Field, int, bool) {
	idx := headerIndex(h, names)
	if idx < 0 {
		return nil, 0, false
	}
	offset := 0
	for _, f := range h.Fields[:idx] {
		offset += f.Length
	}
	return h.Fields[idx], offset, true
}

// Dialect is a compiled request or response body.
type Dialect struct {
	Section     Section
	TotalLength int // as declared
	Elements    []Element

	length int
}

// Length is the computed body length.
func (d *Dialect) Length() int { return d.length }

// Schema is an immutable, compiled service schema. It is safe for concurrent
// use by any number of encode and decode calls.
type Schema struct {
	ServiceNumber string
	ServiceName   string
	Header        *Header
	Request       *Dialect
	Response      *Dialect

	warnings []Diagnostic
}

// Dialect returns the body layout of section.
func (s *Schema) Dialect(section Section) (*Dialect, error) {
	var d *Dialect
	switch section {
	case SectionRequest:
		d = s.Request
	case SectionResponse:
		d = s.Response
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSection, section)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrSectionMissing, section)
	}
	return d, nil
}

// MessageLength is the full wire length of a message in section.
func (s *Schema) MessageLength(section Section) (int, error) {
	d, err := s.Dialect(section)
	if err != nil {
		return 0, err
	}
	return s.Header.length + d.length, nil
}

// BodyLength is the computed body length of section.
func (s *Schema) BodyLength(section Section) (int, error) {
	d, err := s.Dialect(section)
	if err != nil {
		return 0, err
	}
	return d.length, nil
}

// Warnings lists the non-fatal problems found while compiling, such as
// declared totals that disagree with the field lengths.
func (s *Schema) Warnings() []Diagnostic {
	out := make([]Diagnostic, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Compile validates cfg and builds the immutable Schema.
func Compile(cfg *SchemaConfig) (*Schema, error) {
	if cfg == nil {
		return nil, &SchemaError{Path: "schema", Reason: "nil config"}
	}
	if cfg.Header == nil || len(cfg.Header.Fields) == 0 {
		return nil, &SchemaError{Path: "header", Reason: "no fields"}
	}

	s := &Schema{
		ServiceNumber: cfg.ServiceNumber,
		ServiceName:   cfg.ServiceName,
		Header:        &Header{TotalLength: cfg.Header.TotalLength},
	}

	for i, fc := range cfg.Header.Fields {
		f, err := compileField(fmt.Sprintf("header.fields[%d]", i), fc.Name, fc.Length, fc.Type,
			fc.Required, fc.Values, fc.Description, fc.DefaultValue)
		if err != nil {
			return nil, err
		}
		s.Header.Fields = append(s.Header.Fields, f)
		s.Header.length += f.Length
	}
	if s.Header.TotalLength > 0 && s.Header.TotalLength != s.Header.length {
		s.warnings = append(s.warnings, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeLengthMismatch,
			Path:     "header",
			Message: fmt.Sprintf("declared total length %d, fields add up to %d",
				s.Header.TotalLength, s.Header.length),
		})
	}

	var err error
	if s.Request, err = s.compileDialect(SectionRequest, cfg.Request); err != nil {
		return nil, err
	}
	if s.Response, err = s.compileDialect(SectionResponse, cfg.Response); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) compileDialect(section Section, dc *DialectConfig) (*Dialect, error) {
	if dc == nil {
		return nil, nil
	}
	path := string(section)
	elements, length, err := compileElements(path+".elements", dc.Elements)
	if err != nil {
		return nil, err
	}
	d := &Dialect{
		Section:     section,
		TotalLength: dc.TotalLength,
		Elements:    elements,
		length:      length,
	}
	if d.TotalLength > 0 && d.TotalLength != d.length {
		s.warnings = append(s.warnings, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeLengthMismatch,
			Path:     path,
			Message:  fmt.Sprintf("declared total length %d, elements add up to %d", d.TotalLength, d.length),
		})
	}
	return d, nil
}

func compileElements(path string, configs []ElementConfig) ([]Element, int, error) {
	elements := make([]Element, 0, len(configs))
	keys := make(map[string]string)
	total := 0

	for i, ec := range configs {
		p := fmt.Sprintf("%s[%d]", path, i)
		switch ec.Kind {
		case KindField:
			f, err := compileField(p, ec.Name, ec.Length, ec.FieldType,
				ec.Required, ec.Values, ec.Description, ec.DefaultValue)
			if err != nil {
				return nil, 0, err
			}
			elements = append(elements, f)
			total += f.Length

		case KindOccurrence:
			o, err := compileOccurrence(p, ec)
			if err != nil {
				return nil, 0, err
			}
			key := Canonicalize(o.Key())
			if prev, dup := keys[key]; dup {
				return nil, 0, &SchemaError{Path: p, Reason: fmt.Sprintf("occurrence key %q already used at %s", o.Key(), prev)}
			}
			keys[key] = p
			elements = append(elements, o)
			total += o.WireLength()

		default:
			return nil, 0, &SchemaError{Path: p, Reason: fmt.Sprintf("unknown element type %q", ec.Kind)}
		}
	}
	return elements, total, nil
}

func compileOccurrence(path string, ec ElementConfig) (*Occurrence, error) {
	if ec.Count < 0 {
		return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("negative count %d", ec.Count)}
	}
	if ec.CountFieldLength < 0 {
		return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("negative counter length %d", ec.CountFieldLength)}
	}
	if ec.Count > 0 && len(ec.Fields) == 0 {
		return nil, &SchemaError{Path: path, Reason: "occurrence with count > 0 has no fields"}
	}

	o := &Occurrence{
		Index:            ec.Index,
		Name:             ec.Name,
		Count:            ec.Count,
		CountFieldLength: ec.CountFieldLength,
	}
	if o.CountFieldLength == 0 {
		o.CountFieldLength = DefaultCountFieldLength
	}

	elements, length, err := compileElements(path+".fields", ec.Fields)
	if err != nil {
		return nil, err
	}
	o.Elements = elements
	o.repetitionLength = length
	return o, nil
}

func compileField(path, name string, length int, tag, required, values, description string, def *string) (*Field, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &SchemaError{Path: path, Reason: "field without name"}
	}
	if length <= 0 {
		return nil, &SchemaError{Path: path, Reason: fmt.Sprintf("field %q has non-positive length %d", name, length)}
	}
	return &Field{
		Name:         name,
		Tag:          tag,
		Type:         ClassifyFieldType(tag),
		Length:       length,
		Required:     required,
		Values:       values,
		Description:  description,
		DefaultValue: def,
		canonical:    Canonicalize(name),
	}, nil
}

// exportedSchema is the shape written by the structure extractor's JSON
// export: the service dialects nested under "service".
type exportedSchema struct {
	SchemaConfig
	Service *SchemaConfig `json:"service,omitempty"`
}

// ParseSchemaConfig decodes a JSON schema document without compiling it.
func ParseSchemaConfig(data []byte) (*SchemaConfig, error) {
	var doc exportedSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema config: %w", err)
	}
	cfg := doc.SchemaConfig
	if svc := doc.Service; svc != nil {
		if cfg.Request == nil {
			cfg.Request = svc.Request
		}
		if cfg.Response == nil {
			cfg.Response = svc.Response
		}
		if cfg.ServiceNumber == "" {
			cfg.ServiceNumber = svc.ServiceNumber
		}
		if cfg.ServiceName == "" {
			cfg.ServiceName = svc.ServiceName
		}
		if cfg.Header == nil {
			cfg.Header = svc.Header
		}
	}
	return &cfg, nil
}

// ExportSchemaConfig writes cfg as the structure extractor's JSON export:
// the header at the top level and the service dialects under "service".
// ParseSchemaConfig reads the result back.
func ExportSchemaConfig(w io.Writer, cfg *SchemaConfig) error {
	if cfg == nil {
		return &SchemaError{Path: "schema", Reason: "nil schema config"}
	}
	service := *cfg
	service.Header = nil
	doc := struct {
		Header  *HeaderConfig `json:"header,omitempty"`
		Service *SchemaConfig `json:"service"`
	}{Header: cfg.Header, Service: &service}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to export schema config: %w", err)
	}
	return nil
}

// ParseSchemaConfigYAML decodes a YAML schema document. The document goes
// through the JSON decoder so both formats accept the same loose cells.
func ParseSchemaConfigYAML(data []byte) (*SchemaConfig, error) {
	js, err := yamlToJSON(data)
	if err != nil {
		return nil, err
	}
	return ParseSchemaConfig(js)
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema config: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml schema: %w", err)
	}
	return js, nil
}

// LoadSchemaFromJSON parses and compiles a JSON schema document.
func LoadSchemaFromJSON(data []byte) (*Schema, error) {
	cfg, err := ParseSchemaConfig(data)
	if err != nil {
		return nil, err
	}
	return Compile(cfg)
}

// LoadSchemaFromYAML parses and compiles a YAML schema document.
func LoadSchemaFromYAML(data []byte) (*Schema, error) {
	cfg, err := ParseSchemaConfigYAML(data)
	if err != nil {
		return nil, err
	}
	return Compile(cfg)
}

// ReadSchemaConfigFile reads a schema document, picking the decoder by extension.
func ReadSchemaConfigFile(path string) (*SchemaConfig, error) {
	js, err := readSchemaJSON(path)
	if err != nil {
		return nil, err
	}
	return ParseSchemaConfig(js)
}

// ReadHeaderConfigFile reads a header document: a bare header with
// totalLength and fields, or a schema document carrying one.
func ReadHeaderConfigFile(path string) (*HeaderConfig, error) {
	js, err := readSchemaJSON(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		HeaderConfig
		Header *HeaderConfig `json:"header"`
	}
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse header config: %w", err)
	}
	if doc.Header != nil {
		return doc.Header, nil
	}
	if len(doc.Fields) == 0 {
		return nil, &SchemaError{Path: "header", Reason: "no fields in " + path}
	}
	return &doc.HeaderConfig, nil
}

// readSchemaJSON returns the document at path as JSON.
func readSchemaJSON(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return data, nil
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSchemaFormat, path)
	}
}

// LoadSchemaFile reads and compiles a JSON or YAML schema file.
func LoadSchemaFile(path string) (*Schema, error) {
	cfg, err := ReadSchemaConfigFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(cfg)
}
