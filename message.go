package mqcodec

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Record is one level of the logical tree. Values are scalars for fields and
// []Record (or anything convertible by records) for occurrence slots.
type Record map[string]interface{}

// LogicalMessage is the structured form of a message.
type LogicalMessage struct {
	Header  Record  `json:"header"`
	Data    Record  `json:"data"`
	Section Section `json:"section"`

	// Truncated is set by the decoder when the wire was shorter than the
	// schema required.
	Truncated   bool         `json:"truncated,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// NewLogicalMessage returns an empty message for section.
func NewLogicalMessage(section Section) *LogicalMessage {
	return &LogicalMessage{
		Header:  Record{},
		Data:    Record{},
		Section: section,
	}
}

// HeaderValue returns a header value as text, matching the name canonically.
func (m *LogicalMessage) HeaderValue(name string) (string, bool) {
	v, ok := lookup(m.Header, name)
	if !ok {
		return "", false
	}
	return toText(v), true
}

// Value returns a top-level data value as text.
func (m *LogicalMessage) Value(name string) (string, bool) {
	v, ok := lookup(m.Data, name)
	if !ok {
		return "", false
	}
	if _, isList := asRecords(v); isList {
		return "", false
	}
	return toText(v), true
}

// Occurrences returns the repetitions stored under an occurrence key.
func (m *LogicalMessage) Occurrences(key string) []Record {
	v, ok := lookup(m.Data, key)
	if !ok {
		return nil
	}
	recs, _ := asRecords(v)
	return recs
}

// asRecords accepts the shapes an occurrence slot arrives in: []Record from
// this package and []interface{} / []map[string]interface{} from JSON.
func asRecords(v interface{}) ([]Record, bool) {
	switch x := v.(type) {
	case []Record:
		return x, true
	case []map[string]interface{}:
		out := make([]Record, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out, true
	case []interface{}:
		out := make([]Record, 0, len(x))
		for _, item := range x {
			switch r := item.(type) {
			case Record:
				out = append(out, r)
			case map[string]interface{}:
				out = append(out, r)
			default:
				out = append(out, Record{})
			}
		}
		return out, true
	}
	return nil, false
}

// Severity grades a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic codes.
const (
	CodeLengthMismatch     = "length_mismatch"
	CodeTruncated          = "truncated"
	CodeSectionMissing     = "section_missing"
	CodeSchemaInvalid      = "schema_invalid"
	CodeMalformedCounter   = "malformed_counter"
	CodeCounterOverflow    = "counter_overflow"
	CodeOccurrenceOverflow = "occurrence_overflow"
	CodeValueTruncated     = "value_truncated"
	CodeNonNumeric         = "non_numeric"
	CodeLengthHeader       = "length_header"
	CodeRequiredMissing    = "required_missing"
	CodeRuleViolation      = "rule_violation"
)

// Diagnostic is a non-fatal finding of an encode, decode or validation pass.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s at %s: %s", d.Severity, d.Code, d.Path, d.Message)
}

// event picks the zerolog level matching the diagnostic.
func (d Diagnostic) event(log zerolog.Logger) *zerolog.Event {
	switch d.Severity {
	case SeverityError:
		return log.Error()
	case SeverityWarning:
		return log.Warn()
	default:
		return log.Info()
	}
}

func (d Diagnostic) log(log zerolog.Logger) {
	d.event(log).
		Str("code", d.Code).
		Str("path", d.Path).
		Msg(d.Message)
}
