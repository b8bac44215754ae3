package mqcodec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ValidationLevel selects how much a Validator checks.
type ValidationLevel int

const (
	// ValidationNone skips every check.
	ValidationNone ValidationLevel = iota
	// ValidationBasic checks decode findings and lengths.
	ValidationBasic
	// ValidationStrict adds per field content rules.
	ValidationStrict
)

// ValidationRule checks the text of one field.
type ValidationRule interface {
	Validate(f *Field, value string) error
	Name() string
}

// Validator runs post-hoc checks over wire and logical messages. Rules are
// registered by field name and matched canonically. It is safe for
// concurrent use.
type Validator struct {
	codec       *Codec
	level       ValidationLevel
	fieldRules  map[string][]ValidationRule
	globalRules []ValidationRule
	mu          sync.RWMutex
}

// NewValidator creates a validator that decodes with c, or with the default
// Codec when c is nil.
func NewValidator(c *Codec, level ValidationLevel) *Validator {
	if c == nil {
		c = defaultCodec
	}
	return &Validator{
		codec:      c,
		level:      level,
		fieldRules: make(map[string][]ValidationRule),
	}
}

// AddRule attaches rule to every field named field.
func (v *Validator) AddRule(field string, rule ValidationRule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := Canonicalize(field)
	v.fieldRules[key] = append(v.fieldRules[key], rule)
}

// AddGlobalRule attaches rule to every field.
func (v *Validator) AddGlobalRule(rule ValidationRule) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.globalRules = append(v.globalRules, rule)
}

// Validate decodes wire and reports everything that does not conform to s:
// decode findings, a total length different from the layout, a length
// header that disagrees with the actual length, and at the strict level
// field content rules such as digits in numeric fields.
func (v *Validator) Validate(s *Schema, wire string) []Diagnostic {
	if v.level == ValidationNone {
		return nil
	}

	msg, err := v.codec.Decode(s, wire)
	diags := append([]Diagnostic(nil), msg.Diagnostics...)
	if err != nil {
		if len(diags) == 0 {
			diags = append(diags, errorDiagnostic(err))
		}
		return diags
	}
	actual := runeLen(wire)
	if actual < s.Header.length {
		return append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     CodeLengthMismatch,
			Path:     "header",
			Message:  fmt.Sprintf("message has %d characters, header alone needs %d", actual, s.Header.length),
		})
	}

	dialect, _ := s.Dialect(msg.Section)
	expected := s.Header.length + dialect.length
	if actual != expected {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     CodeLengthMismatch,
			Path:     string(msg.Section),
			Message:  fmt.Sprintf("message has %d characters, layout defines %d", actual, expected),
		})
	}
	if body := actual - s.Header.length; dialect.TotalLength > 0 && body != dialect.TotalLength {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeLengthMismatch,
			Path:     string(msg.Section),
			Message:  fmt.Sprintf("body has %d characters, declared total is %d", body, dialect.TotalLength),
		})
	}
	if d, ok := v.checkLengthHeader(s.Header, msg.Header, actual); !ok {
		diags = append(diags, d)
	}

	if v.level >= ValidationStrict {
		v.mu.RLock()
		defer v.mu.RUnlock()
		for _, f := range s.Header.Fields {
			if text, ok := msg.Header[f.Name].(string); ok {
				diags = v.applyRules(diags, f, text, "header."+f.Name)
			}
		}
		diags = v.walk(diags, dialect.Elements, msg.Data, string(msg.Section))
	}
	return diags
}

// ValidateLogical checks a logical message before it is encoded: values that
// will be cut, occurrence data beyond the declared count, and the content
// rules of the strict level.
func (v *Validator) ValidateLogical(s *Schema, msg *LogicalMessage, section Section) []Diagnostic {
	if v.level == ValidationNone {
		return nil
	}
	if s == nil || s.Header == nil {
		return []Diagnostic{{Severity: SeverityError, Code: CodeSchemaInvalid, Message: "no header structure"}}
	}
	dialect, err := s.Dialect(section)
	if err != nil {
		return []Diagnostic{errorDiagnostic(err)}
	}
	if msg == nil {
		msg = NewLogicalMessage(section)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var diags []Diagnostic
	for _, f := range s.Header.Fields {
		val, ok := msg.Header[f.Name]
		if !ok {
			val, ok = lookupCanonical(msg.Header, f.canonical)
		}
		if !ok {
			continue
		}
		diags = v.checkLogicalField(diags, f, toText(val), "header."+f.Name)
	}
	return v.walkLogical(diags, dialect.Elements, msg.Data, string(section))
}

func (v *Validator) walk(diags []Diagnostic, elements []Element, ctx Record, path string) []Diagnostic {
	for _, el := range elements {
		switch x := el.(type) {
		case *Field:
			if text, ok := ctx[x.Name].(string); ok {
				diags = v.applyRules(diags, x, text, path+"."+x.Name)
			}
		case *Occurrence:
			recs, _ := asRecords(ctx[x.Key()])
			for i, rec := range recs {
				diags = v.walk(diags, x.Elements, rec, fmt.Sprintf("%s.%s[%d]", path, x.Key(), i))
			}
		}
	}
	return diags
}

func (v *Validator) walkLogical(diags []Diagnostic, elements []Element, ctx Record, path string) []Diagnostic {
	for _, el := range elements {
		switch x := el.(type) {
		case *Field:
			val, ok := lookup(ctx, x.Name)
			text := ""
			if ok {
				text = toText(val)
			}
			if strings.TrimSpace(text) == "" {
				if x.IsRequired() && x.DefaultValue == nil {
					diags = append(diags, Diagnostic{
						Severity: SeverityWarning,
						Code:     CodeRequiredMissing,
						Path:     path + "." + x.Name,
						Message:  "required field has no value, default will be used",
					})
				}
				continue
			}
			diags = v.checkLogicalField(diags, x, text, path+"."+x.Name)
		case *Occurrence:
			opath := path + "." + x.Key()
			val, _ := lookup(ctx, x.Key())
			recs, _ := asRecords(val)
			if len(recs) > x.Count {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodeOccurrenceOverflow,
					Path:     opath,
					Message:  fmt.Sprintf("%d repetitions supplied, only %d fit", len(recs), x.Count),
				})
				recs = recs[:x.Count]
			}
			for i, rec := range recs {
				diags = v.walkLogical(diags, x.Elements, rec, fmt.Sprintf("%s[%d]", opath, i))
			}
		}
	}
	return diags
}

func (v *Validator) checkLogicalField(diags []Diagnostic, f *Field, text, path string) []Diagnostic {
	if n := runeLen(text); n > f.Length {
		diags = append(diags, Diagnostic{
			Severity: SeverityWarning,
			Code:     CodeValueTruncated,
			Path:     path,
			Message:  fmt.Sprintf("value of %d characters will be truncated to %d", n, f.Length),
		})
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" && v.level >= ValidationStrict {
		diags = v.applyRules(diags, f, trimmed, path)
	}
	return diags
}

// applyRules runs the implicit type rule and the registered rules. Callers
// hold v.mu.
func (v *Validator) applyRules(diags []Diagnostic, f *Field, value, path string) []Diagnostic {
	rules := make([]ValidationRule, 0, 2+len(v.globalRules))
	if f.Type == FieldTypeNumeric {
		rules = append(rules, &NumericRule{})
	}
	if f.IsRequired() {
		rules = append(rules, &PresenceRule{})
	}
	rules = append(rules, v.fieldRules[f.canonical]...)
	rules = append(rules, v.globalRules...)

	for _, rule := range rules {
		if err := rule.Validate(f, value); err != nil {
			diags = append(diags, ruleDiagnostic(rule, path, err))
		}
	}
	return diags
}

// checkLengthHeader compares the length field with the actual wire length.
func (v *Validator) checkLengthHeader(h *Header, values Record, actual int) (Diagnostic, bool) {
	f, _, ok := h.Field(v.codec.lengthFields...)
	if !ok {
		return Diagnostic{}, true
	}
	text, _ := values[f.Name].(string)
	declared, err := strconv.Atoi(text)
	if err != nil {
		return Diagnostic{
			Severity: SeverityError,
			Code:     CodeLengthHeader,
			Path:     "header." + f.Name,
			Message:  fmt.Sprintf("length header %q is not a number", text),
		}, false
	}
	if declared != actual {
		return Diagnostic{
			Severity: SeverityError,
			Code:     CodeLengthHeader,
			Path:     "header." + f.Name,
			Message:  fmt.Sprintf("length header says %d, message has %d characters", declared, actual),
		}, false
	}
	return Diagnostic{}, true
}

func ruleDiagnostic(rule ValidationRule, path string, err error) Diagnostic {
	d := Diagnostic{Severity: SeverityError, Code: CodeRuleViolation, Path: path, Message: err.Error()}
	switch rule.(type) {
	case *NumericRule:
		d.Code = CodeNonNumeric
	case *PresenceRule:
		d.Severity = SeverityWarning
		d.Code = CodeRequiredMissing
	default:
		d.Message = rule.Name() + ": " + err.Error()
	}
	return d
}

func errorDiagnostic(err error) Diagnostic {
	code := CodeSchemaInvalid
	if errors.Is(err, ErrSectionMissing) || errors.Is(err, ErrInvalidSection) {
		code = CodeSectionMissing
	}
	return Diagnostic{Severity: SeverityError, Code: code, Message: err.Error()}
}

// ValidateMessage runs a strict validation of wire with the default Codec.
func ValidateMessage(s *Schema, wire string) []Diagnostic {
	return NewValidator(nil, ValidationStrict).Validate(s, wire)
}

// Strict turns the error level diagnostics into a *ValidationError.
func Strict(diags []Diagnostic) error {
	var failed []Diagnostic
	for _, d := range diags {
		if d.Severity == SeverityError {
			failed = append(failed, d)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &ValidationError{Diagnostics: failed}
}

// CheckSchema reports layout problems of s that compile accepted.
func (c *Codec) CheckSchema(s *Schema) []Diagnostic {
	if s == nil || s.Header == nil {
		return []Diagnostic{{Severity: SeverityError, Code: CodeSchemaInvalid, Message: "no header structure"}}
	}
	diags := s.Warnings()
	if _, _, ok := s.Header.Field(c.lengthFields...); !ok {
		diags = append(diags, Diagnostic{
			Severity: SeverityInfo,
			Code:     CodeLengthHeader,
			Path:     "header",
			Message:  "no message length field, length will not be stamped",
		})
	}
	for _, d := range []*Dialect{s.Request, s.Response} {
		if d != nil {
			diags = checkCounters(diags, d.Elements, string(d.Section))
		}
	}
	return diags
}

// CheckSchema reports layout problems of s using the default Codec.
func CheckSchema(s *Schema) []Diagnostic {
	return defaultCodec.CheckSchema(s)
}

func checkCounters(diags []Diagnostic, elements []Element, path string) []Diagnostic {
	for _, el := range elements {
		o, ok := el.(*Occurrence)
		if !ok {
			continue
		}
		opath := path + "." + o.Key()
		if width := len(strconv.Itoa(o.Count)); width > o.CountFieldLength {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeCounterOverflow,
				Path:     opath,
				Message:  fmt.Sprintf("count %d does not fit in %d counter positions", o.Count, o.CountFieldLength),
			})
		}
		diags = checkCounters(diags, o.Elements, opath)
	}
	return diags
}

// NumericRule requires decimal digits only.
type NumericRule struct {
	AllowEmpty bool
}

func (r *NumericRule) Name() string { return "numeric" }

func (r *NumericRule) Validate(_ *Field, value string) error {
	if value == "" {
		if r.AllowEmpty {
			return nil
		}
		return fmt.Errorf("numeric field is blank")
	}
	for i, ch := range value {
		if ch < '0' || ch > '9' {
			return fmt.Errorf("non-numeric character %q at position %d", ch, i)
		}
	}
	return nil
}

// PresenceRule requires a non-blank value.
type PresenceRule struct{}

func (r *PresenceRule) Name() string { return "presence" }

func (r *PresenceRule) Validate(_ *Field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("required field is blank")
	}
	return nil
}

// ValuesRule restricts a field to an enumerated set of values.
type ValuesRule struct {
	Allowed []string
}

func (r *ValuesRule) Name() string { return "values" }

func (r *ValuesRule) Validate(_ *Field, value string) error {
	for _, a := range r.Allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("value %q not in %v", value, r.Allowed)
}

// CustomRule wraps an arbitrary check.
type CustomRule struct {
	RuleName     string
	ValidateFunc func(f *Field, value string) error
}

func (r *CustomRule) Name() string { return r.RuleName }

func (r *CustomRule) Validate(f *Field, value string) error {
	return r.ValidateFunc(f, value)
}

// Date and time layouts understood by DateTimeRule.
const (
	FormatDDMMYYYY = "DDMMYYYY"
	FormatYYYYMMDD = "YYYYMMDD"
	FormatYYMMDD   = "YYMMDD"
	FormatHHMMSS   = "HHMMSS"
)

var dateTimeLayouts = map[string]string{
	FormatDDMMYYYY: "02012006",
	FormatYYYYMMDD: "20060102",
	FormatYYMMDD:   "060102",
	FormatHHMMSS:   "150405",
}

// DateTimeRule requires a value that parses in Format.
type DateTimeRule struct {
	Format string
}

func (r *DateTimeRule) Name() string { return "datetime" }

func (r *DateTimeRule) Validate(_ *Field, value string) error {
	layout, ok := dateTimeLayouts[r.Format]
	if !ok {
		return fmt.Errorf("unknown format %q", r.Format)
	}
	if len(value) != len(layout) {
		return fmt.Errorf("invalid %s value: expected %d digits, got %d", r.Format, len(layout), len(value))
	}
	if _, err := time.Parse(layout, value); err != nil {
		return fmt.Errorf("invalid %s value %q", r.Format, value)
	}
	return nil
}

// AddHeaderDateRules registers the date and time checks of the standard
// header: FECHA as DDMMYYYY and HORA as HHMMSS.
func (v *Validator) AddHeaderDateRules() {
	v.AddRule(FieldDate, &DateTimeRule{Format: FormatDDMMYYYY})
	v.AddRule(FieldTime, &DateTimeRule{Format: FormatHHMMSS})
}
