package mqcodec

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessageClean(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	assert.Empty(t, ValidateMessage(s, testRequestWire))
	assert.Empty(t, ValidateMessage(s, testResponseWire))
	assert.NoError(t, Strict(ValidateMessage(s, testRequestWire)))
}

func TestValidateMessageFindings(t *testing.T) {
	t.Parallel()

	s := testSchema(t)

	tests := []struct {
		name     string
		wire     string
		code     string
		path     string
		severity Severity
	}{
		{
			name:     "non numeric amount",
			wire:     testRequestWire[:34] + "12a45" + testRequestWire[39:],
			code:     CodeNonNumeric,
			path:     "request.occurrence_1[0].MONTO",
			severity: SeverityError,
		},
		{
			name:     "non numeric header",
			wire:     "000061OT00X000" + testRequestWire[14:],
			code:     CodeNonNumeric,
			path:     "header." + FieldReturnCode,
			severity: SeverityError,
		},
		{
			name:     "wrong length header",
			wire:     "000060" + testRequestWire[6:],
			code:     CodeLengthHeader,
			path:     "header.LONGITUD",
			severity: SeverityError,
		},
		{
			name:     "short body",
			wire:     testRequestWire[:40],
			code:     CodeLengthMismatch,
			path:     "request",
			severity: SeverityError,
		},
		{
			name:     "short header",
			wire:     testRequestWire[:10],
			code:     CodeLengthMismatch,
			path:     "header",
			severity: SeverityError,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			diags := ValidateMessage(s, tt.wire)

			var found bool
			for _, d := range diags {
				if d.Code == tt.code && d.Path == tt.path {
					found = true
					assert.Equal(t, tt.severity, d.Severity)
				}
			}
			assert.True(t, found, "want %s at %s in %v", tt.code, tt.path, diags)

			err := Strict(diags)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestValidateTrailingAndDeclaredTotals(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Request.TotalLength = 50
	s, err := Compile(cfg)
	require.NoError(t, err)

	diags := NewValidator(nil, ValidationBasic).Validate(s, testRequestWire)
	d, ok := findCode(diags, CodeLengthMismatch)
	require.True(t, ok)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Contains(t, d.Message, "declared total is 50")
	assert.NoError(t, Strict(diags))
}

func TestValidateBasicSkipsContentRules(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	wire := testRequestWire[:34] + "12a45" + testRequestWire[39:]

	assert.Empty(t, NewValidator(nil, ValidationBasic).Validate(s, wire))
	assert.Nil(t, NewValidator(nil, ValidationNone).Validate(s, "garbage"))
}

func TestValidateMissingSection(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Response = nil
	s, err := Compile(cfg)
	require.NoError(t, err)

	diags := ValidateMessage(s, testResponseWire)
	assert.True(t, hasCode(diags, CodeSectionMissing))

	diags = ValidateMessage(nil, testResponseWire)
	assert.True(t, hasCode(diags, CodeSchemaInvalid))
}

func TestValidatorRules(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	v := NewValidator(nil, ValidationStrict)
	v.AddRule("glosa", &ValuesRule{Allowed: []string{"PAGO", ""}})
	v.AddGlobalRule(&CustomRule{RuleName: "no-z", ValidateFunc: func(_ *Field, value string) error {
		if strings.Contains(value, "Z") {
			return fmt.Errorf("contains Z")
		}
		return nil
	}})

	assert.Empty(t, v.Validate(s, testRequestWire))

	wire := strings.Replace(testRequestWire, "PAGO", "ZETA", 1)
	diags := v.Validate(s, wire)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, CodeRuleViolation, d.Code)
		assert.Equal(t, "request.occurrence_1[0].GLOSA", d.Path)
	}
	assert.Contains(t, diags[0].Message, "values")
	assert.Contains(t, diags[1].Message, "no-z")
}

func TestValidatorPresence(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Request.Elements[1].Required = "S"
	s, err := Compile(cfg)
	require.NoError(t, err)

	wire := testRequestWire[:24] + spaces(8) + testRequestWire[32:]
	diags := ValidateMessage(s, wire)
	d, ok := findCode(diags, CodeRequiredMissing)
	require.True(t, ok)
	assert.Equal(t, "request.NOMBRE", d.Path)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.NoError(t, Strict(diags))
}

func TestValidateLogical(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Request.Elements[0].Required = "Si"
	s, err := Compile(cfg)
	require.NoError(t, err)

	msg := NewLogicalMessage(SectionRequest)
	msg.Header[FieldChannel] = "ONLINE"
	msg.Data["NOMBRE"] = "ANA"
	msg.Data["occurrence_1"] = []Record{{"MONTO": "1O0"}, {}, {}, {}}

	v := NewValidator(nil, ValidationStrict)
	diags := v.ValidateLogical(s, msg, SectionRequest)

	d, ok := findCode(diags, CodeValueTruncated)
	require.True(t, ok)
	assert.Equal(t, "header."+FieldChannel, d.Path)

	d, ok = findCode(diags, CodeRequiredMissing)
	require.True(t, ok)
	assert.Equal(t, "request.CUENTA", d.Path)

	d, ok = findCode(diags, CodeOccurrenceOverflow)
	require.True(t, ok)
	assert.Equal(t, "request.occurrence_1", d.Path)

	d, ok = findCode(diags, CodeNonNumeric)
	require.True(t, ok)
	assert.Equal(t, "request.occurrence_1[0].MONTO", d.Path)

	assert.Empty(t, v.ValidateLogical(s, testRequestMessage(), SectionRequest))

	diags = v.ValidateLogical(s, nil, SectionResponse)
	assert.False(t, hasCode(diags, CodeSchemaInvalid))

	cfg.Response = nil
	s, err = Compile(cfg)
	require.NoError(t, err)
	diags = v.ValidateLogical(s, nil, SectionResponse)
	assert.True(t, hasCode(diags, CodeSectionMissing))
}

func TestDateTimeRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		value  string
		ok     bool
	}{
		{FormatDDMMYYYY, "18092012", true},
		{FormatDDMMYYYY, "32092012", false},
		{FormatDDMMYYYY, "1809201", false},
		{FormatYYYYMMDD, "20120918", true},
		{FormatYYMMDD, "120918", true},
		{FormatHHMMSS, "114044", true},
		{FormatHHMMSS, "256060", false},
		{"JULIAN", "2012262", false},
	}
	for _, tt := range tests {
		err := (&DateTimeRule{Format: tt.format}).Validate(nil, tt.value)
		if tt.ok {
			assert.NoError(t, err, "%s %s", tt.format, tt.value)
		} else {
			assert.Error(t, err, "%s %s", tt.format, tt.value)
		}
	}
}

func TestAddHeaderDateRules(t *testing.T) {
	t.Parallel()

	s, err := Compile(&SchemaConfig{Header: DefaultHeaderConfig(), Request: &DialectConfig{}})
	require.NoError(t, err)
	wire, err := Encode(s, nil, SectionRequest)
	require.NoError(t, err)

	v := NewValidator(nil, ValidationStrict)
	v.AddHeaderDateRules()
	assert.Empty(t, v.Validate(s, wire))

	bad := strings.Replace(wire, "18092012", "31022012", 1)
	diags := v.Validate(s, bad)
	d, ok := findCode(diags, CodeRuleViolation)
	require.True(t, ok)
	assert.Equal(t, "header."+FieldDate, d.Path)
}

func TestCheckSchema(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CheckSchema(testSchema(t)))

	cfg := testConfig()
	cfg.Request.TotalLength = 99
	cfg.Request.Elements[2].Count = 150
	cfg.Response.Elements[1].Fields[1].Count = 12
	s, err := Compile(cfg)
	require.NoError(t, err)

	diags := CheckSchema(s)
	assert.True(t, hasCode(diags, CodeLengthMismatch))

	var paths []string
	for _, d := range diags {
		if d.Code == CodeCounterOverflow {
			paths = append(paths, d.Path)
		}
	}
	assert.ElementsMatch(t, []string{"request.occurrence_1", "response.MOVIMIENTOS.DETALLE"}, paths)

	diags = New(WithLengthFieldNames("NOPE")).CheckSchema(testSchema(t))
	d, ok := findCode(diags, CodeLengthHeader)
	require.True(t, ok)
	assert.Equal(t, SeverityInfo, d.Severity)

	assert.True(t, hasCode(CheckSchema(nil), CodeSchemaInvalid))
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	err := Strict([]Diagnostic{
		{Severity: SeverityWarning, Code: CodeTruncated, Message: "ignored"},
		{Severity: SeverityError, Code: CodeNonNumeric, Path: "request.A", Message: "bad"},
		{Severity: SeverityError, Code: CodeLengthHeader, Message: "worse"},
	})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Diagnostics, 2)
	assert.Equal(t, "validation failed: error non_numeric at request.A: bad (and 1 more)", err.Error())
}

func TestValidateRepeatedHeaderNames(t *testing.T) {
	t.Parallel()

	s, err := Compile(&SchemaConfig{
		Header: &HeaderConfig{Fields: []FieldConfig{
			{Name: "LONGITUD", Length: 4, Type: "numerico"},
			{Name: "FILLER", Length: 2},
			{Name: "FILLER", Length: 2},
		}},
		Request: &DialectConfig{Elements: []ElementConfig{
			{Kind: KindField, Name: "DATO", Length: 3},
		}},
	})
	require.NoError(t, err)

	diags := ValidateMessage(s, "0011ABCDXYZ")
	assert.False(t, hasCode(diags, CodeLengthMismatch), "%v", diags)
	assert.NoError(t, Strict(diags))

	diags = ValidateMessage(s, "0011ABC")
	d, ok := findCode(diags, CodeLengthMismatch)
	require.True(t, ok)
	assert.Equal(t, "header", d.Path)
}
