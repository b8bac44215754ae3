package mqcodec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyFieldType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag  string
		want FieldType
	}{
		{"numerico", FieldTypeNumeric},
		{"Numérico", FieldTypeNumeric},
		{"NUMERIC", FieldTypeNumeric},
		{"Numérico (9)", FieldTypeNumeric},
		{"alfanumerico", FieldTypeAlphanumeric},
		{"Alfanumérico", FieldTypeAlphanumeric},
		{"alphanumeric", FieldTypeAlphanumeric},
		{"fecha", FieldTypeAlphanumeric},
		{"", FieldTypeAlphanumeric},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyFieldType(tt.tag))
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  interface{}
		length int
		tag    string
		want   string
	}{
		{"numeric pads left", "42", 5, "numerico", "00042"},
		{"numeric keeps rightmost", "12345", 3, "numerico", "345"},
		{"numeric non digits", "ab", 3, "numerico", "0ab"},
		{"numeric int", 7, 3, "numerico", "007"},
		{"numeric float", 12.0, 4, "numerico", "0012"},
		{"alnum pads right", "AB", 5, "alfanumerico", "AB   "},
		{"alnum keeps leftmost", "HELLO", 3, "alfanumerico", "HEL"},
		{"alnum exact", "HOLA", 4, "alfanumerico", "HOLA"},
		{"nil is empty", nil, 3, "alfanumerico", "   "},
		{"nil numeric", nil, 3, "numerico", "000"},
		{"untyped is alnum", "X", 2, "", "X "},
		{"accents count once", "ÑU", 3, "alfanumerico", "ÑU "},
		{"zero length", "X", 0, "alfanumerico", ""},
		{"bool", true, 5, "alfanumerico", "true "},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FormatTag(tt.value, tt.length, tt.tag)
			assert.Equal(t, tt.want, got)
			if tt.length > 0 {
				assert.Equal(t, tt.length, runeLen(got))
			}
		})
	}
}

func TestFormatField(t *testing.T) {
	t.Parallel()

	f := &Field{Name: "MONTO", Length: 6, Type: FieldTypeNumeric}
	assert.Equal(t, "001500", FormatField(f, "1500"))
	assert.Equal(t, "000000", FormatField(f, nil))
}

func TestParseTrims(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ANA", Parse("  ANA   ", FieldTypeAlphanumeric))
	assert.Equal(t, "00042", Parse("00042", FieldTypeNumeric))
	assert.Equal(t, "", Parse("     ", FieldTypeNumeric))
}

func TestFieldTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "numeric", FieldTypeNumeric.String())
	assert.Equal(t, "alphanumeric", FieldTypeAlphanumeric.String())
}

func TestFormatJSONNumberKeepsDigits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "123456789012345678", Format(json.Number("123456789012345678"), 18, FieldTypeNumeric))
	assert.Equal(t, "00123456789012345678", Format(json.Number("123456789012345678"), 20, FieldTypeNumeric))
}
