package mqcodec

import (
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"
)

var (
	numericMarkers      = []string{"numerico", "numeric"}
	alphanumericMarkers = []string{"alfanumerico", "alphanumeric"}
)

// ClassifyFieldType maps a free-form type tag onto FieldType. A tag is numeric
// when it mentions a numeric marker and no alphanumeric marker; anything else,
// including the empty tag, is alphanumeric.
func ClassifyFieldType(tag string) FieldType {
	t := Canonicalize(tag)
	if containsAny(t, numericMarkers) && !containsAny(t, alphanumericMarkers) {
		return FieldTypeNumeric
	}
	return FieldTypeAlphanumeric
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Format renders value in exactly length characters. Numeric values are
// right justified with '0' and keep their rightmost length characters on
// overflow; everything else is left justified with ' ' and keeps the leftmost
// characters. A nil value formats as the empty string.
func Format(value interface{}, length int, fieldType FieldType) string {
	if length <= 0 {
		return ""
	}
	s := toText(value)
	switch fieldType {
	case FieldTypeNumeric:
		return padLeft(s, length, '0')
	default:
		return padRight(s, length, ' ')
	}
}

// FormatTag is Format for an unclassified type tag.
func FormatTag(value interface{}, length int, tag string) string {
	return Format(value, length, ClassifyFieldType(tag))
}

// FormatField formats value with the field's declared length and type.
func FormatField(f *Field, value interface{}) string {
	return Format(value, f.Length, f.Type)
}

// Parse turns a fixed-width slice into its logical value. Trimming is the
// same for both field types.
func Parse(slice string, _ FieldType) string {
	return strings.TrimSpace(slice)
}

func toText(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}

// padLeft works on runes so that a position is one character, not one byte.
func padLeft(s string, length int, pad rune) string {
	r := []rune(s)
	if len(r) >= length {
		return string(r[len(r)-length:])
	}
	var b strings.Builder
	b.Grow(length)
	for i := len(r); i < length; i++ {
		b.WriteRune(pad)
	}
	b.WriteString(s)
	return b.String()
}

func padRight(s string, length int, pad rune) string {
	r := []rune(s)
	if len(r) >= length {
		return string(r[:length])
	}
	var b strings.Builder
	b.Grow(length)
	b.WriteString(s)
	for i := len(r); i < length; i++ {
		b.WriteRune(pad)
	}
	return b.String()
}

// runeLen counts character positions.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
