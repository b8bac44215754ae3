package mqcodec

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMessageLength(t *testing.T) {
	t.Parallel()

	s := testSchema(t)

	n, err := ReadMessageLength(s, testRequestWire)
	require.NoError(t, err)
	assert.Equal(t, testRequestLength, n)

	n, err = ReadMessageLength(s, "000035")
	require.NoError(t, err)
	assert.Equal(t, 35, n)

	_, err = ReadMessageLength(s, "0000")
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = ReadMessageLength(s, "00A035OT")
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = New(WithLengthFieldNames("NOPE")).ReadMessageLength(s, testRequestWire)
	assert.ErrorIs(t, err, ErrNoLengthField)

	_, err = ReadMessageLength(nil, testRequestWire)
	assert.ErrorIs(t, err, ErrSchemaInvalid)
}

func TestReadMessageLengthAfterMultibyte(t *testing.T) {
	t.Parallel()

	s, err := Compile(&SchemaConfig{Header: &HeaderConfig{Fields: []FieldConfig{
		{Name: "CANAL", Length: 2},
		{Name: "LONGITUD", Length: 4, Type: "numerico"},
	}}, Request: &DialectConfig{}})
	require.NoError(t, err)

	n, err := ReadMessageLength(s, "Ñ 0006")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func scanAll(t *testing.T, c *Codec, s *Schema, input string) ([]string, error) {
	t.Helper()
	split, err := c.SplitMessages(s)
	require.NoError(t, err)

	sc := bufio.NewScanner(strings.NewReader(input))
	sc.Buffer(make([]byte, 0, 16), 1024)
	sc.Split(split)

	var out []string
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

func TestSplitMessages(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	c := New()

	got, err := scanAll(t, c, s, testRequestWire+testResponseWire+testRequestWire)
	require.NoError(t, err)
	assert.Equal(t, []string{testRequestWire, testResponseWire, testRequestWire}, got)

	got, err = scanAll(t, c, s, testRequestWire+testResponseWire[:20])
	require.NoError(t, err)
	assert.Equal(t, []string{testRequestWire, testResponseWire[:20]}, got)

	got, err = scanAll(t, c, s, testRequestWire+"0003")
	require.NoError(t, err)
	assert.Equal(t, []string{testRequestWire, "0003"}, got)

	_, err = scanAll(t, c, s, "000002OT")
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = scanAll(t, c, s, "XXXXXXOT")
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestSplitMessagesRequiresLengthField(t *testing.T) {
	t.Parallel()

	_, err := New(WithLengthFieldNames("NOPE")).SplitMessages(testSchema(t))
	assert.ErrorIs(t, err, ErrNoLengthField)

	_, err = New().SplitMessages(nil)
	assert.ErrorIs(t, err, ErrSchemaInvalid)
}

func TestSplitMessagesDecodes(t *testing.T) {
	t.Parallel()

	s := testSchema(t)
	frames, err := scanAll(t, New(), s, testResponseWire+testRequestWire)
	require.NoError(t, err)
	require.Len(t, frames, 2)

	first, err := Decode(s, frames[0])
	require.NoError(t, err)
	assert.Equal(t, SectionResponse, first.Section)

	second, err := Decode(s, frames[1])
	require.NoError(t, err)
	assert.Equal(t, SectionRequest, second.Section)
	assert.Empty(t, second.Diagnostics)
}

func TestReadMessageLengthOutOfRange(t *testing.T) {
	t.Parallel()

	s, err := Compile(&SchemaConfig{Header: &HeaderConfig{Fields: []FieldConfig{
		{Name: "LONGITUD", Length: 25, Type: "numerico"},
	}}, Request: &DialectConfig{}})
	require.NoError(t, err)

	_, err = ReadMessageLength(s, strings.Repeat("9", 25))
	assert.ErrorIs(t, err, ErrInvalidLength)

	n, err := ReadMessageLength(s, zeros(23)+"25")
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}
