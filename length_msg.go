package mqcodec

import (
	"bufio"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// ReadMessageLength reads the message length header of wire without
// decoding the rest. It needs only the header prefix up to the length field.
func (c *Codec) ReadMessageLength(s *Schema, wire string) (int, error) {
	if s == nil || s.Header == nil {
		return 0, &SchemaError{Path: "schema", Reason: "no header structure"}
	}
	f, offset, ok := s.Header.Field(c.lengthFields...)
	if !ok {
		return 0, ErrNoLengthField
	}
	start, ok := runeOffset([]byte(wire), offset)
	if !ok {
		return 0, fmt.Errorf("%w: wire ends before the length field", ErrInvalidLength)
	}
	end, ok := runeOffset([]byte(wire[start:]), f.Length)
	if !ok {
		return 0, fmt.Errorf("%w: wire ends inside the length field", ErrInvalidLength)
	}
	return parseASCIIToInt([]byte(wire[start : start+end]))
}

// ReadMessageLength reads the length header with the default Codec.
func ReadMessageLength(s *Schema, wire string) (int, error) {
	return defaultCodec.ReadMessageLength(s, wire)
}

// SplitMessages returns a bufio.SplitFunc that cuts a stream of concatenated
// messages at the boundaries given by each message's length header. A short
// final message is returned as is so the decoder can flag it truncated.
func (c *Codec) SplitMessages(s *Schema) (bufio.SplitFunc, error) {
	if s == nil || s.Header == nil {
		return nil, &SchemaError{Path: "schema", Reason: "no header structure"}
	}
	f, offset, ok := s.Header.Field(c.lengthFields...)
	if !ok {
		return nil, ErrNoLengthField
	}
	prefix := offset + f.Length

	return func(data []byte, atEOF bool) (int, []byte, error) {
		if len(data) == 0 {
			return 0, nil, nil
		}
		fieldStart, ok := runeOffset(data, offset)
		var fieldEnd int
		if ok {
			fieldEnd, ok = runeOffset(data[fieldStart:], f.Length)
			fieldEnd += fieldStart
		}
		if !ok {
			if atEOF {
				return len(data), data, nil
			}
			return 0, nil, nil
		}

		n, err := parseASCIIToInt(data[fieldStart:fieldEnd])
		if err != nil {
			return 0, nil, err
		}
		if n < prefix {
			return 0, nil, fmt.Errorf("%w: length header %d is shorter than its own prefix %d", ErrInvalidLength, n, prefix)
		}

		end, ok := runeOffset(data, n)
		if !ok {
			if atEOF {
				return len(data), data, nil
			}
			return 0, nil, nil
		}
		return end, data[:end], nil
	}, nil
}

// runeOffset is the byte offset just past the first n characters of data.
// It reports false when data holds fewer complete characters.
func runeOffset(data []byte, n int) (int, bool) {
	off := 0
	for i := 0; i < n; i++ {
		if off >= len(data) || !utf8.FullRune(data[off:]) {
			return off, false
		}
		_, size := utf8.DecodeRune(data[off:])
		off += size
	}
	return off, true
}

// parseASCIIToInt parses a zero padded decimal counter.
func parseASCIIToInt(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: empty length field", ErrInvalidLength)
	}
	for _, ch := range b {
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("%w: invalid character %q in length field", ErrInvalidLength, ch)
		}
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, fmt.Errorf("%w: length field %q out of range", ErrInvalidLength, b)
	}
	return n, nil
}
