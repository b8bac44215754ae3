package mqcodec

import (
	"github.com/rs/zerolog"
)

var (
	defaultLengthFields     = []string{FieldMessageLength, "LONGITUD", "MESSAGE LENGTH", "LENGTH"}
	defaultReturnCodeFields = []string{FieldReturnCode, "RETURN CODE"}
	defaultSentStateFields  = []string{FieldSentState, "SENT STATE"}
)

// Codec converts between wire and logical messages. It holds configuration
// only; the schema is passed on each call, so one Codec can serve any number
// of schemas and goroutines.
type Codec struct {
	log              zerolog.Logger
	metrics          *Metrics
	lengthFields     []string
	returnCodeFields []string
	sentStateFields  []string
	headerDefaults   map[string]string
}

// New creates a Codec with the given options.
func New(opts ...Option) *Codec {
	c := &Codec{
		log:              zerolog.Nop(),
		lengthFields:     defaultLengthFields,
		returnCodeFields: defaultReturnCodeFields,
		sentStateFields:  defaultSentStateFields,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCodec = New()

// Encode serializes msg into the wire form of section using a default Codec.
func Encode(s *Schema, msg *LogicalMessage, section Section) (string, error) {
	return defaultCodec.Encode(s, msg, section)
}

// Decode parses wire using a default Codec.
func Decode(s *Schema, wire string) (*LogicalMessage, error) {
	return defaultCodec.Decode(s, wire)
}

// defaultFor resolves the value of a field that received none.
func (c *Codec) defaultFor(f *Field) string {
	if f.DefaultValue == nil && c.headerDefaults != nil {
		if v, ok := c.headerDefaults[f.canonical]; ok {
			return v
		}
	}
	return DefaultValue(f)
}

func (c *Codec) report(diags []Diagnostic, d Diagnostic) []Diagnostic {
	d.log(c.log)
	return append(diags, d)
}
