package mqcodec

import "github.com/rs/zerolog"

// Option configures a Codec.
type Option func(*Codec)

// WithLogger routes diagnostics to log.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Codec) {
		c.log = log
	}
}

// WithMetrics records encode/decode activity in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Codec) {
		c.metrics = m
	}
}

// WithLengthFieldNames sets the header field names that hold the total
// message length. Names are matched canonically.
func WithLengthFieldNames(names ...string) Option {
	return func(c *Codec) {
		if len(names) > 0 {
			c.lengthFields = names
		}
	}
}

// WithReturnCodeFieldNames sets the header field names consulted for the
// return code during dialect detection.
func WithReturnCodeFieldNames(names ...string) Option {
	return func(c *Codec) {
		if len(names) > 0 {
			c.returnCodeFields = names
		}
	}
}

// WithSentStateFieldNames sets the header field names consulted for the
// sent state during dialect detection.
func WithSentStateFieldNames(names ...string) Option {
	return func(c *Codec) {
		if len(names) > 0 {
			c.sentStateFields = names
		}
	}
}

// WithHeaderDefaults overrides the canned value of header fields by name.
// Values set here win over the well-known table but not over a field's own
// declared default.
func WithHeaderDefaults(values map[string]string) Option {
	return func(c *Codec) {
		if c.headerDefaults == nil {
			c.headerDefaults = make(map[string]string, len(values))
		}
		for name, v := range values {
			c.headerDefaults[Canonicalize(name)] = v
		}
	}
}
