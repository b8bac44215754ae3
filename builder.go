package mqcodec

import "sync"

var builderPool = sync.Pool{
	New: func() interface{} {
		return &Builder{
			errors: make([]error, 0, 4),
		}
	},
}

// Builder assembles a LogicalMessage field by field.
type Builder struct {
	msg    *LogicalMessage
	errors []error
}

func NewBuilder(section Section) *Builder {
	b := builderPool.Get().(*Builder)
	b.msg = NewLogicalMessage(section)
	b.errors = b.errors[:0]
	return b
}

// Release returns the builder to the pool
func (b *Builder) Release() {
	b.msg = nil
	b.errors = b.errors[:0]
	builderPool.Put(b)
}

func (b *Builder) Section(section Section) *Builder {
	b.msg.Section = section
	return b
}

func (b *Builder) Header(name string, value interface{}) *Builder {
	if err := checkScalar(name, value); err != nil {
		b.errors = append(b.errors, err)
		return b
	}
	b.msg.Header[name] = value
	return b
}

func (b *Builder) Field(name string, value interface{}) *Builder {
	if err := checkScalar(name, value); err != nil {
		b.errors = append(b.errors, err)
		return b
	}
	b.msg.Data[name] = value
	return b
}

// Occurrence appends repetitions to the slot key, e.g. "occurrence_3".
func (b *Builder) Occurrence(key string, recs ...Record) *Builder {
	if key == "" {
		b.errors = append(b.errors, &FieldError{Path: key, Err: ErrEmptyName})
		return b
	}
	existing, _ := b.msg.Data[key].([]Record)
	b.msg.Data[key] = append(existing, recs...)
	return b
}

// ChannelAndService is a shortcut for the two routing header fields.
func (b *Builder) ChannelAndService(channel, service string) *Builder {
	return b.Header(FieldChannel, channel).Header(FieldService, service)
}

func (b *Builder) Build() (*LogicalMessage, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	msg := b.msg
	b.msg = nil // Transfer ownership
	return msg, nil
}

func (b *Builder) MustBuild() *LogicalMessage {
	if len(b.errors) > 0 {
		panic(b.errors[0])
	}
	msg := b.msg
	b.msg = nil // Transfer ownership
	return msg
}

func checkScalar(name string, value interface{}) error {
	if name == "" {
		return &FieldError{Path: name, Err: ErrEmptyName}
	}
	switch value.(type) {
	case Record, map[string]interface{}, []Record, []interface{}, []map[string]interface{}:
		return &FieldError{Path: name, Err: ErrUnsupportedValue}
	}
	return nil
}
