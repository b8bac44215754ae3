package mqcodec

import (
	"context"
	"sync"
)

// Processor runs a Codec over many messages of one schema concurrently.
type Processor struct {
	codec        *Codec
	schema       *Schema
	concurrency  int
	errorHandler func(error)
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithConcurrency bounds the number of messages handled at once.
func WithConcurrency(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithErrorHandler receives every per-message error of a batch or stream.
func WithErrorHandler(handler func(error)) ProcessorOption {
	return func(p *Processor) {
		p.errorHandler = handler
	}
}

// NewProcessor creates a Processor for schema. A nil codec uses the default.
func NewProcessor(c *Codec, schema *Schema, opts ...ProcessorOption) *Processor {
	if c == nil {
		c = defaultCodec
	}
	p := &Processor{
		codec:       c,
		schema:      schema,
		concurrency: 4,
	}
	p.errorHandler = func(err error) {
		p.codec.log.Error().Err(err).Msg("processor error")
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// DecodeBatch decodes wires concurrently. Results keep the input order. A
// message whose section is missing is still returned at its position; the
// first such error is returned alongside the results.
func (p *Processor) DecodeBatch(ctx context.Context, wires []string) ([]*LogicalMessage, error) {
	results := make([]*LogicalMessage, len(wires))
	errs := make([]error, len(wires))

	err := p.fanOut(ctx, len(wires), func(i int) {
		msg, err := p.codec.Decode(p.schema, wires[i])
		results[i] = msg
		errs[i] = err
	})
	if err != nil {
		return nil, err
	}
	return results, p.firstError(errs)
}

// EncodeBatch encodes msgs concurrently, each into its own Section; an empty
// section means request.
func (p *Processor) EncodeBatch(ctx context.Context, msgs []*LogicalMessage) ([]string, error) {
	results := make([]string, len(msgs))
	errs := make([]error, len(msgs))

	err := p.fanOut(ctx, len(msgs), func(i int) {
		section := SectionRequest
		if msgs[i] != nil && msgs[i].Section != "" {
			section = msgs[i].Section
		}
		results[i], errs[i] = p.codec.Encode(p.schema, msgs[i], section)
	})
	if err != nil {
		return nil, err
	}
	return results, p.firstError(errs)
}

// fanOut calls job for 0..n-1 with at most p.concurrency in flight.
func (p *Processor) fanOut(ctx context.Context, n int, job func(int)) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-semaphore }()
			job(idx)
		}(i)
	}

	wg.Wait()
	return nil
}

func (p *Processor) firstError(errs []error) error {
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if p.errorHandler != nil {
			p.errorHandler(err)
		}
		if first == nil {
			first = err
		}
	}
	return first
}

// DecodeStream decodes every wire read from in and sends the messages to out
// until in is closed or ctx is done. Output order is not preserved. Messages
// that fail to decode go to the error handler only.
func (p *Processor) DecodeStream(ctx context.Context, in <-chan string, out chan<- *LogicalMessage) error {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()

		case wire, ok := <-in:
			if !ok {
				wg.Wait()
				return nil
			}

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			}

			wg.Add(1)
			go func(w string) {
				defer wg.Done()
				defer func() { <-semaphore }()

				msg, err := p.codec.Decode(p.schema, w)
				if err != nil {
					if p.errorHandler != nil {
						p.errorHandler(err)
					}
					return
				}

				select {
				case out <- msg:
				case <-ctx.Done():
				}
			}(wire)
		}
	}
}
