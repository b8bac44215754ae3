package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkadit/mqcodec"
)

func newEncodeCmd() *cobra.Command {
	var in, section string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a JSON logical message into its wire form",
		Long: "Reads {\"header\": {...}, \"data\": {...}} and prints the fixed-width message.\n" +
			"Absent values are filled with defaults.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			defer e.dumpMetrics(cmd.ErrOrStderr())

			s, err := e.loadSchema()
			if err != nil {
				return err
			}
			sec, err := mqcodec.ParseSection(section)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			msg, err := parseLogical(raw, sec)
			if err != nil {
				return fmt.Errorf("failed to parse logical message: %w", err)
			}

			wire, err := e.codec.Encode(s, msg, sec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wire)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "input file, - for stdin")
	cmd.Flags().StringVar(&section, "section", "request", "dialect to encode: request or response")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var in string
	var validate bool
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a wire message into JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			defer e.dumpMetrics(cmd.ErrOrStderr())

			s, err := e.loadSchema()
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			wire := trimWire(raw)

			msg, decodeErr := e.codec.Decode(s, wire)
			if validate {
				v := mqcodec.NewValidator(e.codec, mqcodec.ValidationStrict)
				v.AddHeaderDateRules()
				msg.Diagnostics = v.Validate(s, wire)
			}
			if err := writeJSON(cmd.OutOrStdout(), msg, true); err != nil {
				return err
			}
			if decodeErr != nil {
				return decodeErr
			}
			if validate {
				return mqcodec.Strict(msg.Diagnostics)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "input file, - for stdin")
	cmd.Flags().BoolVar(&validate, "validate", false, "run strict validation and fail on errors")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var in string
	var encode, framed bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Decode (or encode) one message per input line concurrently",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			defer e.dumpMetrics(cmd.ErrOrStderr())

			s, err := e.loadSchema()
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			var lines []string
			if framed && !encode {
				lines, err = splitFramed(e.codec, s, raw)
			} else {
				lines, err = splitLines(raw)
			}
			if err != nil {
				return err
			}

			p := mqcodec.NewProcessor(e.codec, s, mqcodec.WithConcurrency(e.cfg.Processor.Concurrency))
			out := cmd.OutOrStdout()

			if encode {
				msgs := make([]*mqcodec.LogicalMessage, len(lines))
				for i, line := range lines {
					if msgs[i], err = parseLogical([]byte(line), mqcodec.SectionRequest); err != nil {
						return fmt.Errorf("line %d: failed to parse logical message: %w", i+1, err)
					}
				}
				wires, err := p.EncodeBatch(cmd.Context(), msgs)
				for _, w := range wires {
					fmt.Fprintln(out, w)
				}
				return err
			}

			msgs, err := p.DecodeBatch(cmd.Context(), lines)
			for _, msg := range msgs {
				if msg == nil {
					continue
				}
				if werr := writeJSON(out, msg, false); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "input file, - for stdin")
	cmd.Flags().BoolVar(&encode, "encode", false, "treat lines as JSON logical messages and encode them")
	cmd.Flags().BoolVar(&framed, "framed", false, "input is concatenated messages cut by their length header")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print a readable description of the service structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.loadSchema()
			if err != nil {
				return err
			}
			return mqcodec.Describe(cmd.OutOrStdout(), s)
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the service structure as a JSON definition",
		Long: "Writes {\"header\": {...}, \"service\": {...}} with the header resolved the same\n" +
			"way the other commands resolve it. The output is accepted by --service.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			sc, err := e.loadSchemaConfig()
			if err != nil {
				return err
			}
			return mqcodec.ExportSchemaConfig(cmd.OutOrStdout(), sc)
		},
	}
}

func newSkeletonCmd() *cobra.Command {
	var section string
	cmd := &cobra.Command{
		Use:   "skeleton",
		Short: "Print an empty JSON logical message for a dialect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.loadSchema()
			if err != nil {
				return err
			}
			sec, err := mqcodec.ParseSection(section)
			if err != nil {
				return err
			}
			data, err := mqcodec.Skeleton(s, sec)
			if err != nil {
				return err
			}
			msg := &mqcodec.LogicalMessage{
				Header:  mqcodec.HeaderSkeleton(s),
				Data:    data,
				Section: sec,
			}
			return writeJSON(cmd.OutOrStdout(), msg, true)
		},
	}
	cmd.Flags().StringVar(&section, "section", "request", "dialect: request or response")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report layout problems in the service structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newRuntimeEnv(cmd)
			if err != nil {
				return err
			}
			s, err := e.loadSchema()
			if err != nil {
				return err
			}
			diags := e.codec.CheckSchema(s)
			for _, d := range diags {
				fmt.Fprintln(cmd.OutOrStdout(), d.String())
			}
			return mqcodec.Strict(diags)
		},
	}
}

// splitFramed cuts concatenated messages at their length headers.
func splitFramed(c *mqcodec.Codec, s *mqcodec.Schema, b []byte) ([]string, error) {
	split, err := c.SplitMessages(s)
	if err != nil {
		return nil, err
	}
	var wires []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	sc.Split(split)
	for sc.Scan() {
		if w := trimWire(sc.Bytes()); strings.TrimSpace(w) != "" {
			wires = append(wires, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to frame input: %w", err)
	}
	return wires, nil
}

// parseLogical decodes a JSON logical message keeping numbers as
// json.Number, so account numbers wider than a float64 mantissa stay exact.
func parseLogical(raw []byte, section mqcodec.Section) (*mqcodec.LogicalMessage, error) {
	msg := mqcodec.NewLogicalMessage(section)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func writeJSON(w io.Writer, v interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// splitLines returns the non-empty lines of b with terminators removed.
func splitLines(b []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if line := trimWire(sc.Bytes()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}
