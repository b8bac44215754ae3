package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mkadit/mqcodec"
	"github.com/mkadit/mqcodec/internal/config"
	"github.com/mkadit/mqcodec/internal/log"
)

// runtimeEnv is everything a command needs once flags and config are merged.
type runtimeEnv struct {
	cfg      *config.Config
	log      zerolog.Logger
	codec    *mqcodec.Codec
	registry *prometheus.Registry
}

func newRuntimeEnv(cmd *cobra.Command) (*runtimeEnv, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)

	logger := log.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
	logger.Debug().
		Str("config_file", cfgFile).
		Str("service_file", cfg.Schema.ServiceFile).
		Int("concurrency", cfg.Processor.Concurrency).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("Configuration loaded")

	e := &runtimeEnv{cfg: cfg, log: logger}

	opts := []mqcodec.Option{mqcodec.WithLogger(logger)}
	if len(cfg.Codec.LengthFields) > 0 {
		opts = append(opts, mqcodec.WithLengthFieldNames(cfg.Codec.LengthFields...))
	}
	if len(cfg.Codec.HeaderDefaults) > 0 {
		opts = append(opts, mqcodec.WithHeaderDefaults(cfg.Codec.HeaderDefaults))
	}
	if cfg.Metrics.Enabled {
		e.registry = prometheus.NewRegistry()
		opts = append(opts, mqcodec.WithMetrics(mqcodec.NewMetrics(cfg.Metrics.Namespace, e.registry)))
	}
	e.codec = mqcodec.New(opts...)
	return e, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flag("log-level").Changed {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flag("log-pretty").Changed {
		cfg.Log.Pretty, _ = cmd.Flags().GetBool("log-pretty")
	}

	if cmd.Flag("header").Changed {
		cfg.Schema.HeaderFile, _ = cmd.Flags().GetString("header")
	}
	if cmd.Flag("service").Changed {
		cfg.Schema.ServiceFile, _ = cmd.Flags().GetString("service")
	}

	if cmd.Flag("concurrency").Changed {
		if n, _ := cmd.Flags().GetInt("concurrency"); n > 0 {
			cfg.Processor.Concurrency = n
		}
	}
	if cmd.Flag("metrics").Changed {
		cfg.Metrics.Enabled, _ = cmd.Flags().GetBool("metrics")
	}
}

// loadSchemaConfig reads the configured service, taking the header from the
// header file, the service file itself, or the standard header in that order.
func (e *runtimeEnv) loadSchemaConfig() (*mqcodec.SchemaConfig, error) {
	if e.cfg.Schema.ServiceFile == "" {
		return nil, fmt.Errorf("no service structure: set --service or schema.service_file")
	}
	sc, err := mqcodec.ReadSchemaConfigFile(e.cfg.Schema.ServiceFile)
	if err != nil {
		return nil, err
	}
	if e.cfg.Schema.HeaderFile != "" {
		hc, err := mqcodec.ReadHeaderConfigFile(e.cfg.Schema.HeaderFile)
		if err != nil {
			return nil, err
		}
		sc.Header = hc
	}
	if sc.Header == nil {
		e.log.Debug().Msg("service has no header, using the standard header")
		sc.Header = mqcodec.DefaultHeaderConfig()
	}
	return sc, nil
}

// loadSchema compiles the configured service.
func (e *runtimeEnv) loadSchema() (*mqcodec.Schema, error) {
	sc, err := e.loadSchemaConfig()
	if err != nil {
		return nil, err
	}
	s, err := mqcodec.Compile(sc)
	if err != nil {
		return nil, err
	}
	for _, w := range s.Warnings() {
		e.log.Warn().Str("code", w.Code).Str("path", w.Path).Msg(w.Message)
	}
	return s, nil
}

// dumpMetrics writes the gathered codec metrics in text exposition format.
func (e *runtimeEnv) dumpMetrics(w io.Writer) {
	if e.registry == nil {
		return
	}
	families, err := e.registry.Gather()
	if err != nil {
		e.log.Error().Err(err).Msg("failed to gather metrics")
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			e.log.Error().Err(err).Msg("failed to write metrics")
			return
		}
	}
}

// readInput reads the whole of path, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// trimWire drops the line terminator an editor or echo leaves behind; spaces
// are significant.
func trimWire(b []byte) string {
	return strings.TrimRight(string(b), "\r\n")
}
