package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"xform/internal/builtin"
	"xform/internal/config"
	"xform/internal/hashing"
	"xform/internal/logging"
	"xform/internal/pipeline"
	"xform/internal/telemetry"
	"xform/internal/transform"
	"xform/sink"
	"xform/sink/kafka"
	"xform/sink/stdout"
)

type Option func(*options)

type options struct {
	catalog  *transform.Catalog
	env      hashing.EnvironmentHasher
	registry *prometheus.Registry
}

// WithCatalog replaces the catalog of built-in implementations.
func WithCatalog(c *transform.Catalog) Option { return func(o *options) { o.catalog = c } }

// WithEnvironment sets the environment hasher used for fingerprints.
func WithEnvironment(e hashing.EnvironmentHasher) Option { return func(o *options) { o.env = e } }

func WithRegistry(r *prometheus.Registry) Option { return func(o *options) { o.registry = r } }

// Bootstrap wires logging, metrics, sinks and the compiled registrations.
// The metrics endpoint is shut down when ctx ends.
func Bootstrap(ctx context.Context, cfg config.Config, opts ...Option) (*Engine, error) {
	o := options{env: hashing.NewBuildInfoHasher(), registry: prometheus.NewRegistry()}
	for _, fn := range opts {
		fn(&o)
	}
	logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})

	// 1. implementations
	if o.catalog == nil {
		o.catalog = transform.NewCatalog()
		if err := builtin.Register(o.catalog); err != nil {
			return nil, err
		}
	}

	// 2. metrics
	metrics, err := telemetry.NewMetrics(o.registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	var metricsSrv *http.Server
	if cfg.MetricsPort > 0 {
		metricsSrv = telemetry.Expose(cfg.MetricsPort, o.registry)
		context.AfterFunc(ctx, func() { _ = metricsSrv.Close() })
	}

	// 3. registrations
	regs, err := pipeline.Compile(cfg.Manifest, o.catalog, o.env)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	for _, name := range regs.Names() {
		c, _ := regs.Get(name)
		metrics.Registered(c.Registration.Transformer().DisplayName())
	}

	// 4. sinks
	runner := pipeline.NewRunner(cfg.Parallelism, pipeline.WithObserver(metrics))
	for _, name := range cfg.Sinks {
		s, err := newSink(name, cfg)
		if err != nil {
			_ = runner.Close()
			return nil, err
		}
		runner.AddSink(s)
	}

	logging.L().Info("engine ready",
		"transforms", regs.Len(),
		"sinks", cfg.Sinks,
		"workspace_root", cfg.WorkspaceRoot,
		"parallelism", cfg.Parallelism,
	)
	return &Engine{
		regs:          regs,
		runner:        runner,
		metricsSrv:    metricsSrv,
		workspaceRoot: cfg.WorkspaceRoot,
	}, nil
}

func newSink(name string, cfg config.Config) (sink.Adapter, error) {
	s, err := sink.NewAdapter(name)
	if err != nil {
		return nil, err
	}
	switch name {
	case "stdout":
		err = s.Configure(stdout.Config{})
	case "kafka":
		err = s.Configure(kafka.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			Version:      cfg.Kafka.Version,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		})
	default:
		err = fmt.Errorf("no config block for sink %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("sink %s: %w", name, err)
	}
	return s, nil
}
