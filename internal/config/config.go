package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	SupportedSchema = "v1"
	// EnvPrefix prefixes every environment override. Nested keys use a
	// double underscore: XFORM_KAFKA__TOPIC sets kafka.topic.
	EnvPrefix = "XFORM_"
)

type LogConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	JSON  bool   `koanf:"json"`
}

// KafkaConfig configures the kafka event sink.
type KafkaConfig struct {
	Brokers      []string `koanf:"brokers"`
	Topic        string   `koanf:"topic"`
	Version      string   `koanf:"version"`
	RequiredAcks string   `koanf:"required_acks" validate:"omitempty,oneof=none local all"`
}

type Config struct {
	SchemaVersion string `koanf:"schema_version"`
	// Manifest is the registrations file. Relative paths resolve against
	// the directory of the config file.
	Manifest      string      `koanf:"manifest" validate:"required"`
	WorkspaceRoot string      `koanf:"workspace_root" validate:"required"`
	Parallelism   int         `koanf:"parallelism" validate:"gte=1"`
	MetricsPort   int         `koanf:"metrics_port" validate:"gte=0,lte=65535"`
	Log           LogConfig   `koanf:"log"`
	Sinks         []string    `koanf:"sinks" validate:"dive,oneof=stdout kafka"`
	Kafka         KafkaConfig `koanf:"kafka"`
}

// Load merges the YAML file at path (if any) with XFORM_ environment
// variables, applies defaults and validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return Config{}, fmt.Errorf("config schema_version %q not supported (want %s)", sv, SupportedSchema)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			// env values arrive as plain strings; lists are comma separated.
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg, path)
	if err := check(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func applyDefaults(c *Config, path string) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SupportedSchema
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = filepath.Join(".xform", "workspaces")
	}
	if c.Kafka.RequiredAcks == "" {
		c.Kafka.RequiredAcks = "all"
	}
	if path != "" {
		dir := filepath.Dir(path)
		c.Manifest = resolve(dir, c.Manifest)
		c.WorkspaceRoot = resolve(dir, c.WorkspaceRoot)
	}
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func check(c *Config) error {
	if err := Validate(c); err != nil {
		return err
	}
	if slices.Contains(c.Sinks, "kafka") && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka sink needs kafka.brokers and kafka.topic")
	}
	return nil
}
