package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	configPathEnv = "CONFIG_PATH"
	envPrefix     = "HOOKIFIED_"
)

// ConfigManager loads configuration from an optional config file
// (CONFIG_PATH, yaml or json) with HOOKIFIED_* environment overrides,
// decoded into T via `key` struct tags.
type ConfigManager[T any] struct {
	k      *koanf.Koanf
	config T
}

func NewConfigManager[T any]() (*ConfigManager[T], error) {
	k := koanf.New(".")

	if path := os.Getenv(configPathEnv); path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// HOOKIFIED_GATEWAY_HTTP_PORT=8080 -> gateway.http.port
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cm := &ConfigManager[T]{k: k}
	if err := cm.unmarshal(); err != nil {
		return nil, err
	}
	return cm, nil
}

// NewConfigManagerFromBytes builds a manager from raw yaml, for tests.
func NewConfigManagerFromBytes[T any](raw []byte) (*ConfigManager[T], error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(raw), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("load raw config: %w", err)
	}
	cm := &ConfigManager[T]{k: k}
	if err := cm.unmarshal(); err != nil {
		return nil, err
	}
	return cm, nil
}

func (cm *ConfigManager[T]) unmarshal() error {
	err := cm.k.UnmarshalWithConf("", &cm.config, koanf.UnmarshalConf{
		Tag: "key",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cm.config,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	})
	if err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// GetConfig returns the decoded configuration.
func (cm *ConfigManager[T]) GetConfig() T {
	return cm.config
}

func parserFor(path string) (koanf.Parser, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return kyaml.Parser(), nil
	case ".json":
		return kjson.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config format: %s", path)
}
