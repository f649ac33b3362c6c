package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"amphialign/internal/pipeline"
	"amphialign/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if cfg.Offset < 0 {
		return errors.New("config: offset must be >= 0")
	}
	if cfg.Concurrency < 1 {
		return errors.New("config: concurrency must be >= 1")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return errors.New("config: output not set")
	}
	d := Defaults()
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Aligner, d.Components.Aligner); registry.Aligner[name] == nil {
		return fmt.Errorf("config: aligner %q not registered", name)
	}
	if name := effName(cfg.Components.Exporter, d.Components.Exporter); registry.Exporter[name] == nil {
		return fmt.Errorf("config: exporter %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults()
	var comp pipeline.Components
	var err error
	if comp.Reader, err = registry.Reader[effName(cfg.Components.Reader, d.Components.Reader)](cfg.Options.Reader); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, wrap("reader", err)
	}
	if comp.Aligner, err = registry.Aligner[effName(cfg.Components.Aligner, d.Components.Aligner)](cfg.Options.Aligner); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, wrap("aligner", err)
	}
	if comp.Exporter, err = registry.Exporter[effName(cfg.Components.Exporter, d.Components.Exporter)](cfg.Options.Exporter); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, wrap("exporter", err)
	}
	if comp.Writer, err = registry.Writer[effName(cfg.Components.Writer, d.Components.Writer)](cfg.Options.Writer); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, wrap("writer", err)
	}
	set := pipeline.Settings{
		Offset:      cfg.Offset,
		Limit:       cfg.EffLimit(),
		Concurrency: cfg.Concurrency,
		Output:      strings.TrimSpace(cfg.Output),
	}
	return comp, set, nil
}

func wrap(comp string, err error) error {
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &te) {
		return fmt.Errorf("config: options.%s: invalid JSON: %w", comp, err)
	}
	return fmt.Errorf("config: options.%s: %w", comp, err)
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
