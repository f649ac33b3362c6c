package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix: 环境变量前缀。
const EnvPrefix = "AMPHIALIGN_"

// DefaultLimit: 未配置时每次处理的行数。
const DefaultLimit = 100

// DefaultOutput: 默认导出产物标识。
const DefaultOutput = "aligned"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	limit := DefaultLimit
	return Config{
		Limit:       &limit,
		Concurrency: 1,
		Output:      DefaultOutput,
		Logging:     Logging{Level: "info"},
		Components: Components{
			Reader:   "corpus",
			Aligner:  "greedy",
			Exporter: "jsonl",
			Writer:   "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	if over.Offset != 0 {
		out.Offset = over.Offset
	}
	if over.Limit != nil {
		v := *over.Limit
		out.Limit = &v
	}
	if over.Concurrency != 0 {
		out.Concurrency = over.Concurrency
	}
	if s := strings.TrimSpace(over.Output); s != "" {
		out.Output = s
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Aligner != "" {
		out.Components.Aligner = over.Components.Aligner
	}
	if over.Components.Exporter != "" {
		out.Components.Exporter = over.Components.Exporter
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Aligner) > 0 {
		out.Options.Aligner = cloneRaw(over.Options.Aligner)
	}
	if len(over.Options.Exporter) > 0 {
		out.Options.Exporter = cloneRaw(over.Options.Exporter)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 前缀 AMPHIALIGN_；集合之外的键忽略。
// 支持：OFFSET, LIMIT, CONCURRENCY, OUTPUT, LOG_LEVEL, COMPONENTS_*, OPTIONS_*_JSON。
// 数值非法时返回错误，而不是静默忽略。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			// 空值视为未设置，避免清空 config.json
			continue
		}
		switch key {
		case "OFFSET", "LIMIT", "CONCURRENCY":
			n, err := strconv.Atoi(val)
			if err != nil {
				return Config{}, errors.New("config: " + EnvPrefix + key + " must be an integer")
			}
			switch key {
			case "OFFSET":
				over.Offset = n
			case "LIMIT":
				over.Limit = &n
			default:
				over.Concurrency = n
			}
		case "OUTPUT":
			over.Output = val
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_ALIGNER":
			over.Components.Aligner = val
		case "COMPONENTS_EXPORTER":
			over.Components.Exporter = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		case "OPTIONS_READER_JSON":
			over.Options.Reader = json.RawMessage(val)
		case "OPTIONS_ALIGNER_JSON":
			over.Options.Aligner = json.RawMessage(val)
		case "OPTIONS_EXPORTER_JSON":
			over.Options.Exporter = json.RawMessage(val)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = json.RawMessage(val)
		}
	}
	return over, nil
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
