package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Offset/Limit: 语料行窗口。Limit<=0 表示读取到文件末尾。
	Offset int `json:"offset"`
	// Limit 使用指针区分“未设置”与显式 0。
	Limit       *int    `json:"limit,omitempty"`
	Concurrency int     `json:"concurrency"`
	// Output: 导出产物标识（交给 Writer 映射为文件名）。
	Output  string  `json:"output"`
	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader   string `json:"reader"`
	Aligner  string `json:"aligner"`
	Exporter string `json:"exporter"`
	Writer   string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader   json.RawMessage `json:"reader"`
	Aligner  json.RawMessage `json:"aligner"`
	Exporter json.RawMessage `json:"exporter"`
	Writer   json.RawMessage `json:"writer"`
}

// EffLimit 返回生效的 limit（未设置时为 DefaultLimit）。
func (c Config) EffLimit() int {
	if c.Limit == nil {
		return DefaultLimit
	}
	return *c.Limit
}
