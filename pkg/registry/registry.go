package registry

import (
	"bytes"
	"encoding/json"

	"amphialign/pkg/align"
	"amphialign/pkg/contract"
	jsonl "amphialign/plugins/exporter/jsonl"
	corpus "amphialign/plugins/reader/corpus"
	wfs "amphialign/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.CorpusReader, error)

// NewAligner 工厂签名：接收原样 JSON Options。
type NewAligner func(raw json.RawMessage) (contract.Aligner, error)

// NewExporter 工厂签名：接收原样 JSON Options。
type NewExporter func(raw json.RawMessage) (contract.Exporter, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// corpus: 目录下按 <prefix>.<lang> 命名的平行语料 + 链接文件
	"corpus": func(raw json.RawMessage) (contract.CorpusReader, error) {
		var opts corpus.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return corpus.New(&opts), nil
	},
}

// AlignerOptions: 策略名按优先级排列；为空时使用默认序列。
type AlignerOptions struct {
	Strategies []string `json:"strategies"`
}

// Aligner 工厂注册表。
var Aligner = map[string]NewAligner{
	// greedy: 单次前向扫描，策略按顺序尝试
	"greedy": func(raw json.RawMessage) (contract.Aligner, error) {
		var opts AlignerOptions
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		ss := make([]align.Strategy, 0, len(opts.Strategies))
		for _, name := range opts.Strategies {
			s, err := align.ParseStrategy(name)
			if err != nil {
				return nil, err
			}
			ss = append(ss, s)
		}
		return align.New(ss...), nil
	},
}

// Exporter 工厂注册表。
var Exporter = map[string]NewExporter{
	// jsonl: 每个 TextUnit 一行 JSON
	"jsonl": func(raw json.RawMessage) (contract.Exporter, error) { return jsonl.New(raw) },
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（原子替换/追加可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}
