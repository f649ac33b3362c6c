package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"amphialign/pkg/contract"
)

// Options: JSON Lines 导出选项。
type Options struct {
	// Indent: 非空时每条记录缩进输出（便于人工查看；不再是严格的单行 JSONL）。
	Indent string `json:"indent"`
	// SkipLinks: 不输出 links 字段。
	SkipLinks bool `json:"skip_links"`
}

type exporter struct {
	indent    string
	skipLinks bool
}

// New 从原样 JSON Options 创建导出器；未知字段报错。
func New(raw json.RawMessage) (contract.Exporter, error) {
	var opts Options
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&opts); err != nil {
			return nil, err
		}
	}
	return &exporter{indent: opts.Indent, skipLinks: opts.SkipLinks}, nil
}

var _ contract.Exporter = (*exporter)(nil)

// row 对应一行输出。links 为空时输出 []，而不是 null；SkipLinks 时整个字段省略。
type row struct {
	Line   int                      `json:"line"`
	BiText contract.BiText          `json:"bi_text"`
	Tokens contract.BiAlignedTokens `json:"bi_rtoks"`
	Links  any                      `json:"links,omitempty"`
}

// Export 按输入顺序逐条编码 TextUnit，每条一行。
// 发现区间逆序或重叠即返回 ErrSeqInvalid。
func (e *exporter) Export(ctx context.Context, units []contract.TextUnit) (io.Reader, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if e.indent != "" {
		enc.SetIndent("", e.indent)
	}
	for _, u := range units {
		if err := checkSeq(u.Tokens.Source); err != nil {
			return nil, err
		}
		if err := checkSeq(u.Tokens.Target); err != nil {
			return nil, err
		}
		r := row{Line: u.Line, BiText: u.BiText, Tokens: u.Tokens}
		r.Tokens.Source = nonNil(r.Tokens.Source)
		r.Tokens.Target = nonNil(r.Tokens.Target)
		if !e.skipLinks {
			links := u.Links
			if links == nil {
				links = []contract.Link{}
			}
			r.Links = links
		}
		if err := enc.Encode(&r); err != nil {
			return nil, err
		}
	}
	return &buf, nil
}

// checkSeq: Start<=End，且相邻区间 prev.End <= next.Start（允许端点相接）。
func checkSeq(toks []contract.AlignedToken) error {
	prevEnd := 0
	for i, t := range toks {
		if t.Start > t.End {
			return contract.ErrSeqInvalid
		}
		if i > 0 && t.Start < prevEnd {
			return contract.ErrSeqInvalid
		}
		prevEnd = t.End
	}
	return nil
}

func nonNil(t []contract.AlignedToken) []contract.AlignedToken {
	if t == nil {
		return []contract.AlignedToken{}
	}
	return t
}
