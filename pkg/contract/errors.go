package contract

import (
	"errors"
	"fmt"
)

// 最小错误分类（用于上层策略判定与日志分类）。
var (
	// ErrEncoding: 请求的 code unit 区间不是合法文本（例如切开代理对）。
	ErrEncoding = errors.New("encoding error")
	// ErrUnmatched: 扫描游标已到原文末尾，仍有 token 未匹配。
	ErrUnmatched = errors.New("tokens unmatched")
	// ErrLinkParse: 链接 token 不符合 "<int>-<int>" 语法。
	ErrLinkParse = errors.New("link parse error")
	// ErrInvalidInput: 输入不满足前置条件（例如各来源行数不一致）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrSeqInvalid: 对齐区间逆序或重叠。
	ErrSeqInvalid = errors.New("sequence invalid")
	// ErrPathInvalid: 目标标识映射为无效/越界路径。
	ErrPathInvalid = errors.New("path invalid")
)

// SourceError: 外部来源读取失败，附带来源名与语言侧。
type SourceError struct {
	// Source: links|tokens|text
	Source string
	// Side: links 来源不区分语言侧，此时 HasSide=false。
	Side    Side
	HasSide bool
	Err     error
}

func (e *SourceError) Error() string {
	if e.HasSide {
		return fmt.Sprintf("read %s(%s): %v", e.Source, e.Side, e.Err)
	}
	return fmt.Sprintf("read %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// LineError: 语料装配阶段某一行某一侧失败。
type LineError struct {
	Line int
	Side Side
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%s): %v", e.Line, e.Side, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
