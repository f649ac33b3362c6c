// Package codeunit 以 UTF-16 code unit 为单位度量与切分字符串。
//
// 偏移既不是字节，也不是 rune/字素：码点 > U+FFFF 占两个 code unit（代理对）。
// 两个约定以 UTF-16 为度量单位的实现之间，偏移可直接互换。
package codeunit

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"amphialign/pkg/contract"
)

const (
	surrSelf   = 0x10000
	highSurrLo = 0xd800
	highSurrHi = 0xdc00
	lowSurrLo  = 0xdc00
	lowSurrHi  = 0xe000
)

// EncodingError: 请求的区间无法还原为合法文本（切开了代理对）。
type EncodingError struct {
	Start int
	End   int
	// Unit: 被切开的 code unit 值。
	Unit uint16
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("codeunit: range [%d,%d) splits surrogate pair (unit %#04x)", e.Start, e.End, e.Unit)
}

func (e *EncodingError) Unwrap() error { return contract.ErrEncoding }

// Len 返回 s 编码为 UTF-16 后的 code unit 数。
// 非法 UTF-8 字节按 U+FFFD 计（1 个 code unit）。
func Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= surrSelf && r <= utf8.MaxRune {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Substring 返回 s 在 code unit 区间 [start, end) 上的子串。
func Substring(s string, start, end int) (string, error) {
	return Encode(s).Slice(start, end)
}

// Text: 预先编码为 UTF-16 的只读文本，避免对同一原文重复编码。
type Text struct {
	units []uint16
}

// Encode 将 s 编码为 Text。
func Encode(s string) Text {
	return Text{units: utf16.Encode([]rune(s))}
}

// Len 返回 code unit 总数。
func (t Text) Len() int { return len(t.units) }

// Slice 返回 [start, end) 区间重新编码后的字符串。
// 越界或逆序返回 ErrInvalidInput；切开代理对返回 *EncodingError。
func (t Text) Slice(start, end int) (string, error) {
	if start < 0 || start > end || end > len(t.units) {
		return "", fmt.Errorf("%w: codeunit range [%d,%d) out of [0,%d]", contract.ErrInvalidInput, start, end, len(t.units))
	}
	if start == end {
		return "", nil
	}
	if u := t.units[start]; isLowSurrogate(u) {
		return "", &EncodingError{Start: start, End: end, Unit: u}
	}
	if u := t.units[end-1]; isHighSurrogate(u) {
		return "", &EncodingError{Start: start, End: end, Unit: u}
	}
	return string(utf16.Decode(t.units[start:end])), nil
}

func isHighSurrogate(u uint16) bool { return u >= highSurrLo && u < highSurrHi }

func isLowSurrogate(u uint16) bool { return u >= lowSurrLo && u < lowSurrHi }
