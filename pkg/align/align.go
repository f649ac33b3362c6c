// Package align 根据 token 文本与原始句子重建每个 token 的 code unit 区间。
package align

import (
	"fmt"

	"amphialign/pkg/codeunit"
	"amphialign/pkg/contract"
)

// UnmatchedError: 扫描游标到达原文末尾时仍有 token 未匹配。
// 携带原文与完整 token 列表的副本，仅在失败路径上付出拷贝开销。
type UnmatchedError struct {
	Original       string
	Tokens         []string
	TokenIndex     int
	Cursor         int
	OriginalLength int
}

// Remaining 返回未能匹配的 token（从 TokenIndex 起）。
func (e *UnmatchedError) Remaining() []string {
	if e.TokenIndex >= len(e.Tokens) {
		return nil
	}
	return e.Tokens[e.TokenIndex:]
}

func (e *UnmatchedError) Error() string {
	return fmt.Sprintf("cannot match: text=%q toks=%q i=%d s=%d orig_len=%d",
		e.Original, e.Tokens, e.TokenIndex, e.Cursor, e.OriginalLength)
}

func (e *UnmatchedError) Unwrap() error { return contract.ErrUnmatched }

// Aligner: 贪心、单次前向扫描的对齐器。构造后只读，可并发使用。
type Aligner struct {
	strategies []Strategy
}

// New 以给定优先级顺序构造对齐器；未提供策略时使用 DefaultStrategies。
func New(strategies ...Strategy) *Aligner {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	s := make([]Strategy, len(strategies))
	copy(s, strategies)
	return &Aligner{strategies: s}
}

// Strategies 返回策略序列副本。
func (a *Aligner) Strategies() []Strategy {
	out := make([]Strategy, len(a.strategies))
	copy(out, a.strategies)
	return out
}

var _ contract.Aligner = (*Aligner)(nil)

// Align 对 original 与有序 tokens 做对齐：
//   - 游标 s 只前进不回退，token 逐个匹配，不跨 token 回溯；
//   - 每个偏移按策略顺序尝试，首个命中者胜出，结果取未归一化的原文子串；
//   - 全部策略未命中则 s 前进 1 个 code unit（吸收分隔符、多余空白等）；
//   - s 到达原文末尾而 token 未耗尽时返回 *UnmatchedError。
//
// 最后一个 token 之后剩余的原文不做校验，直接丢弃。
func (a *Aligner) Align(original string, tokens []string) ([]contract.AlignedToken, error) {
	text := codeunit.Encode(original)
	origLen := text.Len()
	out := make([]contract.AlignedToken, 0, len(tokens))

	// 当前 token 在各策略下的归一化形式与长度，只在 token 切换时计算一次
	norm := make([]string, len(a.strategies))
	lens := make([]int, len(a.strategies))

	s, i := 0, 0
	prepared := -1
	for {
		if i == len(tokens) {
			return out, nil
		}
		if s >= origLen {
			toks := make([]string, len(tokens))
			copy(toks, tokens)
			return nil, &UnmatchedError{
				Original:       original,
				Tokens:         toks,
				TokenIndex:     i,
				Cursor:         s,
				OriginalLength: origLen,
			}
		}
		if prepared != i {
			for k, st := range a.strategies {
				norm[k] = st.NormalizeToken(tokens[i])
				lens[k] = codeunit.Len(norm[k])
			}
			prepared = i
		}
		if sub, ok := a.matchAt(text, s, norm, lens); ok {
			e := s + codeunit.Len(sub)
			out = append(out, contract.AlignedToken{Start: s, End: e, Text: sub})
			s = e
			i++
			continue
		}
		s++
	}
}

// matchAt 在偏移 s 处按策略顺序尝试匹配，返回原文子串。
// 取子串失败（切开代理对）视为该策略在此偏移不匹配。
func (a *Aligner) matchAt(text codeunit.Text, s int, norm []string, lens []int) (string, bool) {
	for k, st := range a.strategies {
		e := s + lens[k]
		if e > text.Len() {
			continue
		}
		sub, err := text.Slice(s, e)
		if err != nil {
			continue
		}
		if equalFoldASCII(st.NormalizeOriginal(sub), norm[k]) {
			return sub, true
		}
	}
	return "", false
}
