package contract

// Side: 平行语料的语言侧。
type Side int

const (
	SideSource Side = iota
	SideTarget
)

// Sides 按固定顺序（先 source 后 target）列出两侧。
var Sides = [2]Side{SideSource, SideTarget}

func (s Side) String() string {
	switch s {
	case SideSource:
		return "source"
	case SideTarget:
		return "target"
	default:
		return "unknown"
	}
}

// AlignedToken: token 在原文中的半开区间 [Start, End)，单位为 UTF-16 code unit。
// 约束：Start <= End；Text 恰为原文在该区间上的子串。
type AlignedToken struct {
	Start int    `json:"s"`
	End   int    `json:"e"`
	Text  string `json:"text"`
}

// Overlaps 按闭区间判定是否重叠：端点相接（a.End == b.Start）也视为重叠。
func (t AlignedToken) Overlaps(o AlignedToken) bool {
	return !(t.End < o.Start || o.End < t.Start)
}

// Link: source 侧 token 下标与 target 侧 token 下标的配对。
// 不要求唯一或覆盖。
type Link struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// BiText: 一组翻译对的两条原始（未分词）句子。
type BiText struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Side 返回指定语言侧的原文。
func (b BiText) Side(s Side) string {
	if s == SideTarget {
		return b.Target
	}
	return b.Source
}

// BiAlignedTokens: 两侧各自独立对齐得到的 token 区间序列。
type BiAlignedTokens struct {
	Source []AlignedToken `json:"source"`
	Target []AlignedToken `json:"target"`
}

// Side 返回指定语言侧的对齐结果（副本）。
func (b BiAlignedTokens) Side(s Side) []AlignedToken {
	src := b.Source
	if s == SideTarget {
		src = b.Target
	}
	if src == nil {
		return nil
	}
	out := make([]AlignedToken, len(src))
	copy(out, src)
	return out
}

// PhraseRange: token 下标闭区间 [S, E]。
type PhraseRange struct {
	S int `json:"s"`
	E int `json:"e"`
}

// PhrasePair: 两侧的短语对（以 token 下标表示）。
type PhrasePair struct {
	Source PhraseRange `json:"source"`
	Target PhraseRange `json:"target"`
}

// TextUnit: 一条双语句对及其对齐 token 与词对齐链接。
// 每个语料行构造一次，此后只读。
type TextUnit struct {
	// Line: 语料中的绝对行号（0 起，已计入窗口 offset）。
	Line   int             `json:"line"`
	BiText BiText          `json:"bi_text"`
	Tokens BiAlignedTokens `json:"bi_rtoks"`
	Links  []Link          `json:"links"`
}

// PhraseSpan 将某侧的 token 下标区间投影为原文上的 code unit 半开区间。
// 区间越界或逆序时 ok=false。
func (u TextUnit) PhraseSpan(s Side, r PhraseRange) (start, end int, ok bool) {
	toks := u.Tokens.Source
	if s == SideTarget {
		toks = u.Tokens.Target
	}
	if r.S < 0 || r.S > r.E || r.E >= len(toks) {
		return 0, 0, false
	}
	return toks[r.S].Start, toks[r.E].End, true
}

// Window: 先跳过 Offset 行，再最多取 Limit 行；Limit<=0 表示不限。
type Window struct {
	Offset int
	Limit  int
}

// Contains 判断第 n 行（0 起）是否落在窗口内。
func (w Window) Contains(n int) bool {
	if n < w.Offset {
		return false
	}
	if w.Limit <= 0 {
		return true
	}
	return n-w.Offset < w.Limit
}

// Done 判断第 n 行及其后的行是否都已超出窗口。
func (w Window) Done(n int) bool {
	return w.Limit > 0 && n-w.Offset >= w.Limit
}
