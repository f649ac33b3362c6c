package align

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// Strategy: 归一化策略（封闭集合）。
// 每个策略提供一对纯函数：把 token 还原为原文中的样子，以及把原文子串转为可比较形式。
// 策略按优先级顺序尝试，同一偏移上先命中者胜出。
type Strategy int

const (
	// Identity: 反转义分词器产生的实体；原文侧把占位符 U+F112 视为空格。
	Identity Strategy = iota
	// WidthFold: 在 Identity 基础上，两侧同时做全角/半角折叠。
	// 折叠仅作用于 BMP 内的一对一映射，code unit 长度不变。
	WidthFold
)

// Placeholder: 原文中用于标记空白/分隔位置的私用区占位符。
const Placeholder = '\uf112'

// 顺序与分词器转义表一致；各模式均以 '&' 开头、';' 结尾且内部不含二者，
// 单趟替换与逐条替换结果相同。
var entityUnescaper = strings.NewReplacer(
	"&apos;", "'",
	"&quot;", "\"",
	"&amp;", "&",
	"&#91;", "[",
	"&#93;", "]",
)

var placeholderMapper = strings.NewReplacer(string(Placeholder), " ")

// DefaultStrategies 返回默认策略序列。
// 默认策略出现两次：第二次不会改变结果，仅保持与既有语料相同的尝试次数。
func DefaultStrategies() []Strategy {
	return []Strategy{Identity, Identity}
}

// ParseStrategy 将配置名解析为策略。
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "identity", "":
		return Identity, nil
	case "width":
		return WidthFold, nil
	default:
		return 0, fmt.Errorf("align: unknown strategy %q", name)
	}
}

func (s Strategy) String() string {
	switch s {
	case Identity:
		return "identity"
	case WidthFold:
		return "width"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// NormalizeToken 撤销分词器侧的转义，使 token 接近原文中的形态。
func (s Strategy) NormalizeToken(tok string) string {
	out := entityUnescaper.Replace(tok)
	if s == WidthFold {
		out = width.Fold.String(out)
	}
	return out
}

// NormalizeOriginal 撤销原文侧的替换，得到可比较形式。
func (s Strategy) NormalizeOriginal(sub string) string {
	out := placeholderMapper.Replace(sub)
	if s == WidthFold {
		out = width.Fold.String(out)
	}
	return out
}

// equalFoldASCII 仅折叠 ASCII 大小写；非 ASCII 字节按原样比较。
func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca == cb {
			continue
		}
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
