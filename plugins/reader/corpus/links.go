package corpus

import (
	"fmt"
	"strconv"
	"strings"

	"amphialign/pkg/contract"
)

// LinkParseError: 链接 token 不满足 "<int>-<int>" 语法（两侧均为非负十进制整数）。
type LinkParseError struct {
	Token  string
	Reason string
}

func (e *LinkParseError) Error() string {
	return fmt.Sprintf("invalid link %q: %s", e.Token, e.Reason)
}

func (e *LinkParseError) Unwrap() error { return contract.ErrLinkParse }

// ParseLink 解析单个链接 token，整个 token 必须匹配语法。
func ParseLink(tok string) (contract.Link, error) {
	dash := strings.IndexByte(tok, '-')
	if dash < 0 {
		return contract.Link{}, &LinkParseError{Token: tok, Reason: "missing '-'"}
	}
	src, err := parseIndex(tok[:dash])
	if err != nil {
		return contract.Link{}, &LinkParseError{Token: tok, Reason: "source: " + err.Error()}
	}
	tgt, err := parseIndex(tok[dash+1:])
	if err != nil {
		return contract.Link{}, &LinkParseError{Token: tok, Reason: "target: " + err.Error()}
	}
	return contract.Link{Source: src, Target: tgt}, nil
}

// ParseLinks 解析一行以空白分隔的链接；空行返回空序列。
// 任一 token 非法即整行失败。
func ParseLinks(line string) ([]contract.Link, error) {
	fields := strings.Fields(line)
	links := make([]contract.Link, 0, len(fields))
	for _, f := range fields {
		l, err := ParseLink(f)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

// parseIndex: 仅接受 ASCII 数字（拒绝符号位与空串）。
func parseIndex(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("non-numeric %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("out of range %q", s)
	}
	return n, nil
}
