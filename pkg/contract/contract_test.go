package contract

import (
	"errors"
	"io/fs"
	"testing"
)

// TestOverlapAtEdge 端点相接视为重叠。
func TestOverlapAtEdge(t *testing.T) {
	a := AlignedToken{Start: 0, End: 10}
	b := AlignedToken{Start: 10, End: 20}
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Fatalf("端点相接应判定为重叠")
	}
	c := AlignedToken{Start: 11, End: 12}
	if a.Overlaps(c) {
		t.Fatalf("分离区间不应重叠")
	}
}

func TestSideString(t *testing.T) {
	cases := map[Side]string{SideSource: "source", SideTarget: "target", Side(9): "unknown"}
	for in, want := range cases {
		if in.String() != want {
			t.Fatalf("%d -> %q, 预期 %q", int(in), in.String(), want)
		}
	}
}

// TestBiAlignedTokensSide 返回副本，修改不影响原值。
func TestBiAlignedTokensSide(t *testing.T) {
	b := BiAlignedTokens{
		Source: []AlignedToken{{Start: 0, End: 2, Text: "AB"}},
		Target: []AlignedToken{{Start: 3, End: 5, Text: "ดำ"}},
	}
	got := b.Side(SideTarget)
	if len(got) != 1 || got[0].Text != "ดำ" {
		t.Fatalf("target 侧错误: %+v", got)
	}
	got[0].Text = "x"
	if b.Target[0].Text != "ดำ" {
		t.Fatalf("Side 未拷贝")
	}
	if (BiAlignedTokens{}).Side(SideSource) != nil {
		t.Fatalf("空侧应返回 nil")
	}
	bt := BiText{Source: "s", Target: "t"}
	if bt.Side(SideSource) != "s" || bt.Side(SideTarget) != "t" {
		t.Fatalf("BiText.Side 错误")
	}
}

func TestPhraseSpan(t *testing.T) {
	u := TextUnit{Tokens: BiAlignedTokens{Source: []AlignedToken{
		{Start: 0, End: 2, Text: "AB"},
		{Start: 2, End: 3, Text: " "},
		{Start: 3, End: 4, Text: "C"},
	}}}
	tests := []struct {
		name       string
		r          PhraseRange
		start, end int
		ok         bool
	}{
		{"single", PhraseRange{S: 0, E: 0}, 0, 2, true},
		{"whole", PhraseRange{S: 0, E: 2}, 0, 4, true},
		{"inverted", PhraseRange{S: 2, E: 1}, 0, 0, false},
		{"out of range", PhraseRange{S: 0, E: 3}, 0, 0, false},
		{"negative", PhraseRange{S: -1, E: 0}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e, ok := u.PhraseSpan(SideSource, tt.r)
			if ok != tt.ok || s != tt.start || e != tt.end {
				t.Fatalf("got (%d,%d,%v) want (%d,%d,%v)", s, e, ok, tt.start, tt.end, tt.ok)
			}
		})
	}
	if _, _, ok := u.PhraseSpan(SideTarget, PhraseRange{}); ok {
		t.Fatalf("空 target 侧应失败")
	}
}

func TestWindow(t *testing.T) {
	w := Window{Offset: 1, Limit: 2}
	want := []bool{false, true, true, false}
	for n, in := range want {
		if w.Contains(n) != in {
			t.Fatalf("Contains(%d) = %v", n, !in)
		}
	}
	if w.Done(2) || !w.Done(3) {
		t.Fatalf("Done 判定错误")
	}
	unl := Window{Offset: 0}
	if !unl.Contains(1 << 20) || unl.Done(1<<20) {
		t.Fatalf("Limit<=0 应不限")
	}
}

// TestErrorUnwrap 结构化错误可被 errors.Is/As 识别。
func TestErrorUnwrap(t *testing.T) {
	perr := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}
	se := &SourceError{Source: "tokens", Side: SideTarget, HasSide: true, Err: perr}
	if se.Error() != "read tokens(target): open x: file does not exist" {
		t.Fatalf("unexpected message %q", se.Error())
	}
	le := &LineError{Line: 3, Side: SideSource, Err: se}
	if !errors.Is(le, fs.ErrNotExist) {
		t.Fatalf("LineError 应可展开至底层错误")
	}
	var got *SourceError
	if !errors.As(le, &got) || got.Source != "tokens" {
		t.Fatalf("errors.As 失败")
	}
	ls := &SourceError{Source: "links", Err: ErrLinkParse}
	if ls.Error() != "read links: link parse error" {
		t.Fatalf("unexpected message %q", ls.Error())
	}
}
