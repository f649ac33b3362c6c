package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"amphialign/pkg/contract"
)

// writeCorpus 在临时目录生成 en/th 两侧语料与链接文件。
func writeCorpus(t *testing.T, links string) *Options {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"simple_toks.en":  "AB CD EF\nGH\n",
		"simple_toks.th":  "แมว ดำ\nดี\n",
		"simple_lines.en": "ABCDEF\r\nGH\n",
		"simple_lines.th": "แมวดำ\nดี",
		"links":           links,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return &Options{
		CorpusDir:         dir,
		TokPrefix:         "simple_toks",
		OrigPrefix:        "simple_lines",
		AlignmentFilePath: filepath.Join(dir, "links"),
		Langs:             Langs{Source: "en", Target: "th"},
	}
}

func TestReadTexts(t *testing.T) {
	for _, mm := range []bool{false, true} {
		opts := writeCorpus(t, "")
		opts.MMap = mm
		r := New(opts)
		got, err := r.ReadTexts(context.Background(), contract.SideSource, contract.Window{Limit: 100})
		if err != nil {
			t.Fatalf("mmap=%v read: %v", mm, err)
		}
		if !reflect.DeepEqual(got, []string{"ABCDEF", "GH"}) {
			t.Fatalf("mmap=%v got %q", mm, got)
		}
		got, err = r.ReadTexts(context.Background(), contract.SideTarget, contract.Window{Limit: 100})
		if err != nil || !reflect.DeepEqual(got, []string{"แมวดำ", "ดี"}) {
			t.Fatalf("mmap=%v target: %v %q", mm, err, got)
		}
	}
}

func TestReadTokens(t *testing.T) {
	r := New(writeCorpus(t, ""))
	got, err := r.ReadTokens(context.Background(), contract.SideSource, contract.Window{Limit: 1})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, [][]string{{"AB", "CD", "EF"}}) {
		t.Fatalf("got %q", got)
	}
}

func TestReadWindow(t *testing.T) {
	r := New(writeCorpus(t, "0-0 1-1\n0-0\n"))
	win := contract.Window{Offset: 1, Limit: 100}
	toks, err := r.ReadTokens(context.Background(), contract.SideTarget, win)
	if err != nil || !reflect.DeepEqual(toks, [][]string{{"ดี"}}) {
		t.Fatalf("tokens: %v %q", err, toks)
	}
	links, err := r.ReadLinks(context.Background(), win)
	if err != nil || !reflect.DeepEqual(links, [][]contract.Link{{{Source: 0, Target: 0}}}) {
		t.Fatalf("links: %v %v", err, links)
	}
	texts, err := r.ReadTexts(context.Background(), contract.SideSource, contract.Window{Offset: 5, Limit: 1})
	if err != nil || len(texts) != 0 {
		t.Fatalf("offset 超出行数应为空: %v %q", err, texts)
	}
}

func TestReadLinks(t *testing.T) {
	r := New(writeCorpus(t, "1-2 3-4\n\n"))
	got, err := r.ReadLinks(context.Background(), contract.Window{Limit: 100})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := [][]contract.Link{{{Source: 1, Target: 2}, {Source: 3, Target: 4}}, {}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

// TestReadLinksMalformed 任一 token 非法即整体失败，并指明行号。
func TestReadLinksMalformed(t *testing.T) {
	r := New(writeCorpus(t, "0-0\n1-x\n"))
	got, err := r.ReadLinks(context.Background(), contract.Window{Limit: 100})
	if got != nil {
		t.Fatalf("不应返回部分结果: %v", got)
	}
	if !errors.Is(err, contract.ErrLinkParse) {
		t.Fatalf("应为 ErrLinkParse, got %v", err)
	}
	var se *contract.SourceError
	if !errors.As(err, &se) || se.Source != "links" || se.HasSide {
		t.Fatalf("应包装为 links SourceError: %v", err)
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("错误信息缺少行号: %v", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	opts := writeCorpus(t, "")
	opts.TokPrefix = "nope"
	_, err := New(opts).ReadTokens(context.Background(), contract.SideTarget, contract.Window{Limit: 1})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("应为 not exist, got %v", err)
	}
	var se *contract.SourceError
	if !errors.As(err, &se) || se.Source != "tokens" || se.Side != contract.SideTarget {
		t.Fatalf("来源/语言侧未记录: %v", err)
	}
}

func TestReadEmptyPath(t *testing.T) {
	_, err := New(nil).ReadLinks(context.Background(), contract.Window{})
	if !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("空路径应为 ErrInvalidInput, got %v", err)
	}
}

func TestReadCtxCancel(t *testing.T) {
	r := New(writeCorpus(t, ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.ReadTexts(ctx, contract.SideSource, contract.Window{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx cancel, got %v", err)
	}
}

// TestReadEmptyFileMMap 空文件在 mmap 模式下不报错。
func TestReadEmptyFileMMap(t *testing.T) {
	opts := writeCorpus(t, "")
	opts.MMap = true
	got, err := New(opts).ReadLinks(context.Background(), contract.Window{Limit: 10})
	if err != nil || len(got) != 0 {
		t.Fatalf("empty: %v %v", err, got)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(&Options{BufSize: 1 << 25})
	if c.bufSize != 1<<25 || c.maxLine != 1<<25 {
		t.Fatalf("maxLine 应不小于 bufSize: %+v", c)
	}
	d := New(nil)
	if d.bufSize != defaultBuf || d.maxLine != defaultMaxLine {
		t.Fatalf("默认值错误: %+v", d)
	}
}
