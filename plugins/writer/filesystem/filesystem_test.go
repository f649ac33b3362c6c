package filesystem

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"amphialign/pkg/contract"
)

func noTmp(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Fatalf("临时文件未清理: %s", e.Name())
		}
	}
}

// TestWriteAtomic 默认原子写入，并补全 .jsonl 扩展名。
func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Write(context.Background(), "units", bytes.NewBufferString("data")); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "units.jsonl"))
	if err != nil || string(b) != "data" {
		t.Fatalf("unexpected file %v %q", err, string(b))
	}
	noTmp(t, dir)
}

// 目标已存在时，原子写替换为新内容。
func TestWriteAtomicReplaceExisting(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir})
	for _, v := range []string{"v1", "v2"} {
		if err := w.Write(context.Background(), "out.txt", bytes.NewBufferString(v)); err != nil {
			t.Fatalf("write %s: %v", v, err)
		}
	}
	b, _ := os.ReadFile(filepath.Join(dir, "out.txt"))
	if string(b) != "v2" {
		t.Fatalf("expect v2, got %q", string(b))
	}
	noTmp(t, dir)
}

// TestWriteAppend 分批窗口追加到同一文件。
func TestWriteAppend(t *testing.T) {
	dir := t.TempDir()
	a := true
	w, _ := New(&Options{OutputDir: dir, Append: true, Atomic: &a})
	if w.atomic {
		t.Fatalf("append 模式应关闭原子写")
	}
	for _, v := range []string{"{\"line\":0}\n", "{\"line\":1}\n"} {
		if err := w.Write(context.Background(), "units", strings.NewReader(v)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	b, _ := os.ReadFile(filepath.Join(dir, "units.jsonl"))
	if string(b) != "{\"line\":0}\n{\"line\":1}\n" {
		t.Fatalf("unexpected %q", string(b))
	}
}

func TestWriteExt(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir, Ext: "-"})
	if p, _ := w.Path("units"); p != filepath.Join(dir, "units") {
		t.Fatalf("ext=- 不应追加后缀: %s", p)
	}
	w, _ = New(&Options{OutputDir: dir, Ext: ".ndjson"})
	if p, _ := w.Path("a/units"); p != filepath.Join(dir, "units.ndjson") {
		t.Fatalf("flat+ext 映射错误: %s", p)
	}
}

func TestWritePathInvalid(t *testing.T) {
	flat := false
	w, _ := New(&Options{OutputDir: t.TempDir(), Flat: &flat})
	if err := w.Write(context.Background(), "../bad", bytes.NewBufferString("x")); err != contract.ErrPathInvalid {
		t.Fatalf("expect path invalid, got %v", err)
	}
}

func TestWriteNonAtomicNested(t *testing.T) {
	dir := t.TempDir()
	flat, a := false, false
	w, _ := New(&Options{OutputDir: dir, Flat: &flat, Atomic: &a})
	if err := w.Write(context.Background(), "sub/out.txt", bytes.NewBufferString("v")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub", "out.txt")); err != nil {
		t.Fatalf("file not created")
	}
}

func TestWriteCtxCancel(t *testing.T) {
	w, _ := New(&Options{OutputDir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Write(ctx, "a.txt", strings.NewReader("data")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expect ctx error, got %v", err)
	}
}

func TestNewInvalid(t *testing.T) {
	for _, o := range []*Options{nil, {}, {OutputDir: "  "}} {
		if _, err := New(o); !errors.Is(err, contract.ErrInvalidInput) {
			t.Fatalf("expect ErrInvalidInput, got %v", err)
		}
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) { return 0, errors.New("boom") }

// TestWriteAtomicCopyError 拷贝失败时不留临时文件。
func TestWriteAtomicCopyError(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(&Options{OutputDir: dir})
	if err := w.Write(context.Background(), "a.txt", errReader{}); err == nil {
		t.Fatalf("expect copy error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("temp files left %v", entries)
	}
}

func TestReaderWithCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := readerWithCtx(ctx, strings.NewReader("data"))
	cancel()
	if _, err := r.Read(make([]byte, 1)); err == nil {
		t.Fatalf("expect ctx error")
	}
}
