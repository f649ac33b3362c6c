package filesystem

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"amphialign/pkg/contract"
)

// DefaultExt: 产物标识不带扩展名时追加的后缀。
const DefaultExt = ".jsonl"

// Options: 文件系统产物写入选项。
type Options struct {
	// OutputDir: 输出根目录（必需）。
	OutputDir string `json:"output_dir"`
	// Atomic: 同目录临时文件 + rename。未提供时默认 true。
	// Append=true 时忽略。
	Atomic *bool `json:"atomic,omitempty"`
	// Append: 追加到已有文件末尾，用于按窗口分批导出同一语料。
	Append bool `json:"append,omitempty"`
	// Flat: 仅保留文件名，不保留目录层级。未提供时默认 true。
	Flat *bool `json:"flat,omitempty"`
	// Ext: 标识无扩展名时追加的后缀；空串表示 DefaultExt，"-" 表示不追加。
	Ext string `json:"ext,omitempty"`
	// PermFile/PermDir: 0 表示使用默认 0644/0755。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用 64KiB。
	BufSize int `json:"buf_size,omitempty"`
}

// FS 将导出的 TextUnit 流落盘。
type FS struct {
	root    string
	atomic  bool
	append  bool
	flat    bool
	ext     string
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New 创建文件系统 Writer；OutputDir 为空时返回 ErrInvalidInput。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, errors.Wrap(contract.ErrInvalidInput, "writer: output_dir required")
	}
	w := &FS{
		root:    opts.OutputDir,
		atomic:  true,
		append:  opts.Append,
		flat:    true,
		ext:     DefaultExt,
		permF:   0o644,
		permD:   0o755,
		bufSize: 64 * 1024,
	}
	if opts.BufSize > 0 {
		w.bufSize = opts.BufSize
	}
	if opts.PermFile != 0 {
		w.permF = opts.PermFile
	}
	if opts.PermDir != 0 {
		w.permD = opts.PermDir
	}
	if opts.Flat != nil {
		w.flat = *opts.Flat
	}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	switch opts.Ext {
	case "":
	case "-":
		w.ext = ""
	default:
		w.ext = opts.Ext
	}
	if w.append {
		w.atomic = false
	}
	return w, nil
}

var _ contract.Writer = (*FS)(nil)

// Write 将 r 的全部字节写入 id 映射的目标路径。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dest, err := w.mapPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(dest))
	}

	switch {
	case w.append:
		return w.writeFile(ctx, dest, r, os.O_CREATE|os.O_WRONLY|os.O_APPEND)
	case w.atomic:
		return w.writeAtomic(ctx, dest, r)
	default:
		return w.writeFile(ctx, dest, r, os.O_CREATE|os.O_WRONLY|os.O_TRUNC)
	}
}

// Path 返回 id 映射后的目标路径，供调用方打印。
func (w *FS) Path(id contract.ArtifactID) (string, error) { return w.mapPath(id) }

// mapPath: Clean + Join + 越界校验，并按需追加扩展名。
func (w *FS) mapPath(id contract.ArtifactID) (string, error) {
	rel := filepath.Clean(string(id))
	if w.flat {
		rel = filepath.Base(rel)
		if rel == "." || rel == ".." || rel == "" || rel == string(filepath.Separator) {
			return "", contract.ErrPathInvalid
		}
		return filepath.Join(w.root, w.withExt(rel)), nil
	}
	// 非扁平：禁止绝对路径、父级逃逸、Windows 卷名
	if rel == "." || rel == "" || filepath.IsAbs(rel) {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	if filepath.VolumeName(rel) != "" {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, w.withExt(rel)), nil
}

func (w *FS) withExt(rel string) string {
	if w.ext == "" || filepath.Ext(rel) != "" {
		return rel
	}
	return rel + w.ext
}

func (w *FS) writeFile(ctx context.Context, dest string, r io.Reader, flag int) error {
	f, err := os.OpenFile(dest, flag, w.permF)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(err, "replace %s", dest)
	}
	// 最佳努力：同步父目录
	_ = syncDir(dir)
	return nil
}

// readerWithCtx: 每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}
