package corpus

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"

	"amphialign/pkg/contract"
)

// Langs: 两侧语言代码，用作语料文件扩展名。
type Langs struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Options 为语料 Reader 的配置（最小必要）。
// 文件命名：<corpus_dir>/<tok_prefix>.<lang> 与 <corpus_dir>/<orig_prefix>.<lang>；
// 链接文件为 alignment_file_path（不区分语言侧）。
type Options struct {
	CorpusDir         string `json:"corpus_dir"`
	TokPrefix         string `json:"tok_prefix"`
	OrigPrefix        string `json:"orig_prefix"`
	AlignmentFilePath string `json:"alignment_file_path"`
	Langs             Langs  `json:"langs"`
	// BufSize 为读缓冲区初始大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// MaxLineBytes 为单行上限。默认 16MiB。
	MaxLineBytes int `json:"max_line_bytes"`
	// MMap: 以只读内存映射方式读取文件，避免整文件拷贝到堆。
	MMap bool `json:"mmap"`
}

const (
	defaultBuf     = 64 * 1024
	defaultMaxLine = 16 * 1024 * 1024
	// 每读多少行检查一次 ctx
	ctxCheckEvery = 1024
)

// Corpus 实现基于文件系统的 LineSource 与 LinkSource。
type Corpus struct {
	dir        string
	tokPrefix  string
	origPrefix string
	linksPath  string
	langs      Langs
	bufSize    int
	maxLine    int
	mmap       bool
}

// New 创建语料 Reader。
func New(opts *Options) *Corpus {
	c := &Corpus{bufSize: defaultBuf, maxLine: defaultMaxLine}
	if opts == nil {
		return c
	}
	c.dir = opts.CorpusDir
	c.tokPrefix = opts.TokPrefix
	c.origPrefix = opts.OrigPrefix
	c.linksPath = opts.AlignmentFilePath
	c.langs = opts.Langs
	c.mmap = opts.MMap
	if opts.BufSize > 0 {
		c.bufSize = opts.BufSize
	}
	if opts.MaxLineBytes > 0 {
		c.maxLine = opts.MaxLineBytes
	}
	if c.maxLine < c.bufSize {
		c.maxLine = c.bufSize
	}
	return c
}

var _ contract.CorpusReader = (*Corpus)(nil)

// ReadTokens 读取某侧分词文件，每行按空白切分为 token。
func (c *Corpus) ReadTokens(ctx context.Context, side contract.Side, win contract.Window) ([][]string, error) {
	path := c.sidePath(c.tokPrefix, side)
	var out [][]string
	err := c.eachLine(ctx, path, win, func(_ int, line string) error {
		out = append(out, strings.Fields(line))
		return nil
	})
	if err != nil {
		return nil, &contract.SourceError{Source: "tokens", Side: side, HasSide: true, Err: err}
	}
	return out, nil
}

// ReadTexts 读取某侧原文文件，每行原样返回（仅去掉行尾换行符）。
func (c *Corpus) ReadTexts(ctx context.Context, side contract.Side, win contract.Window) ([]string, error) {
	path := c.sidePath(c.origPrefix, side)
	var out []string
	err := c.eachLine(ctx, path, win, func(_ int, line string) error {
		out = append(out, line)
		return nil
	})
	if err != nil {
		return nil, &contract.SourceError{Source: "text", Side: side, HasSide: true, Err: err}
	}
	return out, nil
}

// ReadLinks 读取链接文件；任一行解析失败即整体失败。
func (c *Corpus) ReadLinks(ctx context.Context, win contract.Window) ([][]contract.Link, error) {
	var out [][]contract.Link
	err := c.eachLine(ctx, c.linksPath, win, func(n int, line string) error {
		links, err := ParseLinks(line)
		if err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
		out = append(out, links)
		return nil
	})
	if err != nil {
		return nil, &contract.SourceError{Source: "links", Err: err}
	}
	return out, nil
}

func (c *Corpus) sidePath(prefix string, side contract.Side) string {
	lang := c.langs.Source
	if side == contract.SideTarget {
		lang = c.langs.Target
	}
	return filepath.Join(c.dir, prefix+"."+lang)
}

// eachLine 顺序读取 path，对窗口内每行调用 fn(绝对行号, 行文本)。
// 超出窗口后立即停止，不读取剩余内容。
func (c *Corpus) eachLine(ctx context.Context, path string, win contract.Window, fn func(n int, line string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if strings.TrimSpace(path) == "" {
		return errors.Wrap(contract.ErrInvalidInput, "empty corpus path")
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var r io.Reader = f
	if c.mmap {
		m, release, err := mapFile(f)
		if err != nil {
			return errors.Wrapf(err, "mmap %s", path)
		}
		defer release()
		r = bytes.NewReader(m)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, c.bufSize), c.maxLine)
	n := 0
	for sc.Scan() {
		if win.Done(n) {
			return nil
		}
		if n%ctxCheckEvery == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		if win.Contains(n) {
			if err := fn(n, sc.Text()); err != nil {
				return err
			}
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return nil
}

// mapFile 以只读方式映射整个文件；空文件不映射。
func mapFile(f *os.File) ([]byte, func(), error) {
	st, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if st.Size() == 0 {
		return nil, func() {}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	return m, func() { _ = m.Unmap() }, nil
}
