package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Terminal: 终端进度提示（非日志）。
// - TTY: 单行 \r 覆盖；非 TTY: 关键节点分行打印。
// - 并发安全；写失败后进入禁用态为 no-op。
type Terminal struct {
	w       io.Writer
	enabled bool
	isTTY   bool

	concurrency int
	window      string
	runStart    time.Time

	// 当前阶段（read|align|export|write）
	phase      string
	phaseTotal int
	done       int
	errCount   int

	lastLen   int
	lastFlush time.Time

	mu sync.Mutex
}

// 进程级终端（可选，全局设置后供 pipeline 旁路调用）。
var (
	termMu sync.RWMutex
	term   *Terminal
)

// SetTerminal 设置全局终端指针（nil 可清除）。
func SetTerminal(t *Terminal) { termMu.Lock(); term = t; termMu.Unlock() }

// GetTerminal 返回全局终端（可能为 nil）。
func GetTerminal() *Terminal { termMu.RLock(); defer termMu.RUnlock(); return term }

// NewTerminal 构造终端提示器；enabled=false 时总是 no-op。
func NewTerminal(w io.Writer, enabled bool) *Terminal {
	if w == nil {
		w = os.Stderr
	}
	t := &Terminal{w: w, enabled: enabled}
	// CI 环境视为非 TTY
	if os.Getenv("CI") != "" {
		t.isTTY = false
	} else if f, ok := w.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			t.isTTY = fi.Mode()&os.ModeCharDevice != 0
		}
	}
	return t
}

// RunStart: 记录运行上下文（并发、窗口描述）。
func (t *Terminal) RunStart(concurrency int, window string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.concurrency = concurrency
	t.window = safe(window)
	t.runStart = time.Now()
	t.println(fmt.Sprintf("[run] 并发=%d | 窗口 %s", concurrency, t.window))
}

// PhaseStart: 进入新阶段；total<=0 表示总量未知。
func (t *Terminal) PhaseStart(phase string, total int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	t.phase = safe(phase)
	t.phaseTotal = total
	t.done = 0
	t.errCount = 0
	if !t.isTTY {
		t.println(fmt.Sprintf("[%s] 计划 %d 行", t.phase, total))
	}
}

// Progress: 周期性进度（≥100ms 节流，仅 TTY）。
func (t *Terminal) Progress(done, total, errs int) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled || !t.isTTY {
		return
	}
	t.done = done
	t.phaseTotal = total
	t.errCount = errs
	now := time.Now()
	if now.Sub(t.lastFlush) < 100*time.Millisecond {
		return
	}
	t.lastFlush = now
	t.printInline(fmt.Sprintf("[%s] 进度 %d/%d | 错误 %d | 并发 %d | 用时 %s",
		t.phase, t.done, t.phaseTotal, t.errCount, t.concurrency, formatDur(time.Since(t.runStart))))
}

// PhaseFinish: 结束当前阶段（立即刷新并换行）。
func (t *Terminal) PhaseFinish(ok bool, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	status := "done"
	if !ok {
		status = "fail"
	}
	if t.isTTY && t.lastLen > 0 {
		t.printInline("")
	}
	t.println(fmt.Sprintf("[%s] %s | %d 行 | 用时 %s", status, t.phase, t.phaseTotal, formatDur(dur)))
}

// RunFinish: 结束总览。
func (t *Terminal) RunFinish(ok bool, units int, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	tag := "ok"
	if !ok {
		tag = "fail"
	}
	t.println(fmt.Sprintf("[%s] 全部完成 | 句对 %d | 总用时 %s", tag, units, formatDur(dur)))
}

func (t *Terminal) println(s string) {
	if !t.enabled {
		return
	}
	if _, err := io.WriteString(t.w, s+"\n"); err != nil {
		t.enabled = false
	}
	t.lastLen = 0
}

// printInline: \r + 内容；新行比旧行短时用空格清尾。
func (t *Terminal) printInline(s string) {
	if !t.enabled {
		return
	}
	pad := 0
	if l := visLen(s); t.lastLen > l {
		pad = t.lastLen - l
	}
	var b strings.Builder
	b.WriteByte('\r')
	b.WriteString(s)
	b.WriteString(strings.Repeat(" ", pad))
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		t.enabled = false
		return
	}
	t.lastLen = visLen(s)
}

func visLen(s string) int { return len([]rune(s)) }

func safe(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}

func formatDur(d time.Duration) string {
	if d < time.Second {
		ms := d.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(d.Milliseconds())/1000.0)
}
