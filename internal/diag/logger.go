package diag

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// DefaultLogDir: 日志文件目录（相对工作目录）。
const DefaultLogDir = "logs"

// Logger 为最小结构化日志器：单行 JSON 写入轮转文件，失败时退回 stderr。
// 并发安全。
type Logger struct {
	corrID string
	level  Level
	sink   *RotatingFile
	mu     sync.Mutex
}

// NewLogger 按 level 初始化，日志写入 logs/，10MiB 轮转。
func NewLogger(corrID, level string) *Logger {
	return NewLoggerIn(DefaultLogDir, corrID, level)
}

// NewLoggerIn 与 NewLogger 相同，但日志写入 dir；dir 为空时只写 stderr。
func NewLoggerIn(dir, corrID, level string) *Logger {
	l := &Logger{corrID: corrID, level: parseLevel(strings.TrimSpace(level))}
	if dir != "" {
		l.sink = NewRotatingFile(dir, 10*1024*1024)
	}
	return l
}

// NewCorrID 生成一次运行的关联 ID（UUIDv4）。
func NewCorrID() string { return uuid.NewString() }

// CorrID 返回该日志器的关联 ID。
func (l *Logger) CorrID() string {
	if l == nil {
		return ""
	}
	return l.corrID
}

// Close 关闭底层文件。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

func parseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Event 为标准事件结构。
type Event struct {
	Level  string            `json:"level"`
	TS     string            `json:"ts"`
	CorrID string            `json:"corr_id"`
	Comp   string            `json:"comp"`
	Stage  string            `json:"stage"` // start|finish|error
	Code   string            `json:"code,omitempty"`
	DurMS  int64             `json:"dur_ms,omitempty"`
	Count  int64             `json:"count,omitempty"`
	Line   *int              `json:"line,omitempty"`
	Side   string            `json:"side,omitempty"`
	Msg    string            `json:"msg"`
	KV     map[string]string `json:"kv,omitempty"`
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil || lv < l.level {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sink == nil {
		_, _ = os.Stderr.Write(append(b, '\n'))
		return
	}
	if err := l.sink.WriteLine(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartKV(comp, msg, nil)
}

// StartKV 记录带键值的 start。
func (l *Logger) StartKV(comp, msg string, kv map[string]string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp string, code Code, msg string, durSince *time.Time) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: string(code), DurMS: sinceMS(durSince), Msg: msg})
}

// LineError 记录某一语料行、某一语言侧的失败，kv 附带定位信息。
func (l *Logger) LineError(comp string, code Code, msg string, line int, side string, kv map[string]string) {
	l.log(Error, Event{Comp: comp, Stage: "error", Code: string(code), Line: &line, Side: side, Msg: msg, KV: kv})
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(Info, Event{Comp: comp, Stage: "finish", DurMS: time.Since(start).Milliseconds(), Count: count, Msg: msg})
}

// DebugLine 输出单行处理的调试事件（仅 level=debug 时生效）。
func (l *Logger) DebugLine(comp, msg string, line int, kv map[string]string) {
	if l == nil || l.level > Debug {
		return
	}
	l.log(Debug, Event{Comp: comp, Stage: "finish", Line: &line, Msg: msg, KV: kv})
}

// DebugKV 输出调试级别的键值事件（仅 level=debug 时生效）。
func (l *Logger) DebugKV(comp, msg string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "start", Msg: msg, KV: kv})
}

func sinceMS(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return time.Since(*t).Milliseconds()
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	t0   time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, Msg: msg})
}

// Since 返回计时起点至今的耗时。
func (t *Timer) Since() time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(t.t0)
}
