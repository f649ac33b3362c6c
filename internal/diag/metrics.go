package diag

import "sync"

// 进程内计数器。名称：
// - op_total{comp,stage,result}
// - error_total{comp,code}
// - op_duration_ms{comp,stage}
// 只做累加，导出由调用方通过 Snapshot 自行决定。
var (
	metricsMu sync.Mutex
	counters  = map[string]int64{}
)

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	add("op_total{"+comp+","+stage+","+result+"}", 1)
}

// IncError 按分类累加错误计数。
func IncError(comp string, code Code) {
	add("error_total{"+comp+","+string(code)+"}", 1)
}

// ObserveDuration 累加阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	add("op_duration_ms{"+comp+","+stage+"}", durMS)
}

func add(key string, n int64) {
	metricsMu.Lock()
	counters[key] += n
	metricsMu.Unlock()
}

// Snapshot 返回当前计数的副本。
func Snapshot() map[string]int64 {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	out := make(map[string]int64, len(counters))
	for k, v := range counters {
		out[k] = v
	}
	return out
}

// ResetMetrics 清空计数（测试用）。
func ResetMetrics() {
	metricsMu.Lock()
	counters = map[string]int64{}
	metricsMu.Unlock()
}
