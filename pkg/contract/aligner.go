package contract

// Aligner: 给定原文与其有序 token 序列，求出每个 token 在原文中的 code unit 区间。
// 约束：
//  1. 纯计算，无 I/O、无挂起点；
//  2. 同一输入得到逐位相同的结果；
//  3. 结果按偏移单调不减且互不重叠；
//  4. 失败时返回携带完整上下文的结构化错误，不做静默回退。
//
// 实现应可被多个 goroutine 并发调用。
type Aligner interface {
	Align(original string, tokens []string) ([]AlignedToken, error)
}
