package contract

import "context"

// LineSource: 按行读取分词结果与原文。
// 约束：
// 1) 每行对应一个语料行，顺序与文件一致；
// 2) 按 Window 跳过/截取，tokens 与 text 以同一窗口前进；
// 3) 一次性读完整个窗口，不与对齐交错；
// 4) 不在内部起并发。
type LineSource interface {
	// ReadTokens: 每行一组以空白分隔的 token。
	ReadTokens(ctx context.Context, side Side, win Window) ([][]string, error)
	// ReadTexts: 每行一条原始句子（仅去掉行尾换行符）。
	ReadTexts(ctx context.Context, side Side, win Window) ([]string, error)
}

// LinkSource: 按行读取词对齐链接；空行解析为空序列。
// 任一链接 token 非法即整体失败，不返回部分结果。
type LinkSource interface {
	ReadLinks(ctx context.Context, win Window) ([][]Link, error)
}

// CorpusReader 同时提供 token/原文/链接三类来源。
type CorpusReader interface {
	LineSource
	LinkSource
}
