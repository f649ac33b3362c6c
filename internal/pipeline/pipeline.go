package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"amphialign/internal/diag"
	"amphialign/pkg/align"
	"amphialign/pkg/contract"
)

// - 单点并发：仅此层管理并发与背压；读取、对齐、导出、写出组件均为同步实现。
// - 保序：结果按行号落位，输出顺序与语料行序一致，与完成顺序无关。
// - 首错取消：任一行失败即 cancel 整体；排空后返回行号最小的错误，不返回部分结果。

// Components 聚合运行所需的组件。
type Components struct {
	Reader   contract.CorpusReader
	Aligner  contract.Aligner
	Exporter contract.Exporter
	Writer   contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// Offset/Limit: 行窗口；Limit<=0 表示不限。
	Offset int
	Limit  int
	// Concurrency: 对齐 worker 数；<1 视为 1。
	Concurrency int
	// Output: 导出产物标识，交给 Writer 映射为路径。
	Output string
}

// Window 返回 Settings 对应的行窗口。
func (s Settings) Window() contract.Window {
	return contract.Window{Offset: s.Offset, Limit: s.Limit}
}

// Run 执行完整流程：Load → Exporter → Writer。返回写出的句对数。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (int, error) {
	if comp.Exporter == nil || comp.Writer == nil {
		return 0, errors.New("pipeline: missing components")
	}
	if set.Output == "" {
		return 0, fmt.Errorf("%w: empty output id", contract.ErrInvalidInput)
	}
	runStart := time.Now()
	ok := false
	units := 0
	if t := diag.GetTerminal(); t != nil {
		t.RunStart(workers(set), describe(set.Window()))
		defer func() { t.RunFinish(ok, units, time.Since(runStart)) }()
	}

	out, err := Load(ctx, comp, set, logger)
	if err != nil {
		return 0, err
	}

	etimer := logger.Start("exporter", "export")
	r, err := comp.Exporter.Export(ctx, out)
	if err != nil {
		fail(logger, "exporter", "export failed", err)
		return 0, fmt.Errorf("exporter export: %w", err)
	}
	etimer.Finish("export", int64(len(out)))
	diag.IncOp("exporter", "finish", "success")

	wtimer := logger.StartKV("writer", "write", map[string]string{"id": set.Output})
	if err := comp.Writer.Write(ctx, contract.ArtifactID(set.Output), r); err != nil {
		fail(logger, "writer", "write failed", err)
		return 0, fmt.Errorf("writer write: %w", err)
	}
	wtimer.Finish("write", int64(len(out)))
	diag.IncOp("writer", "finish", "success")
	diag.ObserveDuration("pipeline", "run", time.Since(runStart).Milliseconds())

	ok = true
	units = len(out)
	return units, nil
}

// sources 为窗口内五个来源的全部内容。
type sources struct {
	links [][]contract.Link
	toks  [2][][]string
	texts [2][]string
}

// Load 读取窗口内的语料并逐行对齐两侧，得到按行序排列的 TextUnit。
// 读取顺序固定：links、source tokens、target tokens、source text、target text。
// 各来源行数不一致返回 ErrInvalidInput；任一行对齐失败返回 *contract.LineError。
func Load(ctx context.Context, comp Components, set Settings, logger *diag.Logger) ([]contract.TextUnit, error) {
	if comp.Reader == nil || comp.Aligner == nil {
		return nil, errors.New("pipeline: missing components")
	}
	src, n, err := readAll(ctx, comp.Reader, set.Window(), logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	phaseStart := time.Now()
	ok := false
	if t := diag.GetTerminal(); t != nil {
		t.PhaseStart("align", n)
		defer func() { t.PhaseFinish(ok, time.Since(phaseStart)) }()
	}
	atimer := logger.StartKV("aligner", "align", map[string]string{"lines": strconv.Itoa(n)})

	units := make([]contract.TextUnit, n)
	type res struct {
		idx int
		err error
	}
	nw := workers(set)
	// 有界通道：2×并发度，形成自然背压
	inCh := make(chan int, nw*2)
	outCh := make(chan res, nw*2)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for i := range inCh {
			if err := ctx.Err(); err != nil {
				outCh <- res{idx: i, err: err}
				continue
			}
			// 每个 worker 只写自己领到的下标
			u, err := alignLine(comp.Aligner, src, i, set.Offset, logger)
			if err == nil {
				units[i] = u
			}
			outCh <- res{idx: i, err: err}
		}
	}
	wg.Add(nw)
	for i := 0; i < nw; i++ {
		go worker()
	}

	go func() {
		defer close(inCh)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case inCh <- i:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outCh)
	}()

	var firstErr error
	firstIdx := n
	done, errCount := 0, 0
	for r := range outCh {
		done++
		if r.err != nil {
			errCount++
			// 取消引发的后续错误不覆盖真实失败
			var le *contract.LineError
			if errors.As(r.err, &le) && r.idx < firstIdx {
				firstErr, firstIdx = r.err, r.idx
			} else if firstErr == nil {
				firstErr = r.err
			}
			cancel()
		}
		if t := diag.GetTerminal(); t != nil {
			t.Progress(done, n, errCount)
		}
	}
	if firstErr == nil {
		// 生产者可能因外部取消提前退出
		if err := ctx.Err(); err != nil && done < n {
			firstErr = err
		}
	}
	if firstErr != nil {
		fail(logger, "aligner", "align failed", firstErr)
		return nil, firstErr
	}
	atimer.Finish("align", int64(n))
	diag.IncOp("aligner", "finish", "success")
	diag.ObserveDuration("aligner", "align", time.Since(phaseStart).Milliseconds())
	ok = true
	return units, nil
}

// readAll 顺序读取五个来源并校验行数一致，返回行数。
func readAll(ctx context.Context, r contract.CorpusReader, win contract.Window, logger *diag.Logger) (*sources, int, error) {
	var src sources
	var err error
	rtimer := logger.Start("reader", "read")
	if src.links, err = r.ReadLinks(ctx, win); err != nil {
		fail(logger, "reader", "read links failed", err)
		return nil, 0, err
	}
	for _, side := range contract.Sides {
		if src.toks[side], err = r.ReadTokens(ctx, side, win); err != nil {
			fail(logger, "reader", "read tokens failed", err)
			return nil, 0, err
		}
	}
	for _, side := range contract.Sides {
		if src.texts[side], err = r.ReadTexts(ctx, side, win); err != nil {
			fail(logger, "reader", "read text failed", err)
			return nil, 0, err
		}
	}
	n := len(src.links)
	counts := [5]int{n, len(src.toks[0]), len(src.toks[1]), len(src.texts[0]), len(src.texts[1])}
	for _, c := range counts[1:] {
		if c != n {
			err := fmt.Errorf("%w: line count mismatch links=%d tokens=%d/%d text=%d/%d",
				contract.ErrInvalidInput, counts[0], counts[1], counts[2], counts[3], counts[4])
			fail(logger, "reader", "line count mismatch", err)
			return nil, 0, err
		}
	}
	rtimer.Finish("read", int64(n))
	diag.IncOp("reader", "finish", "success")
	return &src, n, nil
}

// alignLine 先对齐 source 再对齐 target；line 为绝对行号。
func alignLine(a contract.Aligner, src *sources, i, offset int, logger *diag.Logger) (contract.TextUnit, error) {
	u := contract.TextUnit{
		Line:   offset + i,
		BiText: contract.BiText{Source: src.texts[contract.SideSource][i], Target: src.texts[contract.SideTarget][i]},
		Links:  src.links[i],
	}
	for _, side := range contract.Sides {
		toks, err := a.Align(u.BiText.Side(side), src.toks[side][i])
		if err != nil {
			logLineError(logger, u.Line, side, err)
			return contract.TextUnit{}, &contract.LineError{Line: u.Line, Side: side, Err: err}
		}
		if side == contract.SideSource {
			u.Tokens.Source = toks
		} else {
			u.Tokens.Target = toks
		}
	}
	logger.DebugLine("aligner", "line aligned", u.Line, map[string]string{
		"source_tokens": strconv.Itoa(len(u.Tokens.Source)),
		"target_tokens": strconv.Itoa(len(u.Tokens.Target)),
	})
	return u, nil
}

func logLineError(logger *diag.Logger, line int, side contract.Side, err error) {
	code := diag.Classify(err)
	diag.IncOp("aligner", "error", "error")
	diag.IncError("aligner", code)
	var kv map[string]string
	var ue *align.UnmatchedError
	if errors.As(err, &ue) {
		kv = map[string]string{
			"token_index":     strconv.Itoa(ue.TokenIndex),
			"cursor":          strconv.Itoa(ue.Cursor),
			"original_length": strconv.Itoa(ue.OriginalLength),
		}
		if rest := ue.Remaining(); len(rest) > 0 {
			kv["token"] = rest[0]
		}
	}
	logger.LineError("aligner", code, err.Error(), line, side.String(), kv)
}

// fail 记录组件级错误并累加指标。
func fail(logger *diag.Logger, comp, msg string, err error) {
	code := diag.Classify(err)
	logger.Error(comp, code, msg+": "+err.Error(), nil)
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, code)
	}
}

func workers(set Settings) int {
	if set.Concurrency < 1 {
		return 1
	}
	return set.Concurrency
}

func describe(w contract.Window) string {
	if w.Limit <= 0 {
		return fmt.Sprintf("offset=%d limit=all", w.Offset)
	}
	return fmt.Sprintf("offset=%d limit=%d", w.Offset, w.Limit)
}
