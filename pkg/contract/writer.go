package contract

import (
	"context"
	"io"
)

// ArtifactID: 持久化工件标识（通常为相对路径）。
type ArtifactID string

// Exporter: 将一批 TextUnit 序列化为字节流（格式由实现决定）。
// 纯计算；ctx 仅用于提前取消。
type Exporter interface {
	Export(ctx context.Context, units []TextUnit) (io.Reader, error)
}

// Writer: 将导出结果以流式方式持久化到目标介质。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 流式写入，按字节透传，不读取/修改业务内容；
//  3. ctx 取消/超时需尽快返回；
//  4. 错误直接上抛（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
