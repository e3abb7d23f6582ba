package utils

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// BeginSubsegment はX-Rayのサブセグメントを開始し、終了関数を返します
// 親セグメントがない場合は何もしないので、トレース無効時やテストでも安全に呼び出せます
//
//	ctx, end := utils.BeginSubsegment(ctx, "ReservationEngine.Create")
//	defer func() { end(err) }()
func BeginSubsegment(ctx context.Context, name string) (context.Context, func(error)) {
	if xray.GetSegment(ctx) == nil {
		return ctx, func(error) {}
	}
	subCtx, seg := xray.BeginSubsegment(ctx, name)
	if seg == nil {
		return ctx, func(error) {}
	}
	return subCtx, func(err error) { seg.Close(err) }
}

// AddMetadata はサブセグメントが存在する場合のみメタデータを追加します
func AddMetadata(ctx context.Context, key string, value any) {
	seg := xray.GetSegment(ctx)
	if seg == nil {
		return
	}
	_ = seg.AddMetadata(key, value)
}
