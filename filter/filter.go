package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// Filter 是单个过滤器的接口：返回 true 表示该物品应被剔除。
type Filter interface {
	Name() string

	ShouldFilter(
		ctx context.Context,
		rctx *core.RecommendContext,
		item *core.Item,
	) (bool, error)
}
