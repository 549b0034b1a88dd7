package filter

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// SeenFilter 剔除用户最近一次点击的物品本身：
// i2i 近邻表偶尔会把 key 物品带进近邻列表，推给刚点过的东西没有意义。
// 默认 Pipeline 不挂此过滤器，需要时经配置挂载（filter.seen 节点）。
type SeenFilter struct{}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil || rctx.LastClick == core.NoLastClick {
		return false, nil
	}
	return item.ID == rctx.LastClick, nil
}
