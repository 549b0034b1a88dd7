package recall

import (
	"context"

	"github.com/rushteam/recserve/core"
)

// DefaultHotLimit 是热门召回的默认截断长度。
const DefaultHotLimit = 200

// Hot 是全局热门召回源：返回静态热门榜的前 N 个物品，与用户/环境无关。
// 同一份榜单也被冷启动链路用作兜底回填（见 coldstart 包）。
//
// 位次特征：pop_rank。
type Hot struct {
	Store PopularityStore

	// Limit 截断长度，<= 0 时取 DefaultHotLimit
	Limit int
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) RankFeature() string { return core.FeatPopRank }

func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]int64, error) {
	if r.Store == nil {
		return nil, nil
	}

	limit := r.Limit
	if limit <= 0 {
		limit = DefaultHotLimit
	}

	items, err := r.Store.TopItems(ctx, limit)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
